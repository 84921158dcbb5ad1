package api

import (
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/service"
)

// App is what every handler needs from the composition root.
type App interface {
	Logger() internal.Logger
	Deps() service.Deps
}

type appImpl struct {
	deps service.Deps
}

func NewApp(deps service.Deps) App {
	return &appImpl{deps: deps}
}

func (a *appImpl) Logger() internal.Logger { return a.deps.Log }
func (a *appImpl) Deps() service.Deps      { return a.deps }
