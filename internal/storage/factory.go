package storage

import (
	"fmt"
	"io"

	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/config"
)

// Repositories bundles the storage interfaces one backend serves.
type Repositories struct {
	Users    UserRepository
	Goals    GoalRepository
	Routines RoutineRepository
}

func NewRepositories(cfg *config.Config, logger internal.Logger) (Repositories, io.Closer, error) {
	switch cfg.StorageBackend {
	case "postgres":
		s, err := NewPostgresStorage(cfg.PostgresDSN, logger)
		if err != nil {
			return Repositories{}, nil, err
		}
		return Repositories{Users: s, Goals: s, Routines: s}, s, nil
	case "file":
		s, err := NewFileStorage(cfg.DataDir, logger)
		if err != nil {
			return Repositories{}, nil, err
		}
		return Repositories{Users: s, Goals: s, Routines: s}, s, nil
	default:
		return Repositories{}, nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
