// Package auth is the token-validation collaborator. The service never
// issues or refreshes credentials; it only resolves a bearer token to a
// user, locally in development or through the auth service elsewhere.
package auth

import (
	"context"

	"github.com/pty0735/routinely/internal"
)

type Provider interface {
	ValidateTokenLocal(token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}
