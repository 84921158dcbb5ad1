package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pty0735/routinely/internal"
)

// LocalAuthProvider verifies HMAC-signed bearer tokens against a shared
// secret. Claims mirror what the auth service issues: userId, email, name.
type LocalAuthProvider struct {
	secret []byte
	logger internal.Logger
}

func NewLocalAuthProvider(secret string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{secret: []byte(secret), logger: logger}
}

func (a *LocalAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		a.logger.Warnf("invalid token: %v", err)
		return nil, errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return nil, errors.New("token has no userId claim")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &internal.User{ID: userID, Email: email, Name: name}, nil
}

func (a *LocalAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error) {
	a.logger.Warnf("ValidateTokenRemote not implemented in LocalAuthProvider")
	return nil, errors.New("not implemented in LocalAuthProvider")
}
