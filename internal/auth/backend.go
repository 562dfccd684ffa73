package auth

import (
	"fmt"

	"github.com/dukerupert/superlists/internal/model"
)

// TokenConsumer removes a login token so it cannot be used twice.
// A nil token with a nil error means the uid was unknown or already used.
type TokenConsumer interface {
	Consume(uid string) (*model.Token, error)
}

type UserGetOrCreator interface {
	GetOrCreate(email string) (*model.User, error)
}

// Backend authenticates users from one-time emailed login tokens.
type Backend struct {
	tokens TokenConsumer
	users  UserGetOrCreator
}

func NewBackend(tokens TokenConsumer, users UserGetOrCreator) *Backend {
	return &Backend{tokens: tokens, users: users}
}

// Authenticate consumes the token identified by uid and returns the user it
// was issued for, creating the user on first login. An unknown or already
// consumed uid returns nil, nil.
func (b *Backend) Authenticate(uid string) (*model.User, error) {
	if uid == "" {
		return nil, nil
	}

	tok, err := b.tokens.Consume(uid)
	if err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	if tok == nil {
		return nil, nil
	}

	user, err := b.users.GetOrCreate(tok.Email)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return user, nil
}
