package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidClaims = errors.New("token claims are invalid")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is who a request acts for, as carried in the access token.
type Identity struct {
	UserID int64
	Role   Role
	Email  string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type Authenticator interface {
	GenerateToken(id Identity, ttl time.Duration) (string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	Identify(token string) (Identity, error)
}
