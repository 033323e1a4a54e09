package auth

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type AccessClaims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}
