package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Credential failures surfaced by the token middleware. They all map to a
// 401 at the HTTP boundary; the distinct kinds exist for logging and tests.
var (
	ErrMissingCredential   = errors.New("authorization header is missing")
	ErrMalformedCredential = errors.New("authorization header is malformed")
	ErrRevokedCredential   = errors.New("token has been revoked")
	ErrInvalidCredential   = errors.New("invalid or expired token")
	ErrPrincipalNotFound   = errors.New("user not found or inactive")
)

type Authenticator interface {
	GenerateToken(userID int64, role string) (string, error)
	ValidateToken(token string) (*jwt.Token, error)
}
