// Package auth hashes operator passwords and issues the bearer tokens the
// API accepts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tphummel/ict_assets/internal/models"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// signed with another key.
var ErrInvalidToken = errors.New("invalid or expired token")

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Identity is the authenticated operator carried by a session token.
type Identity struct {
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	PersonalNumber string      `json:"personal_number"`
	Role           models.Role `json:"role"`
}

// CanMutate reports whether the identity may change inventory state.
func (i Identity) CanMutate() bool {
	return i.Role == models.RoleAdmin || i.Role == models.RoleICTOfficer
}

// IsAdmin reports whether the identity has the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type sessionClaims struct {
	Name           string      `json:"name"`
	PersonalNumber string      `json:"pno"`
	Role           models.Role `json:"role"`
	jwt.RegisteredClaims
}

const sessionIssuer = "ict_assets"

// Issuer signs and verifies session tokens with an HMAC key.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer returns an Issuer using secret for HS256 signatures.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for id and its expiry.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := sessionClaims{
		Name:           id.Name,
		PersonalNumber: id.PersonalNumber,
		Role:           id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and returns the identity it carries.
func (i *Issuer) Verify(token string) (Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !models.ValidRoles[claims.Role] {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:         claims.Subject,
		Name:           claims.Name,
		PersonalNumber: claims.PersonalNumber,
		Role:           claims.Role,
	}, nil
}
