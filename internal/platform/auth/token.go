package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleClinician || r == RolePatient
}

var ErrInvalidToken = errors.New("invalid token")

// Claims is the bearer token payload: the account id and its role.
type Claims struct {
	jwt.RegisteredClaims
	ID   int64 `json:"id"`
	Type Role  `json:"type"`
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the given account.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	if !id.Role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", id.Role)
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		ID:   id.ID,
		Type: id.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the caller identity.
func (t *TokenIssuer) Parse(tokenStr string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.ID <= 0 || !claims.Type.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.ID, Role: claims.Type}, nil
}
