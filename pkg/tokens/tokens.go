// Package tokens generates and parses the signed opaque strings used as
// access and refresh tokens. The services never trust the signature alone:
// every token is validated against the token store, the signature only makes
// the strings collision-resistant and lets the transport layer read claims
// without a store round-trip.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

func (i *Issuer) NewAccessToken(userID string, exp time.Time) (string, error) {
	return sign(userID, TypeAccess, exp, i.AccessSecret)
}

func (i *Issuer) NewRefreshToken(userID string, exp time.Time) (string, error) {
	return sign(userID, TypeRefresh, exp, i.RefreshSecret)
}

func sign(userID, tokenType string, exp time.Time, secret []byte) (string, error) {
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ClaimsFromToken(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
