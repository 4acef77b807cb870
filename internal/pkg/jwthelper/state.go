package jwthelper

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateAudience = "acg-oauth-state"

// NewState returns a random nonce for the state cookie and a signed state
// parameter that carries the same nonce until ttl elapses.
func NewState(key []byte, ttl time.Duration) (nonce, state string, err error) {
	buf := make([]byte, 16)
	if _, err = rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("rand.Read -> %w", err)
	}
	nonce = base64.RawURLEncoding.EncodeToString(buf)

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        nonce,
		Audience:  []string{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	state, err = token.SignedString(key)
	if err != nil {
		return "", "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return nonce, state, nil
}

// VerifyState checks the signature and expiry of state and that it carries
// the nonce from the cookie.
func VerifyState(key []byte, state, nonce string) error {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(state, claims, func(_ *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if nonce == "" || claims.ID != nonce {
		return ErrInvalidToken
	}

	return nil
}
