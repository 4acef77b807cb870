package jwthelper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	nonce, state, err := NewState(key, time.Minute)
	require.NoError(t, err)

	assert.NoError(t, VerifyState(key, state, nonce))
	assert.ErrorIs(t, VerifyState(key, state, "other"), ErrInvalidToken)
	assert.ErrorIs(t, VerifyState(key, state, ""), ErrInvalidToken)
	assert.ErrorIs(t, VerifyState([]byte("other"), state, nonce), ErrInvalidToken)

	// A state is not a session token.
	_, err = ParseToken(key, state)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, expired, err := NewState(key, -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, VerifyState(key, expired, nonce), ErrInvalidToken)
}
