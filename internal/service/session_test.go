package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

func TestRandomSessionCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := randomSessionCode()
		require.NoError(t, err)
		require.Len(t, code, sessionCodeLength)
		for _, r := range code {
			assert.Contains(t, sessionCodeAlphabet, string(r))
		}
	}
}

func TestSessionService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(newFakeSessionRepo())
	guide := identityWith(domain.RoleVolunteer)
	climber := identityWith(domain.RoleClimber)

	session, err := svc.CreateSession(ctx, guide)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionWaiting, session.Status)
	assert.Len(t, session.Code, sessionCodeLength)

	// Completing before pairing is not allowed.
	_, err = svc.CompleteSession(ctx, guide, session.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	joined, err := svc.JoinSession(ctx, climber, " "+session.Code+" ")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, joined.Status)
	require.NotNil(t, joined.ClimberID)
	assert.Equal(t, climber.Profile.ID, *joined.ClimberID)

	_, err = svc.JoinSession(ctx, identityWith(domain.RoleClimber), session.Code)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.CompleteSession(ctx, identityWith(domain.RoleLead), session.ID)
	assert.ErrorIs(t, err, ErrNotSessionMember)

	done, err := svc.CompleteSession(ctx, climber, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, done.Status)

	_, err = svc.CompleteSession(ctx, guide, session.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionService_Capabilities(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(newFakeSessionRepo())

	_, err := svc.CreateSession(ctx, identityWith(domain.RoleClimber))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	session, err := svc.CreateSession(ctx, identityWith(domain.RoleLead))
	require.NoError(t, err)

	_, err = svc.JoinSession(ctx, identityWith(domain.RoleVolunteer), session.Code)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.JoinSession(ctx, identityWith(domain.RoleClimber), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_RetriesTakenCodes(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	repo.taken["AAAAAA"] = true
	svc := NewSessionService(repo)

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	session, err := svc.CreateSession(ctx, identityWith(domain.RoleLead))
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", session.Code)

	svc.newCode = func() (string, error) { return "AAAAAA", nil }
	_, err = svc.CreateSession(ctx, identityWith(domain.RoleLead))
	assert.Error(t, err)
}

func TestSessionService_ConcurrentTransitionIsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo)

	session, err := svc.CreateSession(ctx, identityWith(domain.RoleLead))
	require.NoError(t, err)

	repo.conflict = true
	_, err = svc.JoinSession(ctx, identityWith(domain.RoleClimber), session.Code)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionService_GetAndQR(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(newFakeSessionRepo())
	guide := identityWith(domain.RoleLead)

	session, err := svc.CreateSession(ctx, guide)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, guide, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Code, got.Code)

	_, err = svc.GetSession(ctx, identityWith(domain.RoleClimber), session.ID)
	assert.ErrorIs(t, err, ErrNotSessionMember)

	_, err = svc.GetSession(ctx, guide, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	png, err := svc.SessionQR(ctx, guide, session.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
