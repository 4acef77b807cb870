package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	guide, climber := uuid.New(), uuid.New()
	s := ActiveSession{GuideID: &guide, Status: SessionWaiting}

	assert.ErrorIs(t, s.Complete(guide), ErrInvalidTransition)
	assert.ErrorIs(t, s.Pair(guide), ErrInvalidTransition)

	require.NoError(t, s.Pair(climber))
	assert.Equal(t, SessionActive, s.Status)
	assert.Equal(t, climber, *s.ClimberID)

	assert.ErrorIs(t, s.Pair(uuid.New()), ErrInvalidTransition)
	assert.ErrorIs(t, s.Complete(uuid.New()), ErrNotSessionMember)

	require.NoError(t, s.Complete(climber))
	assert.Equal(t, SessionCompleted, s.Status)
	assert.ErrorIs(t, s.Complete(guide), ErrInvalidTransition)
}

func TestProfileNames(t *testing.T) {
	p := Profile{Email: "sam.rivera@acg.example"}
	assert.Equal(t, DefaultCreatorName, p.DisplayName())
	assert.Equal(t, "sam.rivera", p.ShortName())

	name := "Sam Rivera"
	p.FullName = &name
	assert.Equal(t, "Sam Rivera", p.DisplayName())
	assert.Equal(t, "Sam Rivera", p.ShortName())

	role, ok := ParseRole("volunteer")
	assert.True(t, ok)
	assert.Equal(t, RoleVolunteer, role)
	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
