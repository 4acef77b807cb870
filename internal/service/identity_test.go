package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acg-climbing/sessions-api/internal/cache"
	"github.com/acg-climbing/sessions-api/internal/domain"
)

func seedSession(t *testing.T, profiles *fakeProfileRepo, sessions *fakeAuthSessionRepo, role domain.Role, expiresAt time.Time) (domain.Profile, domain.AuthSession) {
	t.Helper()

	profile, err := profiles.Create(context.Background(), domain.Profile{Email: uuid.NewString() + "@acg.example", Role: role})
	require.NoError(t, err)

	session, err := sessions.Create(context.Background(), domain.AuthSession{UserID: profile.ID, CreatedAt: testNow, ExpiresAt: expiresAt})
	require.NoError(t, err)

	return profile, session
}

func TestIdentityService_ResolveCachesPerSession(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo()
	sessions := newFakeAuthSessionRepo()
	svc := NewIdentityService(profiles, sessions, cache.NewMemory(), time.Minute)
	svc.now = fixedClock

	profile, session := seedSession(t, profiles, sessions, domain.RoleLead, testNow.Add(time.Hour))

	identity, err := svc.Resolve(ctx, session.ID, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLead, identity.Profile.Role)
	assert.Contains(t, identity.Capabilities, domain.CapCreateEvent)

	_, err = svc.Resolve(ctx, session.ID, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.lookups, "second resolve is served from the cache")
}

func TestIdentityService_ResolveRejects(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo()
	sessions := newFakeAuthSessionRepo()
	svc := NewIdentityService(profiles, sessions, cache.NewMemory(), time.Minute)
	svc.now = fixedClock

	profile, expired := seedSession(t, profiles, sessions, domain.RoleClimber, testNow)
	_, active := seedSession(t, profiles, sessions, domain.RoleClimber, testNow.Add(time.Hour))

	_, err := svc.Resolve(ctx, expired.ID, profile.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated, "expired session")

	_, err = svc.Resolve(ctx, active.ID, profile.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated, "session belongs to someone else")

	_, err = svc.Resolve(ctx, uuid.New(), profile.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated, "unknown session")
}

func TestIdentityService_UpdateFullName(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo()
	sessions := newFakeAuthSessionRepo()
	svc := NewIdentityService(profiles, sessions, cache.NewMemory(), time.Minute)
	svc.now = fixedClock

	profile, session := seedSession(t, profiles, sessions, domain.RoleVolunteer, testNow.Add(time.Hour))
	identity, err := svc.Resolve(ctx, session.ID, profile.ID)
	require.NoError(t, err)

	renamed, err := svc.UpdateFullName(ctx, identity, "Robin")
	require.NoError(t, err)
	require.NotNil(t, renamed.Profile.FullName)
	assert.Equal(t, "Robin", *renamed.Profile.FullName)
}

func TestIdentityService_UpdateFullNameRefreshesEverySession(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfileRepo()
	sessions := newFakeAuthSessionRepo()
	svc := NewIdentityService(profiles, sessions, cache.NewMemory(), time.Minute)
	svc.now = fixedClock

	profile, laptop := seedSession(t, profiles, sessions, domain.RoleClimber, testNow.Add(time.Hour))
	phone, err := sessions.Create(ctx, domain.AuthSession{UserID: profile.ID, CreatedAt: testNow, ExpiresAt: testNow.Add(time.Hour)})
	require.NoError(t, err)

	identity, err := svc.Resolve(ctx, laptop.ID, profile.ID)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, phone.ID, profile.ID)
	require.NoError(t, err)

	_, err = svc.UpdateFullName(ctx, identity, "Robin")
	require.NoError(t, err)

	other, err := svc.Resolve(ctx, phone.ID, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, other.Profile.FullName)
	assert.Equal(t, "Robin", *other.Profile.FullName)
}
