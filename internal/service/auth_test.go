package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/acg-climbing/sessions-api/internal/cache"
	"github.com/acg-climbing/sessions-api/internal/config"
	"github.com/acg-climbing/sessions-api/internal/domain"
)

type mockGoogle struct {
	mock.Mock
}

func (m *mockGoogle) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *mockGoogle) Exchange(ctx context.Context, code string) (GoogleUser, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(GoogleUser), args.Error(1)
}

type authFixture struct {
	svc        *AuthService
	profiles   *fakeProfileRepo
	sessions   *fakeAuthSessionRepo
	identities *IdentityService
	google     *mockGoogle
}

func newAuthFixture(withGoogle bool) authFixture {
	profiles := newFakeProfileRepo()
	sessions := newFakeAuthSessionRepo()
	identities := NewIdentityService(profiles, sessions, cache.NewMemory(), time.Minute)
	identities.now = fixedClock

	conf := &config.AuthConfig{
		TokenTTL:   24 * time.Hour,
		LeadEmails: []string{"Coach@ACG.example"},
	}

	f := authFixture{profiles: profiles, sessions: sessions, identities: identities}

	var google GoogleProvider
	if withGoogle {
		f.google = &mockGoogle{}
		google = f.google
	}

	f.svc = NewAuthService(profiles, sessions, google, identities, conf)
	f.svc.now = fixedClock

	return f
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)

	profile, session, err := f.svc.Signup(ctx, domain.Profile{Email: " New@Climber.example ", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "new@climber.example", profile.Email)
	assert.Equal(t, domain.RoleClimber, profile.Role)
	assert.NotEqual(t, "s3cretpass", profile.Password)
	assert.Equal(t, profile.ID, session.UserID)
	assert.Equal(t, testNow.Add(24*time.Hour), session.ExpiresAt)

	_, _, err = f.svc.Signup(ctx, domain.Profile{Email: "new@climber.example", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrProfileEmailExists)

	_, _, err = f.svc.Login(ctx, "NEW@climber.example", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, _, err = f.svc.Login(ctx, "nobody@climber.example", "s3cretpass")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	loggedIn, _, err := f.svc.Login(ctx, "new@climber.example", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, loggedIn.ID)
}

func TestAuthService_SignupNeverGrantsLead(t *testing.T) {
	f := newAuthFixture(false)

	profile, _, err := f.svc.Signup(context.Background(), domain.Profile{Email: "coach@acg.example", Password: "s3cretpass"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleClimber, profile.Role)
}

func TestAuthService_GoogleProvisionsLeads(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(true)
	f.google.On("Exchange", ctx, "code").Return(GoogleUser{Email: "coach@acg.example", Name: "Coach"}, nil)

	profile, _, err := f.svc.GoogleCallback(ctx, "code")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleLead, profile.Role)
}

func TestAuthService_GoogleReclaimsPasswordProfile(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(true)

	squatter, squatterSession, err := f.svc.Signup(ctx, domain.Profile{Email: "coach@acg.example", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClimber, squatter.Role)

	_, err = f.identities.Resolve(ctx, squatterSession.ID, squatter.ID)
	require.NoError(t, err)

	f.google.On("Exchange", ctx, "code").Return(GoogleUser{Email: "Coach@ACG.example", Name: "Coach"}, nil)
	owner, ownerSession, err := f.svc.GoogleCallback(ctx, "code")
	require.NoError(t, err)

	assert.Equal(t, squatter.ID, owner.ID)
	assert.Equal(t, domain.RoleLead, owner.Role)
	assert.Empty(t, owner.Password)
	require.NotNil(t, owner.FullName)
	assert.Equal(t, "Coach", *owner.FullName)

	_, _, err = f.svc.Login(ctx, "coach@acg.example", "s3cretpass")
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = f.identities.Resolve(ctx, squatterSession.ID, squatter.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	identity, err := f.identities.Resolve(ctx, ownerSession.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLead, identity.Profile.Role)

	f.google.AssertExpectations(t)
}

func TestAuthService_GoogleCallback(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(true)
	f.google.On("Exchange", ctx, "code-1").Return(GoogleUser{Email: "Ada@Gmail.com", Name: "Ada"}, nil).Twice()

	first, session, err := f.svc.GoogleCallback(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@gmail.com", first.Email)
	require.NotNil(t, first.FullName)
	assert.Equal(t, "Ada", *first.FullName)
	assert.Equal(t, domain.ProviderGoogle, session.Provider)

	again, _, err := f.svc.GoogleCallback(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "second sign-in reuses the profile")
	assert.Len(t, f.profiles.byID, 1)

	// Google accounts have no password to log in with.
	_, _, err = f.svc.Login(ctx, "ada@gmail.com", "anything")
	assert.ErrorIs(t, err, ErrNoPassword)

	f.google.AssertExpectations(t)
}

func TestAuthService_GoogleErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newAuthFixture(false).svc.GoogleLoginURL("state")
	assert.ErrorIs(t, err, ErrOAuthDisabled)

	f := newAuthFixture(true)
	f.google.On("AuthCodeURL", "state").Return("https://accounts.google.com/o/oauth2/auth?state=state")
	url, err := f.svc.GoogleLoginURL("state")
	require.NoError(t, err)
	assert.Contains(t, url, "state=state")

	f.google.On("Exchange", ctx, "bad").Return(GoogleUser{}, errors.New("invalid_grant"))
	_, _, err = f.svc.GoogleCallback(ctx, "bad")
	assert.Error(t, err)
	assert.Empty(t, f.profiles.byID)
}

func TestAuthService_LogoutRevokesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)

	profile, session, err := f.svc.Signup(ctx, domain.Profile{Email: "a@acg.example", Password: "s3cretpass"})
	require.NoError(t, err)

	_, err = f.identities.Resolve(ctx, session.ID, profile.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, session.ID))

	_, err = f.identities.Resolve(ctx, session.ID, profile.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

type recordingInvalidator struct {
	sessions []uuid.UUID
	users    []uuid.UUID
	err      error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, sessionID uuid.UUID) error {
	r.sessions = append(r.sessions, sessionID)
	return r.err
}

func (r *recordingInvalidator) InvalidateUser(_ context.Context, userID uuid.UUID) error {
	r.users = append(r.users, userID)
	return r.err
}

func TestInvalidators_ReachesEveryHolder(t *testing.T) {
	ctx := context.Background()
	failing := &recordingInvalidator{err: errors.New("redis down")}
	feed := &recordingInvalidator{}
	all := Invalidators{failing, feed}

	sessionID, userID := uuid.New(), uuid.New()

	assert.Error(t, all.Invalidate(ctx, sessionID))
	assert.Error(t, all.InvalidateUser(ctx, userID))

	assert.Equal(t, []uuid.UUID{sessionID}, feed.sessions, "a failing holder does not stop the rest")
	assert.Equal(t, []uuid.UUID{userID}, feed.users)
}

func TestAuthService_LogoutClosesFeed(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(false)
	feed := &recordingInvalidator{}
	f.svc.identities = Invalidators{f.identities, feed}

	_, session, err := f.svc.Signup(ctx, domain.Profile{Email: "a@acg.example", Password: "s3cretpass"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, session.ID))
	assert.Equal(t, []uuid.UUID{session.ID}, feed.sessions)
}
