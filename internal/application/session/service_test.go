package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-broadcast-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newTestService(users *mockUserStore, sessions *mockSessionStore, signer *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		SessionRepo:     sessions,
		UserRepo:        users,
		JWTProvider:     signer,
		SessionLifetime: 72 * time.Hour,
		RefreshTokenDur: 30 * 24 * time.Hour,
	})
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Login tests ---

func TestLogin_HappyPath(t *testing.T) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	signer := &mockJWTSigner{}

	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", Username: "alice", Role: domain.RoleAdmin,
		Status: domain.StatusApproved, PasswordHash: hashOf(t, "secret123"),
	}, nil)
	sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "u1" && s.Enable && s.ExpiresAt > time.Now().Unix()
	})).Return(nil)
	signer.On("Sign", "u1", domain.RoleAdmin, mock.Anything).Return("bearer-token", nil)

	svc := newTestService(users, sessions, signer)
	result, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", result.Bearer)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "u1", result.Session.UserID)
	sessions.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	signer := &mockJWTSigner{}
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", PasswordHash: hashOf(t, "secret123"), Status: domain.StatusApproved,
	}, nil)

	svc := newTestService(users, sessions, signer)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})
	assert.EqualError(t, err, "invalid credentials")
	sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	signer := &mockJWTSigner{}
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID: "u1", PasswordHash: hashOf(t, "secret123"), Status: domain.StatusSuspended,
	}, nil)

	svc := newTestService(users, sessions, signer)
	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret123"})
	assert.EqualError(t, err, "account suspended")
}

func TestLogin_FallsBackToEmail(t *testing.T) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	signer := &mockJWTSigner{}
	users.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID: "u1", Role: domain.RoleMember, Status: domain.StatusApproved,
		PasswordHash: hashOf(t, "secret123"),
	}, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", "u1", domain.RoleMember, mock.Anything).Return("bearer-token", nil)

	svc := newTestService(users, sessions, signer)
	result, err := svc.Login(context.Background(), LoginRequest{Username: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", result.Bearer)
}

// --- Validate tests ---

func TestValidate_AliveSession(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{
		SessionID: "s1", Enable: true, ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc := newTestService(&mockUserStore{}, sessions, &mockJWTSigner{})
	assert.NoError(t, svc.Validate(context.Background(), "s1"))
}

func TestValidate_DisabledSession(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{
		SessionID: "s1", Enable: false, ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc := newTestService(&mockUserStore{}, sessions, &mockJWTSigner{})
	assert.EqualError(t, svc.Validate(context.Background(), "s1"), "session expired")
}

func TestValidate_LifetimeWindowElapsed(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{
		SessionID: "s1", Enable: true, ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil)

	svc := newTestService(&mockUserStore{}, sessions, &mockJWTSigner{})
	assert.EqualError(t, svc.Validate(context.Background(), "s1"), "session expired")
}

// --- Refresh tests ---

func TestRefresh_RotatesToken(t *testing.T) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	signer := &mockJWTSigner{}

	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", UserID: "u1",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleMember}, nil)
	signer.On("Sign", "u1", domain.RoleMember, "s1").Return("new-bearer", nil)

	svc := newTestService(users, sessions, signer)
	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID: "s1", RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	svc := newTestService(&mockUserStore{}, sessions, &mockJWTSigner{})
	_, _, err := svc.Refresh(context.Background(), "old-token")
	assert.EqualError(t, err, "refresh token expired")
}

// --- Logout ---

func TestLogout_DisablesSession(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	svc := newTestService(&mockUserStore{}, sessions, &mockJWTSigner{})
	require.NoError(t, svc.Logout(context.Background(), "s1"))
	sessions.AssertExpectations(t)
}
