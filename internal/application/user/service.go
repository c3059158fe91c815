package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/go-broadcast-api/internal/domain"
	"github.com/go-broadcast-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus    = "status"
	fieldAvatarKey = "avatar_key"
)

// Service is the membership directory: registration, lookup, avatar storage
// and the status transitions that decide broadcast eligibility.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateStatus(ctx context.Context, userID, status string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID, filename, contentType string, r io.Reader) (*domain.User, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type sessionRevoker interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo     userStore
	sessions sessionRevoker // nil-safe: suspension skips session revocation
	avatars  avatarStore    // nil-safe: avatar uploads are rejected
}

type ServiceDeps struct {
	Repo     userStore
	Sessions sessionRevoker
	Avatars  avatarStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.Repo, sessions: deps.Sessions, avatars: deps.Avatars}
}

// Register creates a member in pending status. Membership must be approved
// by an admin before the member becomes an eligible broadcast recipient.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleMember,
		Status:       domain.StatusPending,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateStatus moves a member between pending/approved/suspended. Suspension
// also revokes the member's live sessions so they cannot keep acting on an
// already-issued token's session.
func (s *service) UpdateStatus(ctx context.Context, userID, status string) (*domain.User, error) {
	switch status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusSuspended:
	default:
		return nil, fmt.Errorf("invalid status: %w", domain.ErrBadRequest)
	}
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldStatus: status}); err != nil {
		return nil, err
	}
	if status == domain.StatusSuspended && s.sessions != nil {
		if err := s.sessions.SoftDeleteByUser(ctx, userID); err != nil {
			slog.Warn("failed to revoke sessions of suspended user", "user_id", userID, "err", err)
		}
	}
	return s.repo.Get(ctx, userID)
}

// UpdateAvatar stores the image under a fresh S3 key, points the user record
// at it and removes the previous object. The old object is only deleted after
// the record switch so a failed upload never leaves a dangling avatar_key.
func (s *service) UpdateAvatar(ctx context.Context, userID, filename, contentType string, r io.Reader) (*domain.User, error) {
	if s.avatars == nil {
		return nil, fmt.Errorf("avatar storage not configured: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("avatars/%s/%s%s", userID, id.New(), path.Ext(filename))
	if err := s.avatars.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatarKey: key}); err != nil {
		return nil, err
	}
	if u.AvatarKey != "" {
		if err := s.avatars.Delete(ctx, u.AvatarKey); err != nil {
			slog.Warn("failed to delete previous avatar", "user_id", userID, "key", u.AvatarKey, "err", err)
		}
	}
	return s.repo.Get(ctx, userID)
}
