package notification

import (
	"context"
	"fmt"

	"github.com/go-broadcast-api/internal/domain"
)

// Service is the recipient-side inbox. Read/archive flags are owned by the
// recipient; the announcement engine only ever reads them back.
type Service interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	Archive(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
}

type store interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkArchived(ctx context.Context, notificationID string) error
}

type service struct {
	repo store
}

func NewService(repo store) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	return s.mutate(ctx, notificationID, userID, s.repo.MarkRead)
}

func (s *service) Archive(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	return s.mutate(ctx, notificationID, userID, s.repo.MarkArchived)
}

// mutate enforces recipient ownership before flipping a flag.
func (s *service) mutate(ctx context.Context, notificationID, userID string, op func(context.Context, string) error) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("not the recipient: %w", domain.ErrForbidden)
	}
	if err := op(ctx, notificationID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, notificationID)
}
