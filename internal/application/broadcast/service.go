package broadcast

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-broadcast-api/internal/domain"
	"github.com/go-broadcast-api/internal/pkg/id"
)

// Service is the announcement fan-out and aggregation engine. An operator
// sends one announcement; the engine writes one deliverable record per
// resolved recipient and later rebuilds logical announcements from those
// records by grouping on content identity.
type Service interface {
	Send(ctx context.Context, senderID string, req domain.SendAnnouncementRequest) (recipientCount int, err error)
	List(ctx context.Context) ([]domain.AnnouncementSummary, error)
	Detail(ctx context.Context, representativeID string) (*domain.AnnouncementDetail, error)
	Delete(ctx context.Context, representativeID string) (deletedCount int, err error)
}

type directory interface {
	ListByStatus(ctx context.Context, status string) ([]domain.User, error)
	GetMany(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
}

type notificationStore interface {
	PutBatch(ctx context.Context, records []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByKind(ctx context.Context, kind string) ([]domain.Notification, error)
	ListGroup(ctx context.Context, f domain.GroupFilter) ([]domain.Notification, error)
	DeleteGroup(ctx context.Context, f domain.GroupFilter) (int, error)
}

type avatarStore interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	repo         notificationStore
	directory    directory
	stats        StatsFetcher
	avatars      avatarStore // nil-safe: profiles degrade to no avatar URL
	avatarURLTTL time.Duration
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	UserRepo         directory
	Stats            StatsFetcher // defaults to member-scan when nil
	Avatars          avatarStore
	AvatarURLTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	stats := deps.Stats
	if stats == nil {
		stats = NewMemberScanStats(deps.NotificationRepo)
	}
	return &service{
		repo:         deps.NotificationRepo,
		directory:    deps.UserRepo,
		stats:        stats,
		avatars:      deps.Avatars,
		avatarURLTTL: deps.AvatarURLTTL,
	}
}

// Send resolves the recipient set, fans the announcement out as one record
// per recipient and writes the batch. Re-sending identical content from the
// same sender merges into the existing logical group; callers retrying a
// failed send must be aware of that.
func (s *service) Send(ctx context.Context, senderID string, req domain.SendAnnouncementRequest) (int, error) {
	recipientIDs, err := s.resolveRecipients(ctx, req)
	if err != nil {
		return 0, err
	}

	key := GroupKey(senderID, req.Title, req.Body)
	now := time.Now().UTC()
	records := make([]domain.Notification, 0, len(recipientIDs))
	for _, uid := range recipientIDs {
		records = append(records, domain.Notification{
			NotificationID: id.New(),
			UserID:         uid,
			Kind:           domain.KindBroadcast,
			Title:          req.Title,
			Body:           req.Body,
			ActionLink:     req.ActionLink,
			SenderID:       senderID,
			GroupKey:       key,
			IsRead:         false,
			IsArchived:     false,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := s.repo.PutBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return len(records), nil
}

// resolveRecipients turns the request into the final deduplicated set of
// approved member IDs. Explicit candidates that are not approved are dropped
// silently; that is directory policy, not an error.
func (s *service) resolveRecipients(ctx context.Context, req domain.SendAnnouncementRequest) ([]string, error) {
	seen := make(map[string]bool)
	var recipients []string

	if req.SendToAll {
		members, err := s.directory.ListByStatus(ctx, domain.StatusApproved)
		if err != nil {
			return nil, err
		}
		for i := range members {
			if !seen[members[i].UserID] {
				seen[members[i].UserID] = true
				recipients = append(recipients, members[i].UserID)
			}
		}
	} else {
		unique := make([]string, 0, len(req.RecipientIDs))
		for _, uid := range req.RecipientIDs {
			if !seen[uid] {
				seen[uid] = true
				unique = append(unique, uid)
			}
		}
		members, err := s.directory.GetMany(ctx, unique)
		if err != nil {
			return nil, err
		}
		for _, uid := range unique {
			if m, ok := members[uid]; ok && m.Status == domain.StatusApproved {
				recipients = append(recipients, uid)
			}
		}
	}

	if len(recipients) == 0 {
		return nil, domain.ErrNoRecipients
	}
	return recipients, nil
}

// List rebuilds the logical announcements, most recent first. Records of the
// broadcast kind are folded by group key; the first record seen under
// descending creation order seeds each summary. Per-group totals come from
// the StatsFetcher and run concurrently, but the list is only returned once
// all complete.
func (s *service) List(ctx context.Context) ([]domain.AnnouncementSummary, error) {
	records, err := s.repo.ListByKind(ctx, domain.KindBroadcast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAggregationFailed, err)
	}

	byKey := make(map[string]*domain.AnnouncementSummary)
	order := make([]string, 0)
	for i := range records {
		rec := &records[i]
		if _, ok := byKey[rec.GroupKey]; ok {
			continue
		}
		byKey[rec.GroupKey] = &domain.AnnouncementSummary{
			GroupKey:         rec.GroupKey,
			RepresentativeID: rec.NotificationID,
			Title:            rec.Title,
			Body:             rec.Body,
			ActionLink:       rec.ActionLink,
			SenderID:         rec.SenderID,
			CreatedAt:        rec.CreatedAt,
		}
		order = append(order, rec.GroupKey)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, key := range order {
		summary := byKey[key]
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := s.stats.GroupStats(ctx, domain.GroupFilter{
				Kind:     domain.KindBroadcast,
				Title:    summary.Title,
				Body:     summary.Body,
				SenderID: summary.SenderID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			summary.TotalRecipients = stats.Total
			summary.ReadCount = stats.Read
			summary.UnreadCount = stats.Total - stats.Read
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAggregationFailed, firstErr)
	}

	summaries := make([]domain.AnnouncementSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, *byKey[key])
	}
	return summaries, nil
}

// Detail loads one representative record, regroups its members by content
// identity and joins each member with its recipient profile. A member whose
// profile no longer exists is returned with its ID only.
func (s *service) Detail(ctx context.Context, representativeID string) (*domain.AnnouncementDetail, error) {
	rep, err := s.repo.Get(ctx, representativeID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListGroup(ctx, rep.Filter())
	if err != nil {
		return nil, err
	}

	recipientIDs := make([]string, 0, len(members))
	for i := range members {
		recipientIDs = append(recipientIDs, members[i].UserID)
	}
	profiles, err := s.directory.GetMany(ctx, recipientIDs)
	if err != nil {
		return nil, err
	}

	detail := &domain.AnnouncementDetail{
		Summary: domain.AnnouncementSummary{
			GroupKey:         rep.GroupKey,
			RepresentativeID: rep.NotificationID,
			Title:            rep.Title,
			Body:             rep.Body,
			ActionLink:       rep.ActionLink,
			SenderID:         rep.SenderID,
			CreatedAt:        rep.CreatedAt,
		},
		Members: make([]domain.AnnouncementMember, 0, len(members)),
	}

	// Stable member order for the operator view.
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	for i := range members {
		m := domain.AnnouncementMember{
			NotificationID: members[i].NotificationID,
			RecipientID:    members[i].UserID,
			IsRead:         members[i].IsRead,
		}
		if u, ok := profiles[members[i].UserID]; ok {
			m.Profile = s.toProfile(ctx, u)
		}
		detail.Members = append(detail.Members, m)
		detail.Summary.TotalRecipients++
		if members[i].IsRead {
			detail.Summary.ReadCount++
		} else {
			detail.Summary.UnreadCount++
		}
	}
	return detail, nil
}

// Delete removes every record of the group the representative belongs to.
// Zero matching rows after a successful load is not an error; records
// inserted concurrently after the member query survive.
func (s *service) Delete(ctx context.Context, representativeID string) (int, error) {
	rep, err := s.repo.Get(ctx, representativeID)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteGroup(ctx, rep.Filter())
}

func (s *service) toProfile(ctx context.Context, u *domain.User) *domain.RecipientProfile {
	p := &domain.RecipientProfile{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if s.avatars != nil && u.AvatarKey != "" {
		if url, err := s.avatars.PresignedURL(ctx, u.AvatarKey, s.avatarURLTTL); err == nil {
			p.AvatarURL = url
		}
	}
	return p
}
