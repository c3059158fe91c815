package broadcast

import (
	"context"

	"github.com/go-broadcast-api/internal/domain"
)

// GroupStats holds the aggregate counts for one logical announcement.
type GroupStats struct {
	Total int
	Read  int
}

// StatsFetcher computes per-group totals. The default implementation
// re-scans each group's member records; it is an explicit seam so a native
// aggregate query can replace the per-group scan without touching the
// grouping or fan-out logic.
type StatsFetcher interface {
	GroupStats(ctx context.Context, f domain.GroupFilter) (GroupStats, error)
}

type groupLister interface {
	ListGroup(ctx context.Context, f domain.GroupFilter) ([]domain.Notification, error)
}

// memberScanStats counts read flags by fetching every member record of the
// group. O(1) store round-trip per group; acceptable for the low-cardinality
// admin listing.
type memberScanStats struct {
	store groupLister
}

// NewMemberScanStats returns the default member-scan StatsFetcher.
func NewMemberScanStats(store groupLister) StatsFetcher {
	return &memberScanStats{store: store}
}

func (s *memberScanStats) GroupStats(ctx context.Context, f domain.GroupFilter) (GroupStats, error) {
	members, err := s.store.ListGroup(ctx, f)
	if err != nil {
		return GroupStats{}, err
	}
	stats := GroupStats{Total: len(members)}
	for i := range members {
		if members[i].IsRead {
			stats.Read++
		}
	}
	return stats, nil
}
