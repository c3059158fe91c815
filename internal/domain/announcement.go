package domain

import "time"

// SendAnnouncementRequest is the operator-facing broadcast request. Either
// SendToAll is true or RecipientIDs carries explicit candidates; candidates
// that are not approved members are silently dropped.
type SendAnnouncementRequest struct {
	Title        string   `json:"title" validate:"required"`
	Body         string   `json:"body" validate:"required"`
	ActionLink   string   `json:"action_link"`
	SendToAll    bool     `json:"send_to_all"`
	RecipientIDs []string `json:"recipient_ids"`
}

// AnnouncementSummary is the read-time aggregation of all deliverable records
// sharing one group key. It is never persisted; representative fields come
// from the most recently created member record.
type AnnouncementSummary struct {
	GroupKey         string    `json:"group_key"`
	RepresentativeID string    `json:"representative_id"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	ActionLink       string    `json:"action_link,omitempty"`
	SenderID         string    `json:"sender_id"`
	CreatedAt        time.Time `json:"created"`
	TotalRecipients  int       `json:"total_recipients"`
	ReadCount        int       `json:"read_count"`
	UnreadCount      int       `json:"unread_count"`
}

// AnnouncementMember pairs one deliverable record with its recipient profile.
type AnnouncementMember struct {
	NotificationID string            `json:"notification_id"`
	RecipientID    string            `json:"recipient_id"`
	IsRead         bool              `json:"is_read"`
	Profile        *RecipientProfile `json:"profile,omitempty"`
}

// AnnouncementDetail is the full operator view of one logical announcement.
type AnnouncementDetail struct {
	Summary AnnouncementSummary  `json:"summary"`
	Members []AnnouncementMember `json:"members"`
}
