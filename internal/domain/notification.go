package domain

import "time"

// Notification kinds sharing the notifications table. Broadcast deliverables
// carry KindBroadcast; other kinds (e.g. direct system messages) coexist in
// the same store and are ignored by the announcement engine.
const (
	KindBroadcast = "broadcast"
	KindSystem    = "system"
)

// Notification is one per-recipient deliverable record. For broadcast
// announcements exactly one record exists per (recipient, announcement) pair;
// GroupKey links all records fanned out from one send.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	Kind           string    `json:"kind" dynamodbav:"kind"`
	Title          string    `json:"title" dynamodbav:"title"`
	Body           string    `json:"body" dynamodbav:"body"`
	ActionLink     string    `json:"action_link,omitempty" dynamodbav:"action_link"`
	SenderID       string    `json:"sender_id" dynamodbav:"sender_id"`
	GroupKey       string    `json:"-" dynamodbav:"group_key"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	IsArchived     bool      `json:"is_archived" dynamodbav:"is_archived"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

// GroupFilter identifies every member record of one logical announcement.
// Records are matched on content equality, not on a stored announcement id.
type GroupFilter struct {
	Kind     string
	Title    string
	Body     string
	SenderID string
}

// Filter returns the group filter that n belongs to.
func (n *Notification) Filter() GroupFilter {
	return GroupFilter{Kind: n.Kind, Title: n.Title, Body: n.Body, SenderID: n.SenderID}
}
