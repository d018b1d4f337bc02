package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event carried on the queue
type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"
	EventPostPublished  EventType = "post.published"
)

// Event is the payload delivered to the notification consumer. Events are
// fire-and-forget from the services' perspective; delivery retries and
// dead-lettering happen on the consumer side.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	UserID     uuid.UUID `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	PostID     uuid.UUID `json:"postId,omitempty"`
	PostTitle  string    `json:"postTitle,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEvent stamps a fresh event envelope
func NewEvent(t EventType, userID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now(),
	}
}
