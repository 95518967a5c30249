package entity

import "time"

// User lifecycle event types published after a successful write.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent is the JSON payload put on the user events queue.
// For UserDeleted only UserID is meaningful.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent snapshots u into an event of the given type.
func NewUserEvent(typ string, u *User) UserEvent {
	return UserEvent{
		Type:       typ,
		UserID:     u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Active:     u.Active,
		CreatedAt:  u.CreatedDate,
		UpdatedAt:  u.LastModifiedDate,
		OccurredAt: time.Now().UTC(),
	}
}
