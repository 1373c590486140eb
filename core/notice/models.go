package notice

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Notification target roles
const (
	TargetStudent = "student"
	TargetFaculty = "faculty"
	TargetAll     = "all"
)

// Notice is a broadcast announcement with a time-to-live.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	ExpiresAt time.Time `json:"expires_at"` // UTC
}

// Expired reports whether the notice's TTL has lapsed at now.
func (n Notice) Expired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}

type NewNotice struct {
	Title          string `json:"title" validate:"required"`
	Content        string `json:"content" validate:"required"`
	ExpiresInHours int    `json:"expires_in_hours" validate:"required,min=1,max=8760"`
}

func (nn NewNotice) Validate(validate *validator.Validate) error {
	return validate.Struct(nn)
}

// Notification is a targeted message with per-recipient read state.
type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Link       string    `json:"link,omitempty"`
	TargetRole string    `json:"target_role,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// Delivery ties a notification to one recipient and tracks read state.
type Delivery struct {
	NotificationID string    `json:"-"`
	RecipientID    string    `json:"-"`
	IsRead         bool      `json:"is_read"`
	ReadAt         time.Time `json:"read_at,omitempty"` // UTC; zero until read
}

// UserNotification is the recipient-facing projection.
type UserNotification struct {
	Notification
	IsRead bool `json:"is_read"`
}

// NewNotification targets either a role or explicit recipients, not both.
type NewNotification struct {
	Title      string   `json:"title" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	Link       string   `json:"link" validate:"omitempty,uri"`
	TargetRole string   `json:"target_role" validate:"required_without=Recipients,omitempty,oneof=student faculty all"`
	Recipients []string `json:"recipients" validate:"required_without=TargetRole,omitempty,min=1,dive,required"`
}

func (nn NewNotification) Validate(validate *validator.Validate) error {
	return validate.Struct(nn)
}
