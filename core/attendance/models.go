package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Request statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Respond actions
const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// Record is one marked attendance: a student present in a course on a day.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // day precision, UTC
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Request is a student-raised attendance request awaiting instructor review.
type Request struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // day precision, UTC
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SelfMark is the self-attendance payload; geolocation is mandatory since
// the geofence gate is the whole point.
type SelfMark struct {
	CourseID  string   `json:"course_id" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func (sm SelfMark) Validate(validate *validator.Validate) error {
	return validate.Struct(sm)
}

// NewRequest raises a request-based attendance entry, e.g. when the student
// is outside the geofence or marking retroactively.
type NewRequest struct {
	CourseID  string   `json:"course_id" validate:"required"`
	Date      string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func (nr NewRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

// Respond resolves a pending request.
type Respond struct {
	Action string `json:"action" validate:"required,oneof=approved rejected"`
}

func (r Respond) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// StudentCourseSummary aggregates one student's attendance in one course.
// Total is the number of distinct class days recorded for the course.
type StudentCourseSummary struct {
	StudentID    string  `json:"student_id"`
	CourseID     string  `json:"course_id"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Total        int     `json:"total"`
	Percent      float64 `json:"percent"`
	ClassAverage float64 `json:"class_average,omitempty"`
}

// CourseSummary is the instructor view: every enrolled student plus the
// class average percentage.
type CourseSummary struct {
	CourseID     string                 `json:"course_id"`
	Students     []StudentCourseSummary `json:"students"`
	ClassAverage float64                `json:"class_average"`
}

// StudentSummary is the self view: per-course figures plus overall totals.
type StudentSummary struct {
	StudentID string                 `json:"student_id"`
	Courses   []StudentCourseSummary `json:"courses"`
	Present   int                    `json:"present"`
	Absent    int                    `json:"absent"`
	Total     int                    `json:"total"`
	Percent   float64                `json:"percent"`
}
