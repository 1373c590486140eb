package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

// Schedule is a single dated event for a course.
type Schedule struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Semester  int       `json:"semester"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // HH:MM, 24h
	EndTime   string    `json:"end_time"`   // HH:MM, 24h
	Location  string    `json:"location"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Entry is one recurring slot in a weekly schedule.
type Entry struct {
	Day       string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Subject   string `json:"subject" validate:"required"`
	FacultyID string `json:"faculty_id" validate:"omitempty,uuid4"`
	Location  string `json:"location"`
}

// WeeklySchedule is the recurring timetable for a course and semester.
type WeeklySchedule struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Semester  int       `json:"semester"`
	Entries   []Entry   `json:"entries"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewSchedule struct {
	CourseID  string `json:"course_id" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1,max=12"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Location  string `json:"location"`
}

func (ns NewSchedule) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return validateWindow(ns.StartTime, ns.EndTime, "end_time")
}

type NewWeeklySchedule struct {
	CourseID string  `json:"course_id" validate:"required"`
	Semester int     `json:"semester" validate:"required,min=1,max=12"`
	Entries  []Entry `json:"entries" validate:"required,min=1,dive"`
}

func (nws NewWeeklySchedule) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nws); err != nil {
		return err
	}
	for _, e := range nws.Entries {
		if err := ValidateWindow(e.StartTime, e.EndTime); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWindow enforces the entry EndTime strictly after StartTime.
func ValidateWindow(start, end string) error {
	return validateWindow(start, end, "entries")
}

type UpdateSchedule struct {
	Semester  int    `json:"semester" validate:"omitempty,min=1,max=12"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Location  string `json:"location"`
}

func (us UpdateSchedule) Validate(validate *validator.Validate, orig Schedule) error {
	if err := validate.Struct(us); err != nil {
		return err
	}
	start, end := orig.StartTime, orig.EndTime
	if us.StartTime != "" {
		start = us.StartTime
	}
	if us.EndTime != "" {
		end = us.EndTime
	}
	return validateWindow(start, end, "end_time")
}

// validateWindow enforces EndTime strictly after StartTime. Both values are
// already known to parse as HH:MM, so string comparison suffices.
func validateWindow(start, end, field string) error {
	if end <= start {
		return core.NewValidationError(nil, core.FieldError{
			Field: field, Error: "end time must be after start time",
		})
	}
	return nil
}

type QueryFilter struct {
	CourseID string `query:"course_id"`
	Semester int    `query:"semester"`
}
