package course

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

// Course statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Course struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	Description      string    `json:"description"`
	InstructorID     string    `json:"instructor_id"`
	Status           string    `json:"status"`
	StudentsEnrolled []string  `json:"students_enrolled"`
	Version          int       `json:"-"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// normalizeCode upper-cases course codes; they are stored canonical.
func normalizeCode(code string) string {
	return strings.ToUpper(code)
}

func (c *Course) IsEnrolled(studentID string) bool {
	for _, id := range c.StudentsEnrolled {
		if id == studentID {
			return true
		}
	}
	return false
}

// UserSummary is the projection of a user nested in course detail payloads.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Detail is a Course with its instructor and enrolled students expanded.
type Detail struct {
	Course
	Instructor UserSummary   `json:"instructor"`
	Students   []UserSummary `json:"students"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required,coursecode"`
	Description string `json:"description" validate:"required,min=20"`
	// InstructorID is only honored for admin-created courses; faculty
	// requests always use the submitter.
	InstructorID string `json:"instructor_id"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = normalizeCode(core.CleanString(nc.Code))
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name         string `json:"name"`
	Code         string `json:"code" validate:"omitempty,coursecode"`
	Description  string `json:"description" validate:"omitempty,min=20"`
	InstructorID string `json:"instructor_id"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}

	code := normalizeCode(core.CleanString(uc.Code))
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}

	desc := core.CleanString(uc.Description)
	if desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, uc.Code, orig)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Status       string `query:"status"`
	InstructorID string `query:"instructor_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.InstructorID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
