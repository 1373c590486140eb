package leave

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

// Leave statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Leave types
const (
	TypePaid   = "Paid"
	TypeSick   = "Sick"
	TypeCasual = "Casual"
	TypeOther  = "Other"
)

// Requester types
const (
	RequesterStudent = "student"
	RequesterFaculty = "faculty"
)

var (
	leaveTypeTag  = "leavetype"
	leaveTypeText = "leave type must be one of Paid, Sick, Casual or Other"

	allTypes = []string{TypePaid, TypeSick, TypeCasual, TypeOther}
)

// InitValidators registers the leave package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(leaveTypeTag, leaveTypeValidation)
	core.RegisterCustomTranslation(validate, translator, leaveTypeTag, leaveTypeText)
}

func leaveTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, typ := range allTypes {
		if val == typ {
			return true
		}
	}
	return false
}

type Leave struct {
	ID            string    `json:"id"`
	RequesterID   string    `json:"requester_id"`
	RequesterType string    `json:"requester_type"` // student | faculty
	FromDate      time.Time `json:"from_date"`
	ToDate        time.Time `json:"to_date"`
	LeaveType     string    `json:"leave_type"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewLeave contains information needed to submit a leave request.
type NewLeave struct {
	FromDate  time.Time `json:"from_date" validate:"required"`
	ToDate    time.Time `json:"to_date" validate:"required"`
	LeaveType string    `json:"leave_type" validate:"required,leavetype"`
	Reason    string    `json:"reason" validate:"required"`
}

func (nl *NewLeave) Validate(validate *validator.Validate) error {
	nl.Reason = core.CleanString(nl.Reason)
	if err := validate.Struct(nl); err != nil {
		return err
	}
	if nl.ToDate.Before(nl.FromDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "to_date", Error: "to_date must not be before from_date"})
	}
	return nil
}

// Date buckets for listing; computed against the current day.
const (
	BucketToday    = "today"
	BucketUpcoming = "upcoming"
	BucketPast     = "past"
)

type QueryFilter struct {
	Status    string `query:"status"`
	LeaveType string `query:"leave_type"`
	Search    string `query:"search"`
	Bucket    string `query:"bucket"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.LeaveType == "" && qf.Search == "" && qf.Bucket == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
	qf.Bucket = core.CleanString(qf.Bucket, true /* lower */)
}
