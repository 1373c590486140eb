package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("course not found")
	ErrCodeExists        = errors.New("a course with this code already exists")
	ErrInvalidTransition = errors.New("course is no longer pending")
	ErrNotApproved       = errors.New("course is not open for enrollment")
	ErrNotInstructor     = errors.New("instructor must be an active faculty member")
)

// casMaxRetries bounds the enroll retry loop on version conflicts.
const casMaxRetries = 3

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Name or Course.Code.
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// UpdateCourse is a conditional write: it only applies if the stored
		// Version matches crs.Version, and returns core.ErrConcurrentUpdate
		// otherwise. The stored Version is incremented on success.
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error
		Create(ctx context.Context, nc NewCourse, creator user.User) (Course, error)
		QueryAll(ctx context.Context) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		GetDetail(ctx context.Context, id string) (Detail, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Course, error)
		Approve(ctx context.Context, id string) (Course, error)
		Reject(ctx context.Context, id string) (Course, error)
		Enroll(ctx context.Context, id, studentID string) (Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo  Repository
		users user.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, users: usrSvc}
}

func (svc *Service) CheckCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, exclCourses...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create registers a new course. Faculty submissions are course requests:
// the submitter becomes the instructor and the course starts out pending.
// Admin-created courses must name an existing faculty instructor and are
// approved right away.
func (svc *Service) Create(ctx context.Context, nc NewCourse, creator user.User) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Name:        nc.Name,
		Code:        nc.Code,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if creator.IsAdmin() {
		instr, err := svc.users.GetByID(ctx, nc.InstructorID)
		if err != nil || !instr.IsFaculty() || !instr.IsActive {
			return Course{}, core.NewValidationError(
				ErrNotInstructor, core.FieldError{Field: "instructor_id", Error: ErrNotInstructor.Error()})
		}
		crs.InstructorID = instr.ID
		crs.Status = StatusApproved
	} else {
		crs.InstructorID = creator.ID
		crs.Status = StatusPending
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// GetDetail returns a course with its instructor and enrolled students expanded.
func (svc *Service) GetDetail(ctx context.Context, id string) (Detail, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Course: crs, Students: make([]UserSummary, 0, len(crs.StudentsEnrolled))}
	if instr, err := svc.users.GetByID(ctx, crs.InstructorID); err == nil {
		detail.Instructor = UserSummary{ID: instr.ID, Name: instr.Name, Email: instr.Email}
	}
	for _, sid := range crs.StudentsEnrolled {
		if stu, err := svc.users.GetByID(ctx, sid); err == nil {
			detail.Students = append(detail.Students, UserSummary{ID: stu.ID, Name: stu.Name})
		}
	}
	return detail, nil
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Course, error) {
	return svc.repo.FilterCourses(ctx, filter)
}

// Approve transitions a pending course to approved. Approving an
// already-approved course is a no-op so retries stay safe.
func (svc *Service) Approve(ctx context.Context, id string) (Course, error) {
	return svc.transition(ctx, id, StatusApproved)
}

// Reject transitions a pending course to rejected; idempotent like Approve.
func (svc *Service) Reject(ctx context.Context, id string) (Course, error) {
	return svc.transition(ctx, id, StatusRejected)
}

func (svc *Service) transition(ctx context.Context, id, target string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status == target {
		return crs, nil // idempotent on retry
	}
	if crs.Status != StatusPending {
		return Course{}, ErrInvalidTransition
	}
	crs.Status = target
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// Enroll appends a student to the course roster. The course must be approved
// and the append is duplicate-safe. Version conflicts are retried so two
// concurrent enrollments both land.
func (svc *Service) Enroll(ctx context.Context, id, studentID string) (Course, error) {
	var lastErr error
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		crs, err := svc.repo.GetCourseByID(ctx, id)
		if err != nil {
			return Course{}, err
		}
		if crs.Status != StatusApproved {
			return Course{}, ErrNotApproved
		}
		if crs.IsEnrolled(studentID) {
			return crs, nil // duplicate-safe
		}
		crs.StudentsEnrolled = append(crs.StudentsEnrolled, studentID)
		crs.UpdatedAt = time.Now().UTC()

		crs, err = svc.repo.UpdateCourse(ctx, crs)
		if err == nil {
			return crs, nil
		}
		if errors.Cause(err) != core.ErrConcurrentUpdate {
			return Course{}, err
		}
		lastErr = err
	}
	return Course{}, lastErr
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Name = uc.Name
	crs.Code = uc.Code
	crs.Description = uc.Description
	if uc.InstructorID != "" {
		instr, err := svc.users.GetByID(ctx, uc.InstructorID)
		if err != nil || !instr.IsFaculty() {
			return Course{}, core.NewValidationError(
				ErrNotInstructor, core.FieldError{Field: "instructor_id", Error: ErrNotInstructor.Error()})
		}
		crs.InstructorID = instr.ID
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}
