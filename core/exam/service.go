package exam

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
)

var (
	// errors
	ErrNotFound            = errors.New("exam not found")
	ErrResultNotFound      = errors.New("result not found")
	ErrResultExists        = errors.New("a result for this student and exam already exists")
	ErrExamClosed          = errors.New("exam is not active")
	ErrInvalidTransition   = errors.New("exam deletion has not been requested")
	ErrNotCourseInstructor = errors.New("only the instructor of record may manage this exam")
	ErrNotEnrolled         = errors.New("student is not enrolled in this course")
)

type (
	Repository interface {
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		GetExamByID(ctx context.Context, id string) (Exam, error)
		// FilterExams applies AND operation on available QueryFilter fields.
		FilterExams(ctx context.Context, filter QueryFilter) ([]Exam, error)
		// UpdateExam is a conditional write on Exam.Version; it returns
		// core.ErrConcurrentUpdate when the stored version moved on.
		UpdateExam(ctx context.Context, e Exam) (Exam, error)

		// CreateResult enforces the (student, exam) uniqueness and returns
		// ErrResultExists on a duplicate.
		CreateResult(ctx context.Context, r Result) (Result, error)
		GetResultByExamAndStudent(ctx context.Context, examID, studentID string) (Result, error)
		QueryResultsByStudent(ctx context.Context, studentID string) ([]Result, error)
		QueryResultsByExam(ctx context.Context, examID string) ([]Result, error)
		// UpdateResult is a conditional write on Result.Version.
		UpdateResult(ctx context.Context, r Result) (Result, error)
		DeleteResultsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ne NewExam, creator user.User) (Exam, error)
		GetByID(ctx context.Context, id string) (Exam, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Exam, error)
		Update(ctx context.Context, id string, ue UpdateExam, actor user.User) (Exam, error)
		RequestDeletion(ctx context.Context, id string, actor user.User) (Exam, error)
		ApproveDeletion(ctx context.Context, id string, actor user.User) (Exam, error)
		Submit(ctx context.Context, examID string, studentID string, sub Submission) (Result, error)
		ResultsForStudent(ctx context.Context, studentID string) ([]Result, error)
		ResultsForExam(ctx context.Context, examID string, actor user.User) ([]Result, error)
		UpdateResultByDetails(ctx context.Context, ur UpdateResult, actor user.User) (Result, error)
		DeleteResult(ctx context.Context, examID, studentID string, actor user.User) error
	}

	Service struct {
		repo    Repository
		courses course.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, crsSvc course.ServiceInterface) *Service {
	return &Service{repo: repo, courses: crsSvc}
}

// Create authors a new exam on a course. Faculty may only author exams on
// courses they instruct; admins may author anywhere.
func (svc *Service) Create(ctx context.Context, ne NewExam, creator user.User) (Exam, error) {
	crs, err := svc.courses.GetByID(ctx, ne.CourseID)
	if err != nil {
		return Exam{}, err
	}
	if !creator.IsAdmin() && crs.InstructorID != creator.ID {
		return Exam{}, ErrNotCourseInstructor
	}

	now := time.Now().UTC()
	e := Exam{
		CourseID:        crs.ID,
		Title:           ne.Title,
		Code:            ne.Code,
		Date:            ne.Date,
		DurationMinutes: ne.DurationMinutes,
		Questions:       ne.questions(),
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateExam(ctx, e)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exam, error) {
	e, err := svc.repo.GetExamByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if e.Status == StatusDeleted {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Exam, error) {
	exams, err := svc.repo.FilterExams(ctx, filter)
	if err != nil {
		return nil, err
	}
	// deleted exams stay out of listings
	kept := exams[:0]
	for _, e := range exams {
		if e.Status != StatusDeleted {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateExam, actor user.User) (Exam, error) {
	e, err := svc.GetByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return Exam{}, err
	}

	if ue.Title != "" {
		e.Title = ue.Title
	}
	if ue.Code != "" {
		e.Code = ue.Code
	}
	if !ue.Date.IsZero() {
		e.Date = ue.Date
	}
	if ue.DurationMinutes != 0 {
		e.DurationMinutes = ue.DurationMinutes
	}
	if ue.Questions != nil {
		e.Questions = NewExam{Questions: ue.Questions}.questions()
	}
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, e)
}

// RequestDeletion flags an active exam for deletion; the flag is idempotent.
func (svc *Service) RequestDeletion(ctx context.Context, id string, actor user.User) (Exam, error) {
	e, err := svc.GetByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return Exam{}, err
	}
	if e.Status == StatusDeletionRequested {
		return e, nil
	}
	e.Status = StatusDeletionRequested
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, e)
}

// ApproveDeletion confirms a requested deletion; only an admin or the
// exam's instructor of record may confirm, and only from the
// deletion-requested state.
func (svc *Service) ApproveDeletion(ctx context.Context, id string, actor user.User) (Exam, error) {
	e, err := svc.GetByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return Exam{}, err
	}
	if e.Status != StatusDeletionRequested {
		return Exam{}, ErrInvalidTransition
	}
	e.Status = StatusDeleted
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, e)
}

// Submit grades and stores a student's one-shot answer sheet.
func (svc *Service) Submit(ctx context.Context, examID, studentID string, sub Submission) (Result, error) {
	e, err := svc.GetByID(ctx, examID)
	if err != nil {
		return Result{}, err
	}
	if e.Status != StatusActive {
		return Result{}, ErrExamClosed
	}
	crs, err := svc.courses.GetByID(ctx, e.CourseID)
	if err != nil {
		return Result{}, err
	}
	if !crs.IsEnrolled(studentID) {
		return Result{}, ErrNotEnrolled
	}

	now := time.Now().UTC()
	res := Result{
		StudentID: studentID,
		ExamID:    e.ID,
		CourseID:  e.CourseID,
		Answers:   sub.Answers,
		Score:     e.Grade(sub.Answers),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateResult(ctx, res)
}

func (svc *Service) ResultsForStudent(ctx context.Context, studentID string) ([]Result, error) {
	return svc.repo.QueryResultsByStudent(ctx, studentID)
}

func (svc *Service) ResultsForExam(ctx context.Context, examID string, actor user.User) ([]Result, error) {
	e, err := svc.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return nil, err
	}
	return svc.repo.QueryResultsByExam(ctx, examID)
}

// UpdateResultByDetails overrides a stored score, looked up by the
// (exam, student) pair. This is an explicit override, not a re-grade.
func (svc *Service) UpdateResultByDetails(ctx context.Context, ur UpdateResult, actor user.User) (Result, error) {
	e, err := svc.repo.GetExamByID(ctx, ur.ExamID)
	if err != nil {
		return Result{}, err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return Result{}, err
	}
	res, err := svc.repo.GetResultByExamAndStudent(ctx, ur.ExamID, ur.StudentID)
	if err != nil {
		return Result{}, err
	}
	res.Score = *ur.Score
	res.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateResult(ctx, res)
}

func (svc *Service) DeleteResult(ctx context.Context, examID, studentID string, actor user.User) error {
	e, err := svc.repo.GetExamByID(ctx, examID)
	if err != nil {
		return err
	}
	if err = svc.authorizeManage(ctx, e, actor); err != nil {
		return err
	}
	res, err := svc.repo.GetResultByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteResultsByID(ctx, res.ID)
}

// authorizeManage resolves exam -> course -> instructor and lets the actor
// through if they are an admin or the instructor of record.
func (svc *Service) authorizeManage(ctx context.Context, e Exam, actor user.User) error {
	if actor.IsAdmin() {
		return nil
	}
	crs, err := svc.courses.GetByID(ctx, e.CourseID)
	if err != nil {
		return err
	}
	if crs.InstructorID != actor.ID {
		return ErrNotCourseInstructor
	}
	return nil
}
