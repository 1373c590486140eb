package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
)

var (
	ErrNotFound      = errors.New("attendance request not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this day")
	ErrOutOfRange    = errors.New("location is outside the campus area")
	ErrNotEnrolled   = errors.New("student is not enrolled in this course")
	ErrNotPending    = errors.New("attendance request is not pending")
	ErrNotInstructor = errors.New("user does not instruct this course")
)

type Repository interface {
	// CreateRecord persists a record. (student, course, date) is unique at
	// the store; a duplicate returns ErrAlreadyMarked.
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	QueryRecordsByCourse(ctx context.Context, courseID string) ([]Record, error)
	QueryRecordsByStudent(ctx context.Context, studentID string) ([]Record, error)
	CreateRequest(ctx context.Context, req Request) (Request, error)
	GetRequestByID(ctx context.Context, id string) (Request, error)
	QueryRequestsByCourse(ctx context.Context, courseID, status string) ([]Request, error)
	UpdateRequest(ctx context.Context, req Request) error
}

type ServiceInterface interface {
	SelfMark(ctx context.Context, sm SelfMark, student user.User) (Record, error)
	SubmitRequest(ctx context.Context, nr NewRequest, student user.User) (Request, error)
	Respond(ctx context.Context, id, action string, actor user.User) (Request, error)
	PendingForCourse(ctx context.Context, courseID string, actor user.User) ([]Request, error)
	SummarizeCourse(ctx context.Context, courseID string, actor user.User) (CourseSummary, error)
	SummarizeStudent(ctx context.Context, studentID string) (StudentSummary, error)
}

type Service struct {
	repo    Repository
	courses course.ServiceInterface
	campus  core.CampusConfig
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses course.ServiceInterface, campus core.CampusConfig) *Service {
	return &Service{repo: repo, courses: courses, campus: campus}
}

// SelfMark marks today's attendance if the student is enrolled and the
// reported location falls inside the campus geofence.
func (svc *Service) SelfMark(ctx context.Context, sm SelfMark, student user.User) (Record, error) {
	crs, err := svc.courses.GetByID(ctx, sm.CourseID)
	if err != nil {
		return Record{}, err
	}
	if !crs.IsEnrolled(student.ID) {
		return Record{}, ErrNotEnrolled
	}
	if !withinCampus(svc.campus, *sm.Latitude, *sm.Longitude) {
		return Record{}, ErrOutOfRange
	}

	now := time.Now().UTC()
	rec := Record{
		StudentID: student.ID,
		CourseID:  crs.ID,
		Date:      truncateDay(now),
		Latitude:  *sm.Latitude,
		Longitude: *sm.Longitude,
		CreatedAt: now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// SubmitRequest raises a pending attendance request for instructor review.
func (svc *Service) SubmitRequest(ctx context.Context, nr NewRequest, student user.User) (Request, error) {
	crs, err := svc.courses.GetByID(ctx, nr.CourseID)
	if err != nil {
		return Request{}, err
	}
	if !crs.IsEnrolled(student.ID) {
		return Request{}, ErrNotEnrolled
	}

	now := time.Now().UTC()
	date := truncateDay(now)
	if nr.Date != "" {
		d, err := time.Parse("2006-01-02", nr.Date)
		if err != nil {
			return Request{}, errors.Wrap(err, "parsing request date")
		}
		date = d.UTC()
	}
	req := Request{
		StudentID: student.ID,
		CourseID:  crs.ID,
		Date:      date,
		Latitude:  *nr.Latitude,
		Longitude: *nr.Longitude,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateRequest(ctx, req)
}

// Respond approves or rejects a pending request. Approval materializes a
// record for the requested day; a record already present for that day is
// tolerated so approval stays idempotent at the record level.
func (svc *Service) Respond(ctx context.Context, id, action string, actor user.User) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if err = svc.authorizeCourse(ctx, req.CourseID, actor); err != nil {
		return Request{}, err
	}
	if req.Status == action {
		return req, nil
	}
	if req.Status != StatusPending {
		return Request{}, ErrNotPending
	}

	if action == ActionApproved {
		rec := Record{
			StudentID: req.StudentID,
			CourseID:  req.CourseID,
			Date:      req.Date,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			CreatedAt: time.Now().UTC(),
		}
		if _, err = svc.repo.CreateRecord(ctx, rec); err != nil && errors.Cause(err) != ErrAlreadyMarked {
			return Request{}, err
		}
	}

	req.Status = action
	req.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateRequest(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (svc *Service) PendingForCourse(ctx context.Context, courseID string, actor user.User) ([]Request, error) {
	if err := svc.authorizeCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}
	return svc.repo.QueryRequestsByCourse(ctx, courseID, StatusPending)
}

// SummarizeCourse builds the instructor view: per-student figures for every
// enrolled student plus the class average.
func (svc *Service) SummarizeCourse(ctx context.Context, courseID string, actor user.User) (CourseSummary, error) {
	if err := svc.authorizeCourse(ctx, courseID, actor); err != nil {
		return CourseSummary{}, err
	}
	crs, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return CourseSummary{}, err
	}
	recs, err := svc.repo.QueryRecordsByCourse(ctx, courseID)
	if err != nil {
		return CourseSummary{}, err
	}

	total := countClassDays(recs)
	presentByStudent := make(map[string]int, len(crs.StudentsEnrolled))
	for _, rec := range recs {
		presentByStudent[rec.StudentID]++
	}

	summary := CourseSummary{CourseID: courseID, Students: make([]StudentCourseSummary, 0, len(crs.StudentsEnrolled))}
	var pctSum float64
	for _, sid := range crs.StudentsEnrolled {
		s := newStudentCourseSummary(sid, courseID, presentByStudent[sid], total)
		pctSum += s.Percent
		summary.Students = append(summary.Students, s)
	}
	if n := len(summary.Students); n > 0 {
		summary.ClassAverage = round2(pctSum / float64(n))
	}
	return summary, nil
}

// SummarizeStudent builds the self view across all courses the student has
// records in, with the class average per course for comparison.
func (svc *Service) SummarizeStudent(ctx context.Context, studentID string) (StudentSummary, error) {
	recs, err := svc.repo.QueryRecordsByStudent(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}

	byCourse := make(map[string]int)
	for _, rec := range recs {
		byCourse[rec.CourseID]++
	}

	summary := StudentSummary{StudentID: studentID}
	for courseID, present := range byCourse {
		courseRecs, err := svc.repo.QueryRecordsByCourse(ctx, courseID)
		if err != nil {
			return StudentSummary{}, err
		}
		total := countClassDays(courseRecs)
		s := newStudentCourseSummary(studentID, courseID, present, total)
		s.ClassAverage = classAverage(courseRecs, total)
		summary.Courses = append(summary.Courses, s)
		summary.Present += s.Present
		summary.Total += s.Total
	}
	summary.Absent = summary.Total - summary.Present
	if summary.Total > 0 {
		summary.Percent = round2(100 * float64(summary.Present) / float64(summary.Total))
	}
	return summary, nil
}

func (svc *Service) authorizeCourse(ctx context.Context, courseID string, actor user.User) error {
	if actor.IsAdmin() {
		return nil
	}
	crs, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if crs.InstructorID != actor.ID {
		return ErrNotInstructor
	}
	return nil
}

func newStudentCourseSummary(studentID, courseID string, present, total int) StudentCourseSummary {
	s := StudentCourseSummary{
		StudentID: studentID,
		CourseID:  courseID,
		Present:   present,
		Total:     total,
		Absent:    total - present,
	}
	if total > 0 {
		s.Percent = round2(100 * float64(present) / float64(total))
	}
	return s
}

// countClassDays counts distinct class days seen in a course's records.
func countClassDays(recs []Record) int {
	days := make(map[time.Time]struct{}, len(recs))
	for _, rec := range recs {
		days[truncateDay(rec.Date)] = struct{}{}
	}
	return len(days)
}

func classAverage(recs []Record, total int) float64 {
	if total == 0 || len(recs) == 0 {
		return 0
	}
	presentByStudent := make(map[string]int)
	for _, rec := range recs {
		presentByStudent[rec.StudentID]++
	}
	var pctSum float64
	for _, present := range presentByStudent {
		pctSum += 100 * float64(present) / float64(total)
	}
	return round2(pctSum / float64(len(presentByStudent)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
