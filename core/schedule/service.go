package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
)

var (
	ErrNotFound = errors.New("schedule not found")
	ErrNotOwner = errors.New("user did not create this schedule")
)

type Repository interface {
	CreateSchedule(ctx context.Context, sch Schedule) (Schedule, error)
	GetScheduleByID(ctx context.Context, id string) (Schedule, error)
	FilterSchedules(ctx context.Context, filter QueryFilter) ([]Schedule, error)
	UpdateSchedule(ctx context.Context, sch Schedule) error
	DeleteScheduleByID(ctx context.Context, id string) error

	CreateWeeklySchedule(ctx context.Context, ws WeeklySchedule) (WeeklySchedule, error)
	GetWeeklyScheduleByID(ctx context.Context, id string) (WeeklySchedule, error)
	FilterWeeklySchedules(ctx context.Context, filter QueryFilter) ([]WeeklySchedule, error)
	UpdateWeeklySchedule(ctx context.Context, ws WeeklySchedule) error
	DeleteWeeklyScheduleByID(ctx context.Context, id string) error
}

type ServiceInterface interface {
	Create(ctx context.Context, ns NewSchedule, actor user.User) (Schedule, error)
	GetByID(ctx context.Context, id string) (Schedule, error)
	Filter(ctx context.Context, filter QueryFilter) ([]Schedule, error)
	Update(ctx context.Context, id string, us UpdateSchedule, actor user.User) (Schedule, error)
	Delete(ctx context.Context, id string, actor user.User) error

	CreateWeekly(ctx context.Context, nws NewWeeklySchedule, actor user.User) (WeeklySchedule, error)
	FilterWeekly(ctx context.Context, filter QueryFilter) ([]WeeklySchedule, error)
	UpdateWeekly(ctx context.Context, id string, entries []Entry, actor user.User) (WeeklySchedule, error)
	DeleteWeekly(ctx context.Context, id string, actor user.User) error
}

type Service struct {
	repo    Repository
	courses course.ServiceInterface
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses course.ServiceInterface) *Service {
	return &Service{repo: repo, courses: courses}
}

func (svc *Service) Create(ctx context.Context, ns NewSchedule, actor user.User) (Schedule, error) {
	if _, err := svc.courses.GetByID(ctx, ns.CourseID); err != nil {
		return Schedule{}, err
	}
	date, err := time.Parse("2006-01-02", ns.Date)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "parsing schedule date")
	}

	now := time.Now().UTC()
	sch := Schedule{
		CourseID:  ns.CourseID,
		Semester:  ns.Semester,
		Date:      date.UTC(),
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Location:  ns.Location,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSchedule(ctx, sch)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Schedule, error) {
	return svc.repo.FilterSchedules(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSchedule, actor user.User) (Schedule, error) {
	sch, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if err = authorize(sch.CreatedBy, actor); err != nil {
		return Schedule{}, err
	}

	if us.Semester != 0 {
		sch.Semester = us.Semester
	}
	if us.Date != "" {
		date, err := time.Parse("2006-01-02", us.Date)
		if err != nil {
			return Schedule{}, errors.Wrap(err, "parsing schedule date")
		}
		sch.Date = date.UTC()
	}
	if us.StartTime != "" {
		sch.StartTime = us.StartTime
	}
	if us.EndTime != "" {
		sch.EndTime = us.EndTime
	}
	if us.Location != "" {
		sch.Location = us.Location
	}
	sch.UpdatedAt = time.Now().UTC()

	if err = svc.repo.UpdateSchedule(ctx, sch); err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

func (svc *Service) Delete(ctx context.Context, id string, actor user.User) error {
	sch, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return err
	}
	if err = authorize(sch.CreatedBy, actor); err != nil {
		return err
	}
	return svc.repo.DeleteScheduleByID(ctx, id)
}

func (svc *Service) CreateWeekly(ctx context.Context, nws NewWeeklySchedule, actor user.User) (WeeklySchedule, error) {
	if _, err := svc.courses.GetByID(ctx, nws.CourseID); err != nil {
		return WeeklySchedule{}, err
	}

	now := time.Now().UTC()
	ws := WeeklySchedule{
		CourseID:  nws.CourseID,
		Semester:  nws.Semester,
		Entries:   nws.Entries,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateWeeklySchedule(ctx, ws)
}

func (svc *Service) FilterWeekly(ctx context.Context, filter QueryFilter) ([]WeeklySchedule, error) {
	return svc.repo.FilterWeeklySchedules(ctx, filter)
}

func (svc *Service) UpdateWeekly(ctx context.Context, id string, entries []Entry, actor user.User) (WeeklySchedule, error) {
	ws, err := svc.repo.GetWeeklyScheduleByID(ctx, id)
	if err != nil {
		return WeeklySchedule{}, err
	}
	if err = authorize(ws.CreatedBy, actor); err != nil {
		return WeeklySchedule{}, err
	}

	ws.Entries = entries
	ws.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateWeeklySchedule(ctx, ws); err != nil {
		return WeeklySchedule{}, err
	}
	return ws, nil
}

func (svc *Service) DeleteWeekly(ctx context.Context, id string, actor user.User) error {
	ws, err := svc.repo.GetWeeklyScheduleByID(ctx, id)
	if err != nil {
		return err
	}
	if err = authorize(ws.CreatedBy, actor); err != nil {
		return err
	}
	return svc.repo.DeleteWeeklyScheduleByID(ctx, id)
}

// authorize allows admins and the creator through.
func authorize(createdBy string, actor user.User) error {
	if actor.IsAdmin() || createdBy == actor.ID {
		return nil
	}
	return ErrNotOwner
}
