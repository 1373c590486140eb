package dummydb

import (
	"context"
	"sort"

	"github.com/chuoapp/chuo/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sch schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sch.ID == "" {
		sch.ID = newID()
	}
	repo.db.schedules[sch.ID] = &sch
	return sch, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string) (schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sch, ok := repo.db.schedules[id]; ok {
		return *sch, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) FilterSchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schs := make([]schedule.Schedule, 0)
	for _, sch := range repo.db.schedules {
		if filter.CourseID != "" && sch.CourseID != filter.CourseID {
			continue
		}
		if filter.Semester != 0 && sch.Semester != filter.Semester {
			continue
		}
		schs = append(schs, *sch)
	}
	sort.Slice(schs, func(i, j int) bool {
		if schs[i].Date.Equal(schs[j].Date) {
			return schs[i].StartTime < schs[j].StartTime
		}
		return schs[i].Date.Before(schs[j].Date)
	})
	return schs, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, sch schedule.Schedule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schedules[sch.ID]; !ok {
		return schedule.ErrNotFound
	}
	repo.db.schedules[sch.ID] = &sch
	return nil
}

func (repo *scheduleRepository) DeleteScheduleByID(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.schedules, id)
	return nil
}

func (repo *scheduleRepository) CreateWeeklySchedule(ctx context.Context, ws schedule.WeeklySchedule) (schedule.WeeklySchedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ws.ID == "" {
		ws.ID = newID()
	}
	repo.db.weekly[ws.ID] = &ws
	return ws, nil
}

func (repo *scheduleRepository) GetWeeklyScheduleByID(ctx context.Context, id string) (schedule.WeeklySchedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ws, ok := repo.db.weekly[id]; ok {
		return *ws, nil
	}
	return schedule.WeeklySchedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) FilterWeeklySchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.WeeklySchedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wss := make([]schedule.WeeklySchedule, 0)
	for _, ws := range repo.db.weekly {
		if filter.CourseID != "" && ws.CourseID != filter.CourseID {
			continue
		}
		if filter.Semester != 0 && ws.Semester != filter.Semester {
			continue
		}
		wss = append(wss, *ws)
	}
	sort.Slice(wss, func(i, j int) bool { return wss[i].CreatedAt.Before(wss[j].CreatedAt) })
	return wss, nil
}

func (repo *scheduleRepository) UpdateWeeklySchedule(ctx context.Context, ws schedule.WeeklySchedule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.weekly[ws.ID]; !ok {
		return schedule.ErrNotFound
	}
	repo.db.weekly[ws.ID] = &ws
	return nil
}

func (repo *scheduleRepository) DeleteWeeklyScheduleByID(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.weekly, id)
	return nil
}
