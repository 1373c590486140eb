package sqlpg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/schedule"
)

type scheduleRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Semester  int       `db:"semester"`
	Date      time.Time `db:"date"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	Location  string    `db:"location"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r scheduleRow) toSchedule() schedule.Schedule {
	return schedule.Schedule{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Semester:  r.Semester,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Location:  r.Location,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type weeklyScheduleRow struct {
	ID        string          `db:"id"`
	CourseID  string          `db:"course_id"`
	Semester  int             `db:"semester"`
	Entries   json.RawMessage `db:"entries"`
	CreatedBy string          `db:"created_by"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r weeklyScheduleRow) toWeeklySchedule() (schedule.WeeklySchedule, error) {
	ws := schedule.WeeklySchedule{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Semester:  r.Semester,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Entries, &ws.Entries); err != nil {
		return schedule.WeeklySchedule{}, errors.Wrap(err, "decoding schedule entries")
	}
	return ws, nil
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sch schedule.Schedule) (schedule.Schedule, error) {
	if sch.ID == "" {
		sch.ID = newID()
	}

	const q = `
	INSERT INTO schedule (id, course_id, semester, date, start_time, end_time, location, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		sch.ID, sch.CourseID, sch.Semester, sch.Date.UTC(), sch.StartTime, sch.EndTime,
		sch.Location, sch.CreatedBy, sch.CreatedAt, sch.UpdatedAt,
	)
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "creating schedule")
	}
	return sch, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string) (schedule.Schedule, error) {
	var row scheduleRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM schedule WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return schedule.Schedule{}, schedule.ErrNotFound
		}
		return schedule.Schedule{}, errors.Wrap(err, "getting schedule")
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) FilterSchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Schedule, error) {
	q := `SELECT * FROM schedule WHERE 1=1`
	var args []interface{}

	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		q += ` AND course_id = ` + placeholder(len(args))
	}
	if filter.Semester != 0 {
		args = append(args, filter.Semester)
		q += ` AND semester = ` + placeholder(len(args))
	}
	q += ` ORDER BY date, start_time`

	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering schedules")
	}
	schs := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		schs = append(schs, r.toSchedule())
	}
	return schs, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, sch schedule.Schedule) error {
	const q = `
	UPDATE schedule SET
		semester = $2,
		date = $3,
		start_time = $4,
		end_time = $5,
		location = $6,
		updated_at = $7
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		sch.ID, sch.Semester, sch.Date.UTC(), sch.StartTime, sch.EndTime, sch.Location, sch.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo *scheduleRepository) DeleteScheduleByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM schedule WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return nil
}

func (repo *scheduleRepository) CreateWeeklySchedule(ctx context.Context, ws schedule.WeeklySchedule) (schedule.WeeklySchedule, error) {
	if ws.ID == "" {
		ws.ID = newID()
	}
	entries, err := json.Marshal(ws.Entries)
	if err != nil {
		return schedule.WeeklySchedule{}, errors.Wrap(err, "encoding schedule entries")
	}

	const q = `
	INSERT INTO weekly_schedule (id, course_id, semester, entries, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = repo.db.ExecContext(ctx, q,
		ws.ID, ws.CourseID, ws.Semester, entries, ws.CreatedBy, ws.CreatedAt, ws.UpdatedAt,
	)
	if err != nil {
		return schedule.WeeklySchedule{}, errors.Wrap(err, "creating weekly schedule")
	}
	return ws, nil
}

func (repo *scheduleRepository) GetWeeklyScheduleByID(ctx context.Context, id string) (schedule.WeeklySchedule, error) {
	var row weeklyScheduleRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM weekly_schedule WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return schedule.WeeklySchedule{}, schedule.ErrNotFound
		}
		return schedule.WeeklySchedule{}, errors.Wrap(err, "getting weekly schedule")
	}
	return row.toWeeklySchedule()
}

func (repo *scheduleRepository) FilterWeeklySchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.WeeklySchedule, error) {
	q := `SELECT * FROM weekly_schedule WHERE 1=1`
	var args []interface{}

	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		q += ` AND course_id = ` + placeholder(len(args))
	}
	if filter.Semester != 0 {
		args = append(args, filter.Semester)
		q += ` AND semester = ` + placeholder(len(args))
	}
	q += ` ORDER BY created_at`

	var rows []weeklyScheduleRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering weekly schedules")
	}
	wss := make([]schedule.WeeklySchedule, 0, len(rows))
	for _, r := range rows {
		ws, err := r.toWeeklySchedule()
		if err != nil {
			return nil, err
		}
		wss = append(wss, ws)
	}
	return wss, nil
}

func (repo *scheduleRepository) UpdateWeeklySchedule(ctx context.Context, ws schedule.WeeklySchedule) error {
	entries, err := json.Marshal(ws.Entries)
	if err != nil {
		return errors.Wrap(err, "encoding schedule entries")
	}

	const q = `UPDATE weekly_schedule SET semester = $2, entries = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, ws.ID, ws.Semester, entries, ws.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating weekly schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo *scheduleRepository) DeleteWeeklyScheduleByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM weekly_schedule WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting weekly schedule")
	}
	return nil
}
