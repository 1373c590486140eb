package sqlpg

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/attendance"
)

type attendanceRecordRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Date      time.Time `db:"date"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	CreatedAt time.Time `db:"created_at"`
}

func (r attendanceRecordRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      r.Date,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		CreatedAt: r.CreatedAt,
	}
}

func toRecords(rows []attendanceRecordRow) []attendance.Record {
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toRecord())
	}
	return recs
}

type attendanceRequestRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Date      time.Time `db:"date"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRequestRow) toRequest() attendance.Request {
	return attendance.Request{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      r.Date,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}

	const q = `
	INSERT INTO attendance_record (id, student_id, course_id, date, latitude, longitude, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q,
		rec.ID, rec.StudentID, rec.CourseID, rec.Date.UTC(), rec.Latitude, rec.Longitude, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "attendance_record_student_id_course_id_date_key") {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
		return attendance.Record{}, errors.Wrap(err, "creating attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) QueryRecordsByCourse(ctx context.Context, courseID string) ([]attendance.Record, error) {
	var rows []attendanceRecordRow
	const q = `SELECT * FROM attendance_record WHERE course_id = $1 ORDER BY date`
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return toRecords(rows), nil
}

func (repo *attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	var rows []attendanceRecordRow
	const q = `SELECT * FROM attendance_record WHERE student_id = $1 ORDER BY date`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return toRecords(rows), nil
}

func (repo *attendanceRepository) CreateRequest(ctx context.Context, req attendance.Request) (attendance.Request, error) {
	if req.ID == "" {
		req.ID = newID()
	}

	const q = `
	INSERT INTO attendance_request (id, student_id, course_id, date, latitude, longitude, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		req.ID, req.StudentID, req.CourseID, req.Date.UTC(), req.Latitude, req.Longitude,
		req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return attendance.Request{}, errors.Wrap(err, "creating attendance request")
	}
	return req, nil
}

func (repo *attendanceRepository) GetRequestByID(ctx context.Context, id string) (attendance.Request, error) {
	var row attendanceRequestRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance_request WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return attendance.Request{}, attendance.ErrNotFound
		}
		return attendance.Request{}, errors.Wrap(err, "getting attendance request")
	}
	return row.toRequest(), nil
}

func (repo *attendanceRepository) QueryRequestsByCourse(ctx context.Context, courseID, status string) ([]attendance.Request, error) {
	q := `SELECT * FROM attendance_request WHERE course_id = $1`
	args := []interface{}{courseID}
	if status != "" {
		args = append(args, status)
		q += ` AND status = $2`
	}
	q += ` ORDER BY created_at`

	var rows []attendanceRequestRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance requests")
	}
	reqs := make([]attendance.Request, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, r.toRequest())
	}
	return reqs, nil
}

func (repo *attendanceRepository) UpdateRequest(ctx context.Context, req attendance.Request) error {
	const q = `UPDATE attendance_request SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, req.ID, req.Status, req.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating attendance request")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
