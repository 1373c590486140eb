package sqlpg

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/exam"
)

type examRow struct {
	ID              string          `db:"id"`
	CourseID        string          `db:"course_id"`
	Title           string          `db:"title"`
	Code            string          `db:"code"`
	Date            sql.NullTime    `db:"date"`
	DurationMinutes int             `db:"duration_minutes"`
	Questions       json.RawMessage `db:"questions"`
	Status          string          `db:"status"`
	Version         int             `db:"version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r examRow) toExam() (exam.Exam, error) {
	e := exam.Exam{
		ID:              r.ID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Code:            r.Code,
		DurationMinutes: r.DurationMinutes,
		Status:          r.Status,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Date.Valid {
		e.Date = r.Date.Time
	}
	if err := json.Unmarshal(r.Questions, &e.Questions); err != nil {
		return exam.Exam{}, errors.Wrap(err, "decoding exam questions")
	}
	return e, nil
}

func toExams(rows []examRow) ([]exam.Exam, error) {
	exams := make([]exam.Exam, 0, len(rows))
	for _, r := range rows {
		e, err := r.toExam()
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, nil
}

type resultRow struct {
	ID        string          `db:"id"`
	ExamID    string          `db:"exam_id"`
	StudentID string          `db:"student_id"`
	CourseID  string          `db:"course_id"`
	Answers   json.RawMessage `db:"answers"`
	Score     int             `db:"score"`
	Version   int             `db:"version"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r resultRow) toResult() (exam.Result, error) {
	res := exam.Result{
		ID:        r.ID,
		ExamID:    r.ExamID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Score:     r.Score,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Answers, &res.Answers); err != nil {
		return exam.Result{}, errors.Wrap(err, "decoding result answers")
	}
	return res, nil
}

func toResults(rows []resultRow) ([]exam.Result, error) {
	results := make([]exam.Result, 0, len(rows))
	for _, r := range rows {
		res, err := r.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "encoding exam questions")
	}

	var date interface{}
	if !e.Date.IsZero() {
		date = e.Date.UTC()
	}
	const q = `
	INSERT INTO exam (id, course_id, title, code, date, duration_minutes, questions, status, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = repo.db.ExecContext(ctx, q,
		e.ID, e.CourseID, e.Title, e.Code, date, e.DurationMinutes, questions, e.Status, e.Version, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}
	return e, nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	var row examRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM exam WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return exam.Exam{}, exam.ErrNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "getting exam")
	}
	return row.toExam()
}

func (repo *examRepository) FilterExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	q := `SELECT * FROM exam WHERE 1=1`
	var args []interface{}

	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		q += ` AND course_id = ` + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = ` + placeholder(len(args))
	}
	q += ` ORDER BY created_at`

	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering exams")
	}
	return toExams(rows)
}

func (repo *examRepository) UpdateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "encoding exam questions")
	}

	var date interface{}
	if !e.Date.IsZero() {
		date = e.Date.UTC()
	}
	const q = `
	UPDATE exam SET
		title = $2,
		code = $3,
		date = $4,
		duration_minutes = $5,
		questions = $6,
		status = $7,
		version = version + 1,
		updated_at = $8
	WHERE id = $1 AND version = $9`
	res, err := repo.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Code, date, e.DurationMinutes, questions, e.Status, e.UpdatedAt, e.Version,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err = repo.GetExamByID(ctx, e.ID); err != nil {
			return exam.Exam{}, err
		}
		return exam.Exam{}, core.ErrConcurrentUpdate
	}
	e.Version++
	return e, nil
}

func (repo *examRepository) CreateResult(ctx context.Context, r exam.Result) (exam.Result, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "encoding result answers")
	}

	const q = `
	INSERT INTO exam_result (id, exam_id, student_id, course_id, answers, score, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = repo.db.ExecContext(ctx, q,
		r.ID, r.ExamID, r.StudentID, r.CourseID, answers, r.Score, r.Version, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "exam_result_exam_id_student_id_key") {
			return exam.Result{}, exam.ErrResultExists
		}
		return exam.Result{}, errors.Wrap(err, "creating result")
	}
	return r, nil
}

func (repo *examRepository) GetResultByExamAndStudent(ctx context.Context, examID, studentID string) (exam.Result, error) {
	var row resultRow
	const q = `SELECT * FROM exam_result WHERE exam_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, examID, studentID); err != nil {
		if isNoRows(err) {
			return exam.Result{}, exam.ErrResultNotFound
		}
		return exam.Result{}, errors.Wrap(err, "getting result")
	}
	return row.toResult()
}

func (repo *examRepository) QueryResultsByStudent(ctx context.Context, studentID string) ([]exam.Result, error) {
	var rows []resultRow
	const q = `SELECT * FROM exam_result WHERE student_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return toResults(rows)
}

func (repo *examRepository) QueryResultsByExam(ctx context.Context, examID string) ([]exam.Result, error) {
	var rows []resultRow
	const q = `SELECT * FROM exam_result WHERE exam_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, examID); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return toResults(rows)
}

func (repo *examRepository) UpdateResult(ctx context.Context, r exam.Result) (exam.Result, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "encoding result answers")
	}

	const q = `
	UPDATE exam_result SET
		answers = $2,
		score = $3,
		version = version + 1,
		updated_at = $4
	WHERE id = $1 AND version = $5`
	res, err := repo.db.ExecContext(ctx, q, r.ID, answers, r.Score, r.UpdatedAt, r.Version)
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "updating result")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err = repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM exam_result WHERE id = $1)`, r.ID); err != nil {
			return exam.Result{}, errors.Wrap(err, "checking result")
		}
		if !exists {
			return exam.Result{}, exam.ErrResultNotFound
		}
		return exam.Result{}, core.ErrConcurrentUpdate
	}
	r.Version++
	return r, nil
}

func (repo *examRepository) DeleteResultsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM exam_result WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting results")
	}
	return nil
}
