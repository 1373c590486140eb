package sqlpg

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/course"
)

type courseRow struct {
	ID               string         `db:"id"`
	Code             string         `db:"code"`
	Name             string         `db:"name"`
	Description      string         `db:"description"`
	InstructorID     string         `db:"instructor_id"`
	Status           string         `db:"status"`
	StudentsEnrolled pq.StringArray `db:"students_enrolled"`
	Version          int            `db:"version"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:               r.ID,
		Code:             r.Code,
		Name:             r.Name,
		Description:      r.Description,
		InstructorID:     r.InstructorID,
		Status:           r.Status,
		StudentsEnrolled: r.StudentsEnrolled,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toCourses(rows []courseRow) []course.Course {
	crss := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		crss = append(crss, r.toCourse())
	}
	return crss
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...course.Course) error {
	exclIDs := make([]string, 0, len(excludedCourses))
	for _, crs := range excludedCourses {
		exclIDs = append(exclIDs, crs.ID)
	}

	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM course WHERE code = $1 AND NOT (id = ANY($2)))`
	if err := repo.db.GetContext(ctx, &exists, q, code, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = newID()
	}

	const q = `
	INSERT INTO course (id, code, name, description, instructor_id, status, students_enrolled, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.Code, crs.Name, crs.Description, crs.InstructorID, crs.Status,
		pq.Array(crs.StudentsEnrolled), crs.Version, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return toCourses(rows), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	q := `SELECT * FROM course WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := placeholder(len(args))
		q += ` AND (name ILIKE ` + p + ` OR code ILIKE ` + p + `)`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = ` + placeholder(len(args))
	}
	if filter.InstructorID != "" {
		args = append(args, filter.InstructorID)
		q += ` AND instructor_id = ` + placeholder(len(args))
	}
	q += ` ORDER BY created_at`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return toCourses(rows), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	const q = `
	UPDATE course SET
		code = $2,
		name = $3,
		description = $4,
		instructor_id = $5,
		status = $6,
		students_enrolled = $7,
		version = version + 1,
		updated_at = $8
	WHERE id = $1 AND version = $9`
	res, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.Code, crs.Name, crs.Description, crs.InstructorID, crs.Status,
		pq.Array(crs.StudentsEnrolled), crs.UpdatedAt, crs.Version,
	)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// either gone or the version moved on
		if _, err = repo.GetCourseByID(ctx, crs.ID); err != nil {
			return course.Course{}, err
		}
		return course.Course{}, core.ErrConcurrentUpdate
	}
	crs.Version++
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}
