package dummydb

import (
	"context"
	"sort"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/exam"
)

type examRepository struct {
	db *examTable
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) queryExams() []exam.Exam {
	exams := make([]exam.Exam, 0, len(repo.db.exams))
	for _, e := range repo.db.exams {
		exams = append(exams, *e)
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].CreatedAt.Before(exams[j].CreatedAt) })
	return exams
}

func (repo *examRepository) queryResults() []exam.Result {
	results := make([]exam.Result, 0, len(repo.db.results))
	for _, r := range repo.db.results {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.Before(results[j].CreatedAt) })
	return results
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e.ID == "" {
		e.ID = newID()
	}
	repo.db.exams[e.ID] = &e
	return e, nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.exams[id]; ok {
		return *e, nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) FilterExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := make([]exam.Exam, 0)
	for _, e := range repo.queryExams() {
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		exams = append(exams, e)
	}
	return exams, nil
}

func (repo *examRepository) UpdateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.exams[e.ID]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	if orig.Version != e.Version {
		return exam.Exam{}, core.ErrConcurrentUpdate
	}

	e.Version++
	repo.db.exams[e.ID] = &e
	return e, nil
}

func (repo *examRepository) CreateResult(ctx context.Context, r exam.Result) (exam.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.results {
		if existing.ExamID == r.ExamID && existing.StudentID == r.StudentID {
			return exam.Result{}, exam.ErrResultExists
		}
	}

	if r.ID == "" {
		r.ID = newID()
	}
	repo.db.results[r.ID] = &r
	return r, nil
}

func (repo *examRepository) GetResultByExamAndStudent(ctx context.Context, examID, studentID string) (exam.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.results {
		if r.ExamID == examID && r.StudentID == studentID {
			return *r, nil
		}
	}
	return exam.Result{}, exam.ErrResultNotFound
}

func (repo *examRepository) QueryResultsByStudent(ctx context.Context, studentID string) ([]exam.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]exam.Result, 0)
	for _, r := range repo.queryResults() {
		if r.StudentID == studentID {
			results = append(results, r)
		}
	}
	return results, nil
}

func (repo *examRepository) QueryResultsByExam(ctx context.Context, examID string) ([]exam.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]exam.Result, 0)
	for _, r := range repo.queryResults() {
		if r.ExamID == examID {
			results = append(results, r)
		}
	}
	return results, nil
}

func (repo *examRepository) UpdateResult(ctx context.Context, r exam.Result) (exam.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.results[r.ID]
	if !ok {
		return exam.Result{}, exam.ErrResultNotFound
	}
	if orig.Version != r.Version {
		return exam.Result{}, core.ErrConcurrentUpdate
	}

	r.Version++
	repo.db.results[r.ID] = &r
	return r, nil
}

func (repo *examRepository) DeleteResultsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.results, id)
	}
	return nil
}
