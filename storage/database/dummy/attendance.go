package dummydb

import (
	"context"
	"sort"

	"github.com/chuoapp/chuo/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) queryRecords() []attendance.Record {
	recs := make([]attendance.Record, 0, len(repo.db.records))
	for _, rec := range repo.db.records {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.records {
		if existing.StudentID == rec.StudentID && existing.CourseID == rec.CourseID && existing.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryRecordsByCourse(ctx context.Context, courseID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.queryRecords() {
		if rec.CourseID == courseID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.queryRecords() {
		if rec.StudentID == studentID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *attendanceRepository) CreateRequest(ctx context.Context, req attendance.Request) (attendance.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if req.ID == "" {
		req.ID = newID()
	}
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *attendanceRepository) GetRequestByID(ctx context.Context, id string) (attendance.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if req, ok := repo.db.requests[id]; ok {
		return *req, nil
	}
	return attendance.Request{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRequestsByCourse(ctx context.Context, courseID, status string) ([]attendance.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reqs := make([]attendance.Request, 0)
	for _, req := range repo.db.requests {
		if req.CourseID != courseID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		reqs = append(reqs, *req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *attendanceRepository) UpdateRequest(ctx context.Context, req attendance.Request) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.requests[req.ID]; !ok {
		return attendance.ErrNotFound
	}
	repo.db.requests[req.ID] = &req
	return nil
}
