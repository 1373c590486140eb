package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...course.Course) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedCourses))
	for _, crs := range excludedCourses {
		excluded[crs.ID] = struct{}{}
	}

	for _, crs := range repo.query() {
		if _, ok := excluded[crs.ID]; ok {
			continue
		}
		if crs.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if crs.ID == "" {
		crs.ID = newID()
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := repo.query()

	if filter.Search != "" {
		var filtered []course.Course
		for _, crs := range courses {
			if strings.Contains(strings.ToLower(crs.Name), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(crs.Code), strings.ToLower(filter.Search)) {
				filtered = append(filtered, crs)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.Status != "" {
		var filtered []course.Course
		for _, crs := range courses {
			if crs.Status == filter.Status {
				filtered = append(filtered, crs)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.InstructorID != "" {
		var filtered []course.Course
		for _, crs := range courses {
			if crs.InstructorID == filter.InstructorID {
				filtered = append(filtered, crs)
			}
		}
		courses = filtered
	}

	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if orig.Version != crs.Version {
		return course.Course{}, core.ErrConcurrentUpdate
	}

	crs.Version++
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
