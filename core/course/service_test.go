package course

import (
	"context"
	"testing"

	"github.com/chuoapp/chuo/core"
)

// conflictRepo is a single-course Repository that fails UpdateCourse with a
// version conflict a configured number of times before accepting the write.
type conflictRepo struct {
	crs       Course
	conflicts int
	updates   int
}

func (r *conflictRepo) CheckCodeUniqueness(_ context.Context, _ string, _ ...Course) error {
	return nil
}

func (r *conflictRepo) CreateCourse(_ context.Context, crs Course) (Course, error) {
	r.crs = crs
	return crs, nil
}

func (r *conflictRepo) QueryAllCourses(_ context.Context) ([]Course, error) {
	return []Course{r.crs}, nil
}

func (r *conflictRepo) GetCourseByID(_ context.Context, id string) (Course, error) {
	if id != r.crs.ID {
		return Course{}, ErrNotFound
	}
	return r.crs, nil
}

func (r *conflictRepo) FilterCourses(_ context.Context, _ QueryFilter) ([]Course, error) {
	return []Course{r.crs}, nil
}

func (r *conflictRepo) UpdateCourse(_ context.Context, crs Course) (Course, error) {
	r.updates++
	if r.conflicts > 0 {
		r.conflicts--
		return Course{}, core.ErrConcurrentUpdate
	}
	crs.Version++
	r.crs = crs
	return crs, nil
}

func (r *conflictRepo) DeleteCoursesByID(_ context.Context, _ ...string) error {
	return nil
}

func TestServiceTransition(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		target     string
		wantStatus string
		wantErr    error
	}{
		{name: "approve pending", status: StatusPending, target: StatusApproved, wantStatus: StatusApproved},
		{name: "reject pending", status: StatusPending, target: StatusRejected, wantStatus: StatusRejected},
		{name: "approve approved is a no-op", status: StatusApproved, target: StatusApproved, wantStatus: StatusApproved},
		{name: "reject rejected is a no-op", status: StatusRejected, target: StatusRejected, wantStatus: StatusRejected},
		{name: "approve rejected", status: StatusRejected, target: StatusApproved, wantErr: ErrInvalidTransition},
		{name: "reject approved", status: StatusApproved, target: StatusRejected, wantErr: ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &conflictRepo{crs: Course{ID: "crs-1", Status: tt.status}}
			svc := NewService(repo, nil)

			transition := svc.Approve
			if tt.target == StatusRejected {
				transition = svc.Reject
			}
			crs, err := transition(context.Background(), "crs-1")
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("transition error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition failed: %v", err)
			}
			if crs.Status != tt.wantStatus {
				t.Errorf("transition status = %v, want %v", crs.Status, tt.wantStatus)
			}
		})
	}
}

func TestServiceEnroll(t *testing.T) {
	t.Run("not approved", func(t *testing.T) {
		repo := &conflictRepo{crs: Course{ID: "crs-1", Status: StatusPending}}
		svc := NewService(repo, nil)

		if _, err := svc.Enroll(context.Background(), "crs-1", "stu-1"); err != ErrNotApproved {
			t.Errorf("Enroll() error = %v, wantErr %v", err, ErrNotApproved)
		}
	})

	t.Run("appends to the roster", func(t *testing.T) {
		repo := &conflictRepo{crs: Course{ID: "crs-1", Status: StatusApproved, StudentsEnrolled: []string{"stu-0"}}}
		svc := NewService(repo, nil)

		crs, err := svc.Enroll(context.Background(), "crs-1", "stu-1")
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if len(crs.StudentsEnrolled) != 2 || crs.StudentsEnrolled[1] != "stu-1" {
			t.Errorf("Enroll() roster = %v, want [stu-0 stu-1]", crs.StudentsEnrolled)
		}
	})

	t.Run("duplicate-safe", func(t *testing.T) {
		repo := &conflictRepo{crs: Course{ID: "crs-1", Status: StatusApproved, StudentsEnrolled: []string{"stu-1"}}}
		svc := NewService(repo, nil)

		crs, err := svc.Enroll(context.Background(), "crs-1", "stu-1")
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if len(crs.StudentsEnrolled) != 1 {
			t.Errorf("Enroll() roster = %v, want [stu-1]", crs.StudentsEnrolled)
		}
		if repo.updates != 0 {
			t.Errorf("Enroll() wrote %v times, want 0", repo.updates)
		}
	})

	t.Run("retries version conflicts", func(t *testing.T) {
		repo := &conflictRepo{crs: Course{ID: "crs-1", Status: StatusApproved}, conflicts: 2}
		svc := NewService(repo, nil)

		crs, err := svc.Enroll(context.Background(), "crs-1", "stu-1")
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if !crs.IsEnrolled("stu-1") {
			t.Errorf("Enroll() roster = %v, want stu-1 enrolled", crs.StudentsEnrolled)
		}
		if repo.updates != 3 {
			t.Errorf("Enroll() wrote %v times, want 3", repo.updates)
		}
	})

	t.Run("gives up after too many conflicts", func(t *testing.T) {
		repo := &conflictRepo{crs: Course{ID: "crs-1", Status: StatusApproved}, conflicts: casMaxRetries}
		svc := NewService(repo, nil)

		if _, err := svc.Enroll(context.Background(), "crs-1", "stu-1"); err != core.ErrConcurrentUpdate {
			t.Errorf("Enroll() error = %v, wantErr %v", err, core.ErrConcurrentUpdate)
		}
	})
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"cs301", "CS301"},
		{"CS301", "CS301"},
		{"mAtH10", "MATH10"},
	}
	for _, tt := range tests {
		if got := normalizeCode(tt.in); got != tt.want {
			t.Errorf("normalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
