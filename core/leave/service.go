package leave

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("leave request not found")
	ErrNotPending = errors.New("leave request is no longer pending")
	ErrNotOwner   = errors.New("only the requester may cancel this leave")
)

type (
	Repository interface {
		CreateLeave(ctx context.Context, lv Leave) (Leave, error)
		GetLeaveByID(ctx context.Context, id string) (Leave, error)
		// FilterLeaves applies AND operation on status, leave type and a
		// case-insensitive search over reason and requester id; the date
		// bucket is applied by the service.
		FilterLeaves(ctx context.Context, filter QueryFilter) ([]Leave, error)
		QueryLeavesByRequester(ctx context.Context, requesterID string) ([]Leave, error)
		UpdateLeave(ctx context.Context, lv Leave) (Leave, error)
	}

	ServiceInterface interface {
		Submit(ctx context.Context, nl NewLeave, requester user.User) (Leave, error)
		GetByID(ctx context.Context, id string) (Leave, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Leave, error)
		ForRequester(ctx context.Context, requesterID string) ([]Leave, error)
		Approve(ctx context.Context, id string) (Leave, error)
		Reject(ctx context.Context, id string) (Leave, error)
		Cancel(ctx context.Context, id string, actor user.User) (Leave, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Submit(ctx context.Context, nl NewLeave, requester user.User) (Leave, error) {
	reqType := RequesterStudent
	if requester.IsFaculty() || requester.IsAdmin() {
		reqType = RequesterFaculty
	}
	now := time.Now().UTC()
	lv := Leave{
		RequesterID:   requester.ID,
		RequesterType: reqType,
		FromDate:      nl.FromDate,
		ToDate:        nl.ToDate,
		LeaveType:     nl.LeaveType,
		Reason:        nl.Reason,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateLeave(ctx, lv)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Leave, error) {
	return svc.repo.GetLeaveByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Leave, error) {
	leaves, err := svc.repo.FilterLeaves(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.Bucket == "" {
		return leaves, nil
	}
	return bucketFilter(leaves, filter.Bucket, time.Now().UTC()), nil
}

func (svc *Service) ForRequester(ctx context.Context, requesterID string) ([]Leave, error) {
	return svc.repo.QueryLeavesByRequester(ctx, requesterID)
}

// Approve transitions a pending leave to approved; terminal.
func (svc *Service) Approve(ctx context.Context, id string) (Leave, error) {
	return svc.transition(ctx, id, StatusApproved)
}

// Reject transitions a pending leave to rejected; terminal.
func (svc *Service) Reject(ctx context.Context, id string) (Leave, error) {
	return svc.transition(ctx, id, StatusRejected)
}

func (svc *Service) transition(ctx context.Context, id, target string) (Leave, error) {
	lv, err := svc.repo.GetLeaveByID(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if lv.Status != StatusPending {
		return Leave{}, ErrNotPending
	}
	lv.Status = target
	lv.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLeave(ctx, lv)
}

// Cancel lets the requester withdraw their own leave while it is still pending.
func (svc *Service) Cancel(ctx context.Context, id string, actor user.User) (Leave, error) {
	lv, err := svc.repo.GetLeaveByID(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if lv.RequesterID != actor.ID {
		return Leave{}, ErrNotOwner
	}
	if lv.Status != StatusPending {
		return Leave{}, ErrNotPending
	}
	lv.Status = StatusCancelled
	lv.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLeave(ctx, lv)
}

// bucketFilter keeps leaves whose window matches the date bucket relative to `now`:
// today: window covers today; upcoming: starts after today; past: ended before today.
func bucketFilter(leaves []Leave, bucket string, now time.Time) []Leave {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	kept := make([]Leave, 0, len(leaves))
	for _, lv := range leaves {
		from := time.Date(lv.FromDate.Year(), lv.FromDate.Month(), lv.FromDate.Day(), 0, 0, 0, 0, time.UTC)
		to := time.Date(lv.ToDate.Year(), lv.ToDate.Month(), lv.ToDate.Day(), 0, 0, 0, 0, time.UTC)
		switch bucket {
		case BucketToday:
			if !from.After(today) && !to.Before(today) {
				kept = append(kept, lv)
			}
		case BucketUpcoming:
			if from.After(today) {
				kept = append(kept, lv)
			}
		case BucketPast:
			if to.Before(today) {
				kept = append(kept, lv)
			}
		}
	}
	return kept
}
