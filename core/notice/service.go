package notice

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/user"
)

var (
	ErrNotFound             = errors.New("notice not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("user is not a recipient of this notification")
)

type Repository interface {
	CreateNotice(ctx context.Context, n Notice) (Notice, error)
	GetNoticeByID(ctx context.Context, id string) (Notice, error)
	// QueryActiveNotices returns notices whose ExpiresAt is after now.
	QueryActiveNotices(ctx context.Context, now time.Time) ([]Notice, error)
	DeleteNoticeByID(ctx context.Context, id string) error
	// DeleteExpiredNotices removes notices expired at now and reports how many.
	DeleteExpiredNotices(ctx context.Context, now time.Time) (int, error)

	CreateNotification(ctx context.Context, n Notification, recipientIDs []string) (Notification, error)
	QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]UserNotification, error)
	GetDelivery(ctx context.Context, notificationID, recipientID string) (Delivery, error)
	UpdateDelivery(ctx context.Context, d Delivery) error
}

type ServiceInterface interface {
	CreateNotice(ctx context.Context, nn NewNotice, actor user.User) (Notice, error)
	ListNotices(ctx context.Context) ([]Notice, error)
	DeleteNotice(ctx context.Context, id string) error
	SweepExpired(ctx context.Context) (int, error)

	Broadcast(ctx context.Context, nn NewNotification, actor user.User) (Notification, error)
	ListMine(ctx context.Context, recipientID string) ([]UserNotification, error)
	MarkRead(ctx context.Context, notificationID string, recipient user.User) (UserNotification, error)
}

type Service struct {
	repo  Repository
	users user.ServiceInterface
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, users user.ServiceInterface) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) CreateNotice(ctx context.Context, nn NewNotice, actor user.User) (Notice, error) {
	now := time.Now().UTC()
	n := Notice{
		Title:     nn.Title,
		Content:   nn.Content,
		CreatedBy: actor.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(nn.ExpiresInHours) * time.Hour),
	}
	return svc.repo.CreateNotice(ctx, n)
}

// ListNotices returns live notices only; lapsed ones stay hidden until swept.
func (svc *Service) ListNotices(ctx context.Context) ([]Notice, error) {
	return svc.repo.QueryActiveNotices(ctx, time.Now().UTC())
}

func (svc *Service) DeleteNotice(ctx context.Context, id string) error {
	if _, err := svc.repo.GetNoticeByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteNoticeByID(ctx, id)
}

// SweepExpired purges lapsed notices and returns the number removed.
func (svc *Service) SweepExpired(ctx context.Context) (int, error) {
	return svc.repo.DeleteExpiredNotices(ctx, time.Now().UTC())
}

// Broadcast fans a notification out to explicit recipients or to every
// active user holding the target role.
func (svc *Service) Broadcast(ctx context.Context, nn NewNotification, actor user.User) (Notification, error) {
	recipients := nn.Recipients
	if len(recipients) == 0 {
		var err error
		if recipients, err = svc.resolveRole(ctx, nn.TargetRole); err != nil {
			return Notification{}, err
		}
	}

	n := Notification{
		Title:      nn.Title,
		Message:    nn.Message,
		Link:       nn.Link,
		TargetRole: nn.TargetRole,
		CreatedBy:  actor.ID,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateNotification(ctx, n, recipients)
}

func (svc *Service) ListMine(ctx context.Context, recipientID string) ([]UserNotification, error) {
	return svc.repo.QueryNotificationsByRecipient(ctx, recipientID)
}

// MarkRead flips the recipient's own read flag; other users get ErrNotRecipient.
func (svc *Service) MarkRead(ctx context.Context, notificationID string, recipient user.User) (UserNotification, error) {
	d, err := svc.repo.GetDelivery(ctx, notificationID, recipient.ID)
	if err != nil {
		return UserNotification{}, err
	}
	if !d.IsRead {
		d.IsRead = true
		d.ReadAt = time.Now().UTC()
		if err = svc.repo.UpdateDelivery(ctx, d); err != nil {
			return UserNotification{}, err
		}
	}

	mine, err := svc.repo.QueryNotificationsByRecipient(ctx, recipient.ID)
	if err != nil {
		return UserNotification{}, err
	}
	for _, un := range mine {
		if un.ID == notificationID {
			return un, nil
		}
	}
	return UserNotification{}, ErrNotificationNotFound
}

func (svc *Service) resolveRole(ctx context.Context, role string) ([]string, error) {
	var filter user.QueryFilter
	switch role {
	case TargetStudent:
		filter.Roles = user.StudentRoles
	case TargetFaculty:
		filter.Roles = user.FacultyRoles
	}
	active := true
	filter.IsActive = &active

	usrs, err := svc.users.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(usrs))
	for _, usr := range usrs {
		ids = append(ids, usr.ID)
	}
	return ids, nil
}
