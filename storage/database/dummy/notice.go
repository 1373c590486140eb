package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/chuoapp/chuo/core/notice"
)

type noticeRepository struct {
	db *noticeTable
}

var _ notice.Repository = (*noticeRepository)(nil)

func NewNoticeRepository(db *DB) notice.Repository {
	return &noticeRepository{db: db.notice}
}

func deliveryKey(notificationID, recipientID string) string {
	return notificationID + "/" + recipientID
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.ID == "" {
		n.ID = newID()
	}
	repo.db.notices[n.ID] = &n
	return n, nil
}

func (repo *noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.notices[id]; ok {
		return *n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) QueryActiveNotices(ctx context.Context, now time.Time) ([]notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notices := make([]notice.Notice, 0)
	for _, n := range repo.db.notices {
		if !n.Expired(now) {
			notices = append(notices, *n)
		}
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].CreatedAt.After(notices[j].CreatedAt) })
	return notices, nil
}

func (repo *noticeRepository) DeleteNoticeByID(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.notices, id)
	return nil
}

func (repo *noticeRepository) DeleteExpiredNotices(ctx context.Context, now time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for id, n := range repo.db.notices {
		if n.Expired(now) {
			delete(repo.db.notices, id)
			count++
		}
	}
	return count, nil
}

func (repo *noticeRepository) CreateNotification(ctx context.Context, n notice.Notification, recipientIDs []string) (notice.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.ID == "" {
		n.ID = newID()
	}
	repo.db.notifications[n.ID] = &n
	for _, rid := range recipientIDs {
		d := notice.Delivery{NotificationID: n.ID, RecipientID: rid}
		repo.db.deliveries[deliveryKey(n.ID, rid)] = &d
	}
	return n, nil
}

func (repo *noticeRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]notice.UserNotification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notice.UserNotification, 0)
	for _, d := range repo.db.deliveries {
		if d.RecipientID != recipientID {
			continue
		}
		if n, ok := repo.db.notifications[d.NotificationID]; ok {
			notifs = append(notifs, notice.UserNotification{Notification: *n, IsRead: d.IsRead})
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *noticeRepository) GetDelivery(ctx context.Context, notificationID, recipientID string) (notice.Delivery, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.deliveries[deliveryKey(notificationID, recipientID)]; ok {
		return *d, nil
	}
	return notice.Delivery{}, notice.ErrNotRecipient
}

func (repo *noticeRepository) UpdateDelivery(ctx context.Context, d notice.Delivery) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := deliveryKey(d.NotificationID, d.RecipientID)
	if _, ok := repo.db.deliveries[key]; !ok {
		return notice.ErrNotRecipient
	}
	repo.db.deliveries[key] = &d
	return nil
}
