package sqlpg

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/notice"
)

type noticeRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r noticeRow) toNotice() notice.Notice {
	return notice.Notice{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

type userNotificationRow struct {
	ID         string       `db:"id"`
	Title      string       `db:"title"`
	Message    string       `db:"message"`
	Link       string       `db:"link"`
	TargetRole string       `db:"target_role"`
	CreatedBy  string       `db:"created_by"`
	CreatedAt  time.Time    `db:"created_at"`
	IsRead     bool         `db:"is_read"`
	ReadAt     sql.NullTime `db:"read_at"`
}

type noticeRepository struct {
	db *sqlx.DB
}

var _ notice.Repository = (*noticeRepository)(nil)

func NewNoticeRepository(db *sqlx.DB) notice.Repository {
	return &noticeRepository{db: db}
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	if n.ID == "" {
		n.ID = newID()
	}

	const q = `
	INSERT INTO notice (id, title, content, created_by, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, n.ID, n.Title, n.Content, n.CreatedBy, n.CreatedAt, n.ExpiresAt)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "creating notice")
	}
	return n, nil
}

func (repo *noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	var row noticeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notice WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return notice.Notice{}, notice.ErrNotFound
		}
		return notice.Notice{}, errors.Wrap(err, "getting notice")
	}
	return row.toNotice(), nil
}

func (repo *noticeRepository) QueryActiveNotices(ctx context.Context, now time.Time) ([]notice.Notice, error) {
	var rows []noticeRow
	const q = `SELECT * FROM notice WHERE expires_at > $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, now.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	notices := make([]notice.Notice, 0, len(rows))
	for _, r := range rows {
		notices = append(notices, r.toNotice())
	}
	return notices, nil
}

func (repo *noticeRepository) DeleteNoticeByID(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM notice WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return nil
}

func (repo *noticeRepository) DeleteExpiredNotices(ctx context.Context, now time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notice WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "sweeping notices")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *noticeRepository) CreateNotification(ctx context.Context, n notice.Notification, recipientIDs []string) (notice.Notification, error) {
	if n.ID == "" {
		n.ID = newID()
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return notice.Notification{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
	INSERT INTO notification (id, title, message, link, target_role, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, q, n.ID, n.Title, n.Message, n.Link, n.TargetRole, n.CreatedBy, n.CreatedAt); err != nil {
		return notice.Notification{}, errors.Wrap(err, "creating notification")
	}

	const dq = `
	INSERT INTO notification_delivery (notification_id, recipient_id)
	VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, rid := range recipientIDs {
		if _, err = tx.ExecContext(ctx, dq, n.ID, rid); err != nil {
			return notice.Notification{}, errors.Wrap(err, "creating notification delivery")
		}
	}

	if err = tx.Commit(); err != nil {
		return notice.Notification{}, errors.Wrap(err, "committing notification")
	}
	return n, nil
}

func (repo *noticeRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]notice.UserNotification, error) {
	const q = `
	SELECT n.*, d.is_read, d.read_at FROM notification n
	JOIN notification_delivery d ON d.notification_id = n.id
	WHERE d.recipient_id = $1
	ORDER BY n.created_at DESC`

	var rows []userNotificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, recipientID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifs := make([]notice.UserNotification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, notice.UserNotification{
			Notification: notice.Notification{
				ID:         r.ID,
				Title:      r.Title,
				Message:    r.Message,
				Link:       r.Link,
				TargetRole: r.TargetRole,
				CreatedBy:  r.CreatedBy,
				CreatedAt:  r.CreatedAt,
			},
			IsRead: r.IsRead,
		})
	}
	return notifs, nil
}

func (repo *noticeRepository) GetDelivery(ctx context.Context, notificationID, recipientID string) (notice.Delivery, error) {
	var row struct {
		NotificationID string       `db:"notification_id"`
		RecipientID    string       `db:"recipient_id"`
		IsRead         bool         `db:"is_read"`
		ReadAt         sql.NullTime `db:"read_at"`
	}
	const q = `SELECT * FROM notification_delivery WHERE notification_id = $1 AND recipient_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, notificationID, recipientID); err != nil {
		if isNoRows(err) {
			return notice.Delivery{}, notice.ErrNotRecipient
		}
		return notice.Delivery{}, errors.Wrap(err, "getting notification delivery")
	}

	d := notice.Delivery{
		NotificationID: row.NotificationID,
		RecipientID:    row.RecipientID,
		IsRead:         row.IsRead,
	}
	if row.ReadAt.Valid {
		d.ReadAt = row.ReadAt.Time
	}
	return d, nil
}

func (repo *noticeRepository) UpdateDelivery(ctx context.Context, d notice.Delivery) error {
	const q = `
	UPDATE notification_delivery SET is_read = $3, read_at = $4
	WHERE notification_id = $1 AND recipient_id = $2`
	var readAt interface{}
	if !d.ReadAt.IsZero() {
		readAt = d.ReadAt.UTC()
	}
	res, err := repo.db.ExecContext(ctx, q, d.NotificationID, d.RecipientID, d.IsRead, readAt)
	if err != nil {
		return errors.Wrap(err, "updating notification delivery")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notice.ErrNotRecipient
	}
	return nil
}
