package sqlpg

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/leave"
)

type leaveRow struct {
	ID            string    `db:"id"`
	RequesterID   string    `db:"requester_id"`
	RequesterType string    `db:"requester_type"`
	LeaveType     string    `db:"leave_type"`
	FromDate      time.Time `db:"from_date"`
	ToDate        time.Time `db:"to_date"`
	Reason        string    `db:"reason"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r leaveRow) toLeave() leave.Leave {
	return leave.Leave{
		ID:            r.ID,
		RequesterID:   r.RequesterID,
		RequesterType: r.RequesterType,
		LeaveType:     r.LeaveType,
		FromDate:      r.FromDate,
		ToDate:        r.ToDate,
		Reason:        r.Reason,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toLeaves(rows []leaveRow) []leave.Leave {
	leaves := make([]leave.Leave, 0, len(rows))
	for _, r := range rows {
		leaves = append(leaves, r.toLeave())
	}
	return leaves
}

type leaveRepository struct {
	db *sqlx.DB
}

var _ leave.Repository = (*leaveRepository)(nil)

func NewLeaveRepository(db *sqlx.DB) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) CreateLeave(ctx context.Context, lv leave.Leave) (leave.Leave, error) {
	if lv.ID == "" {
		lv.ID = newID()
	}

	const q = `
	INSERT INTO leave_request (id, requester_id, requester_type, leave_type, from_date, to_date, reason, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		lv.ID, lv.RequesterID, lv.RequesterType, lv.LeaveType, lv.FromDate.UTC(), lv.ToDate.UTC(),
		lv.Reason, lv.Status, lv.CreatedAt, lv.UpdatedAt,
	)
	if err != nil {
		return leave.Leave{}, errors.Wrap(err, "creating leave")
	}
	return lv, nil
}

func (repo *leaveRepository) GetLeaveByID(ctx context.Context, id string) (leave.Leave, error) {
	var row leaveRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM leave_request WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return leave.Leave{}, leave.ErrNotFound
		}
		return leave.Leave{}, errors.Wrap(err, "getting leave")
	}
	return row.toLeave(), nil
}

func (repo *leaveRepository) FilterLeaves(ctx context.Context, filter leave.QueryFilter) ([]leave.Leave, error) {
	q := `SELECT * FROM leave_request WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = ` + placeholder(len(args))
	}
	if filter.LeaveType != "" {
		args = append(args, filter.LeaveType)
		q += ` AND leave_type = ` + placeholder(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := placeholder(len(args))
		q += ` AND (reason ILIKE ` + p + ` OR requester_id::text ILIKE ` + p + `)`
	}
	q += ` ORDER BY created_at`

	var rows []leaveRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering leaves")
	}
	return toLeaves(rows), nil
}

func (repo *leaveRepository) QueryLeavesByRequester(ctx context.Context, requesterID string) ([]leave.Leave, error) {
	var rows []leaveRow
	const q = `SELECT * FROM leave_request WHERE requester_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, requesterID); err != nil {
		return nil, errors.Wrap(err, "querying leaves")
	}
	return toLeaves(rows), nil
}

func (repo *leaveRepository) UpdateLeave(ctx context.Context, lv leave.Leave) (leave.Leave, error) {
	const q = `
	UPDATE leave_request SET
		leave_type = $2,
		from_date = $3,
		to_date = $4,
		reason = $5,
		status = $6,
		updated_at = $7
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		lv.ID, lv.LeaveType, lv.FromDate.UTC(), lv.ToDate.UTC(), lv.Reason, lv.Status, lv.UpdatedAt,
	)
	if err != nil {
		return leave.Leave{}, errors.Wrap(err, "updating leave")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.Leave{}, leave.ErrNotFound
	}
	return lv, nil
}
