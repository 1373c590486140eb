package sqlpg

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/payment"
)

type invoiceRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	Description  string    `db:"description"`
	Amount       int64     `db:"amount"`
	Currency     string    `db:"currency"`
	Status       string    `db:"status"`
	ProcessorRef string    `db:"processor_ref"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r invoiceRow) toInvoice() payment.Invoice {
	return payment.Invoice{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Description:  r.Description,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Status:       r.Status,
		ProcessorRef: r.ProcessorRef,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreateInvoice(ctx context.Context, inv payment.Invoice) (payment.Invoice, error) {
	if inv.ID == "" {
		inv.ID = newID()
	}

	const q = `
	INSERT INTO invoice (id, student_id, description, amount, currency, status, processor_ref, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		inv.ID, inv.StudentID, inv.Description, inv.Amount, inv.Currency, inv.Status,
		inv.ProcessorRef, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return payment.Invoice{}, errors.Wrap(err, "creating invoice")
	}
	return inv, nil
}

func (repo *paymentRepository) GetInvoiceByID(ctx context.Context, id string) (payment.Invoice, error) {
	var row invoiceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM invoice WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return payment.Invoice{}, payment.ErrNotFound
		}
		return payment.Invoice{}, errors.Wrap(err, "getting invoice")
	}
	return row.toInvoice(), nil
}

func (repo *paymentRepository) QueryInvoicesByStudent(ctx context.Context, studentID string) ([]payment.Invoice, error) {
	var rows []invoiceRow
	const q = `SELECT * FROM invoice WHERE student_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying invoices")
	}
	invs := make([]payment.Invoice, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, r.toInvoice())
	}
	return invs, nil
}

func (repo *paymentRepository) UpdateInvoice(ctx context.Context, inv payment.Invoice) error {
	const q = `
	UPDATE invoice SET status = $2, processor_ref = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, inv.ID, inv.Status, inv.ProcessorRef, inv.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payment.ErrNotFound
	}
	return nil
}
