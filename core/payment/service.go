package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/user"
)

var (
	ErrNotFound   = errors.New("invoice not found")
	ErrNotOwner   = errors.New("invoice belongs to another student")
	ErrNotPending = errors.New("invoice is not pending")
)

// Processor is the payment gateway boundary. Transactions are keyed by the
// invoice ID so callbacks can be routed back.
type Processor interface {
	CreateTransaction(ctx context.Context, inv Invoice, cust Customer) (Checkout, error)
}

type Repository interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoiceByID(ctx context.Context, id string) (Invoice, error)
	QueryInvoicesByStudent(ctx context.Context, studentID string) ([]Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
}

type ServiceInterface interface {
	CreateInvoice(ctx context.Context, ni NewInvoice) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	ListForStudent(ctx context.Context, studentID string) ([]Invoice, error)
	Checkout(ctx context.Context, invoiceID string, student user.User) (Checkout, error)
	Confirm(ctx context.Context, cb Callback) (Invoice, error)
	CancelInvoice(ctx context.Context, id string) (Invoice, error)
}

type Service struct {
	repo      Repository
	processor Processor
	users     user.ServiceInterface
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, processor Processor, users user.ServiceInterface) *Service {
	return &Service{repo: repo, processor: processor, users: users}
}

func (svc *Service) CreateInvoice(ctx context.Context, ni NewInvoice) (Invoice, error) {
	if _, err := svc.users.GetByID(ctx, ni.StudentID); err != nil {
		return Invoice{}, err
	}

	currency := ni.Currency
	if currency == "" {
		currency = "IDR"
	}
	now := time.Now().UTC()
	inv := Invoice{
		StudentID:   ni.StudentID,
		Description: ni.Description,
		Amount:      ni.Amount,
		Currency:    currency,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateInvoice(ctx, inv)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Invoice, error) {
	return svc.repo.GetInvoiceByID(ctx, id)
}

func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Invoice, error) {
	return svc.repo.QueryInvoicesByStudent(ctx, studentID)
}

// Checkout opens a payment session for the owning student on a pending
// invoice and stores the processor reference.
func (svc *Service) Checkout(ctx context.Context, invoiceID string, student user.User) (Checkout, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return Checkout{}, err
	}
	if inv.StudentID != student.ID {
		return Checkout{}, ErrNotOwner
	}
	if inv.Status != StatusPending {
		return Checkout{}, ErrNotPending
	}

	co, err := svc.processor.CreateTransaction(ctx, inv, Customer{
		ID:    student.ID,
		Name:  student.Name,
		Email: student.Email,
	})
	if err != nil {
		return Checkout{}, errors.Wrap(err, "creating payment transaction")
	}

	inv.ProcessorRef = co.Token
	inv.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
		return Checkout{}, err
	}
	return co, nil
}

// Confirm applies a processor callback. Settlement and capture mark the
// invoice paid; denial, cancellation and expiry cancel it; anything else
// leaves it pending. Replays of a final status are no-ops.
func (svc *Service) Confirm(ctx context.Context, cb Callback) (Invoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, cb.OrderID)
	if err != nil {
		return Invoice{}, err
	}

	var status string
	switch cb.TransactionStatus {
	case "settlement", "capture":
		status = StatusPaid
	case "deny", "cancel", "expire":
		status = StatusCancelled
	default:
		return inv, nil
	}
	if inv.Status == status {
		return inv, nil
	}
	if inv.Status != StatusPending {
		return Invoice{}, ErrNotPending
	}

	inv.Status = status
	inv.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (svc *Service) CancelInvoice(ctx context.Context, id string) (Invoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status != StatusPending {
		return Invoice{}, ErrNotPending
	}

	inv.Status = StatusCancelled
	inv.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}
