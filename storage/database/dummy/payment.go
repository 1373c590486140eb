package dummydb

import (
	"context"
	"sort"

	"github.com/chuoapp/chuo/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) CreateInvoice(ctx context.Context, inv payment.Invoice) (payment.Invoice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if inv.ID == "" {
		inv.ID = newID()
	}
	repo.db.table[inv.ID] = &inv
	return inv, nil
}

func (repo *paymentRepository) GetInvoiceByID(ctx context.Context, id string) (payment.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.table[id]; ok {
		return *inv, nil
	}
	return payment.Invoice{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryInvoicesByStudent(ctx context.Context, studentID string) ([]payment.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	invs := make([]payment.Invoice, 0)
	for _, inv := range repo.db.table {
		if inv.StudentID == studentID {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].CreatedAt.After(invs[j].CreatedAt) })
	return invs, nil
}

func (repo *paymentRepository) UpdateInvoice(ctx context.Context, inv payment.Invoice) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[inv.ID]; !ok {
		return payment.ErrNotFound
	}
	repo.db.table[inv.ID] = &inv
	return nil
}
