package payment

import (
	"context"
	"testing"
)

// fakeRepo is a single-invoice Repository for exercising status transitions.
type fakeRepo struct {
	inv Invoice
}

func (r *fakeRepo) CreateInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	r.inv = inv
	return inv, nil
}

func (r *fakeRepo) GetInvoiceByID(_ context.Context, id string) (Invoice, error) {
	if id != r.inv.ID {
		return Invoice{}, ErrNotFound
	}
	return r.inv, nil
}

func (r *fakeRepo) QueryInvoicesByStudent(_ context.Context, studentID string) ([]Invoice, error) {
	if studentID != r.inv.StudentID {
		return nil, nil
	}
	return []Invoice{r.inv}, nil
}

func (r *fakeRepo) UpdateInvoice(_ context.Context, inv Invoice) error {
	r.inv = inv
	return nil
}

func TestServiceConfirm(t *testing.T) {
	tests := []struct {
		name       string
		invStatus  string
		orderID    string
		txStatus   string
		wantStatus string
		wantErr    error
	}{
		{name: "settlement pays", invStatus: StatusPending, txStatus: "settlement", wantStatus: StatusPaid},
		{name: "capture pays", invStatus: StatusPending, txStatus: "capture", wantStatus: StatusPaid},
		{name: "deny cancels", invStatus: StatusPending, txStatus: "deny", wantStatus: StatusCancelled},
		{name: "cancel cancels", invStatus: StatusPending, txStatus: "cancel", wantStatus: StatusCancelled},
		{name: "expire cancels", invStatus: StatusPending, txStatus: "expire", wantStatus: StatusCancelled},
		{name: "unknown status is ignored", invStatus: StatusPending, txStatus: "pending", wantStatus: StatusPending},
		{name: "settlement replay is a no-op", invStatus: StatusPaid, txStatus: "settlement", wantStatus: StatusPaid},
		{name: "cancel replay is a no-op", invStatus: StatusCancelled, txStatus: "expire", wantStatus: StatusCancelled},
		{name: "paid invoices cannot expire", invStatus: StatusPaid, txStatus: "expire", wantErr: ErrNotPending},
		{name: "cancelled invoices cannot settle", invStatus: StatusCancelled, txStatus: "settlement", wantErr: ErrNotPending},
		{name: "unknown order", invStatus: StatusPending, orderID: "nothing", txStatus: "settlement", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{inv: Invoice{ID: "inv-1", StudentID: "stu-1", Status: tt.invStatus}}
			svc := NewService(repo, nil, nil)

			orderID := tt.orderID
			if orderID == "" {
				orderID = "inv-1"
			}
			inv, err := svc.Confirm(context.Background(), Callback{OrderID: orderID, TransactionStatus: tt.txStatus})
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("Confirm() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Confirm() failed: %v", err)
			}
			if inv.Status != tt.wantStatus {
				t.Errorf("Confirm() status = %v, want %v", inv.Status, tt.wantStatus)
			}
			if repo.inv.Status != tt.wantStatus {
				t.Errorf("Confirm() stored status = %v, want %v", repo.inv.Status, tt.wantStatus)
			}
		})
	}
}

func TestServiceCancelInvoice(t *testing.T) {
	tests := []struct {
		name      string
		invStatus string
		wantErr   error
	}{
		{name: "pending cancels", invStatus: StatusPending},
		{name: "paid does not", invStatus: StatusPaid, wantErr: ErrNotPending},
		{name: "cancelled does not", invStatus: StatusCancelled, wantErr: ErrNotPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{inv: Invoice{ID: "inv-1", StudentID: "stu-1", Status: tt.invStatus}}
			svc := NewService(repo, nil, nil)

			inv, err := svc.CancelInvoice(context.Background(), "inv-1")
			if err != tt.wantErr {
				t.Fatalf("CancelInvoice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && inv.Status != StatusCancelled {
				t.Errorf("CancelInvoice() status = %v, want %v", inv.Status, StatusCancelled)
			}
		})
	}
}
