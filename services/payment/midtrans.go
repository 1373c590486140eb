package paymentsvc

import (
	"context"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/payment"
)

// midtransService drives the Snap checkout flow; the invoice ID doubles as
// the Snap order ID so callbacks route back to the invoice.
type midtransService struct {
	client snap.Client
	logger core.Logger
}

var _ payment.Processor = (*midtransService)(nil)

func NewMidtransService(conf core.PaymentConfig, logger core.Logger) *midtransService {
	svc := &midtransService{logger: logger}
	env := midtrans.Sandbox
	if conf.Production {
		env = midtrans.Production
	}
	svc.client.New(conf.ServerKey, env)
	return svc
}

func (svc *midtransService) CreateTransaction(_ context.Context, inv payment.Invoice, cust payment.Customer) (payment.Checkout, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  inv.ID,
			GrossAmt: inv.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.Name,
			Email: cust.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    inv.ID,
				Price: inv.Amount,
				Qty:   1,
				Name:  truncate(inv.Description, 50),
			},
		},
	}

	resp, err := svc.client.CreateTransaction(req)
	if err != nil {
		return payment.Checkout{}, errors.Wrap(err, "creating snap transaction")
	}
	svc.logger.Debug("snap transaction created", map[string]interface{}{"order_id": inv.ID})
	return payment.Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
