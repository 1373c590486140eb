package payment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

// Invoice statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

var (
	currencyTag  = "currency"
	currencyText = "currency must be a 3-letter ISO 4217 code"
)

// InitValidators registers the payment package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(currencyTag, currencyValidation)
	core.RegisterCustomTranslation(validate, translator, currencyTag, currencyText)
}

func currencyValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if len(val) != 3 {
		return false
	}
	for _, r := range val {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Invoice is a fee owed by a student. Amount is in minor units.
type Invoice struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	Description  string    `json:"description"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ProcessorRef string    `json:"processor_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewInvoice struct {
	StudentID   string `json:"student_id" validate:"required"`
	Description string `json:"description" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,currency"`
}

func (ni NewInvoice) Validate(validate *validator.Validate) error {
	return validate.Struct(ni)
}

// Customer is the payer identity handed to the processor.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// Checkout is the processor-issued payment session.
type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Callback is the processor's payment notification payload.
type Callback struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
}

func (cb Callback) Validate(validate *validator.Validate) error {
	return validate.Struct(cb)
}
