package payment

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func TestNewInvoiceValidate(t *testing.T) {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	InitValidators(validate, translator)

	valid := NewInvoice{StudentID: "stu-1", Description: "Tuition", Amount: 1500000}

	tests := []struct {
		name    string
		mutate  func(*NewInvoice)
		wantErr bool
	}{
		{name: "currency omitted", mutate: func(ni *NewInvoice) {}},
		{name: "IDR", mutate: func(ni *NewInvoice) { ni.Currency = "IDR" }},
		{name: "USD", mutate: func(ni *NewInvoice) { ni.Currency = "USD" }},
		{name: "lowercase", mutate: func(ni *NewInvoice) { ni.Currency = "idr" }, wantErr: true},
		{name: "too long", mutate: func(ni *NewInvoice) { ni.Currency = "EURO" }, wantErr: true},
		{name: "too short", mutate: func(ni *NewInvoice) { ni.Currency = "ID" }, wantErr: true},
		{name: "digits", mutate: func(ni *NewInvoice) { ni.Currency = "360" }, wantErr: true},
		{name: "zero amount", mutate: func(ni *NewInvoice) { ni.Amount = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ni := valid
			tt.mutate(&ni)
			if err := ni.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
