package tests

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/chuoapp/chuo/core/payment"
	"github.com/chuoapp/chuo/core/user"
	"github.com/chuoapp/chuo/tests"
)

func createInvoice(t *testing.T, adminToken, studentID, desc string, amount int64) payment.Invoice {
	t.Helper()

	body := []byte(`{"student_id": "` + studentID + `", "description": "` + desc + `", "amount": ` + strconv.FormatInt(amount, 10) + `}`)
	req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createInvoice() failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var inv payment.Invoice
	decodeData(t, rec, &inv)
	return inv
}

func Test_paymentApi_invoices(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "PI Admin", "piadmin", "piadmin@test.cd", "", []string{user.RoleAdmin}, true)
	stu := testutil.CreateUser(t, usrRepo, "PI Student", "pistudent", "pistudent@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "PI Other", "piother", "piother@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	stuToken := getToken(t, stu)

	t.Run("student cannot invoice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices", stuToken, []byte(`{}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("bad currency", func(t *testing.T) {
		body := []byte(`{"student_id": "` + stu.ID + `", "description": "Tuition", "amount": 1500000, "currency": "rupiah"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"currency": "currency must be a 3-letter ISO 4217 code"},
			}),
		}, rec)
	})

	t.Run("explicit currency", func(t *testing.T) {
		body := []byte(`{"student_id": "` + other.ID + `", "description": "PI Library fine", "amount": 50000, "currency": "USD"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var got payment.Invoice
		decodeData(t, rec, &got)
		if got.Currency != "USD" {
			t.Errorf("failed! currency = %v; want USD", got.Currency)
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		body := []byte(`{"student_id": "nobody", "description": "Tuition", "amount": 1500000}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: user.ErrNotFound.Error()}),
		}, rec)
	})

	inv := createInvoice(t, adminToken, stu.ID, "PI Tuition, first semester", 1500000)
	if inv.Status != payment.StatusPending || inv.Currency != "IDR" {
		t.Fatalf("failed! got %v/%v; want pending/IDR", inv.Status, inv.Currency)
	}

	t.Run("owner lists their invoices", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/payments/invoices/my", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []payment.Invoice{inv})}, rec)
	})

	t.Run("owner retrieves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/payments/invoices/"+inv.ID, stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, inv)}, rec)
	})

	t.Run("someone else's invoice is hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/payments/invoices/"+inv.ID, getToken(t, other))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"})}, rec)
	})

	t.Run("cancel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices/"+inv.ID+"/cancel", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		// no checkout on a cancelled invoice
		req, rec = newAuthRequest(http.MethodPost, "/api/payments/invoices/"+inv.ID+"/checkout", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: payment.ErrNotPending.Error()}),
		}, rec)
	})
}

func Test_paymentApi_checkout_callback(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "PC Admin", "pcadmin", "pcadmin@test.cd", "", []string{user.RoleAdmin}, true)
	stu := testutil.CreateUser(t, usrRepo, "PC Student", "pcstudent", "pcstudent@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "PC Other", "pcother", "pcother@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	stuToken := getToken(t, stu)

	inv := createInvoice(t, adminToken, stu.ID, "PC Exam fee", 250000)

	t.Run("only the owner checks out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices/"+inv.ID+"/checkout", getToken(t, other))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: payment.ErrNotOwner.Error()}),
		}, rec)
	})

	t.Run("checkout opens a session", func(t *testing.T) {
		callsBefore := processor.calls

		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices/"+inv.ID+"/checkout", stuToken)
		app.ServeHTTP(rec, req)
		want := payment.Checkout{
			Token:       "snap-token-" + inv.ID,
			RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + inv.ID,
		}
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, want)}, rec)

		if processor.calls != callsBefore+1 {
			t.Errorf("failed! processor calls = %v; want %v", processor.calls, callsBefore+1)
		}

		got, err := payRepo.GetInvoiceByID(context.Background(), inv.ID)
		if err != nil {
			t.Fatalf("failed! err = %v", err)
		}
		if got.ProcessorRef != want.Token {
			t.Errorf("failed! ProcessorRef = %v; want %v", got.ProcessorRef, want.Token)
		}
	})

	t.Run("pending statuses are ignored", func(t *testing.T) {
		body := []byte(`{"order_id": "` + inv.ID + `", "transaction_status": "pending"}`)
		req, rec := newRequest(http.MethodPost, "/api/payments/callback", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var got payment.Invoice
		decodeData(t, rec, &got)
		if got.Status != payment.StatusPending {
			t.Errorf("failed! status = %v; want %v", got.Status, payment.StatusPending)
		}
	})

	t.Run("settlement marks the invoice paid", func(t *testing.T) {
		body := []byte(`{"order_id": "` + inv.ID + `", "transaction_status": "settlement"}`)
		req, rec := newRequest(http.MethodPost, "/api/payments/callback", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var got payment.Invoice
		decodeData(t, rec, &got)
		if got.Status != payment.StatusPaid {
			t.Errorf("failed! status = %v; want %v", got.Status, payment.StatusPaid)
		}
	})

	t.Run("settlement replay is a no-op", func(t *testing.T) {
		body := []byte(`{"order_id": "` + inv.ID + `", "transaction_status": "settlement"}`)
		req, rec := newRequest(http.MethodPost, "/api/payments/callback", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
	})

	t.Run("paid invoices cannot expire", func(t *testing.T) {
		body := []byte(`{"order_id": "` + inv.ID + `", "transaction_status": "expire"}`)
		req, rec := newRequest(http.MethodPost, "/api/payments/callback", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: payment.ErrNotPending.Error()}),
		}, rec)
	})

	t.Run("unknown order", func(t *testing.T) {
		body := []byte(`{"order_id": "nothing", "transaction_status": "settlement"}`)
		req, rec := newRequest(http.MethodPost, "/api/payments/callback", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: payment.ErrNotFound.Error()}),
		}, rec)
	})

	t.Run("paid invoices cannot be cancelled by admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/payments/invoices/"+inv.ID+"/cancel", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: payment.ErrNotPending.Error()}),
		}, rec)
	})
}
