package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/chuoapp/chuo/core/leave"
	"github.com/chuoapp/chuo/core/user"
	"github.com/chuoapp/chuo/tests"
)

func submitLeave(t *testing.T, token string, from, to time.Time, leaveType, reason string) leave.Leave {
	t.Helper()

	body := []byte(`{"from_date": "` + from.Format(time.RFC3339) + `", "to_date": "` + to.Format(time.RFC3339) +
		`", "leave_type": "` + leaveType + `", "reason": "` + reason + `"}`)
	req, rec := newAuthRequest(http.MethodPost, "/api/leaves", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submitLeave() failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var lv leave.Leave
	decodeData(t, rec, &lv)
	return lv
}

func Test_leaveApi_submit(t *testing.T) {
	stu := testutil.CreateUser(t, usrRepo, "LS Student", "lsstudent", "lsstudent@test.cd", "", []string{user.RoleStudent}, true)
	fac := testutil.CreateUser(t, usrRepo, "LS Faculty", "lsfaculty", "lsfaculty@test.cd", "", []string{user.RoleFaculty}, true)

	tests := []httpTest{
		{
			name:     "anon",
			body:     []byte(`{}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "unknown leave type",
			body: []byte(`{"from_date": "2026-09-01T00:00:00Z", "to_date": "2026-09-03T00:00:00Z", ` +
				`"leave_type": "Vacation", "reason": "Family trip."}`),
			token:    getToken(t, stu),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "validation failed", Errors: map[string]string{
				"leave_type": "leave type must be one of Paid, Sick, Casual or Other",
			}}),
		},
		{
			name: "window ends before it starts",
			body: []byte(`{"from_date": "2026-09-03T00:00:00Z", "to_date": "2026-09-01T00:00:00Z", ` +
				`"leave_type": "Sick", "reason": "Flu."}`),
			token:    getToken(t, stu),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "validation failed", Errors: map[string]string{
				"to_date": "to_date must not be before from_date",
			}}),
		},
		{
			name: "student submits",
			body: []byte(`{"from_date": "2026-09-01T00:00:00Z", "to_date": "2026-09-03T00:00:00Z", ` +
				`"leave_type": "Sick", "reason": "Flu."}`),
			token:    getToken(t, stu),
			wantCode: http.StatusCreated,
		},
		{
			name: "faculty submits",
			body: []byte(`{"from_date": "2026-09-01T00:00:00Z", "to_date": "2026-09-03T00:00:00Z", ` +
				`"leave_type": "Casual", "reason": "Conference."}`),
			token:    getToken(t, fac),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/leaves", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			switch tt.name {
			case "student submits":
				var lv leave.Leave
				decodeData(t, rec, &lv)
				if lv.Status != leave.StatusPending || lv.RequesterType != leave.RequesterStudent {
					t.Errorf("failed! got %v/%v", lv.Status, lv.RequesterType)
				}
			case "faculty submits":
				var lv leave.Leave
				decodeData(t, rec, &lv)
				if lv.RequesterType != leave.RequesterFaculty {
					t.Errorf("failed! requesterType = %v; want %v", lv.RequesterType, leave.RequesterFaculty)
				}
			}
		})
	}
}

func Test_leaveApi_query_buckets(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "LB Admin", "lbadmin", "lbadmin@test.cd", "", []string{user.RoleAdmin}, true)
	stu := testutil.CreateUser(t, usrRepo, "LB Student", "lbstudent", "lbstudent@test.cd", "", []string{user.RoleStudent}, true)
	stuToken := getToken(t, stu)

	now := time.Now().UTC()
	past := submitLeave(t, stuToken, now.AddDate(0, 0, -10), now.AddDate(0, 0, -8), leave.TypePaid, "LB old leave")
	today := submitLeave(t, stuToken, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), leave.TypeSick, "LB ongoing leave")
	upcoming := submitLeave(t, stuToken, now.AddDate(0, 0, 5), now.AddDate(0, 0, 7), leave.TypeCasual, "LB future leave")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "student cannot list all",
			path:     "/api/leaves",
			token:    stuToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "past bucket",
			path:     "/api/leaves?search=LB&bucket=" + leave.BucketPast,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []leave.Leave{past}),
		},
		{
			name:     "today bucket",
			path:     "/api/leaves?search=LB&bucket=" + leave.BucketToday,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []leave.Leave{today}),
		},
		{
			name:     "upcoming bucket",
			path:     "/api/leaves?search=LB&bucket=" + leave.BucketUpcoming,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []leave.Leave{upcoming}),
		},
		{
			name:     "filter by type",
			path:     "/api/leaves?search=LB&leave_type=" + leave.TypeSick,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []leave.Leave{today}),
		},
		{
			name:     "mine",
			path:     "/api/leaves/my",
			token:    stuToken,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []leave.Leave{past, today, upcoming}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_leaveApi_lifecycle(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "LL Admin", "lladmin", "lladmin@test.cd", "", []string{user.RoleAdmin}, true)
	stu := testutil.CreateUser(t, usrRepo, "LL Student", "llstudent", "llstudent@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "LL Other", "llother", "llother@test.cd", "", []string{user.RoleStudent}, true)
	stuToken := getToken(t, stu)

	now := time.Now().UTC()
	toApprove := submitLeave(t, stuToken, now.AddDate(0, 0, 1), now.AddDate(0, 0, 2), leave.TypeSick, "LL approve me")
	toReject := submitLeave(t, stuToken, now.AddDate(0, 0, 3), now.AddDate(0, 0, 4), leave.TypeOther, "LL reject me")
	toCancel := submitLeave(t, stuToken, now.AddDate(0, 0, 5), now.AddDate(0, 0, 6), leave.TypePaid, "LL cancel me")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "student cannot approve",
			path:     "/api/leaves/" + toApprove.ID + "/approve",
			token:    stuToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "approve",
			path:     "/api/leaves/" + toApprove.ID + "/approve",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "approved is terminal",
			path:     "/api/leaves/" + toApprove.ID + "/reject",
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: leave.ErrNotPending.Error()}),
		},
		{
			name:     "reject",
			path:     "/api/leaves/" + toReject.ID + "/reject",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "only the requester cancels",
			path:     "/api/leaves/" + toCancel.ID + "/cancel",
			token:    getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: leave.ErrNotOwner.Error()}),
		},
		{
			name:     "cancel",
			path:     "/api/leaves/" + toCancel.ID + "/cancel",
			token:    stuToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "cancelled cannot be approved",
			path:     "/api/leaves/" + toCancel.ID + "/approve",
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: leave.ErrNotPending.Error()}),
		},
		{
			name:     "unknown leave",
			path:     "/api/leaves/does-not-exist/approve",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: leave.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "cancel" {
				var lv leave.Leave
				decodeData(t, rec, &lv)
				if lv.Status != leave.StatusCancelled {
					t.Errorf("failed! status = %v; want %v", lv.Status, leave.StatusCancelled)
				}
			}
		})
	}
}
