package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chuoapp/chuo/core/notice"
	"github.com/chuoapp/chuo/core/user"
	"github.com/chuoapp/chuo/tests"
)

func Test_noticeApi_notices(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "NT Admin", "ntadmin", "ntadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "NT Faculty", "ntfaculty", "ntfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "NT Student", "ntstudent", "ntstudent@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	facToken := getToken(t, fac)
	stuToken := getToken(t, stu)

	// an already-lapsed notice, seeded straight into the store
	now := time.Now().UTC()
	expired, err := ntcRepo.CreateNotice(context.Background(), notice.Notice{
		Title:     "NT Lapsed",
		Content:   "This one is over.",
		CreatedBy: admin.ID,
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateNotice() failed: %v", err)
	}

	t.Run("student cannot post", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notices", stuToken, []byte(`{}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("ttl is mandatory", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notices", adminToken,
			[]byte(`{"title": "NT Open Day", "content": "Campus open day this weekend."}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{
			Message: "validation failed",
			Errors:  map[string]string{"expires_in_hours": "this field is required"},
		})}, rec)
	})

	var posted notice.Notice
	t.Run("faculty posts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notices", facToken,
			[]byte(`{"title": "NT Open Day", "content": "Campus open day this weekend.", "expires_in_hours": 72}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		decodeData(t, rec, &posted)
		if posted.CreatedBy != fac.ID {
			t.Errorf("failed! createdBy = %v; want %v", posted.CreatedBy, fac.ID)
		}
	})

	t.Run("lapsed notices stay hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/notices", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []notice.Notice{posted})}, rec)
	})

	t.Run("sweep", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notices/sweep", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, map[string]int{"deleted": 1})}, rec)

		if _, err := ntcRepo.GetNoticeByID(context.Background(), expired.ID); err != notice.ErrNotFound {
			t.Errorf("failed! expired notice still stored; err %v", err)
		}

		// faculty may sweep too; nothing left to purge
		req, rec = newAuthRequest(http.MethodPost, "/api/notices/sweep", facToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, map[string]int{"deleted": 0})}, rec)
	})

	t.Run("faculty destroys", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/notices/"+posted.ID, facToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}

		req, rec = newAuthRequest(http.MethodDelete, "/api/notices/"+posted.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: notice.ErrNotFound.Error()}),
		}, rec)
	})
}

func Test_noticeApi_notifications(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "NF Admin", "nfadmin", "nfadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "NF Faculty", "nffaculty", "nffaculty@test.cd", "", []string{user.RoleFaculty}, true)
	s1 := testutil.CreateUser(t, usrRepo, "NF Student One", "nfstudent1", "nfstudent1@test.cd", "", []string{user.RoleStudent}, true)
	s2 := testutil.CreateUser(t, usrRepo, "NF Student Two", "nfstudent2", "nfstudent2@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	facToken := getToken(t, fac)
	s1Token := getToken(t, s1)
	s2Token := getToken(t, s2)

	t.Run("student cannot broadcast", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications", s1Token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("needs a target", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications", adminToken,
			[]byte(`{"title": "NF Exam Hall", "message": "Exam hall moved to B2."}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{
			Message: "validation failed",
			Errors: map[string]string{
				"target_role": "this field is required",
				"recipients":  "this field is required",
			},
		})}, rec)
	})

	var notif notice.Notification
	t.Run("faculty broadcasts to recipients", func(t *testing.T) {
		body := []byte(`{"title": "NF Exam Hall", "message": "Exam hall moved to B2.", "recipients": ["` + s1.ID + `"]}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications", facToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		decodeData(t, rec, &notif)
		if notif.CreatedBy != fac.ID {
			t.Errorf("failed! createdBy = %v; want %v", notif.CreatedBy, fac.ID)
		}
	})

	t.Run("recipient sees it unread", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/notifications/my", s1Token)
		app.ServeHTTP(rec, req)
		want := []notice.UserNotification{{Notification: notif, IsRead: false}}
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, want)}, rec)
	})

	t.Run("others do not", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/notifications/my", s2Token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []notice.UserNotification{})}, rec)
	})

	t.Run("non-recipient cannot mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications/"+notif.ID+"/read", s2Token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: notice.ErrNotRecipient.Error()}),
		}, rec)
	})

	t.Run("mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications/"+notif.ID+"/read", s1Token)
		app.ServeHTTP(rec, req)
		want := notice.UserNotification{Notification: notif, IsRead: true}
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, want)}, rec)

		// marking twice stays read
		req, rec = newAuthRequest(http.MethodPost, "/api/notifications/"+notif.ID+"/read", s1Token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, want)}, rec)
	})

	t.Run("broadcast by role reaches all students", func(t *testing.T) {
		body := []byte(`{"title": "NF Library", "message": "Library hours extended.", "target_role": "student"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/notifications", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var roleNotif notice.Notification
		decodeData(t, rec, &roleNotif)

		for _, token := range []string{s1Token, s2Token} {
			req, rec = newAuthRequest(http.MethodGet, "/api/notifications/my", token)
			app.ServeHTTP(rec, req)
			var mine []notice.UserNotification
			decodeData(t, rec, &mine)
			var found bool
			for _, un := range mine {
				if un.ID == roleNotif.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("failed! role broadcast did not reach recipient")
			}
		}
	})
}
