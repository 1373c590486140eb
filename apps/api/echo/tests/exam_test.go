package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/exam"
	"github.com/chuoapp/chuo/core/user"
	"github.com/chuoapp/chuo/tests"
)

var examQuestions = []exam.Question{
	{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1},
	{Text: "3 * 3 = ?", Options: []string{"6", "9", "12", "18"}, CorrectAnswer: 1},
	{Text: "10 / 2 = ?", Options: []string{"2", "4", "5", "10"}, CorrectAnswer: 2},
}

func createExam(t *testing.T, courseID, title, code string) exam.Exam {
	t.Helper()

	now := time.Now().UTC()
	e, err := examRepo.CreateExam(context.Background(), exam.Exam{
		CourseID:        courseID,
		Title:           title,
		Code:            code,
		Date:            now.Add(24 * time.Hour),
		DurationMinutes: 90,
		Questions:       examQuestions,
		Status:          exam.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return e
}

func Test_examApi_create(t *testing.T) {
	fac := testutil.CreateUser(t, usrRepo, "EC Faculty", "ecfaculty", "ecfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	other := testutil.CreateUser(t, usrRepo, "EC Other Faculty", "ecother", "ecother@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "EC Student", "ecstudent", "ecstudent@test.cd", "", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, crsRepo, "EC Course", "EC101", fac.ID, course.StatusApproved)

	validBody := []byte(`{"course_id": "` + crs.ID + `", "title": "Midterm", "code": "EC101-MID", ` +
		`"date": "2026-10-01T09:00:00Z", "duration_minutes": 90, "questions": [` +
		`{"text": "2 + 2 = ?", "options": ["3", "4", "5", "6"], "correct_answer": 1}]}`)

	tests := []httpTest{
		{
			name:     "anon",
			body:     []byte(`{}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "student forbidden",
			body:     validBody,
			token:    getToken(t, stu),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "questions need 4 options",
			body: []byte(`{"course_id": "` + crs.ID + `", "title": "Midterm", "code": "EC101-MID", ` +
				`"date": "2026-10-01T09:00:00Z", "duration_minutes": 90, "questions": [` +
				`{"text": "2 + 2 = ?", "options": ["3", "4"], "correct_answer": 1}]}`),
			token:    getToken(t, fac),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not the instructor of record",
			body:     validBody,
			token:    getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: exam.ErrNotCourseInstructor.Error()}),
		},
		{
			name:     "ok",
			body:     validBody,
			token:    getToken(t, fac),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/exams", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "ok" {
				var e exam.Exam
				decodeData(t, rec, &e)
				if e.Status != exam.StatusActive {
					t.Errorf("failed! status = %v; want %v", e.Status, exam.StatusActive)
				}
			}
		})
	}
}

func Test_examApi_studentRedaction(t *testing.T) {
	fac := testutil.CreateUser(t, usrRepo, "ER Faculty", "erfaculty", "erfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "ER Student", "erstudent", "erstudent@test.cd", "", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, crsRepo, "ER Course", "ER101", fac.ID, course.StatusApproved, stu.ID)
	e := createExam(t, crs.ID, "ER Quiz", "ER101-Q1")

	tests := []httpTest{
		{
			name:     "instructor sees the answer key",
			path:     "/api/exams/" + e.ID,
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
			wantData: marchallData(t, e),
		},
		{
			name:     "student view is redacted",
			path:     "/api/exams/" + e.ID,
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
			wantData: marchallData(t, e.StudentView()),
		},
		{
			name:     "student listing is redacted",
			path:     "/api/exams?course_id=" + crs.ID,
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []exam.StudentView{e.StudentView()}),
		},
		{
			name:     "instructor listing",
			path:     "/api/exams?course_id=" + crs.ID,
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []exam.Exam{e}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if strings.HasPrefix(tt.name, "student") && strings.Contains(rec.Body.String(), "correct_answer") {
				t.Error("failed! student payload leaks the answer key")
			}
		})
	}
}

func Test_examApi_submit(t *testing.T) {
	fac := testutil.CreateUser(t, usrRepo, "ES Faculty", "esfaculty", "esfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "ES Student", "esstudent", "esstudent@test.cd", "", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, usrRepo, "ES Outsider", "esoutsider", "esoutsider@test.cd", "", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, crsRepo, "ES Course", "ES101", fac.ID, course.StatusApproved, stu.ID)
	e := createExam(t, crs.ID, "ES Final", "ES101-FIN")

	// 2 of 3 correct -> 67
	answers := []byte(`{"answers": [{"question": 0, "selected": 1}, {"question": 1, "selected": 1}, {"question": 2, "selected": 0}]}`)

	tests := []httpTest{
		{
			name:     "faculty cannot submit",
			body:     answers,
			token:    getToken(t, fac),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "not enrolled",
			body:     answers,
			token:    getToken(t, outsider),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: exam.ErrNotEnrolled.Error()}),
		},
		{
			name:     "empty answer sheet",
			body:     []byte(`{"answers": []}`),
			token:    getToken(t, stu),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "graded on submit",
			body:     answers,
			token:    getToken(t, stu),
			wantCode: http.StatusCreated,
		},
		{
			name:     "one shot only",
			body:     answers,
			token:    getToken(t, stu),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: exam.ErrResultExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/exams/"+e.ID+"/submit", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "graded on submit" {
				var res exam.Result
				decodeData(t, rec, &res)
				if res.Score != 67 {
					t.Errorf("failed! score = %v; want 67", res.Score)
				}
			}
		})
	}
}

func Test_examApi_deletion(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "ED Admin", "edadmin", "edadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "ED Faculty", "edfaculty", "edfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	other := testutil.CreateUser(t, usrRepo, "ED Other Faculty", "edother", "edother@test.cd", "", []string{user.RoleFaculty}, true)
	crs := testutil.CreateCourse(t, crsRepo, "ED Course", "ED101", fac.ID, course.StatusApproved)
	e := createExam(t, crs.ID, "ED Exam", "ED101-X")

	tests := []httpTest{
		{
			name:     "cannot confirm before a request",
			method:   http.MethodPost,
			path:     "/api/exams/" + e.ID + "/approve-deletion",
			token:    getToken(t, admin),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: exam.ErrInvalidTransition.Error()}),
		},
		{
			name:     "outsider faculty cannot request",
			method:   http.MethodPost,
			path:     "/api/exams/" + e.ID + "/request-deletion",
			token:    getToken(t, other),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: exam.ErrNotCourseInstructor.Error()}),
		},
		{
			name:     "request",
			method:   http.MethodPost,
			path:     "/api/exams/" + e.ID + "/request-deletion",
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
		},
		{
			name:     "request again is a no-op",
			method:   http.MethodPost,
			path:     "/api/exams/" + e.ID + "/request-deletion",
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
		},
		{
			name:     "confirm",
			method:   http.MethodPost,
			path:     "/api/exams/" + e.ID + "/approve-deletion",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
		},
		{
			name:     "deleted exams stay hidden",
			method:   http.MethodGet,
			path:     "/api/exams/" + e.ID,
			token:    getToken(t, fac),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: exam.ErrNotFound.Error()}),
		},
		{
			name:     "gone from listings",
			method:   http.MethodGet,
			path:     "/api/exams?course_id=" + crs.ID,
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []exam.Exam{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "request" {
				var got exam.Exam
				decodeData(t, rec, &got)
				if got.Status != exam.StatusDeletionRequested {
					t.Errorf("failed! status = %v; want %v", got.Status, exam.StatusDeletionRequested)
				}
			}
		})
	}
}

func Test_examApi_results(t *testing.T) {
	fac := testutil.CreateUser(t, usrRepo, "EX Faculty", "exfaculty", "exfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "EX Student", "exstudent", "exstudent@test.cd", "", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, crsRepo, "EX Course", "EX101", fac.ID, course.StatusApproved, stu.ID)
	e := createExam(t, crs.ID, "EX Exam", "EX101-X")

	// all correct -> 100
	body := []byte(`{"answers": [{"question": 0, "selected": 1}, {"question": 1, "selected": 1}, {"question": 2, "selected": 2}]}`)
	req, rec := newAuthRequest(http.MethodPost, "/api/exams/"+e.ID+"/submit", getToken(t, stu), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var res exam.Result
	decodeData(t, rec, &res)
	if res.Score != 100 {
		t.Fatalf("failed! score = %v; want 100", res.Score)
	}

	facToken := getToken(t, fac)
	stuToken := getToken(t, stu)

	t.Run("instructor lists exam results", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/exams/"+e.ID+"/results", facToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []exam.Result{res})}, rec)
	})

	t.Run("student cannot list exam results", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/exams/"+e.ID+"/results", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("student sees own results", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/results/my", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []exam.Result{res})}, rec)
	})

	t.Run("score override", func(t *testing.T) {
		body := []byte(`{"exam_id": "` + e.ID + `", "student_id": "` + stu.ID + `", "score": 85}`)
		req, rec := newAuthRequest(http.MethodPut, "/api/exams/results", facToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var got exam.Result
		decodeData(t, rec, &got)
		if got.Score != 85 {
			t.Errorf("failed! score = %v; want 85", got.Score)
		}
	})

	t.Run("override needs an existing result", func(t *testing.T) {
		body := []byte(`{"exam_id": "` + e.ID + `", "student_id": "nobody", "score": 10}`)
		req, rec := newAuthRequest(http.MethodPut, "/api/exams/results", facToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: exam.ErrResultNotFound.Error()}),
		}, rec)
	})

	t.Run("destroy result", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/exams/"+e.ID+"/results/"+stu.ID, facToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/results/my", stuToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallData(t, []exam.Result{})}, rec)
	})
}
