package tests

import (
	"net/http"
	"testing"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
	"github.com/chuoapp/chuo/tests"
)

func Test_courseApi_create(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Course Admin", "crsadmin", "crsadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "Course Faculty", "crsfaculty", "crsfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "Course Student", "crsstudent", "crsstudent@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{
			name:     "anon",
			body:     []byte(`{}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "student forbidden",
			body:     []byte(`{}`),
			token:    getToken(t, stu),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "bad course code",
			body:     []byte(`{"name": "Algorithms", "code": "algo-1", "description": "Design and analysis of algorithms."}`),
			token:    getToken(t, fac),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "validation failed", Errors: map[string]string{
				"code": "course code must look like CS201",
			}}),
		},
		{
			name:     "faculty request starts pending",
			body:     []byte(`{"name": "Algorithms", "code": "cs301", "description": "Design and analysis of algorithms."}`),
			token:    getToken(t, fac),
			wantCode: http.StatusCreated,
		},
		{
			name: "admin needs a faculty instructor",
			body: []byte(`{"name": "Databases", "code": "CS305", "description": "Relational database systems and SQL.", ` +
				`"instructor_id": "` + stu.ID + `"}`),
			token:    getToken(t, admin),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "validation failed", Errors: map[string]string{
				"instructor_id": course.ErrNotInstructor.Error(),
			}}),
		},
		{
			name: "admin-created course is approved",
			body: []byte(`{"name": "Databases", "code": "CS305", "description": "Relational database systems and SQL.", ` +
				`"instructor_id": "` + fac.ID + `"}`),
			token:    getToken(t, admin),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate code",
			body:     []byte(`{"name": "Algorithms II", "code": "CS301", "description": "A second course on algorithms."}`),
			token:    getToken(t, fac),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "validation failed", Errors: map[string]string{
				"code": course.ErrCodeExists.Error(),
			}}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/courses", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			switch tt.name {
			case "faculty request starts pending":
				var crs course.Course
				decodeData(t, rec, &crs)
				if crs.Status != course.StatusPending {
					t.Errorf("failed! status = %v; want %v", crs.Status, course.StatusPending)
				}
				if crs.InstructorID != fac.ID {
					t.Errorf("failed! instructorID = %v; want submitter %v", crs.InstructorID, fac.ID)
				}
				if crs.Code != "CS301" {
					t.Errorf("failed! code = %v; want canonical CS301", crs.Code)
				}
			case "admin-created course is approved":
				var crs course.Course
				decodeData(t, rec, &crs)
				if crs.Status != course.StatusApproved {
					t.Errorf("failed! status = %v; want %v", crs.Status, course.StatusApproved)
				}
			}
		})
	}
}

func Test_courseApi_query(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "CQ Admin", "cqadmin", "cqadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "CQ Faculty", "cqfaculty", "cqfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "CQ Student", "cqstudent", "cqstudent@test.cd", "", []string{user.RoleStudent}, true)

	pending := testutil.CreateCourse(t, crsRepo, "CQ Pending Course", "CQ101", fac.ID, course.StatusPending)
	approved := testutil.CreateCourse(t, crsRepo, "CQ Approved Course", "CQ102", fac.ID, course.StatusApproved)

	tests := []httpTest{
		{
			name:     "anon only sees approved",
			path:     "/api/courses?search=CQ",
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{approved}),
		},
		{
			name:     "anon cannot reach for pending",
			path:     "/api/courses?search=CQ&status=" + course.StatusPending,
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{approved}),
		},
		{
			name:     "admin sees pending",
			path:     "/api/courses?search=CQ&status=" + course.StatusPending,
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{pending}),
		},
		{
			name:     "student only sees approved",
			path:     "/api/courses?search=CQ",
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{approved}),
		},
		{
			name:     "student cannot reach for pending",
			path:     "/api/courses?search=CQ&status=" + course.StatusPending,
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{approved}),
		},
		{
			name:     "filter by instructor",
			path:     "/api/courses?search=CQ&instructor_id=" + fac.ID + "&status=" + course.StatusApproved,
			token:    getToken(t, fac),
			wantCode: http.StatusOK,
			wantData: marchallData(t, []course.Course{approved}),
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

func Test_courseApi_retrieve(t *testing.T) {
	fac := testutil.CreateUser(t, usrRepo, "CD Faculty", "cdfaculty", "cdfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "CD Student", "cdstudent", "cdstudent@test.cd", "", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, crsRepo, "CD Course", "CD201", fac.ID, course.StatusApproved, stu.ID)

	want := course.Detail{
		Course:     crs,
		Instructor: course.UserSummary{ID: fac.ID, Name: fac.Name, Email: fac.Email},
		Students:   []course.UserSummary{{ID: stu.ID, Name: stu.Name}},
	}

	tests := []httpTest{
		{
			name:     "ok",
			path:     "/api/courses/" + crs.ID,
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
			wantData: marchallData(t, want),
		},
		{
			name:     "anon ok",
			path:     "/api/courses/" + crs.ID,
			wantCode: http.StatusOK,
			wantData: marchallData(t, want),
		},
		{
			name:     "not found",
			path:     "/api/courses/does-not-exist",
			token:    getToken(t, stu),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: course.ErrNotFound.Error()}),
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

func Test_courseApi_lifecycle(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "CL Admin", "cladmin", "cladmin@test.cd", "", []string{user.RoleAdminRegistrar}, true)
	fac := testutil.CreateUser(t, usrRepo, "CL Faculty", "clfaculty", "clfaculty@test.cd", "", []string{user.RoleFaculty}, true)
	stu := testutil.CreateUser(t, usrRepo, "CL Student", "clstudent", "clstudent@test.cd", "", []string{user.RoleStudent}, true)

	toApprove := testutil.CreateCourse(t, crsRepo, "CL Approvable", "CL301", fac.ID, course.StatusPending)
	toReject := testutil.CreateCourse(t, crsRepo, "CL Rejectable", "CL302", fac.ID, course.StatusPending)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "faculty cannot approve",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/approve",
			token:    getToken(t, fac),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "approve",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/approve",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "approve again is a no-op",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/approve",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "approved cannot be rejected",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/reject",
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: course.ErrInvalidTransition.Error()}),
		},
		{
			name:     "reject",
			method:   http.MethodPost,
			path:     "/api/courses/" + toReject.ID + "/reject",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "cannot enroll in rejected course",
			method:   http.MethodPost,
			path:     "/api/courses/" + toReject.ID + "/enroll",
			token:    getToken(t, stu),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: course.ErrNotApproved.Error()}),
		},
		{
			name:     "enroll",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/enroll",
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
		},
		{
			name:     "enroll twice is duplicate-safe",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/enroll",
			token:    getToken(t, stu),
			wantCode: http.StatusOK,
		},
		{
			name:     "faculty cannot enroll",
			method:   http.MethodPost,
			path:     "/api/courses/" + toApprove.ID + "/enroll",
			token:    getToken(t, fac),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "enroll twice is duplicate-safe" {
				var crs course.Course
				decodeData(t, rec, &crs)
				if len(crs.StudentsEnrolled) != 1 || crs.StudentsEnrolled[0] != stu.ID {
					t.Errorf("failed! roster = %v; want just %v", crs.StudentsEnrolled, stu.ID)
				}
			}
		})
	}
}

func Test_courseApi_update_destroy(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "CU Admin", "cuadmin", "cuadmin@test.cd", "", []string{user.RoleAdmin}, true)
	fac := testutil.CreateUser(t, usrRepo, "CU Faculty", "cufaculty", "cufaculty@test.cd", "", []string{user.RoleFaculty}, true)
	crs := testutil.CreateCourse(t, crsRepo, "CU Course", "CU401", fac.ID, course.StatusApproved)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "faculty cannot update",
			method:   http.MethodPut,
			path:     "/api/courses/" + crs.ID,
			body:     []byte(`{"name": "CU Course Renamed"}`),
			token:    getToken(t, fac),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/api/courses/" + crs.ID,
			body:     []byte(`{"name": "CU Course Renamed", "code": "cu402"}`),
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "destroy",
			method:   http.MethodDelete,
			path:     "/api/courses/" + crs.ID,
			token:    adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "gone",
			method:   http.MethodDelete,
			path:     "/api/courses/" + crs.ID,
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: course.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "update" {
				var got course.Course
				decodeData(t, rec, &got)
				if got.Name != "CU Course Renamed" || got.Code != "CU402" {
					t.Errorf("failed! got %v %v", got.Name, got.Code)
				}
			}
		})
	}
}
