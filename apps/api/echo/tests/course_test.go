package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
	testutil "github.com/trezcool/learntrack/tests"
)

func Test_courseApi_courseCRUD(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/courses", wantCode: http.StatusUnauthorized},
		{
			name: "create: admin required", method: http.MethodPost, path: "/v1/courses",
			body: marchallObj(t, jsonMap{"name": "Mathematics"}), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create: ok", method: http.MethodPost, path: "/v1/courses",
			body: marchallObj(t, jsonMap{"name": "Mathematics"}), token: adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name: "create: duplicate name", method: http.MethodPost, path: "/v1/courses",
			body: marchallObj(t, jsonMap{"name": "Mathematics"}), token: adminToken,
			wantCode: http.StatusBadRequest,
		},
		{name: "query", method: http.MethodGet, path: "/v1/courses", token: getToken(t, student), wantCode: http.StatusOK},
		{
			name: "update", method: http.MethodPut, path: "/v1/courses/1",
			body: marchallObj(t, jsonMap{"name": "Applied Mathematics"}), token: adminToken,
			wantCode: http.StatusOK,
		},
		{name: "retrieve missing", method: http.MethodGet, path: "/v1/courses/666", token: adminToken, wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: "/v1/courses/1", token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_createClass(t *testing.T) {
	db.Reset()
	ctx := context.Background()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, testutil.IntPtr(crs.ID))

	body := marchallObj(t, jsonMap{"name": "Calculus I", "description": "Limits", "course_id": crs.ID})

	t.Run("teacher required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, hero), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, rec)
	})

	t.Run("ok with auto-enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

		enrs, err := crsRepo.QueryEnrollments(ctx, course.EnrollmentFilter{StudentID: hero.ID})
		if err != nil || len(enrs) != 1 {
			t.Fatalf("expected hero enrolled once; got %v, %v", enrs, err)
		}
		for _, userID := range []int{hero.ID, admin.ID} {
			notifs, err := notifRepo.QueryNotifications(ctx, notification.QueryFilter{UserID: userID})
			if err != nil || len(notifs) != 1 {
				t.Errorf("expected 1 notification for user %d; got %v, %v", userID, notifs, err)
			}
		}
	})
}

func Test_courseApi_enrollStudent(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	cls := testutil.CreateClass(t, crsRepo, "Calculus I", teacher.ID, crs.ID)
	token := getToken(t, teacher)

	path := fmt.Sprintf("/v1/classes/%d/enroll", cls.ID)
	body := marchallObj(t, jsonMap{"student_email": "hero@test.cd"})

	tests := []httpTest{
		{
			name: "unknown student", method: http.MethodPost, path: path,
			body: marchallObj(t, jsonMap{"student_email": "ghost@test.cd"}), token: token,
			wantCode: http.StatusNotFound,
		},
		{name: "ok", method: http.MethodPost, path: path, body: body, token: token, wantCode: http.StatusCreated},
		{
			name: "already enrolled is a soft warning", method: http.MethodPost, path: path, body: body, token: token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, jsonMap{"warning": course.ErrAlreadyEnrolled.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_queryClasses(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, nil)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	cls1 := testutil.CreateClass(t, crsRepo, "Calculus I", teacher.ID, crs.ID)
	testutil.CreateClass(t, crsRepo, "Calculus II", other.ID, crs.ID)
	testutil.Enroll(t, crsRepo, hero.ID, cls1.ID)

	tests := []httpTest{
		{name: "teacher sees own classes", path: "/v1/classes", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, cls1)},
		{name: "student sees enrolled classes", path: "/v1/classes", token: getToken(t, hero), wantCode: http.StatusOK, wantData: marchallList(t, cls1)},
		{name: "admin sees everything", path: "/v1/classes", token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
