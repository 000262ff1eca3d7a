package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/learntrack/core/user"
	testutil "github.com/trezcool/learntrack/tests"
)

func Test_userApi_login(t *testing.T) {
	db.Reset()

	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "s3cr3tPwd", user.RoleStudent, nil)

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/users/login",
			body: marchallObj(t, jsonMap{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, jsonMap{"email": "ghost@test.cd", "password": "s3cr3tPwd"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, jsonMap{"email": "hero@test.cd", "password": "wrong"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "ok", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, jsonMap{"email": "hero@test.cd", "password": "s3cr3tPwd"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
					t.Errorf("expected a token; got %s", rec.Body.String())
				}
			}
		})
	}
}

func Test_userApi_register(t *testing.T) {
	db.Reset()

	body := func(role string) []byte {
		return marchallObj(t, jsonMap{
			"name":             "John Doe",
			"email":            fmt.Sprintf("john+%s@test.cd", role),
			"role":             role,
			"password":         "v4l1dPassword",
			"password_confirm": "v4l1dPassword",
		})
	}

	tests := []httpTest{
		{name: "student", method: http.MethodPost, path: "/v1/users/register", body: body("student"), wantCode: http.StatusCreated},
		{name: "teacher", method: http.MethodPost, path: "/v1/users/register", body: body("teacher"), wantCode: http.StatusCreated},
		{name: "admin rejected", method: http.MethodPost, path: "/v1/users/register", body: body("admin"), wantCode: http.StatusBadRequest},
		{name: "duplicate email", method: http.MethodPost, path: "/v1/users/register", body: body("student"), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all", path: "/v1/users", token: getToken(t, admin), wantCode: http.StatusOK},
		{name: "roles", path: "/v1/users/roles", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, user.AllRoles)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieveSelf(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)
}

func Test_userApi_destroy(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, nil)
	admin2 := testutil.CreateUser(t, usrRepo, "Admin 2", "admin2@test.cd", "", user.RoleAdmin, nil)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	adminToken := getToken(t, admin)

	path := func(id int) string { return fmt.Sprintf("/v1/users/%d", id) }

	tests := []httpTest{
		{
			name: "admin required", path: path(student.ID), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "no self-delete", path: path(admin.ID), token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admins cannot be deleted", path: path(admin2.ID), token: adminToken,
			wantCode: http.StatusForbidden,
		},
		{name: "ok", path: path(student.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// jsonMap is a shorthand for ad-hoc request payloads.
type jsonMap map[string]interface{}
