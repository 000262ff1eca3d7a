package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
	testutil "github.com/trezcool/learntrack/tests"
)

func Test_notificationApi(t *testing.T) {
	db.Reset()

	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, testutil.IntPtr(crs.ID))
	king := testutil.CreateUser(t, usrRepo, "King", "king@test.cd", "", user.RoleStudent, nil)

	heroToken := getToken(t, hero)
	kingToken := getToken(t, king)

	// class creation fans a notification out to hero
	body := marchallObj(t, jsonMap{"name": "Calculus I", "course_id": crs.ID})
	req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, teacher), body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

	var notifID int

	t.Run("unread", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread", heroToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		var notifs []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("expected 1 unread notification; got %d", len(notifs))
		}
		notifID = notifs[0].ID
	})

	t.Run("recent with limit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications?limit=1", heroToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		var notifs []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(notifs) != 1 {
			t.Errorf("expected 1 notification; got %d", len(notifs))
		}
	})

	t.Run("mark read", func(t *testing.T) {
		tests := []httpTest{
			{name: "auth required", method: http.MethodPost, path: fmt.Sprintf("/v1/notifications/%d/read", notifID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{
				name: "not the owner", method: http.MethodPost, path: fmt.Sprintf("/v1/notifications/%d/read", notifID),
				token: kingToken, wantCode: http.StatusNotFound,
			},
			{
				name: "unknown id", method: http.MethodPost, path: "/v1/notifications/12345/read",
				token: heroToken, wantCode: http.StatusNotFound,
			},
			{
				name: "ok", method: http.MethodPost, path: fmt.Sprintf("/v1/notifications/%d/read", notifID),
				token: heroToken, wantCode: http.StatusNoContent,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread", heroToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
	})
}
