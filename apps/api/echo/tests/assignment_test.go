package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/user"
	testutil "github.com/trezcool/learntrack/tests"
)

func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, fileField, fileName, fileContent string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = fw.Write([]byte(fileContent)); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func Test_assignmentApi_create(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	cls := testutil.CreateClass(t, crsRepo, "Calculus I", teacher.ID, crs.ID)
	token := getToken(t, teacher)

	fields := func(overrides map[string]string) map[string]string {
		f := map[string]string{
			"title":       "Derivatives",
			"description": "Chapter 3 exercises",
			"class_id":    strconv.Itoa(cls.ID),
			"max_score":   "100",
			"due_date":    time.Now().UTC().AddDate(0, 0, 7).Format(time.RFC3339),
		}
		for k, v := range overrides {
			f[k] = v
		}
		return f
	}

	t.Run("invalid due date", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/v1/assignments", token, fields(map[string]string{"due_date": "tomorrow"}), "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("missing title", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/v1/assignments", token, fields(map[string]string{"title": ""}), "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("rejected attachment type", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/v1/assignments", token, fields(nil), "attachment", "malware.exe", "boom")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("ok with attachment", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/v1/assignments", token, fields(nil), "attachment", "exercises.pdf", "pdf bytes")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

		var asg assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if asg.Attachment == "" {
			t.Error("expected an attachment ref")
		}

		// the attachment can be streamed back
		req2, rec2 := newAuthRequest(http.MethodGet, "/v1/files/"+asg.Attachment, token)
		app.ServeHTTP(rec2, req2)
		if rec2.Code != http.StatusOK || rec2.Body.String() != "pdf bytes" {
			t.Errorf("download failed: code %d, body %q", rec2.Code, rec2.Body.String())
		}
	})
}

func Test_assignmentApi_submitAndGrade(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, nil)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	king := testutil.CreateUser(t, usrRepo, "King", "king@test.cd", "", user.RoleStudent, nil)
	crs := testutil.CreateCourse(t, crsRepo, "Mathematics")
	cls := testutil.CreateClass(t, crsRepo, "Calculus I", teacher.ID, crs.ID)
	testutil.Enroll(t, crsRepo, hero.ID, cls.ID)
	asg := testutil.CreateAssignment(t, asgRepo, "Derivatives", cls.ID, teacher.ID, 100, time.Now().UTC().AddDate(0, 0, 7))

	submitPath := fmt.Sprintf("/v1/assignments/%d/submissions", asg.ID)

	t.Run("student required", func(t *testing.T) {
		req, rec := newMultipartRequest(t, submitPath, getToken(t, teacher), map[string]string{"text": "done"}, "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, rec)
	})

	t.Run("enrollment required", func(t *testing.T) {
		req, rec := newMultipartRequest(t, submitPath, getToken(t, king), map[string]string{"text": "done"}, "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, rec)
	})

	t.Run("text or file required", func(t *testing.T) {
		req, rec := newMultipartRequest(t, submitPath, getToken(t, hero), nil, "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	var subID int
	t.Run("submit ok", func(t *testing.T) {
		req, rec := newMultipartRequest(t, submitPath, getToken(t, hero), map[string]string{"text": "my answer"}, "", "", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

		var sub assignment.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		subID = sub.ID
	})

	t.Run("grade: score above max", func(t *testing.T) {
		body := marchallObj(t, jsonMap{"score": 101})
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/submissions/%d/grade", subID), getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("grade ok", func(t *testing.T) {
		body := marchallObj(t, jsonMap{"score": 85, "feedback": "well done"})
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/submissions/%d/grade", subID), getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		var sub assignment.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if sub.Score == nil || *sub.Score != 85 || !sub.IsGraded() {
			t.Errorf("expected a graded submission; got %+v", sub)
		}
	})

	t.Run("pending count back to zero", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assignments/pending-count", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, jsonMap{"pending": 0})}, rec)
	})
}
