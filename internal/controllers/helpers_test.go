package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"validation", models.NewValidationError("email", "email"), http.StatusBadRequest, ""},
		{"duplicate", fmt.Errorf("create: %w", &store.DuplicateError{Field: "nic"}), http.StatusConflict, "nic"},
		{"not found", store.ErrNotFound, http.StatusNotFound, ""},
		{"unknown course", store.ErrCourseNotFound, http.StatusBadRequest, "courseId"},
		{"enrolled twice", store.ErrEnrollmentExists, http.StatusConflict, "courseId"},
		{"bad upload", storage.ErrUnsupportedFile, http.StatusBadRequest, "profilePicture"},
		{"big upload", storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "profilePicture"},
		{"exhausted", store.ErrSequenceExhausted, http.StatusServiceUnavailable, ""},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tc.err, "student not found")
			if w.Code != tc.status {
				t.Fatalf("status: got %d, want %d", w.Code, tc.status)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if tc.field != "" && body["field"] != tc.field {
				t.Errorf("field: got %v, want %q", body["field"], tc.field)
			}
		})
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, &models.ValidationError{Fields: map[string]string{"firstName": "required", "nic": "required"}}, "")
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "validation failed" || len(body.Fields) != 2 || body.Fields["nic"] != "required" {
		t.Errorf("body: %+v", body)
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("dateOfBirth", " 2004-05-12 ")
	if err != nil || d.Year() != 2004 || d.Month() != 5 || d.Day() != 12 {
		t.Errorf("plain date: %v %v", d, err)
	}
	if _, err := parseDate("dateOfBirth", "2004-05-12T10:00:00+05:30"); err != nil {
		t.Errorf("rfc3339: %v", err)
	}
	_, err = parseDate("dateOfBirth", "12/05/2004")
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Fields["dateOfBirth"] != "date" {
		t.Errorf("bad date: %v", err)
	}
	blank := "  "
	if got, err := parseOptionalDate("graduationDate", &blank); got != nil || err != nil {
		t.Errorf("blank optional: %v %v", got, err)
	}
}

func TestFlexibleValues(t *testing.T) {
	var body struct {
		Phone  *FlexibleString `json:"phone"`
		NIC    FlexibleString  `json:"nic"`
		Active FlexibleBool    `json:"active"`
		Gone   *FlexibleString `json:"gone"`
	}
	if err := json.Unmarshal([]byte(`{"phone":771234567,"nic":" 991234567v ","active":"yes","gone":null}`), &body); err != nil {
		t.Fatal(err)
	}
	if *body.Phone.ptr() != "771234567" || body.NIC != "991234567v" || !bool(body.Active) {
		t.Errorf("decoded: %+v", body)
	}
	if body.Gone.ptr() != nil {
		t.Error("null should stay nil")
	}
	if err := json.Unmarshal([]byte(`{"active":"maybe"}`), &body); err == nil {
		t.Error("expected error for an unparseable bool")
	}
}

func TestCheckUUIDs(t *testing.T) {
	if err := checkUUIDs("courseId", "", "6f1c1c1e-3a2b-4c5d-8e9f-0a1b2c3d4e5f"); err != nil {
		t.Errorf("valid ids: %v", err)
	}
	err := checkUUIDs("courseIds[%d]", "6f1c1c1e-3a2b-4c5d-8e9f-0a1b2c3d4e5f", "nope")
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Fields["courseIds[1]"] != "uuid" {
		t.Errorf("got %v", err)
	}
}

func TestBindBodyMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("firstName", "Kasun")
	mw.WriteField("phone", "0771234567")
	mw.WriteField("enrolledCourses", `[{"courseId":"6f1c1c1e-3a2b-4c5d-8e9f-0a1b2c3d4e5f","progress":40}]`)
	part, _ := mw.CreateFormFile("profilePicture", "me.jpg")
	part.Write([]byte("jpeg"))
	mw.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	var req studentRequest
	fh, err := bindBody(c, &req, 1<<20, studentJSONFields...)
	if err != nil {
		t.Fatal(err)
	}
	if fh == nil || fh.Filename != "me.jpg" {
		t.Errorf("file header: %+v", fh)
	}
	if req.FirstName == nil || *req.FirstName != "Kasun" || *req.Phone.ptr() != "0771234567" {
		t.Errorf("scalar fields: %+v", req)
	}
	if len(req.EnrolledCourses) != 1 || *req.EnrolledCourses[0].Progress != 40 {
		t.Errorf("enrolledCourses: %+v", req.EnrolledCourses)
	}
}

func TestBindBodyRejectsMalformedJSONField(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("enrolledCourses", "[{")
	mw.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	var req studentRequest
	if _, err := bindBody(c, &req, 1<<20, studentJSONFields...); err == nil {
		t.Fatal("expected error")
	}
}

func TestStudentRequestApply(t *testing.T) {
	first, dob := "Nimal", "2001-02-03"
	req := studentRequest{
		FirstName:   &first,
		DateOfBirth: &dob,
		EnrolledCourses: []enrollmentRequest{
			{CourseID: "not-a-uuid"},
		},
	}
	var st models.Student
	err := req.apply(&st, true)
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Fields["enrolledCourses[0].courseId"] != "uuid" {
		t.Fatalf("got %v", err)
	}

	// enrollments are ignored outside create
	st = models.Student{}
	if err := req.apply(&st, false); err != nil {
		t.Fatal(err)
	}
	if st.FirstName != "Nimal" || st.DateOfBirth.Year() != 2001 || len(st.EnrolledCourses) != 0 {
		t.Errorf("applied: %+v", st)
	}
}
