package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/institute_backend/internal/database"
	"github.com/zaqqye/institute_backend/internal/store"
)

func importRequest(t *testing.T, csvData string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "students.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(csvData))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/students/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportCourseLookupFailureIsNotReportedAsMissingCourse(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	sc := &StudentController{Store: store.NewStudentStore(db)}
	r := gin.New()
	r.POST("/students/import", sc.Import)

	// a broken connection must fail the import, not mark each row "course not found"
	sqlDB, _ := db.DB()
	sqlDB.Close()

	csvData := "first_name,last_name,email,phone,address,date_of_birth,nic,course_codes\n" +
		"Kasun,Perera,kasun@example.lk,0771234567,Colombo,2004-05-12,200413301234,ICT101\n"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, importRequest(t, csvData))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "not found") {
		t.Errorf("lookup failure reported as missing course: %s", w.Body.String())
	}
}
