package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fileHeader builds a real multipart.FileHeader by parsing a form.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("profilePicture", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["profilePicture"][0]
}

func TestSaveAndDeleteImage(t *testing.T) {
	base := t.TempDir()
	ls, err := NewLocalStorage(base, "/uploads", 1024)
	if err != nil {
		t.Fatal(err)
	}
	url, err := ls.SaveImage(fileHeader(t, "me.JPG", []byte("fake jpeg")), "students")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/students/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("url: %q", url)
	}
	onDisk := filepath.Join(base, "students", filepath.Base(url))
	if data, err := os.ReadFile(onDisk); err != nil || string(data) != "fake jpeg" {
		t.Fatalf("stored file: %v %q", err, data)
	}

	if err := ls.Delete(url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
	if err := ls.Delete(url); err != nil {
		t.Errorf("deleting twice should be a no-op, got %v", err)
	}
}

func TestSaveImageRejects(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ls.SaveImage(fileHeader(t, "cv.pdf", []byte("x")), "students"); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("pdf: got %v", err)
	}
	if _, err := ls.SaveImage(fileHeader(t, "big.png", []byte("too many bytes")), "students"); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("size: got %v", err)
	}
	if url, err := ls.SaveImage(nil, "students"); url != "" || err != nil {
		t.Errorf("nil header: %q %v", url, err)
	}
}

func TestDeleteIgnoresForeignPaths(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(t.TempDir(), "keep.txt")
	os.WriteFile(outside, []byte("x"), 0o600)
	ls, _ := NewLocalStorage(base, "/uploads", 0)
	if err := ls.Delete("/etc/passwd"); err != nil {
		t.Error(err)
	}
	if err := ls.Delete("/uploads/../../keep.txt"); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the upload dir must survive")
	}
}
