package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/zaqqye/institute_backend/internal/logger"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// LocalStorage keeps uploaded profile pictures on the local filesystem and
// returns paths served under BaseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
	maxBytes int64
}

// NewLocalStorage ensures basePath exists. maxBytes <= 0 disables the size check.
func NewLocalStorage(basePath, baseURL string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("failed to create storage directory")
		return nil, fmt.Errorf("create storage directory %s: %w", basePath, err)
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalStorage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

func (ls *LocalStorage) BasePath() string { return ls.basePath }

func (ls *LocalStorage) MaxBytes() int64 { return ls.maxBytes }

// AllowedExtensions lists the accepted image extensions in sorted order.
func AllowedExtensions() []string {
	out := make([]string, 0, len(imageExts))
	for ext := range imageExts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// SaveImage stores fh under subDir with a random file name and returns its URL
// path, e.g. /uploads/students/<uuid>.jpg. A nil header saves nothing.
func (ls *LocalStorage) SaveImage(fh *multipart.FileHeader, subDir string) (string, error) {
	if fh == nil {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if ls.maxBytes > 0 && fh.Size > ls.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, fh.Size, ls.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	subDir = filepath.Base(filepath.Clean("/" + subDir))
	if subDir == "/" || subDir == "." {
		subDir = ""
	}
	dir := filepath.Join(ls.basePath, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	name := uuid.NewString() + ext
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	url := path.Join(ls.baseURL, subDir, name)
	logger.Debug().Str("filename", fh.Filename).Str("saved_as", url).Msg("upload stored")
	return url, nil
}

// Delete removes a file previously returned by SaveImage. Missing files and
// URLs outside BaseURL are ignored.
func (ls *LocalStorage) Delete(url string) error {
	rel, ok := strings.CutPrefix(url, ls.baseURL+"/")
	if url == "" || !ok {
		return nil
	}
	rel = path.Clean("/" + rel)[1:]
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(ls.basePath, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("url", url).Msg("failed to delete upload")
		return err
	}
	return nil
}
