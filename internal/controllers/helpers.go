package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
)

// listParams carries the shared pagination/sort query: limit, page, all, sort_by, sort_dir, q.
type listParams struct {
	All     bool
	Limit   int
	Page    int
	SortBy  string
	SortCol string
	SortDir string
	Q       string
}

func parseListParams(c *gin.Context, defaultLimit int, allowedSorts map[string]string) listParams {
	p := listParams{
		All:   strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1",
		Limit: defaultLimit,
		Page:  1,
		Q:     strings.TrimSpace(c.Query("q")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	p.SortBy = strings.ToLower(c.DefaultQuery("sort_by", "created_at"))
	p.SortDir = strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if p.SortDir != "ASC" && p.SortDir != "DESC" {
		p.SortDir = "DESC"
	}
	col, ok := allowedSorts[p.SortBy]
	if !ok {
		col = "created_at"
	}
	p.SortCol = col
	return p
}

func (p listParams) order() string {
	return fmt.Sprintf("%s %s", p.SortCol, p.SortDir)
}

func (p listParams) offset() int {
	return (p.Page - 1) * p.Limit
}

func (p listParams) meta(total int64) gin.H {
	meta := gin.H{"total": total, "all": p.All}
	if !p.All {
		meta["limit"] = p.Limit
		meta["page"] = p.Page
		meta["sort_by"] = p.SortCol
		meta["sort_dir"] = p.SortDir
	}
	if p.Q != "" {
		meta["q"] = p.Q
	}
	return meta
}

func likePattern(q string) string {
	return "%" + strings.ToLower(q) + "%"
}

// respondError maps store, model and storage errors onto the API error shape.
// notFound is the message used for a missing primary record.
func respondError(c *gin.Context, err error, notFound string) {
	var verr *models.ValidationError
	var dup *store.DuplicateError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &dup):
		body := gin.H{"error": dup.Error()}
		if dup.Field != "" {
			body["field"] = dup.Field
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrCourseNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "courseId"})
	case errors.Is(err, store.ErrEnrollmentExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "field": "courseId"})
	case errors.Is(err, storage.ErrUnsupportedFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "profilePicture"})
	case errors.Is(err, storage.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "field": "profilePicture"})
	case errors.Is(err, store.ErrSequenceExhausted):
		logger.Error().Err(err).Msg("student id sequence exhausted")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// bindBody decodes a JSON body, or a multipart form into the same JSON shape.
// Form fields listed in jsonFields carry JSON-encoded values (nested lists);
// every other field is taken as a string. The profilePicture part, if any, is
// returned.
func bindBody(c *gin.Context, dst interface{}, maxMemory int64, jsonFields ...string) (*multipart.FileHeader, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(dst); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	form := c.Request.MultipartForm
	raw := make(map[string]interface{}, len(form.Value))
	for key, vals := range form.Value {
		if len(vals) == 0 {
			continue
		}
		val := vals[0]
		if contains(jsonFields, key) {
			if strings.TrimSpace(val) == "" {
				continue
			}
			if !json.Valid([]byte(val)) {
				return nil, fmt.Errorf("%s must be valid JSON", key)
			}
			raw[key] = json.RawMessage(val)
			continue
		}
		raw[key] = val
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var fh *multipart.FileHeader
	if files := form.File["profilePicture"]; len(files) > 0 {
		fh = files[0]
	}
	return fh, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseDate accepts 2006-01-02 or RFC 3339.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, models.NewValidationError(field, "date")
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
