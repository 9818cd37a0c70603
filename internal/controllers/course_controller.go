package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/store"
)

const courseNotFound = "course not found"

type CourseController struct {
	DB *gorm.DB
}

type courseRequest struct {
	Code        *string         `json:"code"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Duration    *string         `json:"duration"`
	Fee         *float64        `json:"fee"`
	Modules     json.RawMessage `json:"modules"`
	IsActive    *bool           `json:"isActive"`
}

func (r courseRequest) apply(m *models.Course) error {
	setString(&m.Code, r.Code)
	setString(&m.Title, r.Title)
	setString(&m.Description, r.Description)
	setString(&m.Duration, r.Duration)
	if r.Fee != nil {
		m.Fee = *r.Fee
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if len(r.Modules) > 0 && string(r.Modules) != "null" {
		var modules []interface{}
		if err := json.Unmarshal(r.Modules, &modules); err != nil {
			return models.NewValidationError("modules", "array")
		}
		m.Modules = datatypes.JSON(r.Modules)
	}
	return nil
}

func (cc *CourseController) ListCourses(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, active
	p := parseListParams(c, 20, map[string]string{
		"created_at": "created_at",
		"code":       "code",
		"title":      "title",
		"fee":        "fee",
	})
	base := cc.DB.WithContext(c.Request.Context()).Model(&models.Course{})
	if p.Q != "" {
		like := likePattern(p.Q)
		base = base.Where("LOWER(code) LIKE ? OR LOWER(title) LIKE ?", like, like)
	}
	activeStr := strings.TrimSpace(c.Query("active"))
	if activeStr != "" {
		active, ok := parseBool(activeStr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
			return
		}
		base = base.Where("is_active = ?", active)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(p.order())
	if !p.All {
		listQ = listQ.Offset(p.offset()).Limit(p.Limit)
	}
	courses := []models.Course{}
	if err := listQ.Find(&courses).Error; err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	meta := p.meta(total)
	if activeStr != "" {
		meta["active"] = activeStr
	}
	c.JSON(http.StatusOK, gin.H{"data": courses, "meta": meta})
}

func (cc *CourseController) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := models.Course{IsActive: true}
	if err := req.apply(&m); err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	if err := cc.DB.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
		respondError(c, store.TranslateError(err), courseNotFound)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (cc *CourseController) find(c *gin.Context) (models.Course, bool) {
	var m models.Course
	if err := cc.DB.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).First(&m).Error; err != nil {
		respondError(c, store.TranslateError(err), courseNotFound)
		return m, false
	}
	return m, true
}

func (cc *CourseController) GetCourse(c *gin.Context) {
	if m, ok := cc.find(c); ok {
		c.JSON(http.StatusOK, m)
	}
}

func (cc *CourseController) UpdateCourse(c *gin.Context) {
	m, ok := cc.find(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.apply(&m); err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	if err := cc.DB.WithContext(c.Request.Context()).Save(&m).Error; err != nil {
		respondError(c, store.TranslateError(err), courseNotFound)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteCourse refuses to remove a course that still has enrollments.
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	m, ok := cc.find(c)
	if !ok {
		return
	}
	var enrolled int64
	if err := cc.DB.WithContext(c.Request.Context()).Model(&models.Enrollment{}).Where("course_id = ?", m.ID).Count(&enrolled).Error; err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	if enrolled > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "course has enrolled students", "enrollments": enrolled})
		return
	}
	if err := cc.DB.WithContext(c.Request.Context()).Delete(&m).Error; err != nil {
		respondError(c, err, courseNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
