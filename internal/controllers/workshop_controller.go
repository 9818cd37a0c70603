package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/store"
)

const workshopNotFound = "workshop not found"

type WorkshopController struct {
	DB *gorm.DB
}

type workshopRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
	Capacity    *int    `json:"capacity"`
	IsActive    *bool   `json:"isActive"`
}

func (r workshopRequest) apply(w *models.Workshop) error {
	setString(&w.Title, r.Title)
	setString(&w.Description, r.Description)
	setString(&w.Location, r.Location)
	if r.Date != nil {
		d, err := parseDate("date", *r.Date)
		if err != nil {
			return err
		}
		w.Date = d
	}
	if r.Capacity != nil {
		w.Capacity = *r.Capacity
	}
	if r.IsActive != nil {
		w.IsActive = *r.IsActive
	}
	return nil
}

func (wc *WorkshopController) ListWorkshops(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, upcoming
	p := parseListParams(c, 20, map[string]string{
		"created_at": "created_at",
		"date":       "date",
		"title":      "title",
	})
	base := wc.DB.WithContext(c.Request.Context()).Model(&models.Workshop{})
	if p.Q != "" {
		like := likePattern(p.Q)
		base = base.Where("LOWER(title) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	upcoming, _ := parseBool(c.Query("upcoming"))
	if upcoming {
		base = base.Where("date >= ? AND is_active = ?", time.Now().UTC(), true)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err, workshopNotFound)
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(p.order())
	if !p.All {
		listQ = listQ.Offset(p.offset()).Limit(p.Limit)
	}
	workshops := []models.Workshop{}
	if err := listQ.Find(&workshops).Error; err != nil {
		respondError(c, err, workshopNotFound)
		return
	}
	meta := p.meta(total)
	if upcoming {
		meta["upcoming"] = true
	}
	c.JSON(http.StatusOK, gin.H{"data": workshops, "meta": meta})
}

func (wc *WorkshopController) CreateWorkshop(c *gin.Context) {
	var req workshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w := models.Workshop{IsActive: true}
	if err := req.apply(&w); err != nil {
		respondError(c, err, workshopNotFound)
		return
	}
	if err := wc.DB.WithContext(c.Request.Context()).Create(&w).Error; err != nil {
		respondError(c, store.TranslateError(err), workshopNotFound)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (wc *WorkshopController) find(c *gin.Context) (models.Workshop, bool) {
	var w models.Workshop
	if err := wc.DB.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).First(&w).Error; err != nil {
		respondError(c, store.TranslateError(err), workshopNotFound)
		return w, false
	}
	return w, true
}

func (wc *WorkshopController) GetWorkshop(c *gin.Context) {
	if w, ok := wc.find(c); ok {
		c.JSON(http.StatusOK, w)
	}
}

func (wc *WorkshopController) UpdateWorkshop(c *gin.Context) {
	w, ok := wc.find(c)
	if !ok {
		return
	}
	var req workshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.apply(&w); err != nil {
		respondError(c, err, workshopNotFound)
		return
	}
	if err := wc.DB.WithContext(c.Request.Context()).Save(&w).Error; err != nil {
		respondError(c, store.TranslateError(err), workshopNotFound)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (wc *WorkshopController) DeleteWorkshop(c *gin.Context) {
	w, ok := wc.find(c)
	if !ok {
		return
	}
	if err := wc.DB.WithContext(c.Request.Context()).Delete(&w).Error; err != nil {
		respondError(c, err, workshopNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
