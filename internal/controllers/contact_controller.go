package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/store"
	"github.com/zaqqye/institute_backend/internal/utils"
)

const messageNotFound = "message not found"

type ContactController struct {
	DB *gorm.DB
}

type contactRequest struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   *FlexibleString `json:"phone"`
	Subject string          `json:"subject"`
	Message string          `json:"message"`
}

// Submit stores a public inquiry and returns its reference.
func (cc *ContactController) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg := models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	setString(&msg.Phone, req.Phone.ptr())

	// references are random; retry the rare collision
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if msg.Reference, err = utils.ContactReference(time.Now()); err != nil {
			break
		}
		msg.ID = ""
		err = store.TranslateError(cc.DB.WithContext(c.Request.Context()).Create(&msg).Error)
		if dup, ok := err.(*store.DuplicateError); !ok || dup.Field != "reference" {
			break
		}
	}
	if err != nil {
		respondError(c, err, messageNotFound)
		return
	}
	logger.Info().Str("reference", msg.Reference).Msg("contact message received")
	c.JSON(http.StatusCreated, gin.H{"message": "received", "reference": msg.Reference})
}

func (cc *ContactController) ListMessages(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, unread
	p := parseListParams(c, 20, map[string]string{
		"created_at": "created_at",
		"name":       "name",
		"email":      "email",
	})
	base := cc.DB.WithContext(c.Request.Context()).Model(&models.ContactMessage{})
	if p.Q != "" {
		like := likePattern(p.Q)
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(subject) LIKE ? OR LOWER(reference) LIKE ?", like, like, like, like)
	}
	unread, _ := parseBool(c.Query("unread"))
	if unread {
		base = base.Where("is_read = ?", false)
	}
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err, messageNotFound)
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(p.order())
	if !p.All {
		listQ = listQ.Offset(p.offset()).Limit(p.Limit)
	}
	messages := []models.ContactMessage{}
	if err := listQ.Find(&messages).Error; err != nil {
		respondError(c, err, messageNotFound)
		return
	}
	meta := p.meta(total)
	if unread {
		meta["unread"] = true
	}
	c.JSON(http.StatusOK, gin.H{"data": messages, "meta": meta})
}

func (cc *ContactController) find(c *gin.Context) (models.ContactMessage, bool) {
	var m models.ContactMessage
	if err := cc.DB.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).First(&m).Error; err != nil {
		respondError(c, store.TranslateError(err), messageNotFound)
		return m, false
	}
	return m, true
}

func (cc *ContactController) GetMessage(c *gin.Context) {
	if m, ok := cc.find(c); ok {
		c.JSON(http.StatusOK, m)
	}
}

type markReadRequest struct {
	IsRead *bool `json:"isRead"`
}

// MarkRead sets isRead (default true).
func (cc *ContactController) MarkRead(c *gin.Context) {
	m, ok := cc.find(c)
	if !ok {
		return
	}
	var req markReadRequest
	_ = c.ShouldBindJSON(&req)
	read := true
	if req.IsRead != nil {
		read = *req.IsRead
	}
	if err := cc.DB.WithContext(c.Request.Context()).Model(&m).Update("is_read", read).Error; err != nil {
		respondError(c, err, messageNotFound)
		return
	}
	m.IsRead = read
	c.JSON(http.StatusOK, m)
}

func (cc *ContactController) DeleteMessage(c *gin.Context) {
	m, ok := cc.find(c)
	if !ok {
		return
	}
	if err := cc.DB.WithContext(c.Request.Context()).Delete(&m).Error; err != nil {
		respondError(c, err, messageNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
