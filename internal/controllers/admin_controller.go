package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/middleware"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/store"
	"github.com/zaqqye/institute_backend/internal/utils"
)

// AdminController manages dashboard accounts.
type AdminController struct {
	DB *gorm.DB
}

type createUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"` // optional, defaults to true
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"user_id":    u.UserID,
		"full_name":  u.FullName,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func (a *AdminController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleUser
	}
	if !IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	user := models.User{
		UserID:   uuid.NewString(),
		FullName: req.FullName,
		Email:    req.Email,
		Password: pw,
		Role:     role,
		Active:   active,
	}
	user.Normalize()
	if err := a.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		respondError(c, store.TranslateError(err), "user not found")
		return
	}
	c.JSON(http.StatusCreated, userJSON(user))
}

func (a *AdminController) ListUsers(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, role, active
	p := parseListParams(c, 50, map[string]string{
		"created_at": "created_at",
		"full_name":  "full_name",
		"email":      "email",
		"role":       "role",
		"active":     "active",
	})
	role := strings.TrimSpace(strings.ToLower(c.Query("role")))
	activeStr := strings.TrimSpace(strings.ToLower(c.Query("active")))

	base := a.DB.WithContext(c.Request.Context()).Model(&models.User{})
	if p.Q != "" {
		like := likePattern(p.Q)
		base = base.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if role != "" {
		if !IsValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		base = base.Where("role = ?", role)
	}
	if activeStr != "" {
		active, ok := parseBool(activeStr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
			return
		}
		base = base.Where("active = ?", active)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err, "user not found")
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(p.order())
	if !p.All {
		listQ = listQ.Offset(p.offset()).Limit(p.Limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		respondError(c, err, "user not found")
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	meta := p.meta(total)
	if role != "" {
		meta["role"] = role
	}
	if activeStr != "" {
		meta["active"] = activeStr
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (a *AdminController) findUser(c *gin.Context) (models.User, bool) {
	var u models.User
	err := a.DB.WithContext(c.Request.Context()).Where("user_id = ?", strings.TrimSpace(c.Param("user_id"))).First(&u).Error
	if err != nil {
		respondError(c, store.TranslateError(err), "user not found")
		return u, false
	}
	return u, true
}

func (a *AdminController) GetUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userJSON(u))
}

type updateUserRequest struct {
	FullName *string         `json:"full_name"`
	Email    *string         `json:"email"`
	Password *FlexibleString `json:"password"`
	Role     *string         `json:"role"`
	Active   *bool           `json:"active"`
}

func (a *AdminController) UpdateUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setString(&u.FullName, req.FullName)
	setString(&u.Email, req.Email)
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !IsValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		u.Role = role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.Password != nil {
		raw := strings.TrimSpace(req.Password.String())
		if raw != "" {
			pw, err := utils.HashPassword(raw)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			u.Password = pw
		}
	}
	u.Normalize()

	if err := a.DB.WithContext(c.Request.Context()).Save(&u).Error; err != nil {
		respondError(c, store.TranslateError(err), "user not found")
		return
	}
	c.JSON(http.StatusOK, userJSON(u))
}

func (a *AdminController) DeleteUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}
	if me, _ := middleware.CurrentUser(c); me.ID == u.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	err := a.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id_ref = ?", u.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&u)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		respondError(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
