package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/institute_backend/internal/config"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
)

type ConfigController struct {
	Cfg *config.Config
}

// Public returns the enumerations and limits the dashboards build their forms from.
func (cc *ConfigController) Public(c *gin.Context) {
	roles := make([]string, 0, len(allowedRoles))
	for _, r := range []string{models.RoleAdmin, models.RoleDirector, models.RoleAuditor, models.RoleUser} {
		if IsValidRole(r) {
			roles = append(roles, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"studentStatuses":    models.StudentStatuses,
		"enrollmentStatuses": models.EnrollmentStatuses,
		"roles":              roles,
		"studentIdFormat":    "STU######",
		"upload": gin.H{
			"maxBytes":          cc.Cfg.UploadMaxBytes(),
			"allowedExtensions": storage.AllowedExtensions(),
		},
		"schema_version": 1,
	})
}
