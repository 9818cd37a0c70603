package controllers

import "github.com/zaqqye/institute_backend/internal/models"

var allowedRoles = map[string]struct{}{
	models.RoleAdmin:    {},
	models.RoleDirector: {},
	models.RoleAuditor:  {},
	models.RoleUser:     {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
