package controllers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zaqqye/institute_backend/internal/models"
)

// checkUUIDs reports the first malformed id as a validation failure. A field
// containing %d is formatted with the id's index. Empty ids are left for the
// model's required rule.
func checkUUIDs(field string, ids ...string) error {
	for i, raw := range ids {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, err := uuid.Parse(s); err != nil {
			name := field
			if strings.Contains(field, "%d") {
				name = fmt.Sprintf(field, i)
			}
			return models.NewValidationError(name, "uuid")
		}
	}
	return nil
}
