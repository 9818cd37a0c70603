package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zaqqye/institute_backend/internal/models"
)

const StudentSequence = "student"

// NextValue increments the named counter and returns the new value. It must run
// inside the transaction that uses the value: the UPDATE holds the counter row
// until that transaction ends, so concurrent callers are serialized and a
// rollback gives the value back.
func NextValue(tx *gorm.DB, name string) (int64, error) {
	if err := ensureCounter(tx, name); err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Counter{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error; err != nil {
		return 0, err
	}
	var c models.Counter
	if err := tx.Where("name = ?", name).Take(&c).Error; err != nil {
		return 0, err
	}
	return c.Value, nil
}

// RaiseValue moves the counter up to atLeast; it never lowers it.
func RaiseValue(tx *gorm.DB, name string, atLeast int64) error {
	if err := ensureCounter(tx, name); err != nil {
		return err
	}
	return tx.Model(&models.Counter{}).
		Where("name = ? AND value < ?", name, atLeast).
		UpdateColumn("value", atLeast).Error
}

// CurrentValue reads the counter without changing it. Missing counters read as 0.
func CurrentValue(tx *gorm.DB, name string) (int64, error) {
	var c models.Counter
	err := tx.Where("name = ?", name).Limit(1).Find(&c).Error
	return c.Value, err
}

func ensureCounter(tx *gorm.DB, name string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Counter{Name: name}).Error
}
