package models

// Counter is a named sequence. Value holds the last value handed out.
type Counter struct {
	Name  string `gorm:"size:64;primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}
