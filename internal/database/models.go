package database

import (
	"time"
)

// User is a registered account. Records are created on registration and
// never mutated afterwards.
type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

// CropAnalysis is one diagnosed observation, owned by exactly one user.
// Records are immutable once saved.
type CropAnalysis struct {
	ID                    string `gorm:"primaryKey"`
	UserID                string `gorm:"index;not null"`
	User                  User   `gorm:"foreignKey:UserID"`
	CropName              string `gorm:"not null"`
	GrowthStage           string `gorm:"not null"`
	Symptoms              string `gorm:"not null"`
	SoilMoisture          *int
	Temperature           *float64
	Humidity              *int
	ImageData             string // base64 JPEG, empty when no image was attached
	Diagnosis             string
	ConfidenceScore       int
	ImmediateAction       string
	SustainableTreatment  string
	ResourceEfficiencyTip string
	RiskLevel             string
	CreatedAt             time.Time
}
