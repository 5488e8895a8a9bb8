// Package models contains the persistence models for the application,
// configured to work using GORM as the ORM.
package models

import (
	"time"
)

// Professional represents a professional profile row.
// Email and Phone are nullable so the unique indexes only apply to present values.
type Professional struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	FullName    string    `gorm:"size:255;not null"`
	Email       *string   `gorm:"size:254;uniqueIndex:idx_professionals_email"`
	Phone       *string   `gorm:"size:32;uniqueIndex:idx_professionals_phone"`
	CompanyName string    `gorm:"size:255;not null;default:''"`
	JobTitle    string    `gorm:"size:255;not null;default:''"`
	Source      string    `gorm:"size:16;not null;index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	Resume      *ResumeUpload `gorm:"foreignKey:ProfessionalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// ResumeUpload represents the one resume row a professional may own.
type ResumeUpload struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	ProfessionalID uint64 `gorm:"not null;uniqueIndex:idx_resume_uploads_professional"`
	File           string `gorm:"size:512;not null"`
	ExtractedText  string `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
