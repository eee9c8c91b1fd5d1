package models

import (
	"time"

	"gorm.io/gorm"
)

// Student is the payer record created at account activation.
// Payment flows only ever read it.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MatricNumber string `gorm:"type:varchar(50);uniqueIndex" json:"matric_number"`
	FullName     string `gorm:"type:varchar(255)" json:"full_name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone        string `gorm:"type:varchar(50)" json:"phone"`
	School       string `gorm:"type:varchar(100)" json:"school"`
	Department   string `gorm:"type:varchar(100)" json:"department"`
	Level        string `gorm:"type:varchar(20)" json:"level"`

	Payments []Payment `gorm:"foreignKey:StudentID" json:"payments,omitempty"`
}
