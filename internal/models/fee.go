package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Fee is a configured payable obligation for a session. Once payments
// reference it, only the active flag may change.
type Fee struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name            string `gorm:"type:varchar(255)" json:"name"`
	Description     string `gorm:"type:text" json:"description"`
	TotalAmount     int64  `gorm:"not null" json:"total_amount"`
	AcademicSession string `gorm:"type:varchar(20);index" json:"academic_session"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`

	AllowedLevels  []string `gorm:"serializer:json" json:"allowed_levels"`
	AllowedSchools []string `gorm:"serializer:json" json:"allowed_schools"`

	AllowsInstallments bool `gorm:"default:false" json:"allows_installments"`
	// Ordered percentages, must sum to 100 when set.
	InstallmentPercents []int `gorm:"serializer:json" json:"installment_percents"`

	Payments []Payment `gorm:"foreignKey:FeeID" json:"payments,omitempty"`
}

// DefaultInstallmentPercents covers legacy fee rows created before the split
// was stored explicitly. Compatibility shim, not business logic.
var DefaultInstallmentPercents = []int{70, 30}

// SplitPercents returns the fee's installment split, falling back to the
// legacy default when the row carries none.
func (f *Fee) SplitPercents() []int {
	if len(f.InstallmentPercents) > 0 {
		return f.InstallmentPercents
	}
	return DefaultInstallmentPercents
}

// InstallmentAmount returns the amount due for the 1-based installment n.
func (f *Fee) InstallmentAmount(n int) int64 {
	percents := f.SplitPercents()
	if n < 1 || n > len(percents) {
		return 0
	}
	return f.TotalAmount * int64(percents[n-1]) / 100
}

// CumulativeAmount returns the total due through installment n inclusive.
func (f *Fee) CumulativeAmount(n int) int64 {
	percents := f.SplitPercents()
	if n > len(percents) {
		n = len(percents)
	}
	var pct int64
	for i := 0; i < n; i++ {
		pct += int64(percents[i])
	}
	return f.TotalAmount * pct / 100
}

// AppliesTo reports whether a student's school and level match the fee.
func (f *Fee) AppliesTo(school, level string) bool {
	return containsFold(f.AllowedSchools, school) && containsFold(f.AllowedLevels, level)
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
