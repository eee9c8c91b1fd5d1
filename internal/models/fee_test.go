package models

import "testing"

func TestFeeAppliesTo(t *testing.T) {
	fee := &Fee{
		AllowedSchools: []string{"Science", "Engineering"},
		AllowedLevels:  []string{"100", "200"},
	}

	tests := []struct {
		school string
		level  string
		want   bool
	}{
		{"Science", "200", true},
		{"science", "200", true},
		{"ENGINEERING", "100", true},
		{"Arts", "200", false},
		{"Science", "300", false},
		{"", "", false},
	}

	for _, tt := range tests {
		if got := fee.AppliesTo(tt.school, tt.level); got != tt.want {
			t.Errorf("AppliesTo(%q, %q) = %v; want %v", tt.school, tt.level, got, tt.want)
		}
	}
}

func TestFeeInstallmentAmounts(t *testing.T) {
	fee := &Fee{TotalAmount: 100000, InstallmentPercents: []int{70, 30}}

	if got := fee.InstallmentAmount(1); got != 70000 {
		t.Errorf("InstallmentAmount(1) = %d; want 70000", got)
	}
	if got := fee.InstallmentAmount(2); got != 30000 {
		t.Errorf("InstallmentAmount(2) = %d; want 30000", got)
	}
	if got := fee.InstallmentAmount(3); got != 0 {
		t.Errorf("InstallmentAmount(3) = %d; want 0", got)
	}
	if got := fee.InstallmentAmount(0); got != 0 {
		t.Errorf("InstallmentAmount(0) = %d; want 0", got)
	}

	if got := fee.CumulativeAmount(1); got != 70000 {
		t.Errorf("CumulativeAmount(1) = %d; want 70000", got)
	}
	if got := fee.CumulativeAmount(2); got != 100000 {
		t.Errorf("CumulativeAmount(2) = %d; want 100000", got)
	}
	if got := fee.CumulativeAmount(5); got != 100000 {
		t.Errorf("CumulativeAmount(5) clamps to the full total; got %d", got)
	}
}

func TestFeeSplitPercentsLegacyFallback(t *testing.T) {
	fee := &Fee{TotalAmount: 200000}

	percents := fee.SplitPercents()
	if len(percents) != 2 || percents[0] != 70 || percents[1] != 30 {
		t.Errorf("SplitPercents() = %v; want [70 30]", percents)
	}
	if got := fee.InstallmentAmount(1); got != 140000 {
		t.Errorf("InstallmentAmount(1) = %d; want 140000", got)
	}
}
