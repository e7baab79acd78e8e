package service

import (
	"testing"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		expected string
	}{
		{
			name:     "zero",
			amount:   0,
			expected: "0 G",
		},
		{
			name:     "small amount",
			amount:   500,
			expected: "500 G",
		},
		{
			name:     "large amount",
			amount:   5750,
			expected: "5750 G",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatMoney(tt.amount)
			if result != tt.expected {
				t.Errorf("formatMoney(%d) = %q, want %q", tt.amount, result, tt.expected)
			}
		})
	}
}

func TestFormatSettlementSummary(t *testing.T) {
	result := &SettlementResult{
		RaceID:    "20240601_1600",
		Bets:      3,
		Resolved:  2,
		Winners:   1,
		Skipped:   1,
		TotalPaid: 5750,
	}

	msg := formatSettlementSummary(result)
	expected := "🏁 Race 20240601_1600 settled\n\n" +
		"Bets: 3\n" +
		"Winners paid: 1\n" +
		"Total paid: 5750 G\n" +
		"Already settled: 1"
	if msg != expected {
		t.Errorf("formatSettlementSummary() = %q, want %q", msg, expected)
	}
}

func TestFormatSettlementSummaryNoSkips(t *testing.T) {
	result := &SettlementResult{
		RaceID:    "20240601_1700",
		Bets:      1,
		Resolved:  1,
		Winners:   1,
		TotalPaid: 400,
	}

	msg := formatSettlementSummary(result)
	expected := "🏁 Race 20240601_1700 settled\n\n" +
		"Bets: 1\n" +
		"Winners paid: 1\n" +
		"Total paid: 400 G"
	if msg != expected {
		t.Errorf("formatSettlementSummary() = %q, want %q", msg, expected)
	}
}
