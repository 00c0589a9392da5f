package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryDate(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 4, 5, 0, time.UTC)
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		freeTrial bool
		trialDays int
		subType   string
		want      time.Time
	}{
		{"trial", true, 14, "monthly", today.AddDate(0, 0, 14)},
		{"trial ignores yearly", true, 7, "yearly", today.AddDate(0, 0, 7)},
		{"monthly", false, 14, "monthly", today.AddDate(0, 0, 30)},
		{"yearly", false, 14, "yearly", today.AddDate(0, 0, 365)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExpiryDate(now, tc.freeTrial, tc.trialDays, tc.subType))
		})
	}
}
