package domain

import (
	"time"

	"github.com/smallbiznis/possaas/internal/clock"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
)

const (
	monthlyDays = 30
	yearlyDays  = 365
)

// ExpiryDate computes when a subscription ends, counted from today's date.
// Free-trial packages last trialDays; others last 30 or 365 days depending
// on the subscription type.
func ExpiryDate(now time.Time, isFreeTrial bool, trialDays int, subscriptionType string) time.Time {
	today := clock.Today(now)
	switch {
	case isFreeTrial:
		return today.AddDate(0, 0, trialDays)
	case subscriptionType == tenantdomain.SubscriptionYearly:
		return today.AddDate(0, 0, yearlyDays)
	default:
		return today.AddDate(0, 0, monthlyDays)
	}
}
