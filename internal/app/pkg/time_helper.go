package pkg

import "time"

// PeriodKey returns the billing period ("2006-01") a timestamp falls in,
// which is how plan usage is bucketed by the entitlement gate.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// IsExpired reports whether an optional expiry is at or before now.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !now.Before(*expiresAt)
}
