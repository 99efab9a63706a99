package clientdata

import "time"

// TTL constants for cached provider data.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Historical price series gain at most one bar per trading day, so a
	// day of freshness is enough for analysis runs.
	TTLPriceHistory = 24 * time.Hour
)
