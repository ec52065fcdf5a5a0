package repository

import "context"

// Pricing configuration keys.
const (
	PricingKeyBaseFare    = "base_fare"
	PricingKeyPerKmRate   = "per_km_rate"
	PricingKeyMinimumFare = "minimum_fare"
)

// ConfigRepository defines the persistence operations for the key/value
// configuration table that backs pricing parameters.
type ConfigRepository interface {
	// GetValue retrieves the value for a key. Returns ErrNotFound when
	// the key is absent; callers apply their documented default.
	GetValue(ctx context.Context, key string) (string, error)

	// GetValues retrieves the listed keys in one consistent read. Absent
	// keys are simply missing from the result.
	GetValues(ctx context.Context, keys []string) (map[string]string, error)

	// SetValue upserts a key's value.
	SetValue(ctx context.Context, key, value string) error

	// SetValues upserts all entries atomically: a concurrent reader sees
	// either none or all of them.
	SetValues(ctx context.Context, values map[string]string) error
}
