// Package pricing resolves the fare parameters from the configuration
// store, with a snapshot cache in front so a burst of quote requests does
// not hammer the config table.
package pricing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"saferide/internal/fare"
	"saferide/internal/repository"
)

// SnapshotCache caches whole parameter snapshots. Implemented by
// redis.ParamsCache; nil disables caching.
type SnapshotCache interface {
	Get(ctx context.Context) (*fare.Params, error)
	Set(ctx context.Context, params fare.Params, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Service reads and updates pricing parameters.
type Service struct {
	config repository.ConfigRepository
	cache  SnapshotCache
	ttl    time.Duration
}

// NewService creates a pricing Service. cache may be nil.
func NewService(config repository.ConfigRepository, cache SnapshotCache, ttl time.Duration) *Service {
	return &Service{config: config, cache: cache, ttl: ttl}
}

// Params returns one consistent parameter snapshot. Keys absent from the
// store fall back to the documented defaults. The snapshot is assembled
// in full before it is returned or cached, so a caller never mixes values
// from two configurations.
func (s *Service) Params(ctx context.Context) (fare.Params, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err == nil && cached != nil {
			return *cached, nil
		}
		// Cache errors degrade to a store read.
	}

	// One batched read: a concurrent update can never interleave between
	// per-key lookups and hand back a mixed snapshot.
	values, err := s.config.GetValues(ctx, []string{
		repository.PricingKeyBaseFare,
		repository.PricingKeyPerKmRate,
		repository.PricingKeyMinimumFare,
	})
	if err != nil {
		return fare.Params{}, err
	}

	params := fare.DefaultParams()
	params.BaseFare = floatValue(values, repository.PricingKeyBaseFare, fare.DefaultBaseFare)
	params.PerKmRate = floatValue(values, repository.PricingKeyPerKmRate, fare.DefaultPerKmRate)
	params.MinimumFare = floatValue(values, repository.PricingKeyMinimumFare, fare.DefaultMinimumFare)

	if s.cache != nil {
		_ = s.cache.Set(ctx, params, s.ttl)
	}

	return params, nil
}

// Update writes the supplied pricing keys and invalidates the snapshot.
func (s *Service) Update(ctx context.Context, values map[string]float64) error {
	for key, value := range values {
		switch key {
		case repository.PricingKeyBaseFare, repository.PricingKeyPerKmRate, repository.PricingKeyMinimumFare:
		default:
			return ErrUnknownKey
		}
		if value < 0 {
			return ErrNegativeValue
		}
	}

	encoded := make(map[string]string, len(values))
	for key, value := range values {
		encoded[key] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	if err := s.config.SetValues(ctx, encoded); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}

	return nil
}

// Seed writes the default parameters for any key not yet present.
func (s *Service) Seed(ctx context.Context) error {
	defaults := map[string]float64{
		repository.PricingKeyBaseFare:    fare.DefaultBaseFare,
		repository.PricingKeyPerKmRate:   fare.DefaultPerKmRate,
		repository.PricingKeyMinimumFare: fare.DefaultMinimumFare,
	}

	for key, value := range defaults {
		_, err := s.config.GetValue(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			if err := s.config.SetValue(ctx, key, strconv.FormatFloat(value, 'f', -1, 64)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func floatValue(values map[string]string, key string, fallback float64) float64 {
	raw, ok := values[key]
	if !ok {
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A malformed row must not break quoting; use the default.
		return fallback
	}
	return value
}

// Validation errors for Update.
var (
	ErrUnknownKey    = errors.New("unknown pricing key")
	ErrNegativeValue = errors.New("pricing value must not be negative")
)
