package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"saferide/internal/fare"
	"saferide/internal/repository"
)

type fakeConfigRepo struct {
	mu     sync.Mutex
	values map[string]string
	reads  int
}

func (f *fakeConfigRepo) GetValue(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeConfigRepo) GetValues(ctx context.Context, keys []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := f.values[key]; ok {
			values[key] = v
		}
	}
	return values, nil
}

func (f *fakeConfigRepo) SetValue(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[key] = value
	return nil
}

func (f *fakeConfigRepo) SetValues(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = make(map[string]string)
	}
	for key, value := range values {
		f.values[key] = value
	}
	return nil
}

type fakeSnapshotCache struct {
	mu       sync.Mutex
	snapshot *fare.Params
}

func (f *fakeSnapshotCache) Get(ctx context.Context) (*fare.Params, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, nil
}

func (f *fakeSnapshotCache) Set(ctx context.Context, params fare.Params, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = &params
	return nil
}

func (f *fakeSnapshotCache) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = nil
	return nil
}

func TestParams_DefaultsWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeConfigRepo{}, nil, 0)

	params, err := svc.Params(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params != fare.DefaultParams() {
		t.Errorf("params = %+v, want defaults %+v", params, fare.DefaultParams())
	}
}

func TestParams_ReadsStoreValues(t *testing.T) {
	t.Parallel()

	repo := &fakeConfigRepo{values: map[string]string{
		repository.PricingKeyBaseFare:    "80",
		repository.PricingKeyPerKmRate:   "30",
		repository.PricingKeyMinimumFare: "150",
	}}
	svc := NewService(repo, nil, 0)

	params, err := svc.Params(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params.BaseFare != 80 || params.PerKmRate != 30 || params.MinimumFare != 150 {
		t.Errorf("params = %+v, want 80/30/150", params)
	}
}

func TestParams_MalformedValueFallsBack(t *testing.T) {
	t.Parallel()

	repo := &fakeConfigRepo{values: map[string]string{
		repository.PricingKeyBaseFare: "not-a-number",
	}}
	svc := NewService(repo, nil, 0)

	params, err := svc.Params(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params.BaseFare != fare.DefaultBaseFare {
		t.Errorf("base fare = %v, want default %v", params.BaseFare, fare.DefaultBaseFare)
	}
}

func TestParams_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	repo := &fakeConfigRepo{}
	cache := &fakeSnapshotCache{}
	svc := NewService(repo, cache, time.Minute)

	if _, err := svc.Params(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readsAfterMiss := repo.reads

	if _, err := svc.Params(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.reads != readsAfterMiss {
		t.Errorf("store read on cache hit: reads = %d, want %d", repo.reads, readsAfterMiss)
	}
}

func TestUpdate_InvalidatesSnapshot(t *testing.T) {
	t.Parallel()

	repo := &fakeConfigRepo{}
	cache := &fakeSnapshotCache{}
	svc := NewService(repo, cache, time.Minute)

	if _, err := svc.Params(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Update(context.Background(), map[string]float64{
		repository.PricingKeyBaseFare: 75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, err := svc.Params(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.BaseFare != 75 {
		t.Errorf("base fare after update = %v, want 75", params.BaseFare)
	}
}

// A quote issued while an update is in flight must price against one
// configuration, never a mix of old and new values.
func TestParams_SnapshotNeverMixesConfigurations(t *testing.T) {
	t.Parallel()

	old := map[string]float64{
		repository.PricingKeyBaseFare:    100,
		repository.PricingKeyPerKmRate:   50,
		repository.PricingKeyMinimumFare: 100,
	}
	updated := map[string]float64{
		repository.PricingKeyBaseFare:    200,
		repository.PricingKeyPerKmRate:   80,
		repository.PricingKeyMinimumFare: 150,
	}

	repo := &fakeConfigRepo{}
	svc := NewService(repo, nil, 0)
	ctx := context.Background()
	if err := svc.Update(ctx, old); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Update(ctx, updated)
	}()

	for {
		params, err := svc.Params(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		isOld := params.BaseFare == 100 && params.PerKmRate == 50 && params.MinimumFare == 100
		isNew := params.BaseFare == 200 && params.PerKmRate == 80 && params.MinimumFare == 150
		if !isOld && !isNew {
			t.Fatalf("mixed snapshot observed: %+v", params)
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func TestUpdate_RejectsUnknownKeyAndNegatives(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeConfigRepo{}, nil, 0)

	if err := svc.Update(context.Background(), map[string]float64{"surge": 2}); err != ErrUnknownKey {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}
	if err := svc.Update(context.Background(), map[string]float64{repository.PricingKeyBaseFare: -1}); err != ErrNegativeValue {
		t.Errorf("err = %v, want ErrNegativeValue", err)
	}
}
