package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"saferide/internal/domain"
	"saferide/internal/mpesa"
	"saferide/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory implementation of repository.Store.
// WithinTx serializes callers under one mutex, which models the row-lock
// serialization the PostgreSQL store provides: two concurrent state
// transitions on the same record run one after the other.
type MockStore struct {
	txMu sync.Mutex

	UserRepo    *MockUserRepository
	DriverRepo  *MockDriverRepository
	TripRepo    *MockTripRepository
	PaymentRepo *MockPaymentRepository
	ConfigRepo  *MockConfigRepository

	// TxCallCount counts WithinTx invocations.
	TxCallCount int32
}

// NewMockStore creates a MockStore with empty repositories.
func NewMockStore() *MockStore {
	return &MockStore{
		UserRepo:    NewMockUserRepository(),
		DriverRepo:  NewMockDriverRepository(),
		TripRepo:    NewMockTripRepository(),
		PaymentRepo: NewMockPaymentRepository(),
		ConfigRepo:  NewMockConfigRepository(),
	}
}

func (m *MockStore) Users() repository.UserRepository       { return m.UserRepo }
func (m *MockStore) Drivers() repository.DriverRepository   { return m.DriverRepo }
func (m *MockStore) Trips() repository.TripRepository       { return m.TripRepo }
func (m *MockStore) Payments() repository.PaymentRepository { return m.PaymentRepo }
func (m *MockStore) Config() repository.ConfigRepository    { return m.ConfigRepo }

func (m *MockStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	atomic.AddInt32(&m.TxCallCount, 1)
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// Ensure MockStore implements repository.Store.
var _ repository.Store = (*MockStore)(nil)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateCallCount int32

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		copy := *user
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockUserRepository) Count(ctx context.Context, role domain.Role) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, user := range m.users {
		if user.Role == role {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver // keyed by user ID

	CreateCallCount      int32
	AddEarningsCallCount int32
	IncrementCallCount   int32
	SetRatingCallCount   int32

	CreateError      error
	AddEarningsError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver adds a driver profile to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.UserID] = driver
}

// GetDriver returns the stored profile for test assertions.
func (m *MockDriverRepository) GetDriver(userID string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[userID]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[driver.UserID]; ok {
		return repository.ErrDuplicate
	}
	m.drivers[driver.UserID] = driver
	return nil
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[driver.UserID]; !ok {
		return repository.ErrNotFound
	}
	copy := *driver
	m.drivers[driver.UserID] = &copy
	return nil
}

func (m *MockDriverRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.IsOnline = online
	return nil
}

func (m *MockDriverRepository) IncrementTotalTrips(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[userID]
	if !ok {
		// The PostgreSQL implementation reports a missing row.
		return repository.ErrNotFound
	}
	driver.TotalTrips++
	return nil
}

func (m *MockDriverRepository) AddEarnings(ctx context.Context, userID string, amount float64) error {
	atomic.AddInt32(&m.AddEarningsCallCount, 1)
	if m.AddEarningsError != nil {
		return m.AddEarningsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.TotalEarnings += amount
	return nil
}

func (m *MockDriverRepository) SetRating(ctx context.Context, userID string, rating float64) error {
	atomic.AddInt32(&m.SetRatingCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Rating = rating
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
// Accept applies its requested-state guard under the repository mutex,
// matching the conditional UPDATE in the PostgreSQL implementation.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	CreateCallCount int32
	UpdateCallCount int32
	AcceptCallCount int32

	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	// The transaction mutex in MockStore provides the serialization a
	// real FOR UPDATE would.
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, nil
	}
	if trip.Status != domain.TripStatusRequested || trip.DriverID != "" {
		return false, nil
	}
	trip.Status = domain.TripStatusAccepted
	trip.DriverID = driverID
	trip.AcceptedAt = at
	return true, nil
}

func (m *MockTripRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.PassengerID == passengerID }, 0)
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.DriverID == driverID }, 0)
}

func (m *MockTripRepository) ListByStatus(ctx context.Context, status domain.TripStatus, limit int) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.Status == status }, limit)
}

func (m *MockTripRepository) ListAll(ctx context.Context) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return true }, 0)
}

func (m *MockTripRepository) AverageRatingForDriver(ctx context.Context, driverID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum, n := 0, 0
	for _, trip := range m.trips {
		if trip.DriverID == driverID && trip.Rating > 0 {
			sum += trip.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *MockTripRepository) Stats(ctx context.Context) (*repository.TripStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &repository.TripStats{ByStatus: make(map[domain.TripStatus]int)}
	for _, trip := range m.trips {
		stats.ByStatus[trip.Status]++
		if trip.Status == domain.TripStatusCompleted && trip.PaymentStatus == domain.TripPaymentPaid {
			stats.PaidRevenue += trip.Fare
		}
	}
	return stats, nil
}

func (m *MockTripRepository) list(match func(*domain.Trip) bool, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, trip := range m.trips {
		if match(trip) {
			copy := *trip
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
// MarkPaid and MarkFailed apply their pending-state guard under the
// repository mutex, matching the conditional UPDATE in PostgreSQL.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount     int32
	MarkPaidCallCount   int32
	MarkFailedCallCount int32

	CreateError error
	LookupError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error) {
	if m.LookupError != nil {
		return nil, m.LookupError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, payment := range m.payments {
		if payment.CheckoutRequestID == checkoutRequestID {
			copy := *payment
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetActiveByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, payment := range m.payments {
		if payment.TripID == tripID && payment.Status != domain.PaymentStatusFailed {
			copy := *payment
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) MarkPaid(ctx context.Context, id, receiptNumber string) (bool, error) {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok || payment.Status != domain.PaymentStatusPending {
		return false, nil
	}
	payment.Status = domain.PaymentStatusPaid
	payment.ReceiptNumber = receiptNumber
	return true, nil
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok || payment.Status != domain.PaymentStatusPending {
		return false, nil
	}
	payment.Status = domain.PaymentStatusFailed
	return true, nil
}

func (m *MockPaymentRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0, len(m.payments))
	for _, payment := range m.payments {
		copy := *payment
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK CONFIG REPOSITORY
// ──────────────────────────────────────────────

// MockConfigRepository is a mock implementation of ConfigRepository.
type MockConfigRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMockConfigRepository creates a new mock config repository.
func NewMockConfigRepository() *MockConfigRepository {
	return &MockConfigRepository{values: make(map[string]string)}
}

func (m *MockConfigRepository) GetValue(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *MockConfigRepository) GetValues(ctx context.Context, keys []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := m.values[key]; ok {
			values[key] = value
		}
	}
	return values, nil
}

func (m *MockConfigRepository) SetValue(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockConfigRepository) SetValues(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.values[key] = value
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a scriptable mpesa.Gateway.
type MockGateway struct {
	mu sync.Mutex

	PushResult   *mpesa.PushResult
	PushError    error
	StatusResult *mpesa.StatusResult
	StatusError  error

	PushCallCount  int32
	QueryCallCount int32

	LastPushPhone  string
	LastPushAmount float64
}

// NewMockGateway creates a gateway that acks pushes with a fixed
// checkout reference and reports them pending.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		PushResult:   &mpesa.PushResult{CheckoutRequestID: "ws_CO_TEST_1", Description: "Success"},
		StatusResult: &mpesa.StatusResult{Outcome: mpesa.OutcomePending},
	}
}

func (m *MockGateway) PushPayment(ctx context.Context, phone string, amount float64, reference string) (*mpesa.PushResult, error) {
	atomic.AddInt32(&m.PushCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PushError != nil {
		return nil, m.PushError
	}
	m.LastPushPhone = phone
	m.LastPushAmount = amount
	result := *m.PushResult
	return &result, nil
}

func (m *MockGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResult, error) {
	atomic.AddInt32(&m.QueryCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusError != nil {
		return nil, m.StatusError
	}
	result := *m.StatusResult
	return &result, nil
}

// Ensure MockGateway implements mpesa.Gateway.
var _ mpesa.Gateway = (*MockGateway)(nil)
