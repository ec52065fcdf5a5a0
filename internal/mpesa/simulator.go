package mpesa

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// SimulatedPrefix marks checkout references issued by the Simulator.
// Records carrying it never correspond to real money movement.
const SimulatedPrefix = "SIM-"

// Simulator is a degraded-mode Gateway used when the live gateway is
// unreachable. Every push succeeds and settles immediately on query.
// Payments pushed through it must be flagged as simulated by the caller.
type Simulator struct{}

// NewSimulator creates a new Simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// PushPayment acknowledges the push with a simulated checkout reference.
func (s *Simulator) PushPayment(ctx context.Context, phone string, amount float64, reference string) (*PushResult, error) {
	return &PushResult{
		CheckoutRequestID: SimulatedPrefix + uuid.New().String()[:12],
		Description:       "Simulated settlement (gateway bypass)",
	}, nil
}

// QueryStatus reports every simulated push as paid.
func (s *Simulator) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResult, error) {
	return &StatusResult{
		Outcome:       OutcomePaid,
		ReceiptNumber: SimulatedReceipt(checkoutRequestID),
	}, nil
}

// SimulatedReceipt derives a stable, visibly simulated receipt number.
func SimulatedReceipt(checkoutRequestID string) string {
	suffix := strings.TrimPrefix(checkoutRequestID, SimulatedPrefix)
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "SIM" + strings.ToUpper(suffix)
}

// IsSimulatedReference reports whether a checkout reference came from the
// Simulator.
func IsSimulatedReference(checkoutRequestID string) bool {
	return strings.HasPrefix(checkoutRequestID, SimulatedPrefix)
}

// Ensure Simulator implements Gateway.
var _ Gateway = (*Simulator)(nil)
