// Package mpesa talks to the M-Pesa Daraja API: STK push initiation,
// status queries, and callback payload parsing. The Gateway interface is
// the seam between the payment reconciliation engine and the network.
package mpesa

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the gateway cannot be reached or
	// times out. The caller decides between failing and degraded mode.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrRejected is returned when the gateway refuses the request.
	ErrRejected = errors.New("payment gateway rejected request")
)

// Outcome is the gateway's view of a payment attempt.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomePaid    Outcome = "paid"
	OutcomeFailed  Outcome = "failed"
)

// PushResult is the gateway's acknowledgement of an STK push.
type PushResult struct {
	CheckoutRequestID string
	Description       string
}

// StatusResult is the gateway's answer to a status query.
type StatusResult struct {
	Outcome       Outcome
	ReceiptNumber string
}

// Gateway is the payment network contract consumed by the payment service.
type Gateway interface {
	// PushPayment asks the gateway to prompt the phone for amount,
	// correlated by reference. Fails with ErrUnavailable or ErrRejected.
	PushPayment(ctx context.Context, phone string, amount float64, reference string) (*PushResult, error)

	// QueryStatus asks the gateway for the current state of a push.
	QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResult, error)
}

// Daraja result codes observed on callbacks and status queries.
const (
	resultCodeSuccess   = "0"
	resultCodeCancelled = "1032"
	resultCodeTimeout   = "1037"
)

// OutcomeForResultCode maps a Daraja result code to an Outcome. Codes
// other than success/cancelled/timeout mean the push is still in flight.
func OutcomeForResultCode(code string) Outcome {
	switch code {
	case resultCodeSuccess:
		return OutcomePaid
	case resultCodeCancelled, resultCodeTimeout:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}
