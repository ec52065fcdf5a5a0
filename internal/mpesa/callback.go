package mpesa

// CallbackEnvelope is the body Daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []CallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackItem is one metadata entry on a success callback.
type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// Notification is the flattened terminal signal extracted from a callback.
type Notification struct {
	CheckoutRequestID string
	Outcome           Outcome
	ReceiptNumber     string
}

// Notification flattens the envelope into the fields the reconciliation
// engine cares about.
func (e *CallbackEnvelope) Notification() Notification {
	cb := e.Body.STKCallback

	// A callback is always terminal: zero means paid, anything else failed.
	outcome := OutcomeFailed
	if cb.ResultCode == 0 {
		outcome = OutcomePaid
	}

	n := Notification{
		CheckoutRequestID: cb.CheckoutRequestID,
		Outcome:           outcome,
	}

	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				n.ReceiptNumber = s
			}
		}
	}

	return n
}
