package mpesa

import (
	"encoding/json"
	"testing"
)

const successCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 350.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20191219102115},
          {"Name": "PhoneNumber", "Value": 254708374149}
        ]
      }
    }
  }
}`

const cancelledCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user."
    }
  }
}`

func TestNotification_SuccessCallback(t *testing.T) {
	t.Parallel()

	var envelope CallbackEnvelope
	if err := json.Unmarshal([]byte(successCallback), &envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := envelope.Notification()
	if n.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("checkout reference not extracted: %q", n.CheckoutRequestID)
	}
	if n.Outcome != OutcomePaid {
		t.Errorf("expected paid, got %s", n.Outcome)
	}
	if n.ReceiptNumber != "NLJ7RT61SV" {
		t.Errorf("receipt not extracted: %q", n.ReceiptNumber)
	}
}

func TestNotification_NonZeroResultCodeIsFailed(t *testing.T) {
	t.Parallel()

	var envelope CallbackEnvelope
	if err := json.Unmarshal([]byte(cancelledCallback), &envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := envelope.Notification()
	if n.Outcome != OutcomeFailed {
		t.Errorf("expected failed, got %s", n.Outcome)
	}
	if n.ReceiptNumber != "" {
		t.Errorf("failed callback carries no receipt, got %q", n.ReceiptNumber)
	}
}

func TestOutcomeForResultCode(t *testing.T) {
	t.Parallel()

	cases := map[string]Outcome{
		"0":    OutcomePaid,
		"1032": OutcomeFailed,
		"1037": OutcomeFailed,
		"1":    OutcomePending,
		"4999": OutcomePending,
	}
	for code, want := range cases {
		if got := OutcomeForResultCode(code); got != want {
			t.Errorf("code %s: expected %s, got %s", code, want, got)
		}
	}
}

func TestSimulatedReferences(t *testing.T) {
	t.Parallel()

	if !IsSimulatedReference("SIM-abc123") {
		t.Error("SIM- prefix not recognized")
	}
	if IsSimulatedReference("ws_CO_191220191020363925") {
		t.Error("gateway reference misclassified as simulated")
	}
	if got := SimulatedReceipt("SIM-abcdef123456"); got != "SIMABCDEF12" {
		t.Errorf("unexpected simulated receipt %q", got)
	}
}
