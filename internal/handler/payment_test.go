package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/service"
	"saferide/internal/tests"
)

func callbackRouter(store *tests.MockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	payments := service.NewPaymentService(store, tests.NewMockGateway(), nil, log)
	handler := NewPaymentHandler(payments)

	router := gin.New()
	router.POST("/api/v1/payments/callback", handler.Callback)
	return router
}

const successCallbackBody = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_1",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 350.0},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"}
				]
			}
		}
	}
}`

func postCallback(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// Daraja parses the ack body itself, so it must carry ResultCode at the
// top level rather than the API's success envelope.
func TestCallback_AcksWithRawDarajaBody(t *testing.T) {
	t.Parallel()

	store := tests.NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:            "trip-1",
		PassengerID:   "passenger-1",
		DriverID:      "driver-1",
		Fare:          350,
		Status:        domain.TripStatusDriving,
		PaymentStatus: domain.TripPaymentPending,
		CreatedAt:     time.Now(),
	})
	store.PaymentRepo.AddPayment(&domain.Payment{
		ID:                "payment-1",
		TripID:            "trip-1",
		Amount:            350,
		CheckoutRequestID: "ws_CO_1",
		Status:            domain.PaymentStatusPending,
		CreatedAt:         time.Now(),
	})
	router := callbackRouter(store)

	recorder := postCallback(t, router, successCallbackBody)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var ack map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &ack); err != nil {
		t.Fatalf("ack is not valid JSON: %v", err)
	}
	if code, ok := ack["ResultCode"].(float64); !ok || code != 0 {
		t.Errorf("expected top-level ResultCode 0, got %v", ack["ResultCode"])
	}
	if _, wrapped := ack["success"]; wrapped {
		t.Error("ack must not be wrapped in the API envelope")
	}
	if _, wrapped := ack["data"]; wrapped {
		t.Error("ack must not be wrapped in the API envelope")
	}

	if payment := store.PaymentRepo.GetPayment("payment-1"); payment.Status != domain.PaymentStatusPaid {
		t.Errorf("callback not applied, intent is %s", payment.Status)
	}
}

func TestCallback_AcksDespiteStoreFailure(t *testing.T) {
	t.Parallel()

	store := tests.NewMockStore()
	store.PaymentRepo.LookupError = errors.New("connection reset")
	router := callbackRouter(store)

	recorder := postCallback(t, router, successCallbackBody)
	if recorder.Code != http.StatusOK {
		t.Errorf("internal failure must still ack 200, got %d", recorder.Code)
	}

	var ack map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &ack); err != nil {
		t.Fatalf("ack is not valid JSON: %v", err)
	}
	if code, ok := ack["ResultCode"].(float64); !ok || code != 0 {
		t.Errorf("expected top-level ResultCode 0, got %v", ack["ResultCode"])
	}
}

func TestCallback_RejectsUnparseablePayload(t *testing.T) {
	t.Parallel()

	router := callbackRouter(tests.NewMockStore())

	recorder := postCallback(t, router, "{not json")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed payload, got %d", recorder.Code)
	}
}
