package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saferide/internal/domain"
	"saferide/internal/middleware"
	"saferide/internal/mpesa"
	"saferide/internal/service"
)

// PaymentHandler handles HTTP requests for payments and the gateway
// callback endpoint.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// InitiatePaymentRequest is the HTTP request body for initiating a payment.
type InitiatePaymentRequest struct {
	TripID string  `json:"trip_id" binding:"required"`
	Phone  string  `json:"phone" binding:"required"`
	Amount float64 `json:"amount"`
}

// PaymentResponse is the payment shape returned by the API.
type PaymentResponse struct {
	ID                string  `json:"id"`
	TripID            string  `json:"trip_id"`
	Amount            float64 `json:"amount"`
	Phone             string  `json:"phone"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	ReceiptNumber     string  `json:"receipt_number,omitempty"`
	Status            string  `json:"status"`
	Simulated         bool    `json:"simulated"`
	CreatedAt         string  `json:"created_at"`
}

// callbackAck is the acknowledgement Daraja expects. The endpoint
// always acks processed callbacks, including internal no-ops, so the
// gateway stops retrying.
var callbackAck = gin.H{"ResultCode": 0, "ResultDesc": "Success"}

// Initiate handles POST /api/v1/payments/initiate
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	payment, err := h.payments.Initiate(c.Request.Context(), req.TripID, middleware.ActorID(c), middleware.ActorRole(c), req.Phone, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// List handles GET /api/v1/payments
func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.payments.ListForPassenger(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		out = append(out, toPaymentResponse(payment))
	}
	respondJSON(c, http.StatusOK, out)
}

// Get handles GET /api/v1/payments/:id. A pending payment triggers a
// gateway status poll before the record is returned.
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.CheckStatus(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// Callback handles POST /api/v1/payments/callback. Unparseable payloads
// are the only rejection; everything else is acked so Daraja does not
// retry forever.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var envelope mpesa.CallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid callback payload", Code: "INVALID_INPUT"})
		return
	}

	// The ack is the raw body Daraja parses, never the API envelope, and
	// it goes out even when the store hiccups: a non-200 would make the
	// gateway retry into the same failure.
	_ = h.payments.HandleCallback(c.Request.Context(), envelope.Notification())
	c.JSON(http.StatusOK, callbackAck)
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                payment.ID,
		TripID:            payment.TripID,
		Amount:            payment.Amount,
		Phone:             payment.Phone,
		CheckoutRequestID: payment.CheckoutRequestID,
		ReceiptNumber:     payment.ReceiptNumber,
		Status:            string(payment.Status),
		Simulated:         payment.Simulated,
		CreatedAt:         payment.CreatedAt.Format(time.RFC3339),
	}
}
