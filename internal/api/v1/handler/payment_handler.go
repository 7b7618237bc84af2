package handler

import (
	"net/http"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/model"
	"complianceai/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	base
	payments service.PaymentService
	keyID    string
}

// NewPaymentHandler takes the public Razorpay key id, which the checkout
// widget needs alongside the order.
func NewPaymentHandler(payments service.PaymentService, keyID string, v *validator.Validate, production bool, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		base:     base{validate: v, production: production, logger: logger.With().Str("handler", "PaymentHandler").Logger()},
		payments: payments,
		keyID:    keyID,
	}
}

// RegisterRoutes mounts v1 payment routes
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /payments/plans", h.plans)
	mux.Handle("POST /payments/create-order", authMw(http.HandlerFunc(h.createOrder)))
	mux.Handle("POST /payments/verify", authMw(http.HandlerFunc(h.verify)))
}

func (h *PaymentHandler) plans(w http.ResponseWriter, r *http.Request) {
	h.ok(w, http.StatusOK, h.payments.Plans())
}

func (h *PaymentHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.CreateOrderDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.payments.CreateOrder(r.Context(), userID, req.CompanyID, req.PlanType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	plan, _ := model.LookupPlan(req.PlanType)
	h.ok(w, http.StatusCreated, dto.CreateOrderResponseDTO{Order: order, Plan: plan, Key: h.keyID})
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.VerifyPaymentDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.payments.VerifyPayment(r.Context(), userID, service.VerifyPaymentInput{
		CompanyID: req.CompanyID,
		PlanType:  req.PlanType,
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, sub)
}
