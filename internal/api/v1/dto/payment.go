package dto

import "complianceai/internal/model"

type CreateOrderDTO struct {
	CompanyID string         `json:"companyId" validate:"required"`
	PlanType  model.PlanType `json:"planType" validate:"required,oneof=starter growth scale"`
}

// VerifyPaymentDTO carries the fields the checkout widget returns.
type VerifyPaymentDTO struct {
	CompanyID         string         `json:"companyId" validate:"required"`
	PlanType          model.PlanType `json:"planType" validate:"required,oneof=starter growth scale"`
	RazorpayOrderID   string         `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string         `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string         `json:"razorpay_signature" validate:"required"`
}

type CreateOrderResponseDTO struct {
	Order map[string]interface{} `json:"order"`
	Plan  model.Plan             `json:"plan"`
	Key   string                 `json:"key,omitempty"`
}
