package service

import "complianceai/internal/apperr"

var (
	ErrInvalidSession         = apperr.Authentication("Unauthorized")
	ErrInvalidCredentials     = apperr.Authentication("Invalid credentials")
	ErrEmailAlreadyRegistered = apperr.Conflict("User already exists")

	ErrUserNotFound     = apperr.NotFound("User")
	ErrCompanyNotFound  = apperr.NotFound("Company")
	ErrTemplateNotFound = apperr.NotFound("Template")
	ErrDocumentNotFound = apperr.NotFound("Document")

	ErrQuotaExceeded = apperr.Authorization("Document generation limit exceeded")

	ErrInvalidPlan             = apperr.Validation("Invalid plan type")
	ErrInvalidSignature        = apperr.Validation("Invalid payment signature")
	ErrOrderMismatch           = apperr.Validation("Payment does not match the order")
	ErrInvalidStatusTransition = apperr.Validation("Invalid document status transition")
	ErrPaymentsDisabled        = apperr.ExternalService("razorpay", nil)
)
