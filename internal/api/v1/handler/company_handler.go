package handler

import (
	"net/http"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type CompanyHandler struct {
	base
	companies     service.CompanyService
	subscriptions service.SubscriptionService
}

func NewCompanyHandler(companies service.CompanyService, subscriptions service.SubscriptionService, v *validator.Validate, production bool, logger zerolog.Logger) *CompanyHandler {
	return &CompanyHandler{
		base:          base{validate: v, production: production, logger: logger.With().Str("handler", "CompanyHandler").Logger()},
		companies:     companies,
		subscriptions: subscriptions,
	}
}

// RegisterRoutes mounts v1 company routes
func (h *CompanyHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /companies", authMw(http.HandlerFunc(h.list)))
	mux.Handle("POST /companies", authMw(http.HandlerFunc(h.create)))
	mux.Handle("GET /companies/{companyId}/limits", authMw(http.HandlerFunc(h.limits)))
}

func (h *CompanyHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	companies, err := h.companies.ListByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, companies)
}

func (h *CompanyHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.CompanyCreateDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	company, err := h.companies.Create(r.Context(), userID, req.ToModel())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, company)
}

func (h *CompanyHandler) limits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	company, err := h.companies.GetOwned(r.Context(), userID, r.PathValue("companyId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quota, err := h.subscriptions.CheckLimits(r.Context(), company.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, quota)
}
