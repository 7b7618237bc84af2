package handler

import (
	"net/http"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/apperr"
	"complianceai/internal/service"
	"complianceai/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type DocumentHandler struct {
	base
	documents service.DocumentService
}

func NewDocumentHandler(documents service.DocumentService, v *validator.Validate, production bool, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		base:      base{validate: v, production: production, logger: logger.With().Str("handler", "DocumentHandler").Logger()},
		documents: documents,
	}
}

// RegisterRoutes mounts v1 document routes. Templates are public.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /documents/templates", h.templates)
	mux.Handle("POST /documents/generate", authMw(http.HandlerFunc(h.generate)))
	mux.Handle("GET /documents", authMw(http.HandlerFunc(h.list)))
	mux.Handle("PATCH /documents/{documentId}/status", authMw(http.HandlerFunc(h.updateStatus)))
	mux.Handle("GET /documents/{documentId}/download", authMw(http.HandlerFunc(h.download)))
}

func (h *DocumentHandler) templates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.ok(w, http.StatusOK, h.documents.ListTemplates(r.Context(), q.Get("category"), q.Get("state")))
}

func (h *DocumentHandler) generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.GenerateDocumentDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.documents.Generate(r.Context(), userID, service.GenerateDocumentInput{
		CompanyID:    req.CompanyID,
		TemplateID:   req.TemplateID,
		DocumentName: validation.SanitizeString(req.DocumentName),
		Inputs:       validation.SanitizeMap(req.UserInputs),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	companyID := r.URL.Query().Get("companyId")
	if companyID == "" {
		h.fail(w, r, apperr.ValidationField("companyId", "Required"))
		return
	}
	docs, err := h.documents.ListDocuments(r.Context(), userID, companyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, docs)
}

func (h *DocumentHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateDocumentStatusDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.documents.UpdateStatus(r.Context(), userID, r.PathValue("documentId"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, doc)
}

func (h *DocumentHandler) download(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	url, err := h.documents.DownloadURL(r.Context(), userID, r.PathValue("documentId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, dto.DownloadResponseDTO{URL: url})
}
