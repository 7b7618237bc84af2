package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/model"
	"complianceai/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocuments struct {
	templateQuery [2]string
	generated     []service.GenerateDocumentInput
	generateErr   error
	statusCalls   []model.DocumentStatus
}

func (s *stubDocuments) ListTemplates(_ context.Context, category, state string) []model.DocumentTemplate {
	s.templateQuery = [2]string{category, state}
	return []model.DocumentTemplate{{ID: "tpl-nda", Name: "Non-Disclosure Agreement", TemplateContent: "secret body"}}
}

func (s *stubDocuments) Generate(_ context.Context, _ string, in service.GenerateDocumentInput) (*model.GeneratedDocument, error) {
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	s.generated = append(s.generated, in)
	return &model.GeneratedDocument{ID: "doc-1", CompanyID: in.CompanyID, DocumentName: in.DocumentName, Status: model.DocumentCompleted, Version: 1}, nil
}

func (s *stubDocuments) ListDocuments(_ context.Context, _, companyID string) ([]model.GeneratedDocument, error) {
	if companyID != "c1" {
		return nil, service.ErrCompanyNotFound
	}
	return []model.GeneratedDocument{{ID: "doc-1", CompanyID: "c1"}}, nil
}

func (s *stubDocuments) UpdateStatus(_ context.Context, _, documentID string, status model.DocumentStatus) (*model.GeneratedDocument, error) {
	s.statusCalls = append(s.statusCalls, status)
	if status == model.DocumentDraft {
		return nil, service.ErrInvalidStatusTransition
	}
	return &model.GeneratedDocument{ID: documentID, Status: status}, nil
}

func (s *stubDocuments) DownloadURL(_ context.Context, _, documentID string) (string, error) {
	if documentID != "doc-1" {
		return "", service.ErrDocumentNotFound
	}
	return "https://files.example.in/documents/doc-1.txt?sig=abc", nil
}

func newDocumentHandler(docs *stubDocuments) *DocumentHandler {
	return NewDocumentHandler(docs, testValidate, false, testLogger)
}

func TestTemplatesArePublic(t *testing.T) {
	docs := &stubDocuments{}
	rec, env := serve(t, newDocumentHandler(docs), http.MethodGet, "/documents/templates?category=contracts&state=Karnataka", nil, false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"contracts", "Karnataka"}, docs.templateQuery)
	assert.NotContains(t, string(env.Data), "secret body")
}

func TestGenerateDocument(t *testing.T) {
	docs := &stubDocuments{}
	h := newDocumentHandler(docs)

	rec, env := serve(t, h, http.MethodPost, "/documents/generate", map[string]interface{}{
		"companyId":    "c1",
		"templateId":   "tpl-nda",
		"documentName": " NDA <Vendor> ",
		"userInputs":   map[string]interface{}{"partyName": "<script>Globex</script>", "term": 12},
	}, true)

	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	require.Len(t, docs.generated, 1)
	in := docs.generated[0]
	assert.Equal(t, "NDA Vendor", in.DocumentName)
	assert.Equal(t, "scriptGlobex/script", in.Inputs["partyName"])
	assert.EqualValues(t, 12, in.Inputs["term"])

	rec, env = serve(t, h, http.MethodPost, "/documents/generate", map[string]interface{}{"templateId": "tpl-nda"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "companyId: Required")
	assert.Contains(t, env.Error, "documentName: Required")
}

func TestGenerateDocumentQuotaExceeded(t *testing.T) {
	h := newDocumentHandler(&stubDocuments{generateErr: service.ErrQuotaExceeded})
	rec, env := serve(t, h, http.MethodPost, "/documents/generate", map[string]interface{}{
		"companyId": "c1", "templateId": "tpl-nda", "documentName": "NDA",
	}, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Document generation limit exceeded", env.Error)
	assert.Equal(t, http.StatusForbidden, env.StatusCode)
}

func TestListDocuments(t *testing.T) {
	h := newDocumentHandler(&stubDocuments{})

	rec, env := serve(t, h, http.MethodGet, "/documents", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "companyId")

	rec, _ = serve(t, h, http.MethodGet, "/documents?companyId=c1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, h, http.MethodGet, "/documents?companyId=other", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateDocumentStatus(t *testing.T) {
	docs := &stubDocuments{}
	h := newDocumentHandler(docs)

	rec, _ := serve(t, h, http.MethodPatch, "/documents/doc-1/status", map[string]string{"status": "reviewed"}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := serve(t, h, http.MethodPatch, "/documents/doc-1/status", map[string]string{"status": "archived"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "status")

	rec, env = serve(t, h, http.MethodPatch, "/documents/doc-1/status", map[string]string{"status": "draft"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid document status transition", env.Error)

	assert.Equal(t, []model.DocumentStatus{model.DocumentReviewed, model.DocumentDraft}, docs.statusCalls)
}

func TestDownloadDocument(t *testing.T) {
	h := newDocumentHandler(&stubDocuments{})

	rec, env := serve(t, h, http.MethodGet, "/documents/doc-1/download", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.DownloadResponseDTO
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Contains(t, resp.URL, "doc-1")

	rec, _ = serve(t, h, http.MethodGet, "/documents/doc-9/download", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
