package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"complianceai/internal/apperr"
	"complianceai/internal/llm"
	"complianceai/internal/metrics"
	"complianceai/internal/model"
	"complianceai/internal/pubsub"
	"complianceai/internal/repository"
	"complianceai/internal/storage"

	"github.com/rs/zerolog"
)

const documentSystemPrompt = "You are a legal document generation AI specialized in Indian corporate law. " +
	"Generate professional, legally compliant documents based on the provided template and company information."

type GenerateDocumentInput struct {
	CompanyID    string
	TemplateID   string
	DocumentName string
	Inputs       map[string]interface{}
}

type DocumentService interface {
	// ListTemplates returns active templates. Lookup failures degrade to an
	// empty list.
	ListTemplates(ctx context.Context, category, state string) []model.DocumentTemplate
	Generate(ctx context.Context, userID string, in GenerateDocumentInput) (*model.GeneratedDocument, error)
	ListDocuments(ctx context.Context, userID, companyID string) ([]model.GeneratedDocument, error)
	UpdateStatus(ctx context.Context, userID, documentID string, status model.DocumentStatus) (*model.GeneratedDocument, error)
	DownloadURL(ctx context.Context, userID, documentID string) (string, error)
}

// DocumentDeps groups the optional collaborators of DocumentService.
type DocumentDeps struct {
	LLM       llm.Client
	Archive   storage.Archive
	Publisher pubsub.Publisher
	Topic     string
	Metrics   *metrics.Metrics
}

type documentService struct {
	docs      repository.DocumentRepository
	audit     repository.DashboardRepository
	ai        repository.AIRepository
	companies CompanyService
	subs      SubscriptionService
	deps      DocumentDeps
	now       func() time.Time
	logger    zerolog.Logger
}

func NewDocumentService(
	docs repository.DocumentRepository,
	audit repository.DashboardRepository,
	ai repository.AIRepository,
	companies CompanyService,
	subs SubscriptionService,
	deps DocumentDeps,
	logger zerolog.Logger,
) DocumentService {
	return &documentService{
		docs:      docs,
		audit:     audit,
		ai:        ai,
		companies: companies,
		subs:      subs,
		deps:      deps,
		now:       time.Now,
		logger:    logger.With().Str("service", "DocumentService").Logger(),
	}
}

func (s *documentService) ListTemplates(ctx context.Context, category, state string) []model.DocumentTemplate {
	templates, err := s.docs.ListTemplates(ctx, category, state)
	if err != nil {
		s.logger.Warn().Err(err).Str("category", category).Str("state", state).Msg("Template lookup failed, returning empty list")
		return []model.DocumentTemplate{}
	}
	if templates == nil {
		templates = []model.DocumentTemplate{}
	}
	return templates
}

func (s *documentService) Generate(ctx context.Context, userID string, in GenerateDocumentInput) (*model.GeneratedDocument, error) {
	company, err := s.companies.GetOwned(ctx, userID, in.CompanyID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.docs.GetTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil || !tmpl.IsActive {
		return nil, ErrTemplateNotFound
	}
	now := s.now()
	if missing := missingRequiredFields(tmpl, company, in.Inputs, now); len(missing) > 0 {
		return nil, apperr.Validation("Missing required fields: " + strings.Join(missing, ", "))
	}

	if _, err := s.subs.ReserveDocument(ctx, company.ID); err != nil {
		return nil, err
	}

	doc, err := s.generateReserved(ctx, company, tmpl, in, now)
	if err != nil {
		// The reservation must be returned even if the caller went away.
		if rerr := s.subs.ReleaseDocument(context.WithoutCancel(ctx), company.ID); rerr != nil {
			s.logger.Error().Err(rerr).Str("company_id", company.ID).Msg("Failed to release reservation after generation failure")
		}
		return nil, err
	}

	s.afterGenerate(ctx, userID, doc)
	s.deps.Metrics.DocumentGenerated()
	return doc, nil
}

func (s *documentService) generateReserved(ctx context.Context, company *model.Company, tmpl *model.DocumentTemplate, in GenerateDocumentInput, now time.Time) (*model.GeneratedDocument, error) {
	content := RenderTemplate(tmpl.TemplateContent, company, in.Inputs, now)
	if s.deps.LLM != nil {
		content = s.draft(ctx, company, tmpl, in.Inputs, content)
	}

	filled, err := json.Marshal(in.Inputs)
	if err != nil {
		return nil, apperr.Validation("Invalid user inputs")
	}

	templateID := tmpl.ID
	doc := &model.GeneratedDocument{
		CompanyID:    company.ID,
		TemplateID:   &templateID,
		DocumentName: in.DocumentName,
		DocumentType: "legal",
		Content:      content,
		FilledData:   filled,
		Status:       model.DocumentCompleted,
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		s.logger.Error().Err(err).Str("company_id", company.ID).Msg("Failed to save generated document")
		return nil, err
	}
	return doc, nil
}

// draft asks the provider to turn the rendered template into a finished
// document. The rendered text is kept when the provider fails or returns a
// draft shorter than half of it.
func (s *documentService) draft(ctx context.Context, company *model.Company, tmpl *model.DocumentTemplate, inputs map[string]interface{}, rendered string) string {
	prompt := buildDocumentPrompt(company, tmpl, inputs, rendered)
	out, err := s.deps.LLM.Generate(ctx, llm.Request{
		System:      documentSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   3000,
		Temperature: 0.3,
	})
	if err != nil {
		s.logger.Warn().Err(err).Bool("degraded", true).Str("template_id", tmpl.ID).Msg("Document drafting failed, using rendered template")
		s.deps.Metrics.AIAnswer("template", true)
		return rendered
	}
	s.deps.Metrics.AIAnswer(s.deps.LLM.Name(), false)

	companyID := company.ID
	if err := s.ai.CreateInteraction(ctx, &model.AiInteraction{
		CompanyID:       &companyID,
		InteractionType: model.InteractionDocumentGeneration,
		UserQuery:       prompt,
		AiResponse:      out.Text,
		TokensUsed:      out.TokensUsed,
		Cost:            llm.Cost(out.TokensUsed),
		Source:          s.deps.LLM.Name(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to log drafting interaction")
	}

	text := strings.TrimSpace(out.Text)
	if text == "" || len(text) < len(rendered)/2 {
		s.logger.Warn().Int("draft_len", len(text)).Int("rendered_len", len(rendered)).Str("template_id", tmpl.ID).Msg("Draft is truncated, using rendered template")
		s.deps.Metrics.AIAnswer("template", true)
		return rendered
	}
	return out.Text
}

func buildDocumentPrompt(company *model.Company, tmpl *model.DocumentTemplate, inputs map[string]interface{}, rendered string) string {
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	required, _ := json.MarshalIndent(tmpl.RequiredFields, "", "  ")
	userInputs, _ := json.MarshalIndent(inputs, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s document with the following specifications:\n\n", tmpl.Name)
	b.WriteString("COMPANY INFORMATION:\n")
	fmt.Fprintf(&b, "- Company Name: %s\n", company.CompanyName)
	fmt.Fprintf(&b, "- Industry: %s\n", company.Field("industry"))
	fmt.Fprintf(&b, "- State: %s\n", company.Field("state"))
	fmt.Fprintf(&b, "- CIN: %s\n", or(company.Field("cin"), "Not provided"))
	fmt.Fprintf(&b, "- GSTIN: %s\n", or(company.Field("gstin"), "Not provided"))
	fmt.Fprintf(&b, "- Registered Address: %s\n\n", company.Field("registeredAddress"))
	fmt.Fprintf(&b, "DOCUMENT REQUIREMENTS:\n%s\n\n", required)
	fmt.Fprintf(&b, "USER INPUTS:\n%s\n\n", userInputs)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Generate a professionally formatted document\n")
	b.WriteString("2. Ensure compliance with Indian laws and regulations\n")
	b.WriteString("3. Include all necessary legal clauses and terms\n")
	b.WriteString("4. Use formal legal language appropriate for business documents\n")
	b.WriteString("5. Include proper formatting with headers, sections, and numbering\n")
	b.WriteString("6. Add placeholder fields for signatures and dates where appropriate\n")
	b.WriteString("7. Ensure all company information is correctly incorporated\n\n")
	fmt.Fprintf(&b, "TEMPLATE CONTENT:\n%s\n\n", rendered)
	b.WriteString("Please generate the complete document content:\n")
	return b.String()
}

// afterGenerate runs the side effects of a saved document. None of them
// fail the request.
func (s *documentService) afterGenerate(ctx context.Context, userID string, doc *model.GeneratedDocument) {
	log := s.logger.With().Str("document_id", doc.ID).Str("company_id", doc.CompanyID).Logger()

	if s.deps.Archive != nil {
		key := storage.DocumentKey(doc.CompanyID, doc.ID)
		if err := s.deps.Archive.Put(ctx, key, []byte(doc.Content), "text/markdown; charset=utf-8"); err != nil {
			log.Warn().Err(err).Msg("Failed to archive document")
		} else if err := s.docs.SetFileURL(ctx, doc.ID, key); err != nil {
			log.Warn().Err(err).Msg("Failed to record archive key")
		} else {
			doc.FileURL = &key
		}
	}

	s.recordAudit(ctx, userID, doc, "document_generated")

	if _, err := pubsub.PublishEvent(ctx, s.deps.Publisher, s.deps.Topic, pubsub.Event{
		Type:       pubsub.EventDocumentGenerated,
		CompanyID:  doc.CompanyID,
		UserID:     userID,
		EntityID:   doc.ID,
		OccurredAt: doc.GeneratedAt,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish document event")
	}
	log.Info().Str("user_id", userID).Msg("Document generated")
}

func (s *documentService) recordAudit(ctx context.Context, userID string, doc *model.GeneratedDocument, action string) {
	uid, docID := userID, doc.ID
	if err := s.audit.CreateAuditLog(ctx, &model.AuditLog{
		CompanyID:  doc.CompanyID,
		UserID:     &uid,
		Action:     action,
		EntityType: "document",
		EntityID:   &docID,
	}); err != nil {
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Str("action", action).Msg("Failed to write audit log")
	}
}

func (s *documentService) ListDocuments(ctx context.Context, userID, companyID string) ([]model.GeneratedDocument, error) {
	if _, err := s.companies.GetOwned(ctx, userID, companyID); err != nil {
		return nil, err
	}
	docs, err := s.docs.ListDocumentsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.GeneratedDocument{}
	}
	return docs, nil
}

// ownedDocument loads a document the user may access.
func (s *documentService) ownedDocument(ctx context.Context, userID, documentID string) (*model.GeneratedDocument, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if _, err := s.companies.GetOwned(ctx, userID, doc.CompanyID); err != nil {
		if apperr.As(err).Kind == apperr.KindNotFound {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, userID, documentID string, status model.DocumentStatus) (*model.GeneratedDocument, error) {
	if !model.ValidDocumentStatus(status) {
		return nil, apperr.ValidationField("status", "must be one of draft, completed, reviewed, signed")
	}
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(doc.Status, status) {
		return nil, ErrInvalidStatusTransition
	}
	updated, err := s.docs.UpdateStatus(ctx, doc.ID, doc.Status, status)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Someone else moved it first.
		return nil, ErrInvalidStatusTransition
	}

	s.recordAudit(ctx, userID, updated, "document_"+string(status))
	if _, err := pubsub.PublishEvent(ctx, s.deps.Publisher, s.deps.Topic, pubsub.Event{
		Type:       pubsub.EventDocumentStatusChanged,
		CompanyID:  updated.CompanyID,
		UserID:     userID,
		EntityID:   updated.ID,
		Attributes: map[string]string{"from": string(doc.Status), "to": string(status)},
	}); err != nil {
		s.logger.Warn().Err(err).Str("document_id", updated.ID).Msg("Failed to publish status event")
	}
	return updated, nil
}

func (s *documentService) DownloadURL(ctx context.Context, userID, documentID string) (string, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if s.deps.Archive == nil || doc.FileURL == nil {
		return "", apperr.NotFound("Document file")
	}
	url, err := s.deps.Archive.PresignGet(ctx, *doc.FileURL)
	if err != nil {
		return "", apperr.ExternalService("storage", err)
	}
	return url, nil
}
