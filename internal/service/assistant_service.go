package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"complianceai/internal/llm"
	"complianceai/internal/metrics"
	"complianceai/internal/model"
	"complianceai/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SourceRuleBased marks answers produced by the rule table.
const SourceRuleBased = "rule-based"

const assistantSystemPrompt = `You are ComplianceAI, an expert legal assistant specialized in Indian corporate law, startup compliance, and business legal requirements. You help Indian startups and businesses with:

1. **Legal Compliance**: GST, TDS, ROC filings, labor laws
2. **Document Generation**: Contracts, agreements, legal documents
3. **Business Formation**: Company registration, legal structures
4. **Tax Compliance**: Income tax, GST, TDS, professional tax
5. **Employment Law**: HR policies, employment contracts
6. **Intellectual Property**: Trademarks, patents, copyrights
7. **Regulatory Requirements**: Industry-specific compliance
`

const assistantInstructions = `
INSTRUCTIONS:
- Provide accurate, helpful legal guidance
- Always mention that users should consult qualified lawyers for specific legal matters
- Focus on Indian laws and regulations
- Give step-by-step guidance when appropriate
- Include relevant deadlines, penalties, and requirements
- Be conversational but professional
- If asked about non-legal topics, politely redirect to legal/business matters`

type ChatInput struct {
	Message string
	// Context is optional free text from the client, such as the page the
	// question was asked from.
	Context   string
	SessionID string
}

type ChatResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	TokensUsed  int      `json:"tokens_used"`
	Cost        float64  `json:"cost"`
	Source      string   `json:"source"`
	Degraded    bool     `json:"degraded"`
	SessionID   string   `json:"session_id"`
}

// LearningQueue hands learning jobs to the orchestrator.
type LearningQueue interface {
	Enqueue(ctx context.Context, job model.LearningJob) error
}

type AssistantService interface {
	Chat(ctx context.Context, userID string, in ChatInput) (*ChatResponse, error)
}

type assistantService struct {
	ai        repository.AIRepository
	companies repository.CompanyRepository
	memory    MemoryService
	llm       llm.Client
	queue     LearningQueue
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

// NewAssistantService wires the assistant. client and queue may be nil: the
// assistant then answers from the rule table and applies learning inline.
func NewAssistantService(
	ai repository.AIRepository,
	companies repository.CompanyRepository,
	memory MemoryService,
	client llm.Client,
	queue LearningQueue,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AssistantService {
	return &assistantService{
		ai:        ai,
		companies: companies,
		memory:    memory,
		llm:       client,
		queue:     queue,
		metrics:   m,
		now:       time.Now,
		logger:    logger.With().Str("service", "AssistantService").Logger(),
	}
}

func (s *assistantService) Chat(ctx context.Context, userID string, in ChatInput) (*ChatResponse, error) {
	company, err := s.companies.GetFirstCompanyByUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load company context")
	}
	var companyID *string
	if company != nil {
		companyID = &company.ID
	}

	resp := s.answer(ctx, userID, company, in)
	resp.SessionID = in.SessionID
	if resp.SessionID == "" {
		resp.SessionID = uuid.NewString()
	}
	s.metrics.AIAnswer(resp.Source, resp.Degraded)

	s.record(ctx, userID, companyID, in.Message, resp)
	s.learn(ctx, model.LearningJob{
		UserID:    userID,
		CompanyID: companyID,
		Message:   in.Message,
		Timestamp: s.now(),
	})
	return resp, nil
}

// answer asks the provider and falls back to the rule table. It never fails.
func (s *assistantService) answer(ctx context.Context, userID string, company *model.Company, in ChatInput) *ChatResponse {
	if s.llm == nil {
		s.logger.Warn().Bool("degraded", true).Str("reason", "no_provider").Msg("Answering from rule table")
		return ruleAnswer(in.Message)
	}

	system := buildAssistantPrompt(company, s.memory.PersonalizedContext(ctx, userID), in.Context)
	out, err := s.llm.Generate(ctx, llm.Request{
		System:      system,
		Prompt:      in.Message,
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn().Err(err).Bool("degraded", true).Str("provider", s.llm.Name()).Msg("Provider failed, answering from rule table")
		return ruleAnswer(in.Message)
	}
	return &ChatResponse{
		Response:    out.Text,
		Suggestions: chatSuggestions(in.Message),
		TokensUsed:  out.TokensUsed,
		Cost:        llm.Cost(out.TokensUsed),
		Source:      s.llm.Name(),
	}
}

// ruleAnswer is always a degraded answer.
func ruleAnswer(message string) *ChatResponse {
	r := MatchRule(message)
	return &ChatResponse{
		Response:    r.Response,
		Suggestions: append([]string(nil), r.Suggestions...),
		Source:      SourceRuleBased,
		Degraded:    true,
	}
}

func buildAssistantPrompt(company *model.Company, memory, extra string) string {
	var b strings.Builder
	b.WriteString(assistantSystemPrompt)
	if company != nil {
		state := company.Field("state")
		if state == "" {
			state = "Not specified"
		}
		b.WriteString("\nCURRENT COMPANY CONTEXT:\n")
		fmt.Fprintf(&b, "- Company: %s\n", company.CompanyName)
		fmt.Fprintf(&b, "- Industry: %s\n", company.Field("industry"))
		fmt.Fprintf(&b, "- Type: %s\n", company.CompanyType)
		fmt.Fprintf(&b, "- State: %s\n", state)
	}
	b.WriteString(assistantInstructions)
	if memory != "" {
		b.WriteString("\n\n")
		b.WriteString(memory)
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("\n\nAdditional context from the user: ")
		b.WriteString(extra)
	}
	return b.String()
}

// chatSuggestions proposes follow-ups for provider answers.
func chatSuggestions(message string) []string {
	q := strings.ToLower(message)
	switch {
	case containsAny("gst", "tax")(q):
		return []string{"How to file GSTR-1?", "What is the GST rate for my product?", "How to claim GST input credit?", "What are the GST penalties?"}
	case containsAny("tds")(q):
		return []string{"TDS rates for different payments", "How to generate TDS certificate?", "TDS return filing process", "TDS due dates"}
	case containsAny("company", "registration")(q):
		return []string{"What documents are needed for company registration?", "How to get CIN number?", "What is the incorporation process?", "ROC compliance requirements"}
	case containsAny("employment", "hr")(q):
		return []string{"Employment agreement template", "HR policy requirements", "Labor law compliance", "Employee benefits"}
	case containsAny("compliance", "legal")(q):
		return []string{"Monthly compliance checklist", "Annual compliance requirements", "Industry-specific regulations", "Penalty for non-compliance"}
	}
	return []string{"Tell me more about this", "What are the next steps?", "How can I implement this?", "What documents do I need?"}
}

// record stores the interaction and both conversation turns. Failures are
// logged; the user still gets the answer.
func (s *assistantService) record(ctx context.Context, userID string, companyID *string, message string, resp *ChatResponse) {
	if err := s.ai.CreateInteraction(ctx, &model.AiInteraction{
		CompanyID:       companyID,
		InteractionType: model.InteractionLegalAssistance,
		UserQuery:       message,
		AiResponse:      resp.Response,
		TokensUsed:      resp.TokensUsed,
		Cost:            resp.Cost,
		Source:          resp.Source,
		Degraded:        resp.Degraded,
	}); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to log AI interaction")
	}

	now := s.now()
	turns := []model.ConversationMessage{
		{UserID: userID, CompanyID: companyID, SessionID: resp.SessionID, Role: model.RoleUser, Content: message, Timestamp: now},
		{UserID: userID, CompanyID: companyID, SessionID: resp.SessionID, Role: model.RoleAssistant, Content: resp.Response, Timestamp: now.Add(time.Millisecond),
			Metadata: map[string]string{"aiSource": resp.Source, "tokensUsed": fmt.Sprint(resp.TokensUsed)}},
	}
	for i := range turns {
		if err := s.ai.CreateMessage(ctx, &turns[i]); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Str("role", turns[i].Role).Msg("Failed to store conversation message")
		}
	}
}

func (s *assistantService) learn(ctx context.Context, job model.LearningJob) {
	if s.queue != nil {
		err := s.queue.Enqueue(ctx, job)
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).Str("user_id", job.UserID).Msg("Failed to enqueue learning job, applying inline")
	}
	if err := s.memory.ApplyLearning(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("user_id", job.UserID).Msg("Failed to apply learning")
	}
}
