package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"complianceai/internal/apperr"
	"complianceai/internal/model"
	"complianceai/internal/repository"

	"github.com/rs/zerolog"
)

const maxPersonalizedSuggestions = 4

var topicKeywords = []struct{ keyword, topic string }{
	{"gst", "GST"},
	{"tds", "TDS"},
	{"roc", "ROC"},
	{"employment", "Employment"},
	{"tax", "Tax"},
	{"compliance", "Compliance"},
	{"registration", "Registration"},
	{"filing", "Filing"},
	{"penalty", "Penalties"},
	{"agreement", "Agreements"},
	{"contract", "Contracts"},
}

// ExtractTopics returns the legal topics mentioned in text.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	topics := []string{}
	for _, k := range topicKeywords {
		if strings.Contains(lower, k.keyword) {
			topics = append(topics, k.topic)
		}
	}
	return topics
}

var suggestionGroups = []struct {
	match       func(string) bool
	suggestions []string
}{
	{containsAny("gst"), []string{
		"How to file GSTR-1?",
		"What is the GST rate for my product?",
		"How to claim GST input credit?",
		"GST penalty calculation",
	}},
	{containsAny("tds"), []string{
		"TDS rates for different payments",
		"How to generate TDS certificate?",
		"TDS return filing process",
		"TDS due dates",
	}},
	{containsAny("company", "registration"), []string{
		"What documents are needed for company registration?",
		"How to get CIN number?",
		"ROC compliance requirements",
		"Annual filing requirements",
	}},
	{containsAny("employment", "hr"), []string{
		"Employment agreement template",
		"HR policy requirements",
		"Labor law compliance",
		"Employee benefits",
	}},
	{containsAny("compliance", "legal"), []string{
		"Monthly compliance checklist",
		"Annual compliance requirements",
		"Industry-specific regulations",
		"Penalty for non-compliance",
	}},
}

// PersonalizedSuggestions proposes follow-up questions for message, at most
// four.
func PersonalizedSuggestions(message string) []string {
	lower := strings.ToLower(message)
	var out []string
	for _, g := range suggestionGroups {
		if g.match(lower) {
			out = append(out, g.suggestions...)
		}
		if len(out) >= maxPersonalizedSuggestions {
			break
		}
	}
	if len(out) > maxPersonalizedSuggestions {
		out = out[:maxPersonalizedSuggestions]
	}
	return out
}

// PreferenceHints is what one message reveals about the user.
type PreferenceHints struct {
	CommunicationStyle string
	ExpertiseLevel     string
	ComplianceFocus    []string
}

// AnalyzePreferences infers style, expertise and focus from a message.
func AnalyzePreferences(content string) PreferenceHints {
	lower := strings.ToLower(content)
	var h PreferenceHints
	switch {
	case containsAny("please", "thank you")(lower):
		h.CommunicationStyle = "formal"
	case containsAny("hey", "cool")(lower):
		h.CommunicationStyle = "casual"
	case containsAny("section", "clause")(lower):
		h.CommunicationStyle = "technical"
	}
	switch {
	case containsAny("what is", "explain", "basic")(lower):
		h.ExpertiseLevel = "beginner"
	case containsAny("advanced", "complex", "detailed")(lower):
		h.ExpertiseLevel = "expert"
	}
	for _, k := range []struct{ keyword, focus string }{
		{"gst", "GST"}, {"tds", "TDS"}, {"roc", "ROC"}, {"employment", "Employment"}, {"tax", "Tax"},
	} {
		if strings.Contains(lower, k.keyword) {
			h.ComplianceFocus = append(h.ComplianceFocus, k.focus)
		}
	}
	return h
}

// DefaultPreferences is used when nothing is known about the user.
func DefaultPreferences() model.UserPreferences {
	return model.UserPreferences{
		PreferredLanguage:  "en",
		BusinessType:       "Private Limited",
		Industry:           "Technology",
		ComplianceFocus:    []string{"GST", "TDS", "ROC"},
		CommunicationStyle: "professional",
		ExpertiseLevel:     "intermediate",
		Timezone:           "Asia/Kolkata",
		WorkingHours:       "9:00 AM - 6:00 PM",
	}
}

var (
	defaultFrequentTopics   = []string{"GST Registration", "TDS Filing", "Company Compliance", "Employment Law", "Tax Planning"}
	defaultActiveHours      = []string{"10:00 AM", "2:00 PM", "4:00 PM"}
	defaultPainPoints       = []string{"Late filing penalties", "Complex compliance requirements", "Document preparation"}
	defaultUsedFeatures     = []string{"Legal Questions", "Document Generation", "Compliance Guidance", "Tax Advice", "Business Formation"}
	defaultInsightQuestions = []string{
		"How to file GSTR-1 for your business?",
		"What are the TDS rates for different payments?",
		"How to ensure ROC compliance for your company?",
		"What documents are needed for employee onboarding?",
	}
)

// MemoryService keeps per-user conversation memory and derives
// personalisation from it.
type MemoryService interface {
	Preferences(ctx context.Context, userID string) model.UserPreferences
	// PersonalizedContext is appended to the assistant's system prompt.
	PersonalizedContext(ctx context.Context, userID string) string
	ApplyLearning(ctx context.Context, job model.LearningJob) error
	Insights(ctx context.Context, userID string) (*model.Insights, *model.InsightStats, error)
	Reset(ctx context.Context, userID string) error
}

type memoryService struct {
	ai        repository.AIRepository
	companies repository.CompanyRepository
	logger    zerolog.Logger
}

func NewMemoryService(ai repository.AIRepository, companies repository.CompanyRepository, logger zerolog.Logger) MemoryService {
	return &memoryService{
		ai:        ai,
		companies: companies,
		logger:    logger.With().Str("service", "MemoryService").Logger(),
	}
}

func (s *memoryService) Preferences(ctx context.Context, userID string) model.UserPreferences {
	prefs := DefaultPreferences()
	company, err := s.companies.GetFirstCompanyByUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load company for preferences")
	} else if company != nil {
		prefs.BusinessType = company.CompanyType
		if ind := company.Field("industry"); ind != "" {
			prefs.Industry = ind
		}
	}

	ld, err := s.ai.GetLearningData(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load learning data for preferences")
		return prefs
	}
	if ld != nil {
		if ld.CommunicationStyle != "" {
			prefs.CommunicationStyle = ld.CommunicationStyle
		}
		if ld.ExpertiseLevel != "" {
			prefs.ExpertiseLevel = ld.ExpertiseLevel
		}
	}
	return prefs
}

func (s *memoryService) PersonalizedContext(ctx context.Context, userID string) string {
	prefs := s.Preferences(ctx, userID)

	var b strings.Builder
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Business Type: %s\n", prefs.BusinessType)
	fmt.Fprintf(&b, "- Industry: %s\n", prefs.Industry)
	fmt.Fprintf(&b, "- Expertise Level: %s\n", prefs.ExpertiseLevel)
	fmt.Fprintf(&b, "- Communication Style: %s\n", prefs.CommunicationStyle)
	fmt.Fprintf(&b, "- Compliance Focus: %s\n\n", strings.Join(prefs.ComplianceFocus, ", "))
	b.WriteString("Recent Conversation Context:")

	history, err := s.ai.ListMessages(ctx, userID, 5)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load conversation history")
	}
	for i, m := range history {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "\n%s: %s", m.Role, m.Content)
	}

	ld, err := s.ai.GetLearningData(ctx, userID)
	if err != nil || ld == nil {
		return b.String()
	}
	if len(ld.FrequentQuestions) > 0 {
		fmt.Fprintf(&b, "\n\nUser's Common Questions: %s", strings.Join(firstN(ld.FrequentQuestions, 3), ", "))
	}
	if len(ld.PreferredTopics) > 0 {
		fmt.Fprintf(&b, "\nPreferred Topics: %s", strings.Join(firstN(ld.PreferredTopics, 5), ", "))
	}
	return b.String()
}

func (s *memoryService) ApplyLearning(ctx context.Context, job model.LearningJob) error {
	hints := AnalyzePreferences(job.Message)
	at := job.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	update := repository.LearningUpdate{
		UserID:             job.UserID,
		CompanyID:          job.CompanyID,
		Question:           job.Message,
		Topics:             ExtractTopics(job.Message),
		Suggestions:        PersonalizedSuggestions(job.Message),
		CommunicationStyle: hints.CommunicationStyle,
		ExpertiseLevel:     hints.ExpertiseLevel,
		ActiveHour:         activeHour(at),
		At:                 at,
	}
	if err := s.ai.AppendLearning(ctx, update); err != nil {
		s.logger.Error().Err(err).Str("user_id", job.UserID).Msg("Failed to apply learning")
		return err
	}
	return nil
}

func (s *memoryService) Insights(ctx context.Context, userID string) (*model.Insights, *model.InsightStats, error) {
	company, err := s.companies.GetFirstCompanyByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, ErrCompanyNotFound
	}
	ld, err := s.ai.GetLearningData(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.ai.MessageStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	avgTokens, err := s.ai.AverageTokens(ctx, company.ID, 10)
	if err != nil {
		return nil, nil, err
	}

	if ld == nil {
		ld = &model.LearningData{}
	}
	insights := &model.Insights{
		TotalConversations:      len(ld.FrequentQuestions),
		FrequentTopics:          orDefault(ld.PreferredTopics, defaultFrequentTopics),
		AverageSessionLength:    ld.AverageSessionLength,
		PreferredResponseLength: ld.PreferredResponseLength,
		MostActiveHours:         orDefault(ld.MostActiveHours, defaultActiveHours),
		PersonalizedSuggestions: orDefault(ld.PersonalizedSuggestions, defaultInsightQuestions),
		CommonPainPoints:        orDefault(ld.CommonPainPoints, defaultPainPoints),
	}
	if insights.TotalConversations == 0 {
		insights.TotalConversations = 12
	}
	if insights.AverageSessionLength == 0 {
		insights.AverageSessionLength = 8
	}
	if insights.PreferredResponseLength == "" {
		insights.PreferredResponseLength = "medium"
	}
	switch insights.PreferredResponseLength {
	case "short":
		insights.ExpertiseLevel = "beginner"
		insights.CommunicationStyle = "casual"
	case "long":
		insights.ExpertiseLevel = "expert"
		insights.CommunicationStyle = "professional"
	default:
		insights.ExpertiseLevel = "intermediate"
		insights.CommunicationStyle = "professional"
	}

	stats := &model.InsightStats{
		TotalMessages:       orDefaultInt(counts.TotalMessages, 45),
		UserMessages:        orDefaultInt(counts.UserMessages, 23),
		AIMessages:          orDefaultInt(counts.AssistantMessages, 22),
		AverageResponseTime: orDefaultInt(int(math.Round(avgTokens)), 1200),
		MostUsedFeatures:    firstN(orDefault(ld.PreferredTopics, defaultUsedFeatures), 5),
	}
	return insights, stats, nil
}

func (s *memoryService) Reset(ctx context.Context, userID string) error {
	if err := s.ai.ResetLearning(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to reset learning data")
		return apperr.Database(err)
	}
	s.logger.Info().Str("user_id", userID).Msg("Learning data reset")
	return nil
}

var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

// activeHour is the IST wall-clock hour of t, such as "3:00 PM".
func activeHour(t time.Time) string {
	l := t.In(indiaTime)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), 0, 0, 0, indiaTime).Format("3:04 PM")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
