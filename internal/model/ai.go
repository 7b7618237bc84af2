package model

import "time"

const (
	InteractionLegalAssistance    = "legal_assistance"
	InteractionDocumentGeneration = "document_generation"
)

// AiInteraction logs one assistant or generation call.
type AiInteraction struct {
	ID              string    `db:"id" json:"id"`
	CompanyID       *string   `db:"company_id" json:"company_id,omitempty"`
	InteractionType string    `db:"interaction_type" json:"interaction_type"`
	UserQuery       string    `db:"user_query" json:"user_query"`
	AiResponse      string    `db:"ai_response" json:"ai_response"`
	TokensUsed      int       `db:"tokens_used" json:"tokens_used"`
	Cost            float64   `db:"cost" json:"cost"`
	Source          string    `db:"source" json:"source"`
	Degraded        bool      `db:"degraded" json:"degraded"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one turn of an assistant conversation.
type ConversationMessage struct {
	ID        string            `db:"id" json:"id"`
	UserID    string            `db:"user_id" json:"user_id"`
	CompanyID *string           `db:"company_id" json:"company_id,omitempty"`
	SessionID string            `db:"session_id" json:"session_id"`
	Role      string            `db:"role" json:"role"`
	Content   string            `db:"content" json:"content"`
	Timestamp time.Time         `db:"timestamp" json:"timestamp"`
	Metadata  map[string]string `db:"metadata" json:"metadata,omitempty"`
}

// LearningData is the per-user personalisation record.
type LearningData struct {
	UserID                  string     `db:"user_id" json:"user_id"`
	CompanyID               *string    `db:"company_id" json:"company_id,omitempty"`
	FrequentQuestions       []string   `db:"frequent_questions" json:"frequent_questions"`
	PreferredTopics         []string   `db:"preferred_topics" json:"preferred_topics"`
	PersonalizedSuggestions []string   `db:"personalized_suggestions" json:"personalized_suggestions"`
	CommonPainPoints        []string   `db:"common_pain_points" json:"common_pain_points"`
	MostActiveHours         []string   `db:"most_active_hours" json:"most_active_hours"`
	AverageSessionLength    int        `db:"average_session_length" json:"average_session_length"`
	PreferredResponseLength string     `db:"preferred_response_length" json:"preferred_response_length"`
	CommunicationStyle      string     `db:"communication_style" json:"communication_style"`
	ExpertiseLevel          string     `db:"expertise_level" json:"expertise_level"`
	LastInteraction         *time.Time `db:"last_interaction" json:"last_interaction,omitempty"`
}

// UserPreferences is derived from the user's company and learning data.
type UserPreferences struct {
	PreferredLanguage  string   `json:"preferred_language"`
	BusinessType       string   `json:"business_type"`
	Industry           string   `json:"industry"`
	ComplianceFocus    []string `json:"compliance_focus"`
	CommunicationStyle string   `json:"communication_style"`
	ExpertiseLevel     string   `json:"expertise_level"`
	Timezone           string   `json:"timezone"`
	WorkingHours       string   `json:"working_hours"`
}

// ConversationStats summarises stored conversation messages for a user.
type ConversationStats struct {
	TotalMessages     int `json:"total_messages"`
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"ai_messages"`
}

// LearningJob is queued after every assistant exchange.
type LearningJob struct {
	UserID    string    `json:"user_id"`
	CompanyID *string   `json:"company_id,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Insights is the personalisation summary shown to a user.
type Insights struct {
	TotalConversations      int      `json:"total_conversations"`
	FrequentTopics          []string `json:"frequent_topics"`
	AverageSessionLength    int      `json:"average_session_length"`
	PreferredResponseLength string   `json:"preferred_response_length"`
	MostActiveHours         []string `json:"most_active_hours"`
	PersonalizedSuggestions []string `json:"personalized_suggestions"`
	CommonPainPoints        []string `json:"common_pain_points"`
	ExpertiseLevel          string   `json:"expertise_level"`
	CommunicationStyle      string   `json:"communication_style"`
}

// InsightStats are conversation counters shown next to Insights.
type InsightStats struct {
	TotalMessages       int      `json:"total_messages"`
	UserMessages        int      `json:"user_messages"`
	AIMessages          int      `json:"ai_messages"`
	AverageResponseTime int      `json:"average_response_time"`
	MostUsedFeatures    []string `json:"most_used_features"`
}
