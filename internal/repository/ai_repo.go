package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"complianceai/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LearningUpdate is appended to a user's learning record after one question.
type LearningUpdate struct {
	UserID      string
	CompanyID   *string
	Question    string
	Topics      []string
	Suggestions []string
	// Empty values leave the stored style and level unchanged.
	CommunicationStyle string
	ExpertiseLevel     string
	// ActiveHour is added to most_active_hours when not already present.
	ActiveHour string
	At         time.Time
}

// AIRepository stores assistant interactions, conversation history and
// per-user learning data.
type AIRepository interface {
	CreateInteraction(ctx context.Context, in *model.AiInteraction) error
	// AverageTokens returns the mean tokens_used of the company's latest
	// interactions, or 0 when there are none.
	AverageTokens(ctx context.Context, companyID string, limit int) (float64, error)
	CreateMessage(ctx context.Context, m *model.ConversationMessage) error
	// ListMessages returns the user's latest messages, newest first.
	ListMessages(ctx context.Context, userID string, limit int) ([]model.ConversationMessage, error)
	MessageStats(ctx context.Context, userID string) (*model.ConversationStats, error)
	GetLearningData(ctx context.Context, userID string) (*model.LearningData, error)
	// AppendLearning upserts the learning record, appending the question and
	// topics in one statement. Suggestions replace the stored ones when given.
	AppendLearning(ctx context.Context, u LearningUpdate) error
	// ResetLearning deletes learning data and conversation history.
	ResetLearning(ctx context.Context, userID string) error
}

type aiRepo struct {
	pool *pgxpool.Pool
}

func NewAIRepo(pool *pgxpool.Pool) AIRepository {
	return &aiRepo{pool: pool}
}

func (r *aiRepo) CreateInteraction(ctx context.Context, in *model.AiInteraction) error {
	const q = `
		INSERT INTO ai_interactions (company_id, interaction_type, user_query, ai_response, tokens_used, cost, source, degraded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, q, in.CompanyID, in.InteractionType, in.UserQuery, in.AiResponse,
		in.TokensUsed, in.Cost, in.Source, in.Degraded).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return fmt.Errorf("logging ai interaction: %w", err)
	}
	return nil
}

func (r *aiRepo) AverageTokens(ctx context.Context, companyID string, limit int) (float64, error) {
	const q = `
		SELECT COALESCE(AVG(tokens_used), 0)::float8 FROM (
			SELECT tokens_used FROM ai_interactions
			WHERE company_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
	`
	var avg float64
	if err := r.pool.QueryRow(ctx, q, companyID, limit).Scan(&avg); err != nil {
		return 0, fmt.Errorf("averaging tokens for company %s: %w", companyID, err)
	}
	return avg, nil
}

func (r *aiRepo) CreateMessage(ctx context.Context, m *model.ConversationMessage) error {
	meta, err := jsonArg(m.Metadata)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO conversation_messages (id, user_id, company_id, session_id, role, content, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.pool.Exec(ctx, q, m.ID, m.UserID, m.CompanyID, m.SessionID, m.Role, m.Content, m.Timestamp, meta); err != nil {
		return fmt.Errorf("storing conversation message: %w", err)
	}
	return nil
}

func (r *aiRepo) ListMessages(ctx context.Context, userID string, limit int) ([]model.ConversationMessage, error) {
	const q = `
		SELECT id, user_id, company_id, session_id, role, content, timestamp, metadata
		FROM conversation_messages
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversation messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.ConversationMessage
	for rows.Next() {
		var m model.ConversationMessage
		var meta []byte
		if err := rows.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.SessionID, &m.Role, &m.Content, &m.Timestamp, &meta); err != nil {
			return nil, fmt.Errorf("scanning conversation message: %w", err)
		}
		if err := decodeJSON(meta, &m.Metadata); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation messages: %w", err)
	}
	return msgs, nil
}

func (r *aiRepo) MessageStats(ctx context.Context, userID string) (*model.ConversationStats, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE role = 'user'),
		       COUNT(*) FILTER (WHERE role = 'assistant')
		FROM conversation_messages
		WHERE user_id = $1
	`
	var s model.ConversationStats
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalMessages, &s.UserMessages, &s.AssistantMessages); err != nil {
		return nil, fmt.Errorf("counting conversation messages: %w", err)
	}
	return &s, nil
}

func (r *aiRepo) GetLearningData(ctx context.Context, userID string) (*model.LearningData, error) {
	const q = `
		SELECT user_id, company_id, frequent_questions, preferred_topics, personalized_suggestions,
		       common_pain_points, most_active_hours, average_session_length, preferred_response_length,
		       communication_style, expertise_level, last_interaction
		FROM ai_learning_data
		WHERE user_id = $1
	`
	var d model.LearningData
	var questions, topics, suggestions, pains, hours []byte
	err := r.pool.QueryRow(ctx, q, userID).Scan(&d.UserID, &d.CompanyID, &questions, &topics, &suggestions,
		&pains, &hours, &d.AverageSessionLength, &d.PreferredResponseLength, &d.CommunicationStyle,
		&d.ExpertiseLevel, &d.LastInteraction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching learning data for user %s: %w", userID, err)
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{
		{questions, &d.FrequentQuestions},
		{topics, &d.PreferredTopics},
		{suggestions, &d.PersonalizedSuggestions},
		{pains, &d.CommonPainPoints},
		{hours, &d.MostActiveHours},
	} {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (r *aiRepo) AppendLearning(ctx context.Context, u LearningUpdate) error {
	question, err := jsonArg([]string{u.Question})
	if err != nil {
		return err
	}
	topics := u.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsArg, err := jsonArg(topics)
	if err != nil {
		return err
	}
	suggestionsArg, err := jsonArg(u.Suggestions)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO ai_learning_data (user_id, company_id, frequent_questions, preferred_topics, personalized_suggestions,
			communication_style, expertise_level, most_active_hours, last_interaction)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, COALESCE($5::jsonb, '[]'::jsonb),
			COALESCE(NULLIF($6::text, ''), 'professional'), COALESCE(NULLIF($7::text, ''), 'intermediate'),
			CASE WHEN $8::text = '' THEN '[]'::jsonb ELSE jsonb_build_array($8::text) END, $9)
		ON CONFLICT (user_id) DO UPDATE
		SET frequent_questions = ai_learning_data.frequent_questions || EXCLUDED.frequent_questions,
		    preferred_topics = ai_learning_data.preferred_topics || EXCLUDED.preferred_topics,
		    personalized_suggestions = COALESCE($5::jsonb, ai_learning_data.personalized_suggestions),
		    communication_style = COALESCE(NULLIF($6::text, ''), ai_learning_data.communication_style),
		    expertise_level = COALESCE(NULLIF($7::text, ''), ai_learning_data.expertise_level),
		    most_active_hours = CASE
		        WHEN $8::text = '' OR ai_learning_data.most_active_hours @> jsonb_build_array($8::text)
		        THEN ai_learning_data.most_active_hours
		        ELSE ai_learning_data.most_active_hours || jsonb_build_array($8::text)
		    END,
		    company_id = COALESCE(EXCLUDED.company_id, ai_learning_data.company_id),
		    last_interaction = EXCLUDED.last_interaction,
		    updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, q, u.UserID, u.CompanyID, question, topicsArg, suggestionsArg,
		u.CommunicationStyle, u.ExpertiseLevel, u.ActiveHour, u.At); err != nil {
		return fmt.Errorf("updating learning data for user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *aiRepo) ResetLearning(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting learning reset: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM ai_learning_data WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting learning data for user %s: %w", userID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversation_messages WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting conversation messages for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing learning reset for user %s: %w", userID, err)
	}
	return nil
}
