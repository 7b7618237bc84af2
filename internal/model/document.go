package model

import (
	"encoding/json"
	"time"
)

// TemplateField describes one input a template expects.
type TemplateField struct {
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default,omitempty"`
}

// DocumentTemplate is a fillable legal document.
type DocumentTemplate struct {
	ID               string                   `db:"id" json:"id"`
	Name             string                   `db:"name" json:"name"`
	Category         string                   `db:"category" json:"category"`
	Description      *string                  `db:"description" json:"description,omitempty"`
	TemplateContent  string                   `db:"template_content" json:"-"`
	RequiredFields   map[string]TemplateField `db:"required_fields" json:"required_fields"`
	OptionalFields   map[string]TemplateField `db:"optional_fields" json:"optional_fields,omitempty"`
	Price            int64                    `db:"price" json:"price"`
	ComplexityLevel  string                   `db:"complexity_level" json:"complexity_level"`
	EstimatedTime    *string                  `db:"estimated_time" json:"estimated_time,omitempty"`
	LegalCategory    *string                  `db:"legal_category" json:"legal_category,omitempty"`
	ApplicableStates []string                 `db:"applicable_states" json:"applicable_states,omitempty"`
	IsActive         bool                     `db:"is_active" json:"-"`
}

// DocumentStatus is the lifecycle state of a generated document.
type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "draft"
	DocumentCompleted DocumentStatus = "completed"
	DocumentReviewed  DocumentStatus = "reviewed"
	DocumentSigned    DocumentStatus = "signed"
)

var documentStatusOrder = map[DocumentStatus]int{
	DocumentDraft:     0,
	DocumentCompleted: 1,
	DocumentReviewed:  2,
	DocumentSigned:    3,
}

// ValidDocumentStatus reports whether s is a known status.
func ValidDocumentStatus(s DocumentStatus) bool {
	_, ok := documentStatusOrder[s]
	return ok
}

// CanTransition reports whether a document may move from one status to
// another. Statuses only move forward.
func CanTransition(from, to DocumentStatus) bool {
	f, ok := documentStatusOrder[from]
	if !ok {
		return false
	}
	t, ok := documentStatusOrder[to]
	if !ok {
		return false
	}
	return t > f
}

// GeneratedDocument is immutable after creation except for Status.
type GeneratedDocument struct {
	ID            string          `db:"id" json:"id"`
	CompanyID     string          `db:"company_id" json:"company_id"`
	TemplateID    *string         `db:"template_id" json:"template_id,omitempty"`
	DocumentName  string          `db:"document_name" json:"document_name"`
	DocumentType  string          `db:"document_type" json:"document_type"`
	Content       string          `db:"content" json:"content"`
	FilledData    json.RawMessage `db:"filled_data" json:"filled_data"`
	Status        DocumentStatus  `db:"status" json:"status"`
	FileURL       *string         `db:"file_url" json:"file_url,omitempty"`
	DownloadCount int             `db:"download_count" json:"download_count"`
	Version       int             `db:"version" json:"version"`
	GeneratedAt   time.Time       `db:"generated_at" json:"generated_at"`
}
