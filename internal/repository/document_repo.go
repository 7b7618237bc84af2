package repository

import (
	"context"
	"errors"
	"fmt"

	"complianceai/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository interface {
	// ListTemplates returns active templates ordered by name. Empty filters
	// match everything; a state matches templates listing it and templates
	// with no state restriction.
	ListTemplates(ctx context.Context, category, state string) ([]model.DocumentTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.DocumentTemplate, error)
	CreateDocument(ctx context.Context, d *model.GeneratedDocument) error
	GetDocument(ctx context.Context, id string) (*model.GeneratedDocument, error)
	ListDocumentsByCompany(ctx context.Context, companyID string) ([]model.GeneratedDocument, error)
	// UpdateStatus moves a document from one status to another. It returns
	// nil when the document is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to model.DocumentStatus) (*model.GeneratedDocument, error)
	SetFileURL(ctx context.Context, id, url string) error
}

type documentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepo{pool: pool}
}

const templateColumns = `id, name, category, description, template_content, required_fields, optional_fields,
       price, complexity_level, estimated_time, legal_category, applicable_states, is_active`

func scanTemplate(row pgx.Row) (*model.DocumentTemplate, error) {
	var t model.DocumentTemplate
	var required, optional, states []byte
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Description, &t.TemplateContent, &required, &optional,
		&t.Price, &t.ComplexityLevel, &t.EstimatedTime, &t.LegalCategory, &states, &t.IsActive)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(required, &t.RequiredFields); err != nil {
		return nil, err
	}
	if err := decodeJSON(optional, &t.OptionalFields); err != nil {
		return nil, err
	}
	if err := decodeJSON(states, &t.ApplicableStates); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *documentRepo) ListTemplates(ctx context.Context, category, state string) ([]model.DocumentTemplate, error) {
	q := `
		SELECT ` + templateColumns + `
		FROM document_templates
		WHERE is_active
		  AND ($1 = '' OR category = $1)
		  AND ($2 = '' OR applicable_states IS NULL OR applicable_states @> jsonb_build_array($2::text))
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, q, category, state)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []model.DocumentTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return templates, nil
}

func (r *documentRepo) GetTemplate(ctx context.Context, id string) (*model.DocumentTemplate, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM document_templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching template %s: %w", id, err)
	}
	return t, nil
}

const documentColumns = `id, company_id, template_id, document_name, document_type, content, filled_data,
       status, file_url, download_count, version, generated_at`

func scanDocument(row pgx.Row) (*model.GeneratedDocument, error) {
	var d model.GeneratedDocument
	var status string
	err := row.Scan(&d.ID, &d.CompanyID, &d.TemplateID, &d.DocumentName, &d.DocumentType, &d.Content,
		&d.FilledData, &status, &d.FileURL, &d.DownloadCount, &d.Version, &d.GeneratedAt)
	if err != nil {
		return nil, err
	}
	d.Status = model.DocumentStatus(status)
	return &d, nil
}

func (r *documentRepo) CreateDocument(ctx context.Context, d *model.GeneratedDocument) error {
	filled := "{}"
	if len(d.FilledData) > 0 {
		filled = string(d.FilledData)
	}
	q := `
		INSERT INTO generated_documents (company_id, template_id, document_name, document_type, content, filled_data, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns
	created, err := scanDocument(r.pool.QueryRow(ctx, q, d.CompanyID, d.TemplateID, d.DocumentName, d.DocumentType,
		d.Content, filled, string(d.Status)))
	if err != nil {
		return fmt.Errorf("saving document for company %s: %w", d.CompanyID, err)
	}
	*d = *created
	return nil
}

func (r *documentRepo) GetDocument(ctx context.Context, id string) (*model.GeneratedDocument, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM generated_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching document %s: %w", id, err)
	}
	return d, nil
}

func (r *documentRepo) ListDocumentsByCompany(ctx context.Context, companyID string) ([]model.GeneratedDocument, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM generated_documents WHERE company_id = $1 ORDER BY generated_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing documents for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var docs []model.GeneratedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id string, from, to model.DocumentStatus) (*model.GeneratedDocument, error) {
	q := `UPDATE generated_documents SET status = $3 WHERE id = $1 AND status = $2 RETURNING ` + documentColumns
	d, err := scanDocument(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating status of document %s: %w", id, err)
	}
	return d, nil
}

func (r *documentRepo) SetFileURL(ctx context.Context, id, url string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE generated_documents SET file_url = $2 WHERE id = $1`, id, url); err != nil {
		return fmt.Errorf("setting file url of document %s: %w", id, err)
	}
	return nil
}
