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

// CompanyRepository defines methods for accessing companies.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompanyByID(ctx context.Context, id string) (*model.Company, error)
	// GetFirstCompanyByUser returns the user's oldest company, or nil.
	GetFirstCompanyByUser(ctx context.Context, userID string) (*model.Company, error)
	// ListCompaniesByUser returns the user's companies, newest first, each
	// with its active subscription when there is one.
	ListCompaniesByUser(ctx context.Context, userID string, now time.Time) ([]model.Company, error)
}

type companyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepo{pool: pool}
}

const companyColumns = `c.id, c.user_id, c.company_name, c.industry, c.company_type, c.incorporation_date,
       c.cin, c.gstin, c.pan, c.registered_address, c.business_address, c.state, c.city, c.pincode,
       c.authorized_capital, c.paid_up_capital, c.director_details, c.created_at, c.updated_at`

func companyScanTargets(c *model.Company, directors *[]byte) []interface{} {
	return []interface{}{
		&c.ID, &c.UserID, &c.CompanyName, &c.Industry, &c.CompanyType, &c.IncorporationDate,
		&c.CIN, &c.GSTIN, &c.PAN, &c.RegisteredAddress, &c.BusinessAddress, &c.State, &c.City, &c.Pincode,
		&c.AuthorizedCapital, &c.PaidUpCapital, directors, &c.CreatedAt, &c.UpdatedAt,
	}
}

func (r *companyRepo) CreateCompany(ctx context.Context, c *model.Company) error {
	var directors *string
	if len(c.DirectorDetails) > 0 {
		s := string(c.DirectorDetails)
		directors = &s
	}
	query := `
		INSERT INTO companies AS c (user_id, company_name, industry, company_type, incorporation_date,
			cin, gstin, pan, registered_address, business_address, state, city, pincode,
			authorized_capital, paid_up_capital, director_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + companyColumns
	var raw []byte
	err := r.pool.QueryRow(ctx, query,
		c.UserID, c.CompanyName, c.Industry, c.CompanyType, c.IncorporationDate,
		c.CIN, c.GSTIN, c.PAN, c.RegisteredAddress, c.BusinessAddress, c.State, c.City, c.Pincode,
		c.AuthorizedCapital, c.PaidUpCapital, directors,
	).Scan(companyScanTargets(c, &raw)...)
	if err != nil {
		return fmt.Errorf("creating company for user %s: %w", c.UserID, err)
	}
	c.DirectorDetails = raw
	return nil
}

func (r *companyRepo) getOne(ctx context.Context, query string, arg string) (*model.Company, error) {
	var c model.Company
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, arg).Scan(companyScanTargets(&c, &raw)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.DirectorDetails = raw
	return &c, nil
}

func (r *companyRepo) GetCompanyByID(ctx context.Context, id string) (*model.Company, error) {
	c, err := r.getOne(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("fetching company %s: %w", id, err)
	}
	return c, nil
}

func (r *companyRepo) GetFirstCompanyByUser(ctx context.Context, userID string) (*model.Company, error) {
	c, err := r.getOne(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.user_id = $1 ORDER BY c.created_at ASC LIMIT 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching company for user %s: %w", userID, err)
	}
	return c, nil
}

func (r *companyRepo) ListCompaniesByUser(ctx context.Context, userID string, now time.Time) ([]model.Company, error) {
	query := `
		SELECT ` + companyColumns + `,
		       s.id, s.plan_type, s.status, s.current_period_start, s.current_period_end,
		       s.monthly_price, s.documents_used, s.documents_limit
		FROM companies c
		LEFT JOIN LATERAL (
			SELECT * FROM subscriptions
			WHERE company_id = c.id AND status = 'active' AND current_period_end >= $2
			ORDER BY current_period_end DESC
			LIMIT 1
		) s ON TRUE
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("listing companies for user %s: %w", userID, err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		var raw []byte
		var (
			subID                  *string
			planType, status       *string
			periodStart, periodEnd *time.Time
			price                  *int64
			used, limit            *int
		)
		targets := append(companyScanTargets(&c, &raw), &subID, &planType, &status, &periodStart, &periodEnd, &price, &used, &limit)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scanning company row: %w", err)
		}
		c.DirectorDetails = raw
		if subID != nil {
			c.ActiveSubscription = &model.Subscription{
				ID:                 *subID,
				CompanyID:          c.ID,
				PlanType:           model.PlanType(*planType),
				Status:             *status,
				CurrentPeriodStart: *periodStart,
				CurrentPeriodEnd:   *periodEnd,
				MonthlyPrice:       *price,
				DocumentsUsed:      *used,
				DocumentsLimit:     *limit,
			}
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating company rows: %w", err)
	}
	return companies, nil
}
