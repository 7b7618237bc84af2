package service

import (
	"context"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/repository"

	"github.com/rs/zerolog"
)

const defaultCompanyType = "Private Limited"

type CompanyService interface {
	Create(ctx context.Context, userID string, c *model.Company) (*model.Company, error)
	// ListByUser returns the user's companies with their active subscription.
	ListByUser(ctx context.Context, userID string) ([]model.Company, error)
	// GetOwned returns ErrCompanyNotFound unless the company belongs to userID.
	GetOwned(ctx context.Context, userID, companyID string) (*model.Company, error)
	// Primary returns the user's first company.
	Primary(ctx context.Context, userID string) (*model.Company, error)
}

type companyService struct {
	repo   repository.CompanyRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewCompanyService(repo repository.CompanyRepository, logger zerolog.Logger) CompanyService {
	return &companyService{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("service", "CompanyService").Logger(),
	}
}

func (s *companyService) Create(ctx context.Context, userID string, c *model.Company) (*model.Company, error) {
	c.UserID = userID
	if c.CompanyType == "" {
		c.CompanyType = defaultCompanyType
	}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create company")
		return nil, err
	}
	return c, nil
}

func (s *companyService) ListByUser(ctx context.Context, userID string) ([]model.Company, error) {
	companies, err := s.repo.ListCompaniesByUser(ctx, userID, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list companies")
		return nil, err
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return companies, nil
}

func (s *companyService) GetOwned(ctx context.Context, userID, companyID string) (*model.Company, error) {
	c, err := s.repo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.UserID != userID {
		return nil, ErrCompanyNotFound
	}
	return c, nil
}

func (s *companyService) Primary(ctx context.Context, userID string) (*model.Company, error) {
	c, err := s.repo.GetFirstCompanyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCompanyNotFound
	}
	return c, nil
}
