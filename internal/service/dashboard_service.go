package service

import (
	"context"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	deadlineHorizon    = 7 * 24 * time.Hour
	activityLookback   = 30 * 24 * time.Hour
	recentActivitySize = 10
)

type DashboardService interface {
	Stats(ctx context.Context, userID string) (*model.DashboardStats, error)
	Activity(ctx context.Context, userID string) ([]model.AuditLog, error)
}

type dashboardService struct {
	repo      repository.DashboardRepository
	companies CompanyService
	now       func() time.Time
	logger    zerolog.Logger
}

func NewDashboardService(repo repository.DashboardRepository, companies CompanyService, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		repo:      repo,
		companies: companies,
		now:       time.Now,
		logger:    logger.With().Str("service", "DashboardService").Logger(),
	}
}

func (s *dashboardService) Stats(ctx context.Context, userID string) (*model.DashboardStats, error) {
	company, err := s.companies.Primary(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stats := &model.DashboardStats{
		CompanyName: company.CompanyName,
		Industry:    company.Field("industry"),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalDocuments, err = s.repo.CountDocuments(gctx, company.ID)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingTasks, err = s.repo.CountPendingTasks(gctx, company.ID)
		return err
	})
	g.Go(func() (err error) {
		stats.UpcomingDeadlines, err = s.repo.CountTasksDueBetween(gctx, company.ID, now, now.Add(deadlineHorizon))
		return err
	})
	g.Go(func() (err error) {
		stats.RecentActivity, err = s.repo.CountAuditLogsSince(gctx, company.ID, now.Add(-activityLookback))
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("company_id", company.ID).Msg("Failed to compute dashboard stats")
		return nil, err
	}
	return stats, nil
}

func (s *dashboardService) Activity(ctx context.Context, userID string) ([]model.AuditLog, error) {
	company, err := s.companies.Primary(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.RecentActivity(ctx, company.ID, recentActivitySize)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
