package repository

import (
	"context"
	"fmt"
	"time"

	"complianceai/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository serves the dashboard counters and the audit trail.
type DashboardRepository interface {
	CountDocuments(ctx context.Context, companyID string) (int, error)
	CountPendingTasks(ctx context.Context, companyID string) (int, error)
	CountTasksDueBetween(ctx context.Context, companyID string, from, to time.Time) (int, error)
	CountAuditLogsSince(ctx context.Context, companyID string, since time.Time) (int, error)
	// RecentActivity returns the latest audit entries with the acting user's
	// name and email.
	RecentActivity(ctx context.Context, companyID string, limit int) ([]model.AuditLog, error)
	CreateAuditLog(ctx context.Context, l *model.AuditLog) error
}

type dashboardRepo struct {
	pool *pgxpool.Pool
}

func NewDashboardRepo(pool *pgxpool.Pool) DashboardRepository {
	return &dashboardRepo{pool: pool}
}

func (r *dashboardRepo) count(ctx context.Context, what, q string, args ...interface{}) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", what, err)
	}
	return n, nil
}

func (r *dashboardRepo) CountDocuments(ctx context.Context, companyID string) (int, error) {
	return r.count(ctx, "documents", `SELECT COUNT(*) FROM generated_documents WHERE company_id = $1`, companyID)
}

func (r *dashboardRepo) CountPendingTasks(ctx context.Context, companyID string) (int, error) {
	return r.count(ctx, "pending tasks", `SELECT COUNT(*) FROM compliance_tasks WHERE company_id = $1 AND status = 'PENDING'`, companyID)
}

func (r *dashboardRepo) CountTasksDueBetween(ctx context.Context, companyID string, from, to time.Time) (int, error) {
	return r.count(ctx, "upcoming deadlines",
		`SELECT COUNT(*) FROM compliance_tasks WHERE company_id = $1 AND due_date >= $2 AND due_date <= $3`,
		companyID, from, to)
}

func (r *dashboardRepo) CountAuditLogsSince(ctx context.Context, companyID string, since time.Time) (int, error) {
	return r.count(ctx, "audit logs", `SELECT COUNT(*) FROM audit_logs WHERE company_id = $1 AND created_at >= $2`, companyID, since)
}

func (r *dashboardRepo) RecentActivity(ctx context.Context, companyID string, limit int) ([]model.AuditLog, error) {
	const q = `
		SELECT a.id, a.company_id, a.user_id, a.action, a.entity_type, a.entity_id, u.name, u.email, a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.company_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID, &l.UserName, &l.UserEmail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit logs: %w", err)
	}
	return logs, nil
}

func (r *dashboardRepo) CreateAuditLog(ctx context.Context, l *model.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (company_id, user_id, action, entity_type, entity_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, q, l.CompanyID, l.UserID, l.Action, l.EntityType, l.EntityID).Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("writing audit log for company %s: %w", l.CompanyID, err)
	}
	return nil
}
