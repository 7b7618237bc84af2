package model

import "time"

// ComplianceTask is a dated obligation for a company.
type ComplianceTask struct {
	ID        string    `db:"id" json:"id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	TaskName  string    `db:"task_name" json:"task_name"`
	TaskType  string    `db:"task_type" json:"task_type"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	Priority  string    `db:"priority" json:"priority"`
	Status    string    `db:"status" json:"status"`
}

// AuditLog is an append-only record of user actions on a company.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	CompanyID  string    `db:"company_id" json:"company_id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	UserName   *string   `db:"user_name" json:"user_name,omitempty"`
	UserEmail  *string   `db:"user_email" json:"user_email,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DashboardStats are the headline counters on the dashboard.
type DashboardStats struct {
	TotalDocuments    int    `json:"total_documents"`
	PendingTasks      int    `json:"pending_tasks"`
	UpcomingDeadlines int    `json:"upcoming_deadlines"`
	RecentActivity    int    `json:"recent_activity"`
	CompanyName       string `json:"company_name"`
	Industry          string `json:"industry,omitempty"`
}
