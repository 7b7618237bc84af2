package model

import "time"

// PlanType identifies a paid plan.
type PlanType string

const (
	PlanStarter PlanType = "starter"
	PlanGrowth  PlanType = "growth"
	PlanScale   PlanType = "scale"
)

// UnlimitedDocuments is the DocumentsLimit sentinel for plans without a cap.
const UnlimitedDocuments = -1

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
	SubscriptionTrial     = "trial"
)

// Plan describes the price and quota of a PlanType.
type Plan struct {
	Type           PlanType `json:"type"`
	Name           string   `json:"name"`
	Price          int64    `json:"price"` // rupees per month
	Features       []string `json:"features"`
	DocumentsLimit int      `json:"documents_limit"`
}

// Plans is the catalogue offered at checkout.
var Plans = map[PlanType]Plan{
	PlanStarter: {
		Type:           PlanStarter,
		Name:           "Starter",
		Price:          2999,
		Features:       []string{"5 documents/month", "Basic templates", "Email support"},
		DocumentsLimit: 5,
	},
	PlanGrowth: {
		Type:           PlanGrowth,
		Name:           "Growth",
		Price:          7999,
		Features:       []string{"25 documents/month", "All templates", "AI assistance", "Priority support"},
		DocumentsLimit: 25,
	},
	PlanScale: {
		Type:           PlanScale,
		Name:           "Scale",
		Price:          15999,
		Features:       []string{"Unlimited documents", "Custom templates", "24/7 support", "Legal review"},
		DocumentsLimit: UnlimitedDocuments,
	},
}

// LookupPlan returns the plan for t and whether it exists.
func LookupPlan(t PlanType) (Plan, bool) {
	p, ok := Plans[t]
	return p, ok
}

// Subscription is one billing period of a plan for a company. A new row is
// created per period; DocumentsUsed is the only field mutated in between.
type Subscription struct {
	ID                     string    `db:"id" json:"id"`
	CompanyID              string    `db:"company_id" json:"company_id"`
	PlanType               PlanType  `db:"plan_type" json:"plan_type"`
	Status                 string    `db:"status" json:"status"`
	CurrentPeriodStart     time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd       time.Time `db:"current_period_end" json:"current_period_end"`
	RazorpaySubscriptionID *string   `db:"razorpay_subscription_id" json:"razorpay_subscription_id,omitempty"`
	MonthlyPrice           int64     `db:"monthly_price" json:"monthly_price"`
	DocumentsUsed          int       `db:"documents_used" json:"documents_used"`
	DocumentsLimit         int       `db:"documents_limit" json:"documents_limit"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the subscription can be used at now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.CurrentPeriodEnd.Before(now)
}

// QuotaStatus is the result of a quota lookup for a company.
type QuotaStatus struct {
	CanGenerate    bool `json:"can_generate"`
	DocumentsUsed  int  `json:"documents_used"`
	DocumentsLimit int  `json:"documents_limit"`
}

// QuotaFor evaluates the quota of an active subscription. A nil subscription
// means there is no active plan.
func QuotaFor(sub *Subscription) QuotaStatus {
	if sub == nil {
		return QuotaStatus{}
	}
	return QuotaStatus{
		CanGenerate:    sub.DocumentsLimit == UnlimitedDocuments || sub.DocumentsUsed < sub.DocumentsLimit,
		DocumentsUsed:  sub.DocumentsUsed,
		DocumentsLimit: sub.DocumentsLimit,
	}
}

// Payment records a captured gateway payment.
type Payment struct {
	ID                string    `db:"id" json:"id"`
	CompanyID         string    `db:"company_id" json:"company_id"`
	RazorpayPaymentID string    `db:"razorpay_payment_id" json:"razorpay_payment_id"`
	RazorpayOrderID   string    `db:"razorpay_order_id" json:"razorpay_order_id"`
	Amount            int64     `db:"amount" json:"amount"`
	Currency          string    `db:"currency" json:"currency"`
	Status            string    `db:"status" json:"status"`
	Description       string    `db:"description" json:"description"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
