package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"complianceai/internal/apperr"
	"complianceai/internal/model"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/rs/zerolog"
)

// OrderCreator is the part of the Razorpay orders API the service needs.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// NewRazorpayOrders returns the orders resource of a Razorpay client, or nil
// when no key is configured.
func NewRazorpayOrders(keyID, keySecret string) OrderCreator {
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret).Order
}

type VerifyPaymentInput struct {
	CompanyID string
	PlanType  model.PlanType
	OrderID   string
	PaymentID string
	Signature string
}

type PaymentService interface {
	Plans() []model.Plan
	CreateOrder(ctx context.Context, userID, companyID string, planType model.PlanType) (map[string]interface{}, error)
	// VerifyPayment checks the gateway signature and activates the plan.
	VerifyPayment(ctx context.Context, userID string, in VerifyPaymentInput) (*model.Subscription, error)
}

type paymentService struct {
	orders    OrderCreator
	keySecret string
	companies CompanyService
	subs      SubscriptionService
	now       func() time.Time
	logger    zerolog.Logger
}

func NewPaymentService(orders OrderCreator, keySecret string, companies CompanyService, subs SubscriptionService, logger zerolog.Logger) PaymentService {
	return &paymentService{
		orders:    orders,
		keySecret: keySecret,
		companies: companies,
		subs:      subs,
		now:       time.Now,
		logger:    logger.With().Str("service", "PaymentService").Logger(),
	}
}

func (s *paymentService) Plans() []model.Plan {
	plans := make([]model.Plan, 0, len(model.Plans))
	for _, p := range model.Plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans
}

func (s *paymentService) CreateOrder(ctx context.Context, userID, companyID string, planType model.PlanType) (map[string]interface{}, error) {
	plan, ok := model.LookupPlan(planType)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if _, err := s.companies.GetOwned(ctx, userID, companyID); err != nil {
		return nil, err
	}
	if s.orders == nil {
		return nil, ErrPaymentsDisabled
	}

	data := map[string]interface{}{
		"amount":   plan.Price * 100, // paise
		"currency": "INR",
		"receipt":  fmt.Sprintf("order_%s_%d", companyID, s.now().UnixMilli()),
		"notes": map[string]interface{}{
			"companyId": companyID,
			"planType":  string(planType),
		},
	}
	order, err := s.orders.Create(data, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Str("plan", string(planType)).Msg("Failed to create order")
		return nil, apperr.ExternalService("razorpay", err)
	}
	return order, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, userID string, in VerifyPaymentInput) (*model.Subscription, error) {
	if _, ok := model.LookupPlan(in.PlanType); !ok {
		return nil, ErrInvalidPlan
	}
	if _, err := s.companies.GetOwned(ctx, userID, in.CompanyID); err != nil {
		return nil, err
	}
	if s.keySecret == "" || s.orders == nil {
		return nil, ErrPaymentsDisabled
	}

	attrs := map[string]interface{}{
		"razorpay_order_id":   in.OrderID,
		"razorpay_payment_id": in.PaymentID,
	}
	if !utils.VerifyPaymentSignature(attrs, in.Signature, s.keySecret) {
		s.logger.Warn().Str("company_id", in.CompanyID).Str("order_id", in.OrderID).Msg("Payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	// The signature covers only the order and payment ids, so the plan and
	// company must come from the order itself.
	order, err := s.orders.Fetch(in.OrderID, nil, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", in.OrderID).Msg("Failed to fetch order")
		return nil, apperr.ExternalService("razorpay", err)
	}
	if err := matchOrder(order, in); err != nil {
		s.logger.Warn().Err(err).Str("company_id", in.CompanyID).Str("order_id", in.OrderID).Msg("Payment does not match order")
		return nil, ErrOrderMismatch
	}

	return s.subs.ActivatePlan(ctx, in.CompanyID, in.PlanType, in.PaymentID, in.OrderID)
}

func matchOrder(order map[string]interface{}, in VerifyPaymentInput) error {
	plan, _ := model.LookupPlan(in.PlanType)
	notes, _ := order["notes"].(map[string]interface{})
	if id, _ := order["id"].(string); id != "" && id != in.OrderID {
		return fmt.Errorf("order id %q", id)
	}
	if got, _ := notes["planType"].(string); got != string(in.PlanType) {
		return fmt.Errorf("order plan %q", got)
	}
	if got, _ := notes["companyId"].(string); got != in.CompanyID {
		return fmt.Errorf("order company %q", got)
	}
	amount, ok := paise(order["amount"])
	if !ok || amount != plan.Price*100 {
		return fmt.Errorf("order amount %v", order["amount"])
	}
	return nil
}

// paise reads an amount decoded from JSON or set by a caller.
func paise(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n == float64(int64(n))
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
