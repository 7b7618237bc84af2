package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"complianceai/internal/llm"
	"complianceai/internal/model"
	"complianceai/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordCost = bcrypt.MinCost
}

var testLogger = zerolog.New(io.Discard)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// users

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("creating user %s: %w", u.Email, &pgconn.PgError{Code: "23505"})
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id, name string, phone *string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u.Name = name
	u.Phone = phone
	cp := *u
	return &cp, nil
}

// sessions

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]model.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionToken] = *s
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[token]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// companies

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies []*model.Company
	billing   *fakeBilling
	err       error
}

func (r *fakeCompanyRepo) CreateCompany(_ context.Context, c *model.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().Add(time.Duration(len(r.companies)) * time.Second)
	cp := *c
	r.companies = append(r.companies, &cp)
	return nil
}

func (r *fakeCompanyRepo) GetCompanyByID(_ context.Context, id string) (*model.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) GetFirstCompanyByUser(_ context.Context, userID string) (*model.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.companies {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) ListCompaniesByUser(ctx context.Context, userID string, now time.Time) ([]model.Company, error) {
	r.mu.Lock()
	var out []model.Company
	for i := len(r.companies) - 1; i >= 0; i-- {
		if r.companies[i].UserID == userID {
			out = append(out, *r.companies[i])
		}
	}
	r.mu.Unlock()
	if r.billing != nil {
		for i := range out {
			out[i].ActiveSubscription, _ = r.billing.GetActiveSubscription(ctx, out[i].ID, now)
		}
	}
	return out, nil
}

// fakeBilling implements both SubscriptionRepository and UsageRepository
// over one mutex, so a reservation is atomic like the SQL statement.
type fakeBilling struct {
	mu       sync.Mutex
	subs     []*model.Subscription
	payments []model.Payment
	releases int
}

func (b *fakeBilling) active(companyID string, now time.Time) *model.Subscription {
	var best *model.Subscription
	for _, s := range b.subs {
		if s.CompanyID == companyID && s.IsActive(now) {
			if best == nil || s.CurrentPeriodEnd.After(best.CurrentPeriodEnd) {
				best = s
			}
		}
	}
	return best
}

func (b *fakeBilling) GetActiveSubscription(_ context.Context, companyID string, now time.Time) (*model.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.active(companyID, now); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (b *fakeBilling) ActivatePlan(_ context.Context, companyID string, plan model.Plan, start, end time.Time, payment *model.Payment) (*model.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.CompanyID == companyID && s.Status == model.SubscriptionActive {
			s.Status = model.SubscriptionExpired
		}
	}
	sub := &model.Subscription{
		ID:                 uuid.NewString(),
		CompanyID:          companyID,
		PlanType:           plan.Type,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		MonthlyPrice:       plan.Price,
		DocumentsLimit:     plan.DocumentsLimit,
	}
	b.subs = append(b.subs, sub)
	if payment != nil {
		b.payments = append(b.payments, *payment)
	}
	cp := *sub
	return &cp, nil
}

func (b *fakeBilling) ExpireEnded(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for _, s := range b.subs {
		if s.Status == model.SubscriptionActive && s.CurrentPeriodEnd.Before(now) {
			s.Status = model.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (b *fakeBilling) ReserveDocument(_ context.Context, companyID string, now time.Time) (*model.QuotaStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.active(companyID, now)
	if s == nil {
		return nil, repository.ErrNoActiveSubscription
	}
	if s.DocumentsLimit != model.UnlimitedDocuments && s.DocumentsUsed >= s.DocumentsLimit {
		return nil, repository.ErrQuotaExceeded
	}
	s.DocumentsUsed++
	qs := model.QuotaFor(s)
	return &qs, nil
}

func (b *fakeBilling) ReleaseDocument(_ context.Context, companyID string, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releases++
	if s := b.active(companyID, now); s != nil && s.DocumentsUsed > 0 {
		s.DocumentsUsed--
	}
	return nil
}

func (b *fakeBilling) IncrementUsage(_ context.Context, companyID string, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.active(companyID, now); s != nil {
		s.DocumentsUsed++
	}
	return nil
}

func (b *fakeBilling) used(companyID string, now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.active(companyID, now); s != nil {
		return s.DocumentsUsed
	}
	return 0
}

// documents

type fakeDocumentRepo struct {
	mu        sync.Mutex
	templates map[string]*model.DocumentTemplate
	docs      map[string]*model.GeneratedDocument
	createErr error
	listErr   error
}

func newFakeDocumentRepo(templates ...*model.DocumentTemplate) *fakeDocumentRepo {
	r := &fakeDocumentRepo{templates: map[string]*model.DocumentTemplate{}, docs: map[string]*model.GeneratedDocument{}}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeDocumentRepo) ListTemplates(_ context.Context, category, state string) ([]model.DocumentTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.DocumentTemplate
	for _, t := range r.templates {
		if t.IsActive && (category == "" || t.Category == category) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDocumentRepo) GetTemplate(_ context.Context, id string) (*model.DocumentTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDocumentRepo) CreateDocument(_ context.Context, d *model.GeneratedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	d.ID = uuid.NewString()
	d.Version = 1
	d.GeneratedAt = time.Now()
	cp := *d
	r.docs[d.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetDocument(_ context.Context, id string) (*model.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDocumentRepo) ListDocumentsByCompany(_ context.Context, companyID string) ([]model.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GeneratedDocument
	for _, d := range r.docs {
		if d.CompanyID == companyID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, from, to model.DocumentStatus) (*model.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.Status != from {
		return nil, nil
	}
	d.Status = to
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) SetFileURL(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		d.FileURL = &url
	}
	return nil
}

// dashboard / audit

type fakeDashboardRepo struct {
	mu    sync.Mutex
	logs  []model.AuditLog
	docs  int
	tasks int
	due   int
	err   error
}

func (r *fakeDashboardRepo) CountDocuments(context.Context, string) (int, error) {
	return r.docs, r.err
}
func (r *fakeDashboardRepo) CountPendingTasks(context.Context, string) (int, error) {
	return r.tasks, nil
}
func (r *fakeDashboardRepo) CountTasksDueBetween(context.Context, string, time.Time, time.Time) (int, error) {
	return r.due, nil
}
func (r *fakeDashboardRepo) CountAuditLogsSince(_ context.Context, companyID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.CompanyID == companyID && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
func (r *fakeDashboardRepo) RecentActivity(_ context.Context, companyID string, limit int) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.logs[i].CompanyID == companyID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}
func (r *fakeDashboardRepo) CreateAuditLog(_ context.Context, l *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	r.logs = append(r.logs, *l)
	return nil
}

func (r *fakeDashboardRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

// assistant storage

type fakeAIRepo struct {
	mu           sync.Mutex
	interactions []model.AiInteraction
	messages     []model.ConversationMessage
	learning     map[string]*model.LearningData
	updates      []repository.LearningUpdate
	appendErr    error
}

func newFakeAIRepo() *fakeAIRepo {
	return &fakeAIRepo{learning: map[string]*model.LearningData{}}
}

func (r *fakeAIRepo) CreateInteraction(_ context.Context, in *model.AiInteraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in.ID = uuid.NewString()
	r.interactions = append(r.interactions, *in)
	return nil
}

func (r *fakeAIRepo) AverageTokens(_ context.Context, companyID string, limit int) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, n int
	for i := len(r.interactions) - 1; i >= 0 && n < limit; i-- {
		in := r.interactions[i]
		if in.CompanyID != nil && *in.CompanyID == companyID {
			sum += in.TokensUsed
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (r *fakeAIRepo) CreateMessage(_ context.Context, m *model.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.NewString()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *fakeAIRepo) ListMessages(_ context.Context, userID string, limit int) ([]model.ConversationMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ConversationMessage
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if r.messages[i].UserID == userID {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}

func (r *fakeAIRepo) MessageStats(_ context.Context, userID string) (*model.ConversationStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s model.ConversationStats
	for _, m := range r.messages {
		if m.UserID != userID {
			continue
		}
		s.TotalMessages++
		if m.Role == model.RoleUser {
			s.UserMessages++
		} else {
			s.AssistantMessages++
		}
	}
	return &s, nil
}

func (r *fakeAIRepo) GetLearningData(_ context.Context, userID string) (*model.LearningData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.learning[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeAIRepo) AppendLearning(_ context.Context, u repository.LearningUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.updates = append(r.updates, u)
	d, ok := r.learning[u.UserID]
	if !ok {
		d = &model.LearningData{UserID: u.UserID, CommunicationStyle: "professional", ExpertiseLevel: "intermediate"}
		r.learning[u.UserID] = d
	}
	d.FrequentQuestions = append(d.FrequentQuestions, u.Question)
	d.PreferredTopics = append(d.PreferredTopics, u.Topics...)
	if u.Suggestions != nil {
		d.PersonalizedSuggestions = u.Suggestions
	}
	if u.CommunicationStyle != "" {
		d.CommunicationStyle = u.CommunicationStyle
	}
	if u.ExpertiseLevel != "" {
		d.ExpertiseLevel = u.ExpertiseLevel
	}
	at := u.At
	d.LastInteraction = &at
	return nil
}

func (r *fakeAIRepo) ResetLearning(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.learning, userID)
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

// collaborators

type fakeLLM struct {
	mu     sync.Mutex
	text   string
	tokens int
	err    error
	reqs   []llm.Request
}

func (f *fakeLLM) Name() string { return "gemini" }

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, TokensUsed: f.tokens}, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return fmt.Sprintf("msg-%d", len(p.topics)), nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.topics)
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = body
	return nil
}

func (a *fakeArchive) PresignGet(_ context.Context, key string) (string, error) {
	return "https://storage.example/" + key + "?sig=1", nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []model.LearningJob
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job model.LearningJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}
