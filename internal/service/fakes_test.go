package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/retry"
	"billing-sync-be/internal/repository/contract"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/pkg/events"
	"billing-sync-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// --- Store ---

// fakeStore is an in-memory stand-in for Postgres that honours the same
// specifications and write semantics as the GORM repositories.
type fakeStore struct {
	mu    sync.Mutex
	clock clockwork.Clock

	accounts map[uuid.UUID]*entity.Account
	subs     map[string]*entity.SubscriptionRecord
	queue    []*entity.NotificationQueueItem
	outbox   []*entity.OutboxEvent

	updateBillingErrs  []error
	updateBillingCalls int
	enqueueErr         error
}

func newFakeStore(clock clockwork.Clock) *fakeStore {
	return &fakeStore{
		clock:    clock,
		accounts: map[uuid.UUID]*entity.Account{},
		subs:     map[string]*entity.SubscriptionRecord{},
	}
}

func (s *fakeStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: s}
}

func (s *fakeStore) addAccount(a *entity.Account) *entity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Id == uuid.Nil {
		a.Id = uuid.New()
	}
	if a.Role == "" {
		a.Role = entity.RoleFree
	}
	if a.SubscriptionStatus == "" {
		a.SubscriptionStatus = entity.AccountSubscriptionNone
	}
	cp := *a
	s.accounts[a.Id] = &cp
	return a
}

func (s *fakeStore) account(t *testing.T, id uuid.UUID) entity.Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	require.True(t, ok, "account %s missing", id)
	return *a
}

func (s *fakeStore) setCustomer(id uuid.UUID, customerId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].CustomerId = &customerId
}

func (s *fakeStore) record(subscriptionId string) (entity.SubscriptionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.subs[subscriptionId]
	if !ok {
		return entity.SubscriptionRecord{}, false
	}
	return *r, true
}

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *fakeStore) items() []entity.NotificationQueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.NotificationQueueItem, len(s.queue))
	for i, item := range s.queue {
		out[i] = *item
	}
	return out
}

func (s *fakeStore) itemsOfKind(kind entity.NotificationKind) []entity.NotificationQueueItem {
	var out []entity.NotificationQueueItem
	for _, item := range s.items() {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

func (s *fakeStore) events() []entity.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.OutboxEvent, len(s.outbox))
	for i, e := range s.outbox {
		out[i] = *e
	}
	return out
}

type fakeUoW struct {
	store *fakeStore
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) AccountRepository() contract.AccountRepository {
	return &fakeAccountRepo{u.store}
}

func (u *fakeUoW) SubscriptionRepository() contract.SubscriptionRepository {
	return &fakeSubscriptionRepo{u.store}
}

func (u *fakeUoW) NotificationQueueRepository() contract.NotificationQueueRepository {
	return &fakeQueueRepo{u.store}
}

func (u *fakeUoW) OutboxRepository() contract.OutboxRepository {
	return &fakeOutboxRepo{u.store}
}

// --- Accounts ---

type fakeAccountRepo struct{ s *fakeStore }

func matchAccount(a *entity.Account, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if a.Id != sp.ID {
				return false
			}
		case specification.ByEmail:
			if a.Email != sp.Email {
				return false
			}
		case specification.ByCustomerId:
			if a.CustomerId == nil || *a.CustomerId != sp.CustomerId {
				return false
			}
		}
	}
	return true
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return errors.New("duplicate key value violates unique constraint accounts_email")
		}
	}
	cp := *account
	r.s.accounts[account.Id] = &cp
	return nil
}

func (r *fakeAccountRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if matchAccount(a, specs) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Account
	for _, a := range r.s.accounts {
		if matchAccount(a, specs) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateBilling(ctx context.Context, id uuid.UUID, update entity.AccountBillingUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.updateBillingCalls++
	if len(r.s.updateBillingErrs) > 0 {
		err := r.s.updateBillingErrs[0]
		r.s.updateBillingErrs = r.s.updateBillingErrs[1:]
		if err != nil {
			return err
		}
	}

	a, ok := r.s.accounts[id]
	if !ok {
		return dto.ErrAccountNotFound
	}
	a.SubscriptionStatus = update.SubscriptionStatus
	if update.CustomerId != nil {
		v := *update.CustomerId
		a.CustomerId = &v
	}
	if update.ClearSubscription {
		a.SubscriptionId = nil
	} else if update.SubscriptionId != nil {
		v := *update.SubscriptionId
		a.SubscriptionId = &v
	}
	if update.Role != nil && a.Role != entity.RoleAdmin {
		a.Role = *update.Role
	}
	a.UpdatedAt = r.s.clock.Now()
	return nil
}

func (r *fakeAccountRepo) SetCustomerId(ctx context.Context, id uuid.UUID, customerId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return dto.ErrAccountNotFound
	}
	a.CustomerId = &customerId
	return nil
}

func (r *fakeAccountRepo) SetRole(ctx context.Context, id uuid.UUID, role entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return dto.ErrAccountNotFound
	}
	a.Role = role
	a.UpdatedAt = r.s.clock.Now()
	return nil
}

func (r *fakeAccountRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- Subscription records ---

type fakeSubscriptionRepo struct{ s *fakeStore }

func matchRecord(r *entity.SubscriptionRecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if r.Id != sp.ID {
				return false
			}
		case specification.BySubscriptionId:
			if r.SubscriptionId != sp.SubscriptionId {
				return false
			}
		case specification.OwnedByAccount:
			if r.AccountId != sp.AccountId {
				return false
			}
		case specification.LiveSubscriptions:
			if !r.Status.IsLive() {
				return false
			}
		case specification.PeriodEndingBetween:
			if r.CurrentPeriodEnd == nil || r.CurrentPeriodEnd.Before(sp.From) || !r.CurrentPeriodEnd.Before(sp.To) {
				return false
			}
		}
	}
	return true
}

func (r *fakeSubscriptionRepo) Upsert(ctx context.Context, record *entity.SubscriptionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.clock.Now()
	if existing, ok := r.s.subs[record.SubscriptionId]; ok {
		record.Id = existing.Id
		record.CreatedAt = existing.CreatedAt
	} else {
		record.Id = uuid.New()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	cp := *record
	r.s.subs[record.SubscriptionId] = &cp

	if record.Status.IsLive() {
		for id, other := range r.s.subs {
			if id != record.SubscriptionId && other.AccountId == record.AccountId && other.Status.IsLive() {
				other.Status = entity.SubscriptionStatusCancelled
			}
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) MarkCancelled(ctx context.Context, subscriptionId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.subs[subscriptionId]; ok {
		rec.Status = entity.SubscriptionStatusCancelled
	}
	return nil
}

func (r *fakeSubscriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionRecord, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeSubscriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SubscriptionRecord
	for _, rec := range r.s.subs {
		if matchRecord(rec, specs) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriptionId < out[j].SubscriptionId })
	return out, nil
}

func (r *fakeSubscriptionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- Notification queue ---

type fakeQueueRepo struct{ s *fakeStore }

func (r *fakeQueueRepo) Enqueue(ctx context.Context, item *entity.NotificationQueueItem) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.enqueueErr != nil {
		return false, r.s.enqueueErr
	}
	for _, existing := range r.s.queue {
		if existing.Recipient == item.Recipient && existing.Kind == item.Kind && existing.DedupeKey == item.DedupeKey {
			return false, nil
		}
	}
	if item.MaxAttempts <= 0 {
		item.MaxAttempts = entity.DefaultMaxAttempts
	}
	if item.Status == "" {
		item.Status = entity.NotificationStatusPending
	}
	cp := *item
	r.s.queue = append(r.s.queue, &cp)
	return true, nil
}

func (r *fakeQueueRepo) ClaimPending(ctx context.Context, limit int) ([]*entity.NotificationQueueItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var claimed []*entity.NotificationQueueItem
	for _, item := range r.s.queue {
		if len(claimed) == limit {
			break
		}
		if item.Status != entity.NotificationStatusPending || item.Attempts >= item.MaxAttempts {
			continue
		}
		item.Status = entity.NotificationStatusProcessing
		item.Attempts++
		item.UpdatedAt = r.s.clock.Now()
		cp := *item
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (r *fakeQueueRepo) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, item := range r.s.queue {
		if item.Status == entity.NotificationStatusProcessing && item.UpdatedAt.Before(cutoff) {
			if item.Attempts >= item.MaxAttempts {
				item.Status = entity.NotificationStatusFailed
			} else {
				item.Status = entity.NotificationStatusPending
			}
			msg := "delivery interrupted before completion"
			item.LastError = &msg
			n++
		}
	}
	return n, nil
}

func (r *fakeQueueRepo) transition(id uuid.UUID, from entity.NotificationStatus, apply func(*entity.NotificationQueueItem)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.queue {
		if item.Id == id {
			if item.Status != from {
				return fmt.Errorf("item %s is not %s", id, from)
			}
			apply(item)
			item.UpdatedAt = r.s.clock.Now()
			return nil
		}
	}
	return fmt.Errorf("item %s not found", id)
}

func (r *fakeQueueRepo) MarkSent(ctx context.Context, id uuid.UUID, subject string, sentAt time.Time) error {
	return r.transition(id, entity.NotificationStatusProcessing, func(item *entity.NotificationQueueItem) {
		item.Status = entity.NotificationStatusSent
		item.Subject = subject
		item.SentAt = &sentAt
		item.LastError = nil
	})
}

func (r *fakeQueueRepo) MarkRetry(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.transition(id, entity.NotificationStatusProcessing, func(item *entity.NotificationQueueItem) {
		item.Status = entity.NotificationStatusPending
		item.LastError = &lastError
	})
}

func (r *fakeQueueRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.transition(id, entity.NotificationStatusProcessing, func(item *entity.NotificationQueueItem) {
		item.Status = entity.NotificationStatusFailed
		item.LastError = &lastError
	})
}

func (r *fakeQueueRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.transition(id, entity.NotificationStatusFailed, func(item *entity.NotificationQueueItem) {
		item.Status = entity.NotificationStatusPending
		item.Attempts = 0
	})
}

func (r *fakeQueueRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NotificationQueueItem, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeQueueRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NotificationQueueItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	limit := -1
	var out []*entity.NotificationQueueItem
	for _, item := range r.s.queue {
		keep := true
		for _, spec := range specs {
			switch sp := spec.(type) {
			case specification.ByID:
				keep = keep && item.Id == sp.ID
			case specification.ByStatus:
				keep = keep && string(item.Status) == sp.Status
			case specification.ByRecipient:
				keep = keep && item.Recipient == sp.Recipient
			case specification.Pagination:
				limit = sp.Limit
			}
		}
		if keep {
			cp := *item
			out = append(out, &cp)
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Outbox ---

type fakeOutboxRepo struct{ s *fakeStore }

func (r *fakeOutboxRepo) Append(ctx context.Context, event *entity.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.Id == event.Id {
			return nil
		}
	}
	cp := *event
	r.s.outbox = append(r.s.outbox, &cp)
	return nil
}

func (r *fakeOutboxRepo) FetchUnprocessed(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.OutboxEvent
	for _, e := range r.s.outbox {
		if e.ProcessedAt == nil && len(out) < limit {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, ids []uuid.UUID, processedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		for _, e := range r.s.outbox {
			if e.Id == id {
				at := processedAt
				e.ProcessedAt = &at
			}
		}
	}
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.Id == id {
			e.Attempts++
			e.LastError = &lastError
		}
	}
	return nil
}

// --- Provider ---

type fakeProvider struct {
	mu              sync.Mutex
	subs            map[string]*payment.Subscription
	sessions        map[string]*payment.CheckoutSession
	subErrs         map[string][]error
	sessionErrs     map[string][]error
	customers       []payment.CustomerParams
	checkouts       []payment.CheckoutParams
	getSubCalls     int
	getSessionCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		subs:        map[string]*payment.Subscription{},
		sessions:    map[string]*payment.CheckoutSession{},
		subErrs:     map[string][]error{},
		sessionErrs: map[string][]error{},
	}
}

func (p *fakeProvider) putSubscription(sub *payment.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *sub
	p.subs[sub.Id] = &cp
}

func (p *fakeProvider) setStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[id].Status = status
}

func (p *fakeProvider) subscriptionCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getSubCalls
}

func (p *fakeProvider) GetSubscription(ctx context.Context, id string) (*payment.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getSubCalls++
	if errs := p.subErrs[id]; len(errs) > 0 {
		p.subErrs[id] = errs[1:]
		return nil, errs[0]
	}
	sub, ok := p.subs[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such subscription: %s", payment.ErrNotFound, id)
	}
	cp := *sub
	return &cp, nil
}

func (p *fakeProvider) GetCheckoutSession(ctx context.Context, id string) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getSessionCalls++
	if errs := p.sessionErrs[id]; len(errs) > 0 {
		p.sessionErrs[id] = errs[1:]
		return nil, errs[0]
	}
	session, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such checkout session: %s", payment.ErrNotFound, id)
	}
	cp := *session
	return &cp, nil
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, params payment.CustomerParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customers = append(p.customers, params)
	return fmt.Sprintf("cus_%d", len(p.customers)), nil
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkouts = append(p.checkouts, params)
	id := fmt.Sprintf("cs_%d", len(p.checkouts))
	return &payment.CheckoutSession{
		Id:         id,
		Mode:       payment.CheckoutModeSubscription,
		URL:        "https://checkout.example.com/" + id,
		CustomerId: params.CustomerId,
	}, nil
}

// --- Collaborators ---

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

type fakeMailer struct {
	mu        sync.Mutex
	failAll   bool
	failTimes int
	attempts  int
	sent      []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, recipient, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failAll || m.failTimes > 0 {
		if m.failTimes > 0 {
			m.failTimes--
		}
		return errors.New("smtp: 421 service not available")
	}
	m.sent = append(m.sent, sentMail{Recipient: recipient, Subject: subject, Body: html})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type countingKicker struct {
	mu    sync.Mutex
	kicks int
}

func (k *countingKicker) Kick(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kicks++
}

func (k *countingKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kicks
}

type fakePublisher struct {
	mu        sync.Mutex
	failTypes map[string]bool
	published []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTypes[event.EventType()] {
		return errors.New("nats: no responders available for request")
	}
	p.published = append(p.published, event)
	return nil
}

// --- Harness ---

type testHarness struct {
	clock      clockwork.FakeClock
	store      *fakeStore
	provider   *fakeProvider
	mailer     *fakeMailer
	kicker     *countingKicker
	roles      *RoleMapper
	queue      INotificationQueueService
	reconciler IReconcilerService
	log        logger.ILogger
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// fastRetrier keeps the production attempt count with a negligible backoff.
func fastRetrier() *retry.Retrier {
	return retry.New(clockwork.NewRealClock(), retry.Policy{Attempts: 3, Step: time.Millisecond})
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	store := newFakeStore(clock)
	provider := newFakeProvider()
	mail := &fakeMailer{}
	kicker := &countingKicker{}
	log := logger.NewNopLogger()
	roles := NewRoleMapper(testPrices)

	renderer, err := NewNotificationRenderer("Stellar Learning", "https://app.example.com")
	require.NoError(t, err)

	queue := NewNotificationQueueService(store, renderer, mail, kicker, clock, log, NotificationQueueOptions{BatchSize: 10})
	reconciler := NewReconcilerService(store, provider, roles, queue, fastRetrier(), clock, log, time.Second)

	return &testHarness{
		clock:      clock,
		store:      store,
		provider:   provider,
		mailer:     mail,
		kicker:     kicker,
		roles:      roles,
		queue:      queue,
		reconciler: reconciler,
		log:        log,
	}
}

func (h *testHarness) newAccount(role entity.Role) *entity.Account {
	id := uuid.New()
	return h.store.addAccount(&entity.Account{
		Id:                 id,
		Email:              "user-" + id.String()[:8] + "@example.com",
		FullName:           "Test User",
		Role:               role,
		SubscriptionStatus: entity.AccountSubscriptionNone,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	})
}

func (h *testHarness) activeSubscription(id string, account *entity.Account, priceId string) *payment.Subscription {
	sub := &payment.Subscription{
		Id:                 id,
		CustomerId:         "cus_" + account.Id.String()[:8],
		Status:             "active",
		PriceId:            priceId,
		Interval:           "month",
		Metadata:           map[string]string{payment.MetadataAccountId: account.Id.String()},
		CurrentPeriodStart: testNow,
		CurrentPeriodEnd:   testNow.AddDate(0, 1, 0),
	}
	h.provider.putSubscription(sub)
	return sub
}

// enqueue adds item to q and reports whether it was new.
func enqueue(t *testing.T, ctx context.Context, q INotificationQueueService, item *entity.NotificationQueueItem) bool {
	t.Helper()
	inserted, err := q.Enqueue(ctx, item)
	require.NoError(t, err)
	return inserted
}
