// Package services orchestrates the subscription store with its side
// effects: change events, metrics and derived-view caches.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/query"
	"subtrack/internal/subscriptions"
)

// EventPublisher delivers change events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e *amqp.SubscriptionEvent) error
	Close() error
}

type Option func(*SubscriptionService)

func WithPublisher(p EventPublisher) Option {
	return func(s *SubscriptionService) { s.publisher = p }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *SubscriptionService) { s.metrics = m }
}

// WithDashboardCache caches Dashboard results. The cache is registered with
// manager, when non-nil, so the manager sweeps it and purges it on change.
func WithDashboardCache(c *cache.LRUCache[query.Summary], manager *cache.Manager) Option {
	return func(s *SubscriptionService) {
		s.dashboard = c
		s.caches = manager
		if manager != nil {
			manager.Register(c)
		}
	}
}

// WithCleanup runs fn from Close, typically to release the storage backend.
func WithCleanup(fn func() error) Option {
	return func(s *SubscriptionService) { s.cleanup = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *SubscriptionService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *SubscriptionService) { s.logger = l.WithComponent(log.ComponentSubscriptions) }
}

// SubscriptionService persists first and notifies second: once the store
// accepts a mutation the call succeeds, even if the event cannot be
// published.
type SubscriptionService struct {
	store     *subscriptions.Store
	publisher EventPublisher
	metrics   *metrics.Collector
	dashboard *cache.LRUCache[query.Summary]
	caches    *cache.Manager
	cleanup   func() error
	now       func() time.Time
	logger    *log.Logger
}

func NewSubscriptionService(store *subscriptions.Store, opts ...Option) *SubscriptionService {
	s := &SubscriptionService{
		store:  store,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads persisted state into the store.
func (s *SubscriptionService) Load(ctx context.Context) error {
	start := time.Now()
	err := s.store.Load(ctx)
	s.metrics.RecordOperation(log.OpLoad, err, time.Since(start))
	if err == nil {
		s.metrics.SetSubscriptions(len(s.store.List()))
	}
	return err
}

// Now returns the service clock's current time.
func (s *SubscriptionService) Now() time.Time {
	return s.now()
}

// List returns the records matching c, in store order.
func (s *SubscriptionService) List(c query.Criteria) []core.Subscription {
	return query.Filter(s.store.List(), c, s.now())
}

func (s *SubscriptionService) Get(id string) (core.Subscription, error) {
	return s.store.Get(id)
}

func (s *SubscriptionService) Create(ctx context.Context, in core.CreateInput) (core.Subscription, error) {
	start := time.Now()
	sub, err := s.store.Create(ctx, in)
	s.metrics.RecordOperation(log.OpCreate, err, time.Since(start))
	if err != nil {
		return core.Subscription{}, err
	}
	s.afterMutation(ctx, amqp.EventCreated, log.OpCreate, &sub)
	return sub, nil
}

func (s *SubscriptionService) Update(ctx context.Context, id string, in core.UpdateInput) (core.Subscription, error) {
	start := time.Now()
	sub, err := s.store.Update(ctx, id, in)
	s.metrics.RecordOperation(log.OpUpdate, err, time.Since(start))
	if err != nil {
		return core.Subscription{}, err
	}
	s.afterMutation(ctx, amqp.EventUpdated, log.OpUpdate, &sub)
	return sub, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	// Fetched only to describe the record in the change log.
	sub, lookupErr := s.store.Get(id)
	err := s.store.Delete(ctx, id)
	s.metrics.RecordOperation(log.OpDelete, err, time.Since(start))
	if err != nil {
		return err
	}
	if lookupErr != nil {
		sub = core.Subscription{ID: id}
	}
	s.afterMutation(ctx, amqp.EventDeleted, log.OpDelete, &sub)
	return nil
}

func (s *SubscriptionService) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.store.Clear(ctx)
	s.metrics.RecordOperation(log.OpClear, err, time.Since(start))
	if err != nil {
		return err
	}
	s.afterMutation(ctx, amqp.EventCleared, log.OpClear, nil)
	return nil
}

// afterMutation runs the side effects of a committed change. sub is nil for
// operations on the whole list.
func (s *SubscriptionService) afterMutation(ctx context.Context, t amqp.EventType, op string, sub *core.Subscription) {
	var id string
	sl := log.NewStructuredLogger(s.logger)
	if sub != nil {
		id = sub.ID
		var renew string
		if !sub.RenewDate.IsZero() {
			renew = sub.RenewDate.String()
		}
		sl.LogSubscriptionChanged(ctx, op, sub.ID, sub.Name, sub.Price.Float(), sub.Category, renew)
	} else {
		sl.LogSubscriptionChanged(ctx, op, "", "", 0, "", "")
	}

	s.metrics.SetSubscriptions(len(s.store.List()))
	if s.caches != nil {
		s.caches.InvalidateAll()
	} else if s.dashboard != nil {
		s.dashboard.Purge()
	}

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, amqp.NewSubscriptionEvent(t, id))
	s.metrics.RecordEvent(string(t), err)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish subscription event",
			log.FieldOperation, log.OpPublish,
			log.FieldSubID, id,
			log.FieldEventType, t,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

// Dashboard summarizes every record. Results are cached per calendar day
// until the cache entry expires or a mutation purges it.
func (s *SubscriptionService) Dashboard() query.Summary {
	now := s.now()
	if s.dashboard == nil {
		return query.Summarize(s.store.List(), now)
	}

	key := now.Format(core.DateLayout)
	// Read the generation before the records: a mutation that lands in
	// between purges the cache and this summary must not be stored.
	gen := s.dashboard.Generation()
	if sum, ok := s.dashboard.Get(key); ok {
		s.metrics.RecordCacheLookup(true)
		return sum
	}
	s.metrics.RecordCacheLookup(false)

	sum := query.Summarize(s.store.List(), now)
	s.dashboard.SetIfGeneration(key, sum, gen)
	return sum
}

// ExportCSV renders the records matching c and returns the download name.
// core.ErrEmptyExport is returned when nothing matches.
func (s *SubscriptionService) ExportCSV(c query.Criteria) ([]byte, string, error) {
	start := time.Now()
	now := s.now()
	data, err := export.ToCSV(query.Filter(s.store.List(), c, now))
	s.recordExport(err, start)
	if err != nil {
		return nil, "", err
	}
	return data, export.CSVFileName(now), nil
}

// Document renders the printable HTML page for one record.
func (s *SubscriptionService) Document(id string) ([]byte, error) {
	sub, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return export.ToPrintableDocument(sub, s.now())
}

// PDF renders one record as a PDF and returns the download name.
func (s *SubscriptionService) PDF(id string) ([]byte, string, error) {
	sub, err := s.store.Get(id)
	if err != nil {
		return nil, "", err
	}
	start := time.Now()
	now := s.now()
	data, err := export.ToPDF(sub, now)
	s.recordExport(err, start)
	if err != nil {
		return nil, "", err
	}
	return data, export.PDFFileName(sub, now), nil
}

// recordExport counts an export. Nothing to export is not a failure.
func (s *SubscriptionService) recordExport(err error, start time.Time) {
	if errors.Is(err, core.ErrEmptyExport) {
		err = nil
	}
	s.metrics.RecordOperation(log.OpExport, err, time.Since(start))
}

// Close releases the publisher and then the storage backend.
func (s *SubscriptionService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if s.cleanup != nil {
		if err := s.cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close subscription service: %w", errors.Join(errs...))
	}
	return nil
}
