package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"subtrack/internal/amqp"
	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/query"
	"subtrack/internal/storage/memory"
	"subtrack/internal/subscriptions"
)

type fakePublisher struct {
	mu       sync.Mutex
	events   []amqp.SubscriptionEvent
	fail     bool
	closed   bool
	closeErr error
}

func (p *fakePublisher) Publish(_ context.Context, e *amqp.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, *e)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return p.closeErr
}

func (p *fakePublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var fixedNow = time.Date(2025, 7, 27, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*SubscriptionService, *fakePublisher, *metrics.Collector) {
	t.Helper()
	pub := &fakePublisher{}
	m := metrics.New()
	store := subscriptions.New(memory.New(), subscriptions.WithLogger(log.Discard()))
	opts = append([]Option{
		WithPublisher(pub),
		WithMetrics(m),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	s := NewSubscriptionService(store, opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, pub, m
}

func input(name string) core.CreateInput {
	return core.CreateInput{
		Name:      name,
		Price:     "1200",
		RenewDate: "2025-08-01",
		Category:  "Entertainment",
	}
}

func TestServicePublishesAfterEachMutation(t *testing.T) {
	s, pub, m := newTestService(t)
	ctx := context.Background()

	sub, err := s.Create(ctx, input("Netflix"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := "Netflix Premium"
	if _, err := s.Update(ctx, sub.ID, core.UpdateInput{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted, amqp.EventCleared}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if pub.events[0].ID != sub.ID || pub.events[3].ID != "" {
		t.Errorf("event ids = %q, %q", pub.events[0].ID, pub.events[3].ID)
	}
	if n := testutil.ToFloat64(m.Operations.WithLabelValues(log.OpCreate, metrics.StatusOK)); n != 1 {
		t.Errorf("create ok count = %v, want 1", n)
	}
}

func TestServiceFailedMutationPublishesNothing(t *testing.T) {
	s, pub, m := newTestService(t)
	ctx := context.Background()

	bad := input("Netflix")
	bad.Price = "-5"
	var verr *core.ValidationError
	if _, err := s.Create(ctx, bad); !errors.As(err, &verr) || verr.Field != "price" {
		t.Fatalf("err = %v, want price ValidationError", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if len(pub.types()) != 0 {
		t.Errorf("events published for failed mutations: %v", pub.types())
	}
	if n := testutil.ToFloat64(m.Operations.WithLabelValues(log.OpCreate, metrics.StatusError)); n != 1 {
		t.Errorf("create error count = %v, want 1", n)
	}
}

func TestServicePublishFailureDoesNotFailMutation(t *testing.T) {
	s, pub, m := newTestService(t)
	pub.fail = true

	sub, err := s.Create(context.Background(), input("Netflix"))
	if err != nil {
		t.Fatalf("create should succeed when publishing fails: %v", err)
	}
	if _, err := s.Get(sub.ID); err != nil {
		t.Errorf("record not stored: %v", err)
	}
	if n := testutil.ToFloat64(m.EventsPublished.WithLabelValues("created", metrics.StatusError)); n != 1 {
		t.Errorf("failed event count = %v, want 1", n)
	}
}

func TestServiceDashboardCacheInvalidatedOnMutation(t *testing.T) {
	manager := cache.NewManager(nil)
	dash := cache.NewLRUCache[query.Summary](4, time.Hour)
	s, _, m := newTestService(t, WithDashboardCache(dash, manager))
	ctx := context.Background()

	if got := s.Dashboard(); got.Count != 0 {
		t.Fatalf("Count = %d, want 0", got.Count)
	}
	if got := s.Dashboard(); got.Count != 0 {
		t.Fatalf("cached Count = %d, want 0", got.Count)
	}
	if hits := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); hits != 1 {
		t.Errorf("cache hits = %v, want 1", hits)
	}

	if _, err := s.Create(ctx, input("Netflix")); err != nil {
		t.Fatalf("create: %v", err)
	}
	got := s.Dashboard()
	if got.Count != 1 || got.Total != 1200 {
		t.Fatalf("dashboard after create = %+v", got)
	}
	if len(got.NextRenewals) != 1 || got.NextRenewals[0].Countdown != "in 5 days" {
		t.Errorf("NextRenewals = %+v", got.NextRenewals)
	}
}

func TestServiceDashboardConsistentUnderConcurrentWrites(t *testing.T) {
	manager := cache.NewManager(nil)
	dash := cache.NewLRUCache[query.Summary](4, time.Hour)
	s, _, _ := newTestService(t, WithDashboardCache(dash, manager))
	ctx := context.Background()

	const writers, readers, perWriter = 4, 4, 25
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					s.Dashboard()
				}
			}
		}()
	}

	var writeWG sync.WaitGroup
	for i := 0; i < writers; i++ {
		writeWG.Add(1)
		go func() {
			defer writeWG.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := s.Create(ctx, input("Netflix")); err != nil {
					t.Errorf("create: %v", err)
					return
				}
			}
		}()
	}
	writeWG.Wait()
	close(done)
	wg.Wait()

	want := len(s.List(query.Criteria{}))
	if want != writers*perWriter {
		t.Fatalf("stored %d records, want %d", want, writers*perWriter)
	}
	if got := s.Dashboard().Count; got != want {
		t.Errorf("dashboard Count = %d after writes settled, want %d", got, want)
	}
}

func TestServiceLogsCommittedChanges(t *testing.T) {
	var logs bytes.Buffer
	s, _, _ := newTestService(t, WithLogger(log.New(log.Config{Output: &logs})))
	ctx := context.Background()

	sub, err := s.Create(ctx, input("Netflix"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, core.CreateInput{Name: "Bad", Price: "-5", RenewDate: "2025-08-01"}); err == nil {
		t.Fatal("negative price accepted")
	}
	if err := s.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want one line per committed change, got %d:\n%s", len(lines), logs.String())
	}
	for i, want := range []string{"operation=create", "operation=delete", "operation=clear"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %s, want %s", i, lines[i], want)
		}
	}
	for _, line := range lines[:2] {
		if !strings.Contains(line, "subscription_id="+sub.ID) || !strings.Contains(line, "subscription_name=Netflix") {
			t.Errorf("record fields missing: %s", line)
		}
	}
	if strings.Contains(lines[2], "subscription_id") {
		t.Errorf("clear names a record: %s", lines[2])
	}
}

func TestServiceListAndExport(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := s.ExportCSV(query.Criteria{}); !errors.Is(err, core.ErrEmptyExport) {
		t.Fatalf("empty export err = %v", err)
	}

	for _, name := range []string{"Netflix", "Spotify"} {
		if _, err := s.Create(ctx, input(name)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if got := s.List(query.Criteria{Name: "spot"}); len(got) != 1 || got[0].Name != "Spotify" {
		t.Errorf("List(spot) = %+v", got)
	}

	data, name, err := s.ExportCSV(query.Criteria{Name: "net"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "subscriptions-2025-07-27.csv" {
		t.Errorf("file name = %q", name)
	}
	want := "Name,Price,Category,Status,Renew Date\nNetflix,₦1,200,Entertainment,active,2025-08-01"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}
}

func TestServiceDocuments(t *testing.T) {
	s, _, _ := newTestService(t)
	sub, err := s.Create(context.Background(), input("Netflix"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	html, err := s.Document(sub.ID)
	if err != nil || !strings.Contains(string(html), "Netflix") {
		t.Fatalf("Document = %v", err)
	}

	pdf, name, err := s.PDF(sub.ID)
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) || name != "Netflix-subscription-2025-07-27.pdf" {
		t.Errorf("PDF name = %q", name)
	}

	if _, err := s.Document("missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Document(missing) err = %v", err)
	}
}

func TestServiceClose(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		s := NewSubscriptionService(subscriptions.New(memory.New()))
		if err := s.Close(); err != nil {
			t.Fatalf("Close should not fail with nil components: %v", err)
		}
	})

	t.Run("aggregates errors", func(t *testing.T) {
		storageErr := errors.New("db busy")
		s, pub, _ := newTestService(t, WithCleanup(func() error { return storageErr }))
		pub.closeErr = errors.New("channel closed")

		err := s.Close()
		if !errors.Is(err, storageErr) || !errors.Is(err, pub.closeErr) {
			t.Fatalf("Close() = %v, want both errors", err)
		}
		if !pub.closed {
			t.Error("publisher not closed")
		}
	})
}
