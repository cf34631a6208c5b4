package queue

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
	block  chan struct{}
}

func (s *recordingSink) Publish(_ context.Context, e domain.OrderEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) snapshot() []domain.OrderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderEvent(nil), s.events...)
}

func TestDispatcher_PreservesPerOrderOrdering(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, sink, zerolog.Nop())
	d.Start(context.Background())

	types := []domain.AuditAction{
		domain.ActionOrderCreated, domain.ActionPaymentConfirmed, domain.ActionOrderAssigned, domain.ActionFilesDelivered,
	}
	for _, typ := range types {
		for id := int64(1); id <= 20; id++ {
			d.Enqueue(domain.OrderEvent{OrderID: id, Type: typ})
		}
	}
	d.Close()

	got := sink.snapshot()
	if len(got) != 80 {
		t.Fatalf("expected 80 events, got %d", len(got))
	}
	seen := map[int64][]domain.AuditAction{}
	for _, e := range got {
		seen[e.OrderID] = append(seen[e.OrderID], e.Type)
	}
	for id, order := range seen {
		for i, typ := range order {
			if typ != types[i] {
				t.Fatalf("order %d: events out of order: %v", id, order)
			}
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingSink{}, zerolog.Nop())
	for id := int64(0); id < 100; id++ {
		a, b := d.shardIndex(id), d.shardIndex(id)
		if a != b || a < 0 || a >= 8 {
			t.Fatalf("shard for %d: %d vs %d", id, a, b)
		}
	}
}

func TestDispatcher_DropsWhenShardFull(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{block: make(chan struct{})}
	d := newDispatcher(1, 1, sink, zerolog.New(&buf))
	d.Start(context.Background())

	// The worker takes the first event and blocks in the sink; the second
	// fills the buffer; the third has nowhere to go.
	d.Enqueue(domain.OrderEvent{OrderID: 1})
	deadline := time.Now().Add(time.Second)
	for len(d.workers[0]) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Enqueue(domain.OrderEvent{OrderID: 2})

	done := make(chan struct{})
	go func() {
		d.Enqueue(domain.OrderEvent{OrderID: 3})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full shard")
	}

	close(sink.block)
	d.Close()

	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("expected 2 published events, got %d", got)
	}
	if !strings.Contains(buf.String(), "lifecycle event dropped") {
		t.Errorf("expected a drop warning, got %q", buf.String())
	}
}

func TestDispatcher_SinkErrorDoesNotStopWorker(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	d := NewDispatcher(1, sink, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(domain.OrderEvent{OrderID: 1})
	d.Enqueue(domain.OrderEvent{OrderID: 2})
	d.Close()

	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("expected both events attempted, got %d", got)
	}
}

func TestDispatcher_EnqueueAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(2, sink, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	d.Enqueue(domain.OrderEvent{OrderID: 1}) // must not panic
	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("expected no events after close, got %d", got)
	}
}

func TestLogSink_Publish(t *testing.T) {
	var buf bytes.Buffer
	staff := int64(3)
	err := LogSink{Log: zerolog.New(&buf)}.Publish(context.Background(), domain.OrderEvent{
		OrderID: 9, Type: domain.ActionOrderAssigned, AssignedTo: &staff, Status: domain.StatusProduction,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"order_id":9`, `"type":"ORDER_ASSIGNED"`, `"assigned_to":3`, `"status":"production"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %s", out, want)
		}
	}
}
