package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/interfaces"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	var delivered int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}

	if err := svc.Subscribe(interfaces.EventFetchCompleted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := svc.Subscribe(interfaces.EventFetchCompleted, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	err := svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventFetchCompleted,
		Payload: "2024-01-15",
	})
	if err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}

	if got := atomic.LoadInt32(&delivered); got != 2 {
		t.Errorf("expected 2 deliveries, got %d", got)
	}
}

func TestPublishAsyncDelivers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	done := make(chan interfaces.Event, 1)
	err := svc.Subscribe(interfaces.EventReportGenerated, func(ctx context.Context, event interfaces.Event) error {
		done <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventReportGenerated, Payload: 42}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case event := <-done:
		if event.Payload != 42 {
			t.Errorf("unexpected payload: %v", event.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	var delivered int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}

	if err := svc.Subscribe(interfaces.EventPipelineError, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := svc.Unsubscribe(interfaces.EventPipelineError, handler); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	if err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventPipelineError}); err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}

	if got := atomic.LoadInt32(&delivered); got != 0 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", got)
	}
}

func TestPublishSyncReportsHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	err := svc.Subscribe(interfaces.EventAnalysisProgress, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("handler exploded")
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAnalysisProgress}); err == nil {
		t.Fatal("expected an error from a failing handler")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	if err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventFetchCompleted}); err != nil {
		t.Errorf("Publish without subscribers should succeed, got %v", err)
	}
}
