package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribeNamespace(t *testing.T) {
	b := New()

	msgCh, unsubMsg := b.Subscribe("message.", 10)
	defer unsubMsg()
	allCh, unsubAll := b.Subscribe("", 10)
	defer unsubAll()

	b.Publish(Event{Kind: KindMessageCreated, Timestamp: time.Now()})
	b.Publish(Event{Kind: KindReady, Timestamp: time.Now()})

	select {
	case evt := <-msgCh:
		if evt.Kind != KindMessageCreated {
			t.Errorf("message subscriber got %q, want %q", evt.Kind, KindMessageCreated)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message event")
	}

	select {
	case evt := <-msgCh:
		t.Errorf("message subscriber got unexpected %q", evt.Kind)
	default:
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-allCh:
			got[evt.Kind] = true
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for wildcard events")
		}
	}
	if !got[KindMessageCreated] || !got[KindReady] {
		t.Errorf("wildcard subscriber got %v, want both kinds", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe("session.", 10)
	unsub()

	b.Publish(Event{Kind: KindReady, Timestamp: time.Now()})

	select {
	case evt := <-ch:
		t.Errorf("got event %q after unsubscribe", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe("message.", 1)
	defer unsub()

	// Second publish must not block even though the buffer is full.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Kind: KindMessageCreated})
		b.Publish(Event{Kind: KindMessageReceived})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}

	evt := <-ch
	if evt.Kind != KindMessageCreated {
		t.Errorf("kept event = %q, want first published", evt.Kind)
	}
}
