package bus

import (
	"sync"
	"testing"
	"time"

	"iotcore/value"
	"iotcore/wpool"
)

func TestSyncPublishDeliversToMatchedSubscriber(t *testing.T) {
	b := New(nil, nil, 0, nil)
	topic := b.NewTopic("sensors/temp", nil, false)

	var got *value.Value
	var wg sync.WaitGroup
	wg.Add(1)
	b.NewSubscriber("sensors/+", func(data *value.Value, self interface{}, topicName string) {
		got = data
		wg.Done()
	}, nil)

	pub := b.NewPublisher(topic, nil, nil)
	b.Publish(pub, value.NewInt32(42), true)
	wg.Wait()

	if got == nil || got.IntValue() != 42 {
		t.Fatalf("expected subscriber to receive 42, got %v", got)
	}
}

func TestSubscriberDoesNotReceiveOwnPublisherEvents(t *testing.T) {
	b := New(nil, nil, 0, nil)
	self := &struct{}{}
	topic := b.NewTopic("loopback", nil, false)

	called := false
	b.NewSubscriber("loopback", func(data *value.Value, s interface{}, topicName string) {
		called = true
	}, self)

	pub := b.NewPublisher(topic, nil, self)
	b.Publish(pub, value.NewInt32(1), true)

	if called {
		t.Fatalf("expected subscriber to not receive its own publisher's events")
	}
}

func TestRetainedPullReturnsLatestOnce(t *testing.T) {
	b := New(nil, nil, 0, nil)
	topic := b.NewTopic("config", nil, true)
	sub := b.NewSubscriber("config", func(*value.Value, interface{}, string) {}, nil)

	pub := b.NewPublisher(topic, nil, nil)
	b.Publish(pub, value.NewInt32(7), true)

	v := sub.Pull()
	if v == nil || v.IntValue() != 7 {
		t.Fatalf("expected pull to return retained value 7, got %v", v)
	}
	if sub.Pull() != nil {
		t.Fatalf("expected second pull with no new publish to return nil")
	}
}

func TestAsyncPublishWithoutPoolStopsDelivery(t *testing.T) {
	b := New(nil, nil, 0, nil)
	topic := b.NewTopic("noasync", nil, false)

	called := false
	b.NewSubscriber("noasync", func(*value.Value, interface{}, string) {
		called = true
	}, nil)
	pub := b.NewPublisher(topic, nil, nil)
	b.Publish(pub, value.NewInt32(1), false)

	if called {
		t.Fatalf("expected async publish with no pool attached to never invoke the callback")
	}
}

func TestAsyncPublishWithPoolDelivers(t *testing.T) {
	pool := wpool.New(2, 4)
	defer pool.Shutdown()

	b := New(pool, nil, 0, nil)
	topic := b.NewTopic("asyncok", nil, false)

	done := make(chan int64, 1)
	b.NewSubscriber("asyncok", func(data *value.Value, self interface{}, topicName string) {
		done <- data.IntValue()
	}, nil)
	pub := b.NewPublisher(topic, nil, nil)
	b.Publish(pub, value.NewInt32(99), false)

	select {
	case v := <-done:
		if v != 99 {
			t.Fatalf("expected async delivery of 99, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for async delivery")
	}
}

func TestSubscriberMatchesOrderedByPriorityDescending(t *testing.T) {
	b := New(nil, nil, 0, nil)
	low, high := 1, 10
	b.NewTopic("low", &low, false)
	b.NewTopic("high", &high, false)
	b.NewTopic("none", nil, false)

	sub := b.NewSubscriber("+", func(*value.Value, interface{}, string) {}, nil)
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.matches) != 3 {
		t.Fatalf("expected 3 matched topics, got %d", len(sub.matches))
	}
	if sub.matches[0].topic.Name != "high" || sub.matches[2].topic.Name != "none" {
		t.Fatalf("expected order [high, low, none], got [%s, %s, %s]",
			sub.matches[0].topic.Name, sub.matches[1].topic.Name, sub.matches[2].topic.Name)
	}
}
