// Package bus implements the in-process publish/subscribe broker:
// topics, publishers, subscribers, MQTT-style wildcard matching, retained
// last-value pull, synchronous and pool-dispatched asynchronous delivery,
// and scheduler-driven publishers (spec.md §4.5).
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"iotcore/value"
	"iotcore/wpool"
)

// Callback is invoked on delivery with the published data (a borrowed
// reference good only for the callback's duration unless add_ref'd), the
// subscriber's opaque self value, and the topic name.
type Callback func(data *value.Value, self interface{}, topicName string)

// PublishCallback produces the payload for a scheduled publisher tick; a
// nil return skips that tick's publish (spec.md §4.5 "Scheduled publishers").
type PublishCallback func() *value.Value

// Scheduler is the minimal contract the bus needs to drive scheduled
// publishers, satisfied by *scheduler.Scheduler without bus importing it
// directly — this keeps the dependency direction scheduler→nothing,
// bus→(wpool, value), matching spec.md's layering.
type Scheduler interface {
	CreateRepeating(fn func(), periodNanos uint64, priority int) (id uint64, err error)
	RemoveSchedule(id uint64)
}

type subMatch struct {
	topic         *Topic
	lastSeenCount uint64
}

// Topic is a named channel with optional priority and retained last value
// (spec.md §4.5 "Entities").
type Topic struct {
	Name     string
	Priority *int
	Retain   bool

	mu      sync.Mutex
	counter uint64
	last    *value.Value

	bus     *Bus
	matches []*Subscriber // subscribers currently matched to this topic
}

// Publisher is bound to exactly one topic.
type Publisher struct {
	topic      *Topic
	callback   PublishCallback
	self       interface{}
	scheduleID uint64
	hasSched   bool
	refcount   int32
}

// Subscriber matches against topic name patterns.
type Subscriber struct {
	pattern  string
	callback Callback
	self     interface{}
	refcount int32

	mu      sync.Mutex
	matches []*subMatch // ordered by topic priority descending
}

// Bus is the process-wide broker. A single RWMutex protects its topic,
// publisher and subscriber registries (spec.md §4.5 "A process-wide RW
// lock on the Bus protects its topic, publisher, and subscriber lists").
type Bus struct {
	mu          sync.RWMutex
	topics      map[string]*Topic
	publishers  []*Publisher
	subscribers []*Subscriber

	pool                  wpool.Pool
	scheduler             Scheduler
	defaultPollIntervalNs uint64

	dropCount     uint64
	warnedOnDrop  int32
	log           *logrus.Logger
}

// New creates an empty Bus. pool and sched may be nil; without a pool,
// async publishes stop at the matching step (spec.md §4.5 step 2), and
// without a scheduler, publishers allocated with a callback are never
// auto-scheduled.
func New(pool wpool.Pool, sched Scheduler, defaultPollIntervalNs uint64, log *logrus.Logger) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{
		topics:                make(map[string]*Topic),
		pool:                  pool,
		scheduler:             sched,
		defaultPollIntervalNs: defaultPollIntervalNs,
		log:                   log,
	}
}

// NewTopic registers and returns a new topic, matching it against every
// existing subscriber (spec.md: "On allocation, each new subscriber is
// matched against every existing publisher (and vice versa)").
func (b *Bus) NewTopic(name string, priority *int, retain bool) *Topic {
	t := &Topic{Name: name, Priority: priority, Retain: retain, bus: b}
	b.mu.Lock()
	b.topics[name] = t
	subs := append([]*Subscriber(nil), b.subscribers...)
	b.mu.Unlock()

	for _, s := range subs {
		if topicMatches(s.pattern, name) {
			b.attachMatch(s, t)
		}
	}
	return t
}

// NewPublisher binds a new Publisher to topic. If cb is non-nil and the bus
// has a scheduler attached, a repeating schedule is created that invokes cb
// and publishes its non-nil result synchronously, at the bus's default poll
// interval and the topic's priority if any (spec.md "Scheduled publishers").
func (b *Bus) NewPublisher(t *Topic, cb PublishCallback, self interface{}) *Publisher {
	p := &Publisher{topic: t, callback: cb, self: self, refcount: 1}
	b.mu.Lock()
	b.publishers = append(b.publishers, p)
	b.mu.Unlock()

	if cb != nil && b.scheduler != nil {
		priority := 0
		if t.Priority != nil {
			priority = *t.Priority
		}
		id, err := b.scheduler.CreateRepeating(func() {
			if out := cb(); out != nil {
				b.Publish(p, out, true)
			}
		}, b.defaultPollIntervalNs, priority)
		if err == nil {
			p.scheduleID = id
			p.hasSched = true
		}
	}
	return p
}

// NewSubscriber registers a subscriber against pattern, matching it to
// every existing topic whose name matches and inserting the match in
// priority-descending order.
func (b *Bus) NewSubscriber(pattern string, cb Callback, self interface{}) *Subscriber {
	s := &Subscriber{pattern: pattern, callback: cb, self: self, refcount: 1}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, s)
	var topics []*Topic
	for _, t := range b.topics {
		topics = append(topics, t)
	}
	b.mu.Unlock()

	for _, t := range topics {
		if topicMatches(pattern, t.Name) {
			b.attachMatch(s, t)
		}
	}
	return s
}

// attachMatch links s and t in both directions, inserting into s.matches by
// topic priority descending (topics with no priority rank lowest). t.matches
// is part of the bus-wide registry (bus write lock); s.matches is also
// read/updated by Subscriber.Pull under s.mu, so both locks are held here,
// always in bus-then-subscriber order to avoid deadlock.
func (b *Bus) attachMatch(s *Subscriber, t *Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := false
	m := &subMatch{topic: t}
	for i, existing := range s.matches {
		if priorityOf(t) > priorityOf(existing.topic) {
			s.matches = append(s.matches, nil)
			copy(s.matches[i+1:], s.matches[i:])
			s.matches[i] = m
			inserted = true
			break
		}
	}
	if !inserted {
		s.matches = append(s.matches, m)
	}

	t.matches = append(t.matches, s)
}

func priorityOf(t *Topic) int {
	if t.Priority == nil {
		return -1 << 31
	}
	return *t.Priority
}

// Pull walks sub's matches highest-priority first and returns an add_ref'd
// copy of the first retained topic whose counter has advanced past the
// subscriber's last-seen value, updating that counter. Returns nil
// otherwise (spec.md "Retained-state pull").
func (s *Subscriber) Pull() *value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		t := m.topic
		t.mu.Lock()
		if t.Retain && t.counter > m.lastSeenCount && t.last != nil {
			out := t.last.AddRef()
			m.lastSeenCount = t.counter
			t.mu.Unlock()
			return out
		}
		t.mu.Unlock()
	}
	return nil
}

// Publish delivers data on p's topic, taking ownership of the caller's
// reference (spec.md "Publish"): if the topic retains, last is replaced
// under the topic mutex and the counter bumped; subscribers matched to the
// topic are then invoked synchronously (sync=true, under the bus read
// lock) or asynchronously via the pool (sync=false; silently stops if no
// pool is attached).
func (b *Bus) Publish(p *Publisher, data *value.Value, sync bool) {
	t := p.topic
	if t.Retain {
		t.mu.Lock()
		if t.last != nil {
			t.last.Free()
		}
		t.last = data.AddRef()
		t.counter++
		t.mu.Unlock()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := append([]*Subscriber(nil), t.matches...)

	for _, s := range subs {
		if s.self != nil && s.self == p.self {
			continue // subscribers never receive their own publisher's events
		}
		if sync {
			s.callback(data, s.self, t.Name)
			continue
		}
		if b.pool == nil {
			break
		}
		job := data.AddRef()
		s.AddRef()
		ok := b.pool.TryAddWork(func() {
			s.callback(job, s.self, t.Name)
			job.Free()
			s.Free()
		}, priorityOf(t))
		if !ok {
			job.Free()
			s.Free()
			b.recordDrop()
		}
	}

	data.Free()
}

func (b *Bus) recordDrop() {
	n := atomic.AddUint64(&b.dropCount, 1)
	if n == 1 && atomic.CompareAndSwapInt32(&b.warnedOnDrop, 0, 1) {
		b.log.Warn("bus: worker pool rejected an async delivery; further drops will be counted silently")
	}
}

// DropCount returns the cumulative number of async deliveries the pool has
// rejected, for metrics/introspection.
func (b *Bus) DropCount() uint64 { return atomic.LoadUint64(&b.dropCount) }

// AddRef/Free implement the atomic refcounting the original's publisher
// and subscriber handles use (spec.md §4.5 "atomic refcount").
func (p *Publisher) AddRef() *Publisher { atomic.AddInt32(&p.refcount, 1); return p }
func (s *Subscriber) AddRef() *Subscriber { atomic.AddInt32(&s.refcount, 1); return s }

// Free releases the caller's reference to p; on the last reference it
// detaches p's scheduled entry (if any). The topic and its retained value
// are left in place.
func (p *Publisher) Free(b *Bus) {
	if atomic.AddInt32(&p.refcount, -1) > 0 {
		return
	}
	if p.hasSched && b.scheduler != nil {
		b.scheduler.RemoveSchedule(p.scheduleID)
	}
}

// Free releases the caller's reference to s.
func (s *Subscriber) Free() {
	atomic.AddInt32(&s.refcount, -1)
}

// TopicNames returns every registered topic name, for introspection.
func (b *Bus) TopicNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.topics))
	for name := range b.topics {
		out = append(out, name)
	}
	return out
}

// RetainedTopicCount returns the number of registered topics with Retain
// set, for metrics collection.
func (b *Bus) RetainedTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, t := range b.topics {
		if t.Retain {
			n++
		}
	}
	return n
}
