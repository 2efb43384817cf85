// Package scheduler implements priority-ordered timed dispatch of
// callbacks onto a worker pool: a single timer goroutine tracks schedules
// keyed by unique id (idle) and by absolute next-fire nanoseconds (queue),
// translated from original_source/src/c/scheduler.c's wait-loop design
// (spec.md §4.4).
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"iotcore/rbtree"
	"iotcore/wpool"
	"iotcore/xtime"
)

func uint64Compare(a, b interface{}) int {
	au, bu := a.(uint64), b.(uint64)
	switch {
	case au < bu:
		return -1
	case au > bu:
		return 1
	default:
		return 0
	}
}

// state mirrors the component lifecycle state machine the scheduler's
// goroutine observes (spec.md §4.4 "Loop").
type state int32

const (
	stateStopped state = iota
	stateRunning
	stateDeleted
)

// Schedule is one scheduled callback (spec.md §4.4 "Schedule state").
type Schedule struct {
	id       uint64
	fn       func()
	runCB    func()
	abortCB  func()
	priority int
	periodNs uint64
	startNs  uint64
	repeat   uint64 // 0 == infinite
	scheduled bool
	concurrent bool
	dropped  uint64
	refcount int32
	running  int32 // count of in-flight (non-concurrent guard)
}

// Scheduler owns idle/queue registries and a single dispatch goroutine.
type Scheduler struct {
	mu    sync.Mutex
	idle  *rbtree.Tree // keyed by schedule id
	queue *rbtree.Tree // keyed by absolute start_ns, +1ns-disambiguated

	pool    wpool.Pool
	log     *logrus.Logger
	state   int32
	wakeCh  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	nextID  uint64

	warnedOnDrop int32
}

// New creates a Scheduler dispatching onto pool (may be nil, in which case
// due schedules run in a freshly spawned goroutine per spec.md "or start a
// new thread if no pool is attached"). The dispatch loop starts immediately
// in state Running.
func New(pool wpool.Pool, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{
		idle:   rbtree.New(uint64Compare),
		queue:  rbtree.New(uint64Compare),
		pool:   pool,
		log:    log,
		state:  int32(stateRunning),
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Create allocates a Schedule placed in idle with start = now + delay
// (spec.md "create"). repeat of 0 means run forever.
func (s *Scheduler) Create(fn func(), runCB, abortCB func(), delay, period time.Duration, repeat uint64, priority int, concurrent bool) *Schedule {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	sc := &Schedule{
		id:         id,
		fn:         fn,
		runCB:      runCB,
		abortCB:    abortCB,
		priority:   priority,
		periodNs:   uint64(period.Nanoseconds()),
		startNs:    xtime.NowNanos() + uint64(delay.Nanoseconds()),
		repeat:     repeat,
		concurrent: concurrent,
		refcount:   1,
	}
	s.mu.Lock()
	s.idle.Insert(sc.id, sc)
	s.mu.Unlock()
	return sc
}

// CreateRepeating is a convenience used by bus.Scheduler-shaped callers: it
// creates and immediately adds an infinitely repeating schedule at the
// given period, returning its id.
func (s *Scheduler) CreateRepeating(fn func(), periodNanos uint64, priority int) (uint64, error) {
	sc := s.Create(fn, nil, nil, 0, time.Duration(periodNanos), 0, priority, true)
	s.Add(sc)
	return sc.id, nil
}

// RemoveSchedule removes and deletes the schedule with the given id, if
// still present. Satisfies bus.Scheduler.
func (s *Scheduler) RemoveSchedule(id uint64) {
	s.mu.Lock()
	var sc *Schedule
	if v, ok := s.idle.Get(id); ok {
		sc = v.(*Schedule)
	} else {
		s.queue.Walk(func(n *rbtree.Node) bool {
			if c := n.Value.(*Schedule); c.id == id {
				sc = c
				return false
			}
			return true
		})
	}
	s.mu.Unlock()
	if sc == nil {
		return
	}
	s.Remove(sc)
	s.Delete(sc)
}

func (s *Scheduler) queueKeyFor(sc *Schedule) uint64 {
	key := sc.startNs
	for {
		if _, exists := s.queue.Get(key); !exists {
			return key
		}
		key++
	}
}

// Add moves sc from idle into the queue, returning false if it is already
// scheduled. If sc becomes the new queue head, the dispatch goroutine is
// woken so it can recompute its wait deadline (spec.md "add").
func (s *Scheduler) Add(sc *Schedule) bool {
	s.mu.Lock()
	if sc.scheduled {
		s.mu.Unlock()
		return false
	}
	s.idle.Remove(sc.id)
	key := s.queueKeyFor(sc)
	s.queue.Insert(key, sc)
	sc.scheduled = true
	wasHead := s.queue.Min() != nil && s.queue.Min().Value.(*Schedule) == sc
	s.mu.Unlock()

	if wasHead {
		s.wake()
	}
	return true
}

// Remove moves sc back into idle.
func (s *Scheduler) Remove(sc *Schedule) {
	s.mu.Lock()
	if sc.scheduled {
		s.removeFromQueueLocked(sc)
		s.idle.Insert(sc.id, sc)
		sc.scheduled = false
	}
	s.mu.Unlock()
}

func (s *Scheduler) removeFromQueueLocked(sc *Schedule) {
	s.queue.Walk(func(n *rbtree.Node) bool {
		if n.Value.(*Schedule) == sc {
			s.queue.Remove(n.Key)
			return false
		}
		return true
	})
}

// Reset recomputes sc's start as now + period + delay (spec.md "reset").
func (s *Scheduler) Reset(sc *Schedule, delay time.Duration) {
	s.mu.Lock()
	wasQueued := sc.scheduled
	if wasQueued {
		s.removeFromQueueLocked(sc)
	}
	sc.startNs = xtime.NowNanos() + sc.periodNs + uint64(delay.Nanoseconds())
	if wasQueued {
		key := s.queueKeyFor(sc)
		s.queue.Insert(key, sc)
	}
	s.mu.Unlock()
	s.wake()
}

// Delete detaches sc from whichever registry holds it and releases the
// caller's reference, freeing it on the last reference (spec.md "delete").
func (s *Scheduler) Delete(sc *Schedule) {
	if atomic.AddInt32(&sc.refcount, -1) > 0 {
		return
	}
	s.mu.Lock()
	if sc.scheduled {
		s.removeFromQueueLocked(sc)
	} else {
		s.idle.Remove(sc.id)
	}
	s.mu.Unlock()
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Stop transitions the scheduler to Stopped, waking the dispatch loop.
func (s *Scheduler) Stop() {
	atomic.StoreInt32(&s.state, int32(stateStopped))
	s.wake()
}

// Shutdown transitions to Deleted, terminating the dispatch goroutine, and
// blocks until it has exited.
func (s *Scheduler) Shutdown() {
	atomic.StoreInt32(&s.state, int32(stateDeleted))
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	for {
		if state(atomic.LoadInt32(&s.state)) == stateDeleted {
			return
		}
		wait := s.nextWait()
		select {
		case <-s.stopCh:
			return
		case <-s.wakeCh:
			continue
		case <-time.After(wait):
		}
		if state(atomic.LoadInt32(&s.state)) != stateRunning {
			continue
		}
		s.tick()
	}
}

func (s *Scheduler) nextWait() time.Duration {
	s.mu.Lock()
	head := s.queue.Min()
	s.mu.Unlock()
	if head == nil {
		return 24 * time.Hour
	}
	sc := head.Value.(*Schedule)
	now := xtime.NowNanos()
	if sc.startNs <= now {
		return 0
	}
	return time.Duration(sc.startNs - now)
}

// tick dispatches every due schedule at the queue head, advancing as it
// goes, per spec.md §4.4 step 4.
func (s *Scheduler) tick() {
	for {
		s.mu.Lock()
		head := s.queue.Min()
		if head == nil {
			s.mu.Unlock()
			return
		}
		sc := head.Value.(*Schedule)
		now := xtime.NowNanos()
		if sc.startNs > now {
			s.mu.Unlock()
			return
		}
		s.queue.Remove(head.Key)
		s.mu.Unlock()

		s.dispatch(sc)

		s.mu.Lock()
		next := now + sc.periodNs
		done := false
		if sc.repeat > 0 {
			sc.repeat--
			if sc.repeat == 0 {
				sc.scheduled = false
				s.idle.Insert(sc.id, sc)
				done = true
			}
		}
		if !done {
			sc.startNs = next
			key := s.queueKeyFor(sc)
			s.queue.Insert(key, sc)
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) dispatch(sc *Schedule) {
	if !sc.concurrent && atomic.LoadInt32(&sc.running) > 0 {
		return // skip this tick; still reschedules in tick()
	}
	if sc.runCB != nil {
		sc.runCB()
	}
	atomic.AddInt32(&sc.running, 1)
	run := func() {
		sc.fn()
		atomic.AddInt32(&sc.running, -1)
	}

	var accepted bool
	if s.pool != nil {
		accepted = s.pool.TryAddWork(run, sc.priority)
	} else {
		go run()
		accepted = true
	}
	if !accepted {
		atomic.AddInt32(&sc.running, -1)
		if sc.abortCB != nil {
			sc.abortCB()
		}
		n := atomic.AddUint64(&sc.dropped, 1)
		if n == 1 && atomic.CompareAndSwapInt32(&s.warnedOnDrop, 0, 1) {
			s.log.Warnf("scheduler: pool rejected schedule %d; further drops counted silently", sc.id)
		}
	}
}

// DroppedCount returns the number of times this schedule's dispatch was
// rejected by the pool.
func (sc *Schedule) DroppedCount() uint64 { return atomic.LoadUint64(&sc.dropped) }

// ID returns the schedule's unique identifier.
func (sc *Schedule) ID() uint64 { return sc.id }

// QueueDepth reports the number of schedules currently due or pending
// dispatch. Exposed for metrics collection (spec.md's "scheduler queue
// depth" gauge).
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Size()
}

// IdleCount reports the number of schedules currently idle (not queued).
func (s *Scheduler) IdleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle.Size()
}
