package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCreateAddRunsOnce(t *testing.T) {
	s := New(nil, nil)
	defer s.Shutdown()

	var n int32
	done := make(chan struct{})
	sc := s.Create(func() {
		atomic.AddInt32(&n, 1)
		close(done)
	}, nil, nil, 0, 0, 1, 0, true)

	if !s.Add(sc) {
		t.Fatalf("expected Add on a fresh idle schedule to succeed")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for schedule to fire")
	}
	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("expected exactly one run, got %d", n)
	}
}

func TestAddTwiceReturnsFalse(t *testing.T) {
	s := New(nil, nil)
	defer s.Shutdown()

	sc := s.Create(func() {}, nil, nil, time.Hour, 0, 1, 0, true)
	if !s.Add(sc) {
		t.Fatalf("expected first Add to succeed")
	}
	if s.Add(sc) {
		t.Fatalf("expected second Add on an already-scheduled entry to fail")
	}
}

func TestRepeatingScheduleFiresMultipleTimes(t *testing.T) {
	s := New(nil, nil)
	defer s.Shutdown()

	var n int32
	done := make(chan struct{})
	sc := s.Create(func() {
		if atomic.AddInt32(&n, 1) == 3 {
			close(done)
		}
	}, nil, nil, 0, time.Millisecond, 3, 0, true)
	s.Add(sc)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for 3 runs, got %d", atomic.LoadInt32(&n))
	}
}

func TestRemoveStopsFurtherRuns(t *testing.T) {
	s := New(nil, nil)
	defer s.Shutdown()

	var n int32
	sc := s.Create(func() { atomic.AddInt32(&n, 1) }, nil, nil, time.Hour, time.Hour, 0, 0, true)
	s.Add(sc)
	s.Remove(sc)

	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&n) != 0 {
		t.Fatalf("expected a removed schedule to never fire, ran %d times", n)
	}
}

func TestNonConcurrentScheduleSkipsOverlappingTick(t *testing.T) {
	s := New(nil, nil)
	defer s.Shutdown()

	var starts int32
	release := make(chan struct{})
	sc := s.Create(func() {
		atomic.AddInt32(&starts, 1)
		<-release
	}, nil, nil, 0, time.Millisecond, 0, 0, false)
	s.Add(sc)

	time.Sleep(30 * time.Millisecond)
	inFlight := atomic.LoadInt32(&starts)
	close(release)
	time.Sleep(20 * time.Millisecond)

	if inFlight != 1 {
		t.Fatalf("expected non-concurrent schedule to avoid overlapping runs while one was in-flight, got %d starts", inFlight)
	}
}
