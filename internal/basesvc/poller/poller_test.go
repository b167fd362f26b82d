package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
	"github.com/amankwa/attendance-services/internal/events"
)

type published struct {
	typ     string
	payload any
}

type fakePub struct {
	mu     sync.Mutex
	events []published
	ch     chan published
}

func newFakePub() *fakePub {
	return &fakePub{ch: make(chan published, 64)}
}

func (f *fakePub) Publish(eventType string, payload any) {
	p := published{eventType, payload}
	f.mu.Lock()
	f.events = append(f.events, p)
	f.mu.Unlock()
	f.ch <- p
}

// waitSnapshot blocks until a snapshot for the session arrives.
func (f *fakePub) waitSnapshot(t *testing.T, sessionID int64) events.AttendanceSnapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-f.ch:
			snap, ok := p.payload.(events.AttendanceSnapshot)
			if ok && snap.SessionID == sessionID {
				return snap
			}
		case <-deadline:
			t.Fatalf("no snapshot for session %d", sessionID)
		}
	}
}

func (f *fakePub) snapshotsFor(sessionID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.events {
		if snap, ok := p.payload.(events.AttendanceSnapshot); ok && snap.SessionID == sessionID {
			count++
		}
	}
	return count
}

type fakeLister struct {
	calls int64
	fn    func(ctx context.Context, sessionID int64) ([]storeapi.AttendanceRecord, error)
}

func (f *fakeLister) ListAttendance(ctx context.Context, sessionID int64) ([]storeapi.AttendanceRecord, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.fn(ctx, sessionID)
}

func records(sessionID int64, n int) []storeapi.AttendanceRecord {
	rows := make([]storeapi.AttendanceRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, storeapi.AttendanceRecord{
			ID:        int64(i + 1),
			SessionID: sessionID,
			StudentID: int64(100 + i),
			RFIDOk:    true,
			CreatedAt: time.Now(),
		})
	}
	return rows
}

func TestEmitsSnapshotInStoreOrder(t *testing.T) {
	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		return records(id, 3), nil
	}}
	p := New(lister, pub, 10*time.Millisecond)
	defer p.Stop()

	p.Start(7)

	snap := pub.waitSnapshot(t, 7)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, int64(100), snap.Rows[0].StudentID)
	assert.Equal(t, int64(101), snap.Rows[1].StudentID)
	assert.Equal(t, int64(102), snap.Rows[2].StudentID)
}

func TestStaleFetchIsDiscardedAfterStop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		close(started)
		<-release
		return records(id, 1), nil
	}}
	p := New(lister, pub, 10*time.Millisecond)

	p.Start(7)
	<-started

	// the session ends while the fetch is still in flight
	p.Stop()
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, pub.snapshotsFor(7))
}

func TestStaleFetchIsDiscardedAfterSessionSwitch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		if id == 1 {
			close(started)
			<-release
		}
		return records(id, 1), nil
	}}
	p := New(lister, pub, 10*time.Millisecond)
	defer p.Stop()

	p.Start(1)
	<-started

	p.Start(2)
	pub.waitSnapshot(t, 2)

	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, pub.snapshotsFor(1))
}

func TestTickSkippedWhileFetchInFlight(t *testing.T) {
	release := make(chan struct{})

	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		<-release
		return records(id, 1), nil
	}}
	p := New(lister, pub, 5*time.Millisecond)
	defer p.Stop()

	p.Start(7)
	time.Sleep(60 * time.Millisecond)

	// many ticks elapsed, but the first fetch never returned
	assert.Equal(t, int64(1), atomic.LoadInt64(&lister.calls))
	close(release)
}

func TestFetchFailureKeepsSchedule(t *testing.T) {
	var n int64
	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		if atomic.AddInt64(&n, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return records(id, 2), nil
	}}
	p := New(lister, pub, 10*time.Millisecond)
	defer p.Stop()

	p.Start(7)

	snap := pub.waitSnapshot(t, 7)
	assert.Len(t, snap.Rows, 2)
}

func TestNoFetchAfterStop(t *testing.T) {
	pub := newFakePub()
	lister := &fakeLister{fn: func(ctx context.Context, id int64) ([]storeapi.AttendanceRecord, error) {
		return records(id, 1), nil
	}}
	p := New(lister, pub, 10*time.Millisecond)

	p.Start(7)
	pub.waitSnapshot(t, 7)
	p.Stop()

	// let a fetch launched just before the stop finish
	time.Sleep(30 * time.Millisecond)
	calls := atomic.LoadInt64(&lister.calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt64(&lister.calls))
}
