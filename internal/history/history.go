// Package history keeps a bounded FIFO of past predicted view sets, written
// by the tracking sampler and read by the frame pacer. A late remote frame is
// reprojected with the view set that was active when it was produced, which
// is why lookups match timestamps exactly and never interpolate.
package history

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/mirage-vr/client/internal/xr"
)

// DefaultCapacity bounds the buffer to a few seconds of sampler output at
// typical rates.
const DefaultCapacity = 360

// Entry pairs a predicted target timestamp with the stereo view set located
// for it.
type Entry struct {
	Timestamp time.Duration
	Views     [2]xr.View
}

// Buffer is a mutex-guarded ring of Entries. The lock is held only for the
// push/evict or the scan, never across a blocking call.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	entries  *queue.Queue
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  queue.New(),
	}
}

// Push appends an entry, evicting the oldest once the capacity is exceeded.
func (b *Buffer) Push(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries.Add(e)
	for b.entries.Length() > b.capacity {
		b.entries.Remove()
	}
}

// Lookup scans for an entry whose timestamp equals t exactly.
func (b *Buffer) Lookup(t time.Duration) ([2]xr.View, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < b.entries.Length(); i++ {
		e := b.entries.Get(i).(Entry)
		if e.Timestamp == t {
			return e.Views, true
		}
	}
	return [2]xr.View{}, false
}

// Len reports the current number of entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Length()
}

// Oldest returns the timestamp of the oldest retained entry, for
// instrumentation.
func (b *Buffer) Oldest() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries.Length() == 0 {
		return 0, false
	}
	return b.entries.Peek().(Entry).Timestamp, true
}
