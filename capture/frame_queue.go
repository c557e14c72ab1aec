package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"go2tv.app/xcap/internal/debuglog"
	"go2tv.app/xcap/recorder"
)

// frameQueue hands frames from the producer to consumers through a bounded
// channel. A full queue drops its oldest frame so the producer never blocks.
type frameQueue struct {
	ch chan recorder.Frame

	log     debuglog.Logger
	dropLog *rate.Sometimes
	dropped atomic.Uint64

	closeOnce sync.Once
}

func newFrameQueue(size int, log debuglog.Logger) *frameQueue {
	return &frameQueue{
		ch:      make(chan recorder.Frame, size),
		log:     log,
		dropLog: debuglog.Throttle(time.Second),
	}
}

func (q *frameQueue) C() <-chan recorder.Frame {
	return q.ch
}

// Enqueue must not be called after close.
func (q *frameQueue) Enqueue(frame recorder.Frame) {
	select {
	case q.ch <- frame:
		return
	default:
	}

	select {
	case <-q.ch:
		q.noteDrop()
	default:
	}

	select {
	case q.ch <- frame:
	default:
		q.noteDrop()
	}
}

func (q *frameQueue) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *frameQueue) close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

func (q *frameQueue) noteDrop() {
	total := q.dropped.Add(1)
	q.dropLog.Do(func() {
		q.log.Printf("dropped_frame total=%d queue=%d", total, len(q.ch))
	})
}
