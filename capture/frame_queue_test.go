package capture

import (
	"testing"

	"go2tv.app/xcap/internal/debuglog"
	"go2tv.app/xcap/recorder"
)

func TestFrameQueueDropsOldest(t *testing.T) {
	q := newFrameQueue(2, debuglog.New("test"))
	for w := uint32(1); w <= 3; w++ {
		q.Enqueue(recorder.NewFrame(w, 1, nil, recorder.FormatRGBA))
	}

	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
	for _, want := range []uint32{2, 3} {
		if f := <-q.C(); f.Width != want {
			t.Fatalf("got frame width %d, want %d", f.Width, want)
		}
	}
}

func TestFrameQueueCloseIsIdempotent(t *testing.T) {
	q := newFrameQueue(1, debuglog.New("test"))
	q.Enqueue(recorder.NewFrame(1, 1, nil, recorder.FormatRGBA))
	q.close()
	q.close()

	if _, ok := <-q.C(); !ok {
		t.Fatal("buffered frame lost on close")
	}
	if _, ok := <-q.C(); ok {
		t.Fatal("channel still open after close")
	}
}
