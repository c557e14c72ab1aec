package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"go2tv.app/xcap/internal/debuglog"
	"go2tv.app/xcap/recorder"
)

// Producer is a recorder.Backend that runs a Grabber on its own goroutine.
//
// Each Start opens a session with a fresh recorder.Waker. The producer
// goroutine parks in Waker.Wait before every grab, so Pause only has to put
// the waker to sleep and Resume wakes it again. Stop cancels the session,
// releases the waker and joins the goroutine before returning.
type Producer struct {
	grabber Grabber
	opts    Options
	log     debuglog.Logger
	queue   *frameQueue
	errLog  *rate.Sometimes

	mu      sync.Mutex
	session *producerSession
	closed  bool
	wg      sync.WaitGroup

	frames   atomic.Uint64
	failures atomic.Uint64
	sessions atomic.Uint64
}

type producerSession struct {
	id     uint64
	waker  *recorder.Waker
	cancel context.CancelFunc
	done   chan struct{}
	paused bool
}

// Stats is a point-in-time view of a Producer.
type Stats struct {
	Frames  uint64
	Dropped uint64
	Errors  uint64
	Running bool
	Paused  bool
}

func NewProducer(grabber Grabber, options *Options) (*Producer, error) {
	if grabber == nil {
		return nil, errors.New("capture producer needs a grabber")
	}
	opts, err := normalizeOptions(options)
	if err != nil {
		return nil, err
	}

	log := debuglog.New("capture")
	return &Producer{
		grabber: grabber,
		opts:    *opts,
		log:     log,
		queue:   newFrameQueue(opts.QueueSize, log),
		errLog:  debuglog.Throttle(time.Second),
	}, nil
}

// Options returns the normalised options the producer runs with.
func (p *Producer) Options() Options {
	return p.opts
}

// Frames delivers captured frames. The channel lives as long as the
// Producer and is closed by Close.
func (p *Producer) Frames() <-chan recorder.Frame {
	return p.queue.C()
}

func (p *Producer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.session != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &producerSession{
		id:     p.sessions.Add(1),
		waker:  recorder.NewWaker(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	limiter := rate.NewLimiter(rate.Limit(p.opts.FrameRate), 1)
	p.wg.Add(1)
	go p.run(ctx, s, limiter)

	if err := s.waker.Wake(); err != nil {
		cancel()
		<-s.done
		return err
	}

	p.session = s
	p.log.Printf("session=%d started fps=%d queue=%d cursor=%s", s.id, p.opts.FrameRate, p.opts.QueueSize, p.opts.CursorMode)
	return nil
}

// Stop ends the current session. It is a no-op when idle. The session is
// discarded even when releasing its waker fails, so Start can be retried.
func (p *Producer) Stop() error {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return nil
	}

	s.cancel()
	err := s.waker.WakeAll()
	<-s.done
	p.log.Printf("session=%d stopped frames=%d dropped=%d errors=%d err=%v", s.id, p.frames.Load(), p.queue.Dropped(), p.failures.Load(), err)
	return err
}

// Pause parks the producer between grabs. It is a no-op when idle.
func (p *Producer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	if err := p.session.waker.Sleep(); err != nil {
		return err
	}
	p.session.paused = true
	return nil
}

// Resume undoes Pause. It is a no-op when idle.
func (p *Producer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	if err := p.session.waker.Wake(); err != nil {
		return err
	}
	p.session.paused = false
	return nil
}

// Close stops the producer and closes Frames. Start fails afterwards.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.Stop()
	// A concurrent Stop may still be joining its producer.
	p.wg.Wait()
	p.queue.close()
	return err
}

func (p *Producer) Stats() Stats {
	p.mu.Lock()
	running := p.session != nil
	paused := running && p.session.paused
	p.mu.Unlock()

	return Stats{
		Frames:  p.frames.Load(),
		Dropped: p.queue.Dropped(),
		Errors:  p.failures.Load(),
		Running: running,
		Paused:  paused,
	}
}

func (p *Producer) run(ctx context.Context, s *producerSession, limiter *rate.Limiter) {
	defer p.wg.Done()
	defer close(s.done)

	for {
		if err := s.waker.Wait(); err != nil {
			p.log.Printf("session=%d waker_err=%v", s.id, err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		frame, err := p.grabber.Grab(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			total := p.failures.Add(1)
			p.errLog.Do(func() {
				p.log.Printf("session=%d grab_err=%v total=%d", s.id, err, total)
			})
			continue
		}

		n := p.frames.Add(1)
		if p.log.Enabled() {
			if err := frame.Validate(); err != nil {
				p.log.Printf("session=%d malformed_frame err=%v", s.id, err)
			} else if n == 1 {
				p.log.Printf("session=%d first_frame %dx%d %s", s.id, frame.Width, frame.Height, frame.Format)
			}
		}
		p.queue.Enqueue(frame)
	}
}
