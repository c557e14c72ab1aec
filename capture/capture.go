package capture

import (
	"context"
	"errors"
	"fmt"

	"go2tv.app/xcap/internal/env"
	"go2tv.app/xcap/recorder"
)

const (
	defaultFrameRate = 30
	maxFrameRate     = 120
	defaultQueueSize = 4
	maxQueueSize     = 64
)

var (
	ErrNotImplemented    = errors.New("screen capture backend is not implemented on this platform")
	ErrCancelled         = errors.New("screen capture request was cancelled")
	ErrInvalidOptions    = errors.New("invalid screen capture options")
	ErrAlreadyRunning    = errors.New("screen capture is already running")
	ErrClosed            = errors.New("screen capture backend is closed")
	ErrCursorUnsupported = errors.New("cursor mode not supported by this backend")
	ErrNoDisplays        = errors.New("no active displays")
)

// Options configures a capture backend.
type Options struct {
	// DisplayIndex selects the display to capture. Default is 0.
	DisplayIndex int
	// FrameRate caps how often the producer grabs a frame. Zero means
	// XCAP_FPS, or 30 when unset.
	FrameRate int
	// CursorMode defaults to recorder.CursorHidden.
	CursorMode recorder.CursorMode
	// QueueSize bounds Frames(); the oldest frame is dropped when it is full.
	QueueSize int
}

// Grabber captures a single frame. Implementations are called from one
// producer goroutine at a time.
type Grabber interface {
	Grab(ctx context.Context) (recorder.Frame, error)
}

type GrabberFunc func(ctx context.Context) (recorder.Frame, error)

func (f GrabberFunc) Grab(ctx context.Context) (recorder.Frame, error) {
	return f(ctx)
}

func normalizeOptions(options *Options) (*Options, error) {
	opts := Options{}
	if options != nil {
		opts = *options
	}

	if opts.DisplayIndex < 0 {
		return nil, fmt.Errorf("%w: DisplayIndex must be >= 0", ErrInvalidOptions)
	}
	if opts.CursorMode == 0 {
		opts.CursorMode = recorder.CursorHidden
	}
	if !opts.CursorMode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOptions, opts.CursorMode)
	}
	if opts.FrameRate == 0 {
		opts.FrameRate = env.IntClamped("XCAP_FPS", defaultFrameRate, 1, maxFrameRate)
	} else if opts.FrameRate < 1 {
		opts.FrameRate = 1
	}
	if opts.FrameRate > maxFrameRate {
		opts.FrameRate = maxFrameRate
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = defaultQueueSize
	} else if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.QueueSize > maxQueueSize {
		opts.QueueSize = maxQueueSize
	}

	return &opts, nil
}
