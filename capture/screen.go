package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"go2tv.app/xcap/recorder"
)

// ScreenGrabber captures one display through the operating system's
// screenshot facility. It never composites the cursor.
type ScreenGrabber struct {
	display int
}

func NewScreenGrabber(options *Options) (*ScreenGrabber, error) {
	opts, err := normalizeOptions(options)
	if err != nil {
		return nil, err
	}
	if opts.CursorMode == recorder.CursorShow {
		return nil, fmt.Errorf("%w: screen grabber cannot show the cursor", ErrCursorUnsupported)
	}

	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}
	if opts.DisplayIndex >= n {
		return nil, fmt.Errorf("%w: DisplayIndex %d out of range (displays=%d)", ErrInvalidOptions, opts.DisplayIndex, n)
	}

	return &ScreenGrabber{display: opts.DisplayIndex}, nil
}

// Bounds is the display rectangle in desktop coordinates.
func (g *ScreenGrabber) Bounds() image.Rectangle {
	return screenshot.GetDisplayBounds(g.display)
}

func (g *ScreenGrabber) Grab(ctx context.Context) (recorder.Frame, error) {
	if err := ctx.Err(); err != nil {
		return recorder.Frame{}, err
	}

	bounds := g.Bounds()
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return recorder.Frame{}, fmt.Errorf("capture display %d %v: %w", g.display, bounds, err)
	}
	return FrameFromRGBA(img), nil
}

// OpenScreen returns a producer backed by a ScreenGrabber.
func OpenScreen(options *Options) (*Producer, error) {
	g, err := NewScreenGrabber(options)
	if err != nil {
		return nil, err
	}
	return NewProducer(g, options)
}
