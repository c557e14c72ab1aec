//go:build !linux

package capture

import (
	"context"
	"fmt"

	"go2tv.app/xcap/recorder"
)

type PortalGrabber struct{}

func NewPortalGrabber(options *Options) (*PortalGrabber, error) {
	return nil, fmt.Errorf("%w: the desktop portal exists only on linux", ErrNotImplemented)
}

func (g *PortalGrabber) Version() uint32 {
	return 0
}

func (g *PortalGrabber) Grab(ctx context.Context) (recorder.Frame, error) {
	return recorder.Frame{}, ErrNotImplemented
}

func OpenPortal(options *Options) (*Producer, error) {
	_, err := NewPortalGrabber(options)
	return nil, err
}
