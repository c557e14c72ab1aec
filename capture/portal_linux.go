//go:build linux

package capture

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"go2tv.app/xcap/internal/apis"
	"go2tv.app/xcap/internal/convert"
	"go2tv.app/xcap/internal/debuglog"
	"go2tv.app/xcap/internal/env"
	"go2tv.app/xcap/internal/request"
	"go2tv.app/xcap/internal/token"
	"go2tv.app/xcap/recorder"
)

const (
	screenshotInterface = apis.CallBaseName + ".Screenshot"
	screenshotName      = screenshotInterface + ".Screenshot"
)

// PortalGrabber captures the desktop through the XDG desktop portal
// Screenshot interface. Every grab is one non-interactive portal request.
type PortalGrabber struct {
	version   uint32
	keepFiles bool
	log       debuglog.Logger
}

func NewPortalGrabber(options *Options) (*PortalGrabber, error) {
	opts, err := normalizeOptions(options)
	if err != nil {
		return nil, err
	}
	if opts.CursorMode == recorder.CursorShow {
		return nil, fmt.Errorf("%w: screenshot portal has no cursor option", ErrCursorUnsupported)
	}
	if opts.DisplayIndex != 0 {
		return nil, fmt.Errorf("%w: screenshot portal captures the whole desktop, DisplayIndex must be 0", ErrInvalidOptions)
	}

	version, err := apis.Uint32Property(screenshotInterface, "version")
	if err != nil {
		return nil, fmt.Errorf("%w: screenshot portal unavailable: %v", ErrNotImplemented, err)
	}

	g := &PortalGrabber{
		version:   version,
		keepFiles: env.Bool("XCAP_PORTAL_KEEP_FILES", false),
		log:       debuglog.New("portal"),
	}
	g.log.Printf("screenshot_portal version=%d", version)
	return g, nil
}

func (g *PortalGrabber) Version() uint32 {
	return g.version
}

func (g *PortalGrabber) Grab(ctx context.Context) (recorder.Frame, error) {
	sender, err := apis.UniqueName()
	if err != nil {
		return recorder.Frame{}, err
	}

	handle := token.New()
	path := request.Path(sender, handle)
	sub, err := apis.Subscribe(path, request.InterfaceName, request.ResponseMember)
	if err != nil {
		return recorder.Frame{}, err
	}
	defer sub.Close()

	options := convert.Vardict{}.
		SetString("handle_token", handle).
		SetBool("interactive", false)
	result, err := apis.Call(screenshotName, "", map[string]dbus.Variant(options))
	if err != nil {
		return recorder.Frame{}, err
	}
	signals := sub.C()
	if got, ok := result.(dbus.ObjectPath); ok && got != path {
		// Old portals ignore handle_token and choose their own path.
		g.log.Printf("request_path_mismatch want=%s got=%s", path, got)
		path = got
		late, err := apis.Subscribe(path, request.InterfaceName, request.ResponseMember)
		if err != nil {
			return recorder.Frame{}, err
		}
		defer late.Close()
		signals = late.C()
	}

	status, results, err := request.Await(ctx, signals, path)
	if err != nil {
		return recorder.Frame{}, err
	}
	if status >= request.Cancelled {
		return recorder.Frame{}, ErrCancelled
	}

	uri, ok := convert.String(results, "uri")
	if !ok {
		return recorder.Frame{}, fmt.Errorf("%w: screenshot response without uri", request.ErrUnexpectedResponse)
	}
	return frameFromFileURI(uri, !g.keepFiles)
}

// OpenPortal returns a producer backed by a PortalGrabber.
func OpenPortal(options *Options) (*Producer, error) {
	g, err := NewPortalGrabber(options)
	if err != nil {
		return nil, err
	}
	return NewProducer(g, options)
}
