package recorder

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrFrameFormat = errors.New("unknown frame format")
	ErrFrameSize   = errors.New("frame buffer size does not match geometry")
)

// FrameFormat tags the channel order and per-pixel stride of Frame.Raw.
type FrameFormat uint8

const (
	FormatRGB  FrameFormat = 1
	FormatBGR  FrameFormat = 2
	FormatARGB FrameFormat = 3
	FormatBGRA FrameFormat = 4
	FormatRGBx FrameFormat = 5 // trailing padding byte
	FormatBGRx FrameFormat = 6 // trailing padding byte
	FormatRGBA FrameFormat = 7
)

func (f FrameFormat) String() string {
	switch f {
	case FormatRGB:
		return "RGB"
	case FormatBGR:
		return "BGR"
	case FormatARGB:
		return "ARGB"
	case FormatBGRA:
		return "BGRA"
	case FormatRGBx:
		return "RGBx"
	case FormatBGRx:
		return "BGRx"
	case FormatRGBA:
		return "RGBA"
	default:
		return "FrameFormat(" + strconv.Itoa(int(f)) + ")"
	}
}

// BytesPerPixel returns the packed size of one pixel, or 0 for an unknown tag.
func (f FrameFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB, FormatBGR:
		return 3
	case FormatARGB, FormatBGRA, FormatRGBx, FormatBGRx, FormatRGBA:
		return 4
	default:
		return 0
	}
}

func (f FrameFormat) Valid() bool {
	return f.BytesPerPixel() != 0
}

// Frame is one captured image. Rows are stored top-to-bottom with no padding
// between them. A Frame is never modified after construction; consumers that
// need to edit pixels must copy Raw first.
type Frame struct {
	Width  uint32
	Height uint32
	Raw    []byte
	Format FrameFormat
}

// NewFrame wraps raw without copying or validating it. The producing backend
// guarantees len(raw) == width*height*format.BytesPerPixel().
func NewFrame(width, height uint32, raw []byte, format FrameFormat) Frame {
	return Frame{
		Width:  width,
		Height: height,
		Raw:    raw,
		Format: format,
	}
}

// ExpectedSize is the buffer length implied by the frame geometry and format.
func (f Frame) ExpectedSize() int {
	return int(f.Width) * int(f.Height) * f.Format.BytesPerPixel()
}

// Validate reports whether the frame honours its packing contract. NewFrame
// never calls it; backends use it in tests and diagnostics.
func (f Frame) Validate() error {
	if !f.Format.Valid() {
		return fmt.Errorf("%w: %s", ErrFrameFormat, f.Format)
	}
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("%w: empty geometry %dx%d", ErrFrameSize, f.Width, f.Height)
	}
	if want := f.ExpectedSize(); len(f.Raw) != want {
		return fmt.Errorf("%w: %dx%d %s wants %d bytes, got %d", ErrFrameSize, f.Width, f.Height, f.Format, want, len(f.Raw))
	}
	return nil
}

// CursorMode controls whether the pointer is composited into captured frames.
// It is read by backends at capture time.
type CursorMode uint8

const (
	CursorHidden CursorMode = 1
	CursorShow   CursorMode = 2
)

func (m CursorMode) String() string {
	switch m {
	case CursorHidden:
		return "hidden"
	case CursorShow:
		return "show"
	default:
		return "CursorMode(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m CursorMode) Valid() bool {
	return m == CursorHidden || m == CursorShow
}
