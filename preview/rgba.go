package preview

import (
	"fmt"
	"image"

	"go2tv.app/xcap/recorder"
)

// channel offsets inside one packed pixel; a < 0 means the format carries no
// alpha and the pixel is opaque.
type layout struct {
	r, g, b, a int
}

var layouts = map[recorder.FrameFormat]layout{
	recorder.FormatRGB:  {0, 1, 2, -1},
	recorder.FormatBGR:  {2, 1, 0, -1},
	recorder.FormatARGB: {1, 2, 3, 0},
	recorder.FormatBGRA: {2, 1, 0, 3},
	recorder.FormatRGBx: {0, 1, 2, -1},
	recorder.FormatBGRx: {2, 1, 0, -1},
	recorder.FormatRGBA: {0, 1, 2, 3},
}

// ToRGBA unpacks a frame into a new RGBA image. Padding bytes are ignored.
// Alpha is copied as is, so frames with real transparency are treated as
// premultiplied.
func ToRGBA(frame recorder.Frame) (*image.RGBA, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	l, ok := layouts[frame.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", recorder.ErrFrameFormat, frame.Format)
	}

	w, h := int(frame.Width), int(frame.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if frame.Format == recorder.FormatRGBA {
		copy(img.Pix, frame.Raw)
		return img, nil
	}

	bpp := frame.Format.BytesPerPixel()
	for i, o := 0, 0; i < len(frame.Raw); i, o = i+bpp, o+4 {
		px := frame.Raw[i : i+bpp]
		img.Pix[o] = px[l.r]
		img.Pix[o+1] = px[l.g]
		img.Pix[o+2] = px[l.b]
		if l.a < 0 {
			img.Pix[o+3] = 0xff
		} else {
			img.Pix[o+3] = px[l.a]
		}
	}
	return img, nil
}
