package capture

import (
	"image"

	"golang.org/x/image/draw"

	"go2tv.app/xcap/recorder"
)

// FrameFromRGBA wraps img as an RGBA frame. The pixel buffer is shared when
// img is already tightly packed and copied row by row otherwise.
func FrameFromRGBA(img *image.RGBA) recorder.Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return recorder.NewFrame(0, 0, nil, recorder.FormatRGBA)
	}

	rowBytes := w * 4
	start := img.PixOffset(b.Min.X, b.Min.Y)
	if img.Stride == rowBytes {
		return recorder.NewFrame(uint32(w), uint32(h), img.Pix[start:start+rowBytes*h], recorder.FormatRGBA)
	}

	raw := make([]byte, rowBytes*h)
	for y := 0; y < h; y++ {
		off := start + y*img.Stride
		copy(raw[y*rowBytes:(y+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	return recorder.NewFrame(uint32(w), uint32(h), raw, recorder.FormatRGBA)
}

// FrameFromImage converts any decoded image into an RGBA frame.
func FrameFromImage(img image.Image) recorder.Frame {
	if rgba, ok := img.(*image.RGBA); ok {
		return FrameFromRGBA(rgba)
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return FrameFromRGBA(dst)
}
