package capture

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"

	"go2tv.app/xcap/recorder"
)

// frameFromFileURI decodes the image a screenshot portal wrote to uri and
// removes the file when remove is set.
func frameFromFileURI(uri string, remove bool) (recorder.Frame, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return recorder.Frame{}, fmt.Errorf("screenshot uri %q: %w", uri, err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return recorder.Frame{}, fmt.Errorf("screenshot uri %q: unsupported scheme", uri)
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return recorder.Frame{}, err
	}
	img, _, decodeErr := image.Decode(f)
	closeErr := f.Close()
	if remove {
		closeErr = errors.Join(closeErr, os.Remove(u.Path))
	}
	if decodeErr != nil {
		return recorder.Frame{}, fmt.Errorf("decode screenshot %s: %w", u.Path, decodeErr)
	}
	if closeErr != nil {
		return recorder.Frame{}, closeErr
	}
	return FrameFromImage(img), nil
}
