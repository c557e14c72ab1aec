package capture

import (
	"errors"
	"testing"

	"go2tv.app/xcap/recorder"
)

func TestNormalizeOptionsDefaults(t *testing.T) {
	t.Setenv("XCAP_FPS", "")

	opts, err := normalizeOptions(nil)
	if err != nil {
		t.Fatalf("normalizeOptions(nil): %v", err)
	}
	if opts.DisplayIndex != 0 || opts.FrameRate != defaultFrameRate || opts.QueueSize != defaultQueueSize || opts.CursorMode != recorder.CursorHidden {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestNormalizeOptionsFrameRateFromEnv(t *testing.T) {
	t.Setenv("XCAP_FPS", "500")
	opts, err := normalizeOptions(&Options{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.FrameRate != maxFrameRate {
		t.Fatalf("FrameRate = %d, want %d", opts.FrameRate, maxFrameRate)
	}

	t.Setenv("XCAP_FPS", "12")
	opts, err = normalizeOptions(&Options{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.FrameRate != 12 {
		t.Fatalf("FrameRate = %d, want 12", opts.FrameRate)
	}
}

func TestNormalizeOptionsClamps(t *testing.T) {
	tests := []struct {
		in        Options
		fps, size int
	}{
		{Options{FrameRate: -5, QueueSize: -1}, 1, 1},
		{Options{FrameRate: 1000, QueueSize: 1000}, maxFrameRate, maxQueueSize},
		{Options{FrameRate: 25, QueueSize: 8}, 25, 8},
	}
	for _, tt := range tests {
		in := tt.in
		opts, err := normalizeOptions(&in)
		if err != nil {
			t.Fatalf("normalizeOptions(%+v): %v", tt.in, err)
		}
		if opts.FrameRate != tt.fps || opts.QueueSize != tt.size {
			t.Errorf("normalizeOptions(%+v) = fps %d queue %d, want %d %d", tt.in, opts.FrameRate, opts.QueueSize, tt.fps, tt.size)
		}
	}
}

func TestNormalizeOptionsRejects(t *testing.T) {
	for _, in := range []Options{
		{DisplayIndex: -1},
		{CursorMode: recorder.CursorMode(7)},
	} {
		in := in
		if _, err := normalizeOptions(&in); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("normalizeOptions(%+v) = %v, want ErrInvalidOptions", in, err)
		}
	}
}

func TestNormalizeOptionsDoesNotMutateInput(t *testing.T) {
	in := &Options{}
	if _, err := normalizeOptions(in); err != nil {
		t.Fatal(err)
	}
	if *in != (Options{}) {
		t.Fatalf("input mutated: %+v", *in)
	}
}
