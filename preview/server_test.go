package preview

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go2tv.app/xcap/recorder"
)

const waitLimit = 2 * time.Second

func solidFrame(w, h uint32) recorder.Frame {
	raw := make([]byte, int(w*h)*4)
	for i := 0; i < len(raw); i += 4 {
		raw[i], raw[i+1], raw[i+2], raw[i+3] = 200, 100, 50, 0
	}
	return recorder.NewFrame(w, h, raw, recorder.FormatBGRx)
}

func startServer(t *testing.T, opts *ServerOptions) (*Server, chan recorder.Frame, *httptest.Server) {
	t.Helper()
	s := NewServer(opts)
	frames := make(chan recorder.Frame)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, frames) }()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
		cancel()
		<-done
	})
	return s, frames, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitLimit)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readJPEG(t *testing.T, conn *websocket.Conn) (int, int) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(waitLimit))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", kind)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestServerBroadcastsFrames(t *testing.T) {
	s, frames, ts := startServer(t, nil)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.Clients() == 1 })

	frames <- solidFrame(16, 8)
	if w, h := readJPEG(t, conn); w != 16 || h != 8 {
		t.Fatalf("image = %dx%d, want 16x8", w, h)
	}
	if s.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", s.Frames())
	}
}

func TestServerScalesWideFrames(t *testing.T) {
	s, frames, ts := startServer(t, &ServerOptions{MaxWidth: 8})
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.Clients() == 1 })

	frames <- solidFrame(32, 8)
	if w, h := readJPEG(t, conn); w != 8 || h != 2 {
		t.Fatalf("image = %dx%d, want 8x2", w, h)
	}
}

func TestServerSendsLatestOnConnect(t *testing.T) {
	s, frames, ts := startServer(t, nil)

	frames <- solidFrame(4, 4)
	frames <- solidFrame(6, 2)
	waitFor(t, "second frame", func() bool { return s.Frames() == 2 })

	conn := dial(t, ts)
	if w, h := readJPEG(t, conn); w != 6 || h != 2 {
		t.Fatalf("image = %dx%d, want the latest 6x2 frame", w, h)
	}
}

func TestServerSkipsMalformedFrames(t *testing.T) {
	s, frames, ts := startServer(t, nil)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.Clients() == 1 })

	frames <- recorder.NewFrame(4, 4, []byte{1}, recorder.FormatRGBA)
	frames <- solidFrame(2, 2)
	if w, h := readJPEG(t, conn); w != 2 || h != 2 {
		t.Fatalf("image = %dx%d, want 2x2", w, h)
	}
	if s.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", s.Frames())
	}
}

func TestServerForgetsDisconnectedClients(t *testing.T) {
	s, _, ts := startServer(t, nil)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.Clients() == 1 })

	_ = conn.Close()
	waitFor(t, "client removal", func() bool { return s.Clients() == 0 })
}

func TestServerRunStops(t *testing.T) {
	s := NewServer(nil)

	frames := make(chan recorder.Frame)
	close(frames)
	if err := s.Run(context.Background(), frames); err != nil {
		t.Fatalf("Run on closed channel = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, make(chan recorder.Frame)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run on cancelled context = %v", err)
	}
}

func TestServerViewerPage(t *testing.T) {
	_, _, ts := startServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("GET / = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(body), "/ws") {
		t.Fatal("viewer page does not open the websocket")
	}

	resp, err = http.Get(ts.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET /missing = %d, want 404", resp.StatusCode)
	}
}

func TestNewServerOptions(t *testing.T) {
	s := NewServer(&ServerOptions{JPEGQuality: 500})
	if s.opts.MaxWidth != defaultMaxWidth || s.opts.JPEGQuality != 100 {
		t.Fatalf("unexpected options: %+v", s.opts)
	}
	if NewServer(nil).opts.JPEGQuality != defaultJPEGQuality {
		t.Fatal("default quality not applied")
	}
}
