package preview

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"
	"golang.org/x/time/rate"

	"go2tv.app/xcap/internal/debuglog"
	"go2tv.app/xcap/recorder"
)

const (
	defaultMaxWidth    = 1280
	defaultJPEGQuality = 70

	writeTimeout = 5 * time.Second
	pingInterval = 25 * time.Second
)

type ServerOptions struct {
	// MaxWidth bounds the width of broadcast images. Wider frames are scaled
	// down keeping their aspect ratio. Default is 1280.
	MaxWidth int
	// JPEGQuality is clamped to 1..100. Default is 70.
	JPEGQuality int
	Logf        func(format string, args ...any)
}

// Server broadcasts captured frames as JPEG images to websocket clients.
type Server struct {
	opts     ServerOptions
	log      debuglog.Logger
	errLog   *rate.Sometimes
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	latest  []byte

	frames atomic.Uint64
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func NewServer(options *ServerOptions) *Server {
	opts := ServerOptions{}
	if options != nil {
		opts = *options
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaultMaxWidth
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = defaultJPEGQuality
	}
	opts.JPEGQuality = min(max(opts.JPEGQuality, 1), 100)

	return &Server{
		opts:    opts,
		log:     debuglog.New("preview"),
		errLog:  debuglog.Throttle(time.Second),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run encodes frames until the channel is closed or ctx is done. A closed
// channel ends Run with a nil error.
func (s *Server) Run(ctx context.Context, frames <-chan recorder.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			data, err := s.encode(frame)
			if err != nil {
				s.errLog.Do(func() {
					s.logf("encode_err=%v", err)
				})
				continue
			}
			s.publish(data)
		}
	}
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Frames reports how many frames were broadcast.
func (s *Server) Frames() uint64 {
	return s.frames.Load()
}

// Handler serves the websocket on /ws and a viewer page on /.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		_, _ = w.Write([]byte(viewerPage))
	})
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("upgrade_err=%v remote=%s", err, r.RemoteAddr)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.latest != nil {
		c.send <- s.latest
	}
	s.clients[c.id] = c
	total := len(s.clients)
	s.mu.Unlock()
	s.logf("client=%s connected remote=%s clients=%d", c.id, r.RemoteAddr, total)

	go s.writeLoop(c)
	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c.id)
	total = len(s.clients)
	s.mu.Unlock()
	c.close()
	s.logf("client=%s disconnected clients=%d", c.id, total)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// readLoop discards client messages and returns once the connection fails.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.logf("client=%s write_err=%v", c.id, err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}

// publish stores data as the latest image and queues it for every client.
// A client still holding an unsent image has it replaced.
func (s *Server) publish(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = data
	s.frames.Add(1)
	for _, c := range s.clients {
		select {
		case c.send <- data:
			continue
		default:
		}
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

func (s *Server) encode(frame recorder.Frame) ([]byte, error) {
	img, err := ToRGBA(frame)
	if err != nil {
		return nil, err
	}

	var src image.Image = img
	if b := img.Bounds(); b.Dx() > s.opts.MaxWidth {
		h := max(b.Dy()*s.opts.MaxWidth/b.Dx(), 1)
		dst := image.NewRGBA(image.Rect(0, 0, s.opts.MaxWidth, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: s.opts.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) logf(format string, args ...any) {
	s.log.Printf(format, args...)
	if s.opts.Logf != nil {
		s.opts.Logf(format, args...)
	}
}

const viewerPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>xcap preview</title>
<style>body{margin:0;background:#111;display:flex;align-items:center;justify-content:center;height:100vh}img{max-width:100%;max-height:100%}</style>
</head>
<body>
<img id="frame" alt="waiting for frames">
<script>
const img = document.getElementById("frame");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.binaryType = "blob";
let url = null;
ws.onmessage = (ev) => {
  const next = URL.createObjectURL(ev.data);
  img.src = next;
  if (url) URL.revokeObjectURL(url);
  url = next;
};
</script>
</body>
</html>
`
