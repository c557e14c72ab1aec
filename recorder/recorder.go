package recorder

import (
	"errors"

	"github.com/google/uuid"

	"go2tv.app/xcap/internal/debuglog"
)

var ErrNoBackend = errors.New("video recorder has no capture backend")

// Backend is a platform capture engine. Start begins producing frames and
// Stop tears the producer down. Stop must not return before the producer
// goroutine has exited and every goroutine parked in a Waker owned by the
// backend has been released. A failed Stop must still allow a later Start.
//
// How frames reach consumers is up to the backend.
type Backend interface {
	Start() error
	Stop() error
}

// VideoRecorder is the session handle around exactly one Backend. It keeps
// no state of its own: Start and Stop are forwarded as is and backend errors
// are returned unchanged. Calling Start while running or Stop while idle is
// whatever the backend defines it to be.
type VideoRecorder struct {
	backend Backend
	id      string
	log     debuglog.Logger
}

func NewVideoRecorder(backend Backend) *VideoRecorder {
	return &VideoRecorder{
		backend: backend,
		id:      uuid.NewString(),
		log:     debuglog.New("recorder"),
	}
}

// ID identifies the recorder in debug output.
func (r *VideoRecorder) ID() string {
	return r.id
}

func (r *VideoRecorder) Backend() Backend {
	return r.backend
}

func (r *VideoRecorder) Start() error {
	if r.backend == nil {
		return ErrNoBackend
	}
	if err := r.backend.Start(); err != nil {
		r.log.Printf("recorder=%s start_failed err=%v", r.id, err)
		return err
	}
	r.log.Printf("recorder=%s started", r.id)
	return nil
}

func (r *VideoRecorder) Stop() error {
	if r.backend == nil {
		return ErrNoBackend
	}
	if err := r.backend.Stop(); err != nil {
		r.log.Printf("recorder=%s stop_failed err=%v", r.id, err)
		return err
	}
	r.log.Printf("recorder=%s stopped", r.id)
	return nil
}
