package recorder

import (
	"errors"
	"sync"
)

var ErrLockPoisoned = errors.New("waker lock poisoned")

// LockError is returned by every Waker operation once a goroutine panicked
// while holding the Waker lock. It is fatal for that Waker.
type LockError struct {
	Op string
}

func (e *LockError) Error() string {
	return "recorder: waker " + e.Op + ": lock poisoned by a panicking holder"
}

func (e *LockError) Unwrap() error {
	return ErrLockPoisoned
}

// Waker is a level-triggered park/wake primitive. A goroutine calling Wait
// blocks while the waker is parked; Wake clears the parked flag and releases
// one blocked waiter, Sleep sets it again. A Wake with nobody waiting is not
// lost: the next Wait returns immediately.
//
// The parked flag is only read or written with mu held.
type Waker struct {
	mu       sync.Mutex
	cond     *sync.Cond
	parking  bool
	poisoned bool

	// held runs with mu locked at the start of every operation. Nil outside tests.
	held func()
}

// NewWaker returns a parked Waker.
func NewWaker() *Waker {
	w := &Waker{parking: true}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Sleep parks the waker so that subsequent Wait calls block until the next Wake.
func (w *Waker) Sleep() error {
	if err := w.lock("sleep"); err != nil {
		return err
	}
	defer w.unlock()
	w.hold()

	w.parking = true
	return nil
}

// Wake unparks the waker and signals at most one blocked waiter.
func (w *Waker) Wake() error {
	if err := w.lock("wake"); err != nil {
		return err
	}
	defer w.unlock()
	w.hold()

	w.parking = false
	w.cond.Signal()
	return nil
}

// WakeAll unparks the waker and releases every blocked waiter. Session
// teardown uses it so nothing stays parked after Stop.
func (w *Waker) WakeAll() error {
	if err := w.lock("wake"); err != nil {
		return err
	}
	defer w.unlock()
	w.hold()

	w.parking = false
	w.cond.Broadcast()
	return nil
}

// Wait blocks until the waker is observed unparked. Spurious wake-ups of the
// underlying condition variable are absorbed by re-checking the flag.
func (w *Waker) Wait() error {
	if err := w.lock("wait"); err != nil {
		return err
	}
	defer w.unlock()
	w.hold()

	for w.parking && !w.poisoned {
		w.cond.Wait()
	}
	if w.poisoned {
		return &LockError{Op: "wait"}
	}
	return nil
}

// Parked reports the current flag. The answer may be stale by the time the
// caller looks at it.
func (w *Waker) Parked() (bool, error) {
	if err := w.lock("parked"); err != nil {
		return false, err
	}
	defer w.unlock()

	return w.parking, nil
}

func (w *Waker) lock(op string) error {
	w.mu.Lock()
	if w.poisoned {
		w.mu.Unlock()
		return &LockError{Op: op}
	}
	return nil
}

// unlock must be deferred directly so that recover sees a panic raised while
// mu is held. Such a panic poisons the waker and releases all waiters before
// it keeps unwinding.
func (w *Waker) unlock() {
	if r := recover(); r != nil {
		w.poisoned = true
		w.cond.Broadcast()
		w.mu.Unlock()
		panic(r)
	}
	w.mu.Unlock()
}

func (w *Waker) hold() {
	if w.held != nil {
		w.held()
	}
}
