package protocol_test

import (
	"sync"
	"time"

	"github.com/contactless/readerdrv/internal/timer"
)

// fakeTransport is a minimal transport.Transport double: Send always
// "succeeds" (invoking done synchronously), and deliver() pushes a chunk
// to every currently-registered listener, the same fan-out shape every
// real transport uses.
type fakeTransport struct {
	mu        sync.Mutex
	listeners map[int]func([]byte) int
	nextID    int
	timer     timer.Soft

	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{listeners: make(map[int]func([]byte) int)}
}

func (f *fakeTransport) Send(b []byte, done func(n int, err error)) {
	if done != nil {
		done(len(b), f.sendErr)
	}
}

func (f *fakeTransport) Listen(onData func([]byte) int) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = onData
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *fakeTransport) SetTimeout(d time.Duration, onFire func()) { f.timer.Set(d, onFire) }
func (f *fakeTransport) CancelTimeout()                            { f.timer.Cancel() }

func (f *fakeTransport) deliver(chunk []byte) {
	f.mu.Lock()
	current := make([]func([]byte) int, 0, len(f.listeners))
	for _, l := range f.listeners {
		current = append(current, l)
	}
	f.mu.Unlock()

	for _, l := range current {
		l(chunk)
	}
}
