// Package blockwise implements transport.Transport over
// github.com/tarm/serial, the teacher's transitively-required serial
// dependency — kept as a second, independent serial backend exercising
// both of the teacher's serial stacks. Named "blockwise" because
// tarm/serial reads in fixed-size blocks rather than go.bug.st/serial's
// byte-stream semantics (see transport/serial for the primary backend).
package blockwise

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/contactless/readerdrv/internal/timer"
)

// DefaultBaud matches the reader's documented wire rate.
const DefaultBaud = 115200

// Transport is a transport.Transport backed by an open *serial.Port from
// github.com/tarm/serial.
type Transport struct {
	port *serial.Port

	mu        sync.Mutex
	listeners map[int]func([]byte) int
	nextID    int

	timer timer.Soft

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Open opens devicePath at baud, 8N1, and starts its read pump.
func Open(devicePath string, baud int) (*Transport, error) {
	cfg := &serial.Config{
		Name:        devicePath,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("blockwise: open %s: %w", devicePath, err)
	}

	t := &Transport{
		port:      port,
		listeners: make(map[int]func([]byte) int),
		stopCh:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readPump()
	return t, nil
}

func (t *Transport) Close() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	err := t.port.Close()
	t.wg.Wait()
	return err
}

func (t *Transport) Send(b []byte, done func(n int, err error)) {
	n, err := t.port.Write(b)
	if done != nil {
		done(n, err)
	}
}

func (t *Transport) Listen(onData func(chunk []byte) int) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = onData
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.listeners, id)
			t.mu.Unlock()
		})
	}
}

func (t *Transport) SetTimeout(d time.Duration, onFire func()) {
	t.timer.Set(d, onFire)
}

func (t *Transport) CancelTimeout() {
	t.timer.Cancel()
}

// readPump reads in blocks bounded by the configured ReadTimeout, so a
// short read is a normal "nothing arrived yet" rather than an error —
// tarm/serial returns (0, nil) on timeout rather than io.EOF.
func (t *Transport) readPump() {
	defer t.wg.Done()
	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			select {
			case <-t.stopCh:
				return
			default:
			}
			continue
		}
		if n == 0 {
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		t.mu.Lock()
		current := make([]func([]byte) int, 0, len(t.listeners))
		for _, l := range t.listeners {
			current = append(current, l)
		}
		t.mu.Unlock()

		for _, l := range current {
			l(chunk)
		}
	}
}
