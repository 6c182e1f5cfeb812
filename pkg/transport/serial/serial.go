// Package serial implements transport.Transport over a real serial port
// using go.bug.st/serial, the teacher's primary cross-platform serial
// dependency. One read-pump goroutine per open port delivers inbound
// bytes to whatever listener is currently registered; writes are
// synchronous on the caller's goroutine, with the completion callback
// invoked inline.
package serial

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/contactless/readerdrv/internal/timer"
)

// Config mirrors the handful of serial parameters the reader protocol
// actually cares about; everything else (flow control, hardware
// handshaking) is left at the library default.
type Config struct {
	Baud     int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// DefaultConfig matches the reader's documented wire parameters: 8N1 at
// 115200 baud.
func DefaultConfig() Config {
	return Config{Baud: 115200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
}

// Transport is a transport.Transport backed by an open serial.Port.
type Transport struct {
	port serial.Port

	mu        sync.Mutex
	listeners map[int]func([]byte) int
	nextID    int

	timer timer.Soft

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Open opens devicePath at the given configuration and starts its read
// pump. The caller owns the returned Transport and must call Close when
// done with the port.
func Open(devicePath string, cfg Config) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(devicePath, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", devicePath, err)
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

// Close stops the read pump and closes the underlying port.
func (t *Transport) Close() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.port.Close()
	t.wg.Wait()
	return nil
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

// readPump reads fixed-size chunks off the port and fans each one out to
// every registered listener. Listener return values are not combined or
// acted on: reading continues whatever the listeners return.
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

		// Each listener decides for itself whether the chunk satisfies it
		// (returning nonzero) and disconnects itself accordingly; the
		// returned values are discarded here.
		for _, l := range current {
			l(chunk)
		}
	}
}
