// Package tcpconn implements transport.Transport over a TCP connection
// to a network-attached reader, the Go-native equivalent of the teacher
// corpus's boost::asio ip::tcp transport.
package tcpconn

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/contactless/readerdrv/internal/timer"
)

// Transport is a transport.Transport backed by a dialed net.Conn.
type Transport struct {
	conn net.Conn

	mu        sync.Mutex
	listeners map[int]func([]byte) int
	nextID    int

	timer timer.Soft

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Dial resolves and connects to addr (host:port) within connectTimeout
// and starts the read pump.
func Dial(addr string, connectTimeout time.Duration) (*Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("tcpconn: dial %s: %w", addr, err)
	}

	t := &Transport{
		conn:      conn,
		listeners: make(map[int]func([]byte) int),
		stopCh:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readPump()
	return t, nil
}

func (t *Transport) Close() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	err := t.conn.Close()
	t.wg.Wait()
	return err
}

func (t *Transport) Send(b []byte, done func(n int, err error)) {
	n, err := t.conn.Write(b)
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

func (t *Transport) readPump() {
	defer t.wg.Done()
	buf := make([]byte, 512)
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		t.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := t.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
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
