// Package transport defines the uniform asynchronous byte-stream contract
// shared by every concrete transport (serial, TCP, UNIX-domain, and the
// in-process simulator) and consumed by the protocol engine in
// pkg/protocol.
package transport

import "time"

// Transport is the polymorphic contract a Protocol binds to for the
// lifetime of a single command. Implementations are single-command-at-a-
// time: the caller serializes requests, so a Transport need not support
// interleaving multiple in-flight commands.
type Transport interface {
	// Send enqueues a write of b. done is invoked exactly once, with the
	// number of bytes written and any error.
	Send(b []byte, done func(n int, err error))

	// Listen registers a push callback delivering every inbound chunk
	// until the returned disconnect func is called (which is idempotent).
	// Multiple listeners may be registered. A listener returns 0 for
	// "keep reading" and nonzero for "satisfied"; the transports in this
	// module do not combine or act on these values, and keep delivering
	// every chunk to every registered listener.
	Listen(onData func(chunk []byte) int) (disconnect func())

	// SetTimeout arms a one-shot timer that invokes onFire after d
	// elapses. Re-arming replaces any pending fire.
	SetTimeout(d time.Duration, onFire func())

	// CancelTimeout disarms a previously armed timer. If cancellation
	// loses the race to an already-firing timer, onFire may still run;
	// callers must tolerate that race (see pkg/protocol).
	CancelTimeout()
}

// Persister is an optional capability: transports that can save/load an
// opaque snapshot (currently only the simulator) implement it, and
// pkg/reader's Reader.Save/Load delegates to it when present.
type Persister interface {
	Save(path string) error
	Load(path string) error
}
