// Package protocol implements the one-shot request/answer state machines
// that sit on top of a transport.Transport: a "reader" variant (FBGN/FESC
// framing, CRC-16) and a "terminal" variant (FSSTR/FMSTR/FEND framing,
// additive checksum, addr/code filtering). Each Protocol instance is
// single-use, bound to one Transport for the lifetime of exactly one
// command, so cancellation and answer correlation never have to reason
// about a prior command's tail bytes.
package protocol

import (
	"time"

	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/transport"
)

// Answer is the resolved outcome of a single command. Result is zero on
// success; on a reader NACK or terminal NACK, Result carries the
// firmware's little-endian error number. Payload is only valid when
// Result == 0.
type Answer struct {
	Result  rerr.Code
	Addr    byte
	Code    byte
	Payload []byte
}

// Protocol is a single-use request/answer state machine bound to a
// transport.Transport.
type Protocol interface {
	// Send builds a frame for (addr, code, payload), writes it to the
	// bound transport, arms the timeout, and starts listening for the
	// matching inbound frame. It returns an error only for local
	// construction failures (e.g. oversized payload); transport and
	// protocol-level failures are reported through GetAnswer instead.
	Send(addr, code byte, payload []byte) error

	// GetAnswer blocks until exactly one of {frame decoded, timeout
	// fired, transport error} resolves this instance, then returns it.
	GetAnswer() Answer
}

// Factory constructs a fresh Protocol bound to t, used by pkg/reader so a
// new instance is created per command.
type Factory func(t transport.Transport) Protocol

// Default per-protocol timeouts; Send-only (TIMEOUT == 0) means "no
// answer expected" and resolves immediately after a successful write.
const (
	ReaderDefaultTimeout   = 1500 * time.Millisecond
	TerminalDefaultTimeout = 150 * time.Millisecond
)
