// Package reader is the driver façade: it binds a pkg/protocol.Factory to
// a pkg/transport.Transport, runs each command through a fresh Protocol
// instance, and validates answer length the way the legacy firmware API
// does — a short or long answer is itself a reportable error, but
// whatever bytes did arrive are still copied into the caller's answer
// struct (truncated or zero-padded to the expected size) before that
// error is returned, so recovery paths like the anticollision length fix
// still have something to work with.
package reader

import (
	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/protocol"
	"github.com/contactless/readerdrv/pkg/transport"
)

// Reader binds one Transport and one Protocol flavour (reader or
// terminal) together. Every command gets its own fresh Protocol instance,
// so GetAnswer's single-resolution guarantee always starts from a clean
// state.
type Reader struct {
	t       transport.Transport
	factory protocol.Factory
	addr    byte
}

// New binds a Reader to t using factory to build a fresh Protocol per
// command. addr is the device address every command targets (0 for the
// common single-reader-per-line case).
func New(t transport.Transport, factory protocol.Factory, addr byte) *Reader {
	return &Reader{t: t, factory: factory, addr: addr}
}

// SendRaw is the core primitive: build a fresh Protocol, send (addr,
// code, payload), and return whatever bytes came back along with the
// protocol-level result. It never validates answer length — Command and
// SendCommand do that, each against their own expected size.
func (r *Reader) SendRaw(code byte, payload []byte) ([]byte, rerr.Code) {
	p := r.factory(r.t)
	if err := p.Send(r.addr, code, payload); err != nil {
		return nil, rerr.IOError
	}
	answer := p.GetAnswer()
	return answer.Payload, answer.Result
}

// Command implements card.Commander: marshal req, transceive it, and
// decode the answer into ans (nil or card.NoAnswer for commands with no
// payload). A length mismatch between the received and expected answer
// size is reported as PacketDataLenError, packing {received, expected};
// the partial bytes that did arrive are still copied into ans first.
func (r *Reader) Command(code byte, req card.WireEncoder, ans card.WireDecoder) rerr.Code {
	var payload []byte
	if req != nil {
		payload = req.MarshalWire()
	}

	received, result := r.SendRaw(code, payload)
	if result != rerr.Success {
		return result
	}

	expected := 0
	if ans != nil {
		expected = ans.WireSize()
	}

	if expected == 0 {
		if len(received) != 0 {
			return rerr.PacketDataLenError(clampByte(len(received)), 0)
		}
		return rerr.Success
	}

	buf := make([]byte, expected)
	copyLen := len(received)
	if copyLen > expected {
		copyLen = expected
	}
	copy(buf, received[:copyLen])
	if err := ans.UnmarshalWire(buf); err != nil {
		return rerr.WrongAnswer
	}

	if len(received) != expected {
		return rerr.PacketDataLenError(clampByte(len(received)), clampByte(expected))
	}
	return rerr.Success
}

func clampByte(n int) uint8 {
	if n > 0xFF {
		return 0xFF
	}
	return uint8(n)
}
