package protocol

import (
	"github.com/contactless/readerdrv/internal/crc"
	"github.com/contactless/readerdrv/internal/framing"
)

const (
	terminalHeaderSize   = 4 // start, type, addr, code
	terminalChecksumLen  = 2
	terminalTrailerLen   = terminalChecksumLen + 1 // + terminator
	terminalMinFrameSize = terminalHeaderSize + terminalTrailerLen
)

// buildTerminalFrame assembles the unstuffed on-wire terminal frame:
// { '<', type, addr, code, payload..., csumHi, csumLo, ';' }. The leading
// byte is FMSTR: outgoing (host-originated) frames are always "master"
// direction; inbound replies are recognised by the FSSTR sentinel instead
// (see TerminalUnstuffer), so the two directions never collide on the
// same start byte.
func buildTerminalFrame(typ, addr, code byte, payload []byte) []byte {
	frame := make([]byte, terminalHeaderSize+len(payload)+terminalTrailerLen)
	frame[0] = framing.FMSTR
	frame[1] = typ
	frame[2] = addr
	frame[3] = code
	copy(frame[4:], payload)

	sum := crc.TerminalChecksum(frame[1 : terminalHeaderSize+len(payload)])
	n := len(frame)
	frame[n-3] = byte(sum >> 8)
	frame[n-2] = byte(sum)
	frame[n-1] = framing.FEND
	return frame
}

type terminalHeader struct {
	typ, addr, code byte
}

func parseTerminalHeader(buf []byte) (terminalHeader, bool) {
	if len(buf) < terminalHeaderSize {
		return terminalHeader{}, false
	}
	return terminalHeader{typ: buf[1], addr: buf[2], code: buf[3]}, true
}

func (terminalHeader) minSize() int { return terminalMinFrameSize }

func terminalChecksumOK(buf []byte) bool {
	n := len(buf)
	if n < terminalMinFrameSize {
		return false
	}
	present := uint16(buf[n-3])<<8 | uint16(buf[n-2])
	return present == crc.TerminalChecksum(buf[1:n-3])
}

func terminalPayload(buf []byte) []byte {
	n := len(buf)
	return buf[terminalHeaderSize : n-terminalTrailerLen]
}
