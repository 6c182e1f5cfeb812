package protocol

import (
	"github.com/contactless/readerdrv/internal/crc"
	"github.com/contactless/readerdrv/internal/framing"
)

const (
	readerHeaderSize = 4 // start, addr, code, len
	readerCRCLen     = 2
	nackCode         = 0x01
)

// buildReaderFrame assembles the unstuffed on-wire reader frame:
// { 0xFF, addr, code, len, payload..., crcLow, crcHigh }.
func buildReaderFrame(addr, code byte, payload []byte) []byte {
	frame := make([]byte, readerHeaderSize+len(payload)+readerCRCLen)
	frame[0] = framing.FBGN
	frame[1] = addr
	frame[2] = code
	frame[3] = byte(len(payload))
	copy(frame[4:], payload)

	sum := crc.Checksum16(frame[:readerHeaderSize+len(payload)])
	frame[len(frame)-2] = sum.Low()
	frame[len(frame)-1] = sum.High()
	return frame
}

// readerHeader is a parsed, unstuffed reader-frame prefix.
type readerHeader struct {
	addr byte
	code byte
	len  byte
}

func parseReaderHeader(buf []byte) (readerHeader, bool) {
	if len(buf) < readerHeaderSize {
		return readerHeader{}, false
	}
	return readerHeader{addr: buf[1], code: buf[2], len: buf[3]}, true
}

func (h readerHeader) fullSize() int {
	return readerHeaderSize + int(h.len) + readerCRCLen
}

// crcOK validates buf[:h.fullSize()] against its trailing CRC-16.
func (h readerHeader) crcOK(buf []byte) bool {
	n := h.fullSize()
	if len(buf) < n {
		return false
	}
	sum := crc.Checksum16(buf[:n-readerCRCLen])
	return buf[n-2] == sum.Low() && buf[n-1] == sum.High()
}

func (h readerHeader) payload(buf []byte) []byte {
	return buf[readerHeaderSize : readerHeaderSize+int(h.len)]
}

// little-endian decode of up to 4 bytes, used for NACK error numbers.
func leUint32(b []byte) uint32 {
	var v uint32
	for i := 0; i < len(b) && i < 4; i++ {
		v |= uint32(b[i]) << (8 * uint(i))
	}
	return v
}
