// Package errors defines the driver's value-returned error taxonomy: u32
// codes carried through protocol, transport and card layers instead of Go
// errors, so callers can mask and compare them the way the original
// firmware-facing API does.
package errors

// Code is a u32 result/error code. Zero means success.
type Code uint32

// ErrMask isolates the card-domain class from its packed diagnostic bytes.
const ErrMask Code = 0xFF0000FF

// Transport- and protocol-level codes.
const (
	Success             Code = 0x00000000
	IOError             Code = 0x0E000001
	NoAnswer            Code = 0x0E0000A0
	AnswerTooLong       Code = 0x0E0000AF
	PacketCRCError      Code = 0x0E0000CC
	PacketDataLenErrorB Code = 0x0E0000DE
	WrongAnswer         Code = 0x0E0000DF
	NoImpl              Code = 0x0E0000F0
	NoImplSupport       Code = 0x0E0000F1
)

// Card-domain composite codes (masked by ErrMask).
const (
	NoCard    Code = 0x0A0000FF
	WrongCard Code = 0x0C0000FF
)

// Firmware NACK codes: single-byte values the reader itself returns as
// the low byte of a NACK answer. These are always below errorBase-style
// thresholds used by pkg/card to distinguish "the firmware refused this
// command" from a protocol/transport-level failure.
const (
	ErrorRead  Code = 8
	ErrorWrite Code = 9
	ErrorValue Code = 11
	NoCommand  Code = 254
	CRCError   Code = 255
)

// PacketDataLenError packs the received and expected lengths into the
// upper bytes of PacketDataLenErrorB so a caller can recover both values
// from the single returned code, per spec: the low byte is the error tag,
// the next two bytes hold {received, expected}.
func PacketDataLenError(received, expected uint8) Code {
	payload := uint32(received)<<8 | uint32(expected)
	return Code(uint32(PacketDataLenErrorB) | payload<<8)
}

// SplitPacketDataLenError recovers the {received, expected} pair packed by
// PacketDataLenError.
func SplitPacketDataLenError(c Code) (received, expected uint8) {
	payload := uint32(c) >> 8
	return uint8(payload >> 8), uint8(payload)
}

// Is reports whether code belongs to the given error class once masked by
// ErrMask — used for the card-domain NO_CARD/WRONG_CARD family.
func Is(code, class Code) bool {
	return code&ErrMask == class&ErrMask
}

// Error implements the error interface so Code can be returned from Go
// functions that need both a driver Code and an idiomatic error, e.g. in
// tests using require.ErrorIs.
func (c Code) Error() string {
	switch c {
	case Success:
		return "success"
	case IOError:
		return "io error"
	case NoAnswer:
		return "no answer (timeout)"
	case AnswerTooLong:
		return "answer too long"
	case PacketCRCError:
		return "packet crc error"
	case WrongAnswer:
		return "wrong answer"
	case NoImpl:
		return "no implementation"
	case NoImplSupport:
		return "no implementation support"
	case NoCard:
		return "no card"
	case WrongCard:
		return "wrong card"
	case ErrorRead:
		return "firmware: read error"
	case ErrorWrite:
		return "firmware: write error"
	case ErrorValue:
		return "firmware: invalid value"
	case NoCommand:
		return "firmware: no such command"
	case CRCError:
		return "firmware: crc error"
	default:
		if Is(c, PacketDataLenErrorB) {
			received, expected := SplitPacketDataLenError(c)
			return "packet data length error (received=" + itoa(received) + " expected=" + itoa(expected) + ")"
		}
		return "reader error"
	}
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
