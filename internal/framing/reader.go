// Package framing implements the two byte-stuffing dialects used by the
// reader and terminal protocols: a prefix-free escape transform over an
// arbitrary byte stream, and a resumable decoder that can be fed chunks of
// any size and reassembles frames across call boundaries.
package framing

// Reader-protocol sentinel and escape bytes (wire format, pre-stuffing).
const (
	FBGN  byte = 0xFF // start sentinel
	FESC  byte = 0xF1 // escape marker
	TFBGN byte = 0xF2 // escaped form of FBGN
	TFESC byte = 0xF3 // escaped form of FESC
)

// Stuff byte-stuffs body starting at body[0] (the leading sentinel, passed
// through verbatim) through body[len(body)-1] (also passed through
// verbatim). Every FBGN or FESC byte strictly between the first and last
// byte is escaped. The returned slice is a newly allocated buffer sized to
// the exact written length.
func Stuff(body []byte) []byte {
	if len(body) == 0 {
		return nil
	}
	out := make([]byte, 1, len(body)*2)
	out[0] = body[0]
	for i := 1; i < len(body)-1; i++ {
		c := body[i]
		switch c {
		case FBGN:
			out = append(out, FESC, TFBGN)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, c)
		}
	}
	if len(body) > 1 {
		out = append(out, body[len(body)-1])
	}
	return out
}

// Unstuffer is a resumable byte-unstuffing state machine for the reader
// protocol's FBGN/FESC escaping. Feed chunks of arbitrary size in order;
// Bytes() returns everything unstuffed so far.
type Unstuffer struct {
	sink         []byte
	waitForStart bool
	escape       bool
}

// NewUnstuffer returns an Unstuffer ready to receive the first chunk of a
// new frame.
func NewUnstuffer() *Unstuffer {
	u := &Unstuffer{}
	u.Reset()
	return u
}

// Reset discards any partially-accumulated frame and waits for the next
// start sentinel.
func (u *Unstuffer) Reset() {
	u.sink = u.sink[:0]
	u.waitForStart = true
	u.escape = false
}

// Feed unstuffs len(chunk) more bytes of input, appending the result to
// the accumulated sink. It tolerates being handed any partition of the
// original stuffed stream: a FESC byte that arrives as the last byte of a
// chunk correctly carries its escape state into the next Feed call.
func (u *Unstuffer) Feed(chunk []byte) {
	for _, c := range chunk {
		if u.waitForStart {
			if c != FBGN {
				continue
			}
			u.waitForStart = false
			u.sink = append(u.sink, c)
			continue
		}
		if u.escape {
			switch c {
			case TFBGN:
				u.sink = append(u.sink, FBGN)
			case TFESC:
				u.sink = append(u.sink, FESC)
			default:
				// Permissive recovery: not a recognised escape sequence,
				// emit the escape byte and the literal byte unchanged.
				u.sink = append(u.sink, FESC, c)
			}
			u.escape = false
			continue
		}
		if c == FESC {
			u.escape = true
			continue
		}
		u.sink = append(u.sink, c)
	}
}

// Bytes returns the accumulated, unstuffed payload.
func (u *Unstuffer) Bytes() []byte {
	return u.sink
}

// Len returns the number of unstuffed bytes accumulated so far.
func (u *Unstuffer) Len() int {
	return len(u.sink)
}

// Unstuff is a one-shot convenience wrapper around Unstuffer for callers
// that already have the whole stuffed frame in hand.
func Unstuff(stuffed []byte) []byte {
	u := NewUnstuffer()
	u.Feed(stuffed)
	out := make([]byte, u.Len())
	copy(out, u.Bytes())
	return out
}
