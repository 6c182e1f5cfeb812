// Package simulator is an in-process transport.Transport that emulates a
// reader with a single Mifare Standard card already in its field: it
// decodes incoming reader-protocol frames, dispatches them to a small
// per-command-code handler table, and answers synchronously — there is
// no real wire, so "listen" delivery happens inside Send itself, before
// Send's own completion callback returns.
package simulator

import (
	"sync"
	"time"

	"github.com/contactless/readerdrv/internal/crc"
	"github.com/contactless/readerdrv/internal/framing"
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

const (
	cardTypeStandard = 0x0004

	cmdGetSN            = 0x10
	cmdGetVersion       = 0x02
	cmdFieldOn          = 0x4E
	cmdFieldOff         = 0x4F
	cmdRequestStd       = 0x40
	cmdAnticollision    = 0x22
	cmdAuth             = 0x44
	cmdAuthDyn          = 0xBB
	cmdBlockRead        = 0xBC
	cmdBlockWrite       = 0xBD
	cmdSectorRead       = 0xBE
	cmdSectorWrite      = 0xBF
	cmdSetTrailer       = 0xC0
	cmdSetTrailerDyn    = 0xC1

	nackCode = 0x01 // the reply frame's `code` field when nacking
)

type handlerFunc func(s *Transport, in []byte) (out []byte, nack byte)

var handlers = map[byte]handlerFunc{
	cmdGetSN:         (*Transport).handleGetSN,
	cmdGetVersion:    (*Transport).handleGetVersion,
	cmdFieldOn:       (*Transport).handleFieldOnOff,
	cmdFieldOff:      (*Transport).handleFieldOnOff,
	cmdRequestStd:    (*Transport).handleRequestStd,
	cmdAnticollision: (*Transport).handleAnticollision,
	cmdAuth:          (*Transport).handleAuth,
	cmdAuthDyn:       (*Transport).handleAuthDyn,
	cmdBlockRead:     (*Transport).handleBlockRead,
	cmdBlockWrite:    (*Transport).handleBlockWrite,
	cmdSectorRead:    (*Transport).handleSectorRead,
	cmdSectorWrite:   (*Transport).handleSectorWrite,
	cmdSetTrailer:    (*Transport).handleSetTrailer,
	cmdSetTrailerDyn: (*Transport).handleSetTrailerDyn,
}

// Transport is an in-process transport.Transport and transport.Persister
// wrapping one CardStorage.
type Transport struct {
	mu      sync.Mutex
	storage CardStorage

	listeners map[int]func([]byte) int
	nextID    int
}

// New returns a simulator seeded with a freshly-generated card identity.
// If path is non-empty and loadable, the card identity and sector
// contents are restored from it instead.
func New(path string) *Transport {
	t := &Transport{listeners: make(map[int]func([]byte) int)}
	if path == "" || t.Load(path) != nil {
		t.storage = NewCardStorage()
	}
	return t
}

// Send decodes one reader-protocol frame from b, dispatches it, and
// delivers the stuffed answer frame to every registered listener before
// returning — done is still invoked afterwards, reporting the write as
// complete.
func (t *Transport) Send(b []byte, done func(n int, err error)) {
	reply := t.handle(b)

	t.mu.Lock()
	current := make([]func([]byte) int, 0, len(t.listeners))
	for _, l := range t.listeners {
		current = append(current, l)
	}
	t.mu.Unlock()

	for _, l := range current {
		l(reply)
	}

	if done != nil {
		done(len(b), nil)
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

// SetTimeout and CancelTimeout are no-ops: a synchronous in-process
// transport always answers before Send returns, so no timer is ever
// armed against it.
func (t *Transport) SetTimeout(time.Duration, func()) {}
func (t *Transport) CancelTimeout()                   {}

// handle unstuffs, CRC-checks and dispatches one frame, returning the
// stuffed answer frame ready to deliver to listeners.
func (t *Transport) handle(wire []byte) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	un := framing.Unstuff(wire)
	header, ok := parseHeader(un)

	var code byte
	var outPayload []byte
	nack := byte(0)

	if !ok || !headerCRCOK(un, header) {
		nack = byte(rerr.CRCError)
	} else {
		code = header.code
		h, found := handlers[code]
		if !found {
			nack = byte(rerr.NoCommand)
		} else {
			outPayload, nack = h(t, header.payload(un))
		}
	}

	if nack != 0 {
		return framing.Stuff(buildFrame(0, nackCode, []byte{nack}))
	}
	return framing.Stuff(buildFrame(0, code, outPayload))
}

type header struct {
	addr, code, len byte
}

func parseHeader(buf []byte) (header, bool) {
	if len(buf) < 4 {
		return header{}, false
	}
	return header{addr: buf[1], code: buf[2], len: buf[3]}, true
}

func (h header) fullSize() int { return 4 + int(h.len) + 2 }

func (h header) payload(buf []byte) []byte {
	return buf[4 : 4+int(h.len)]
}

func headerCRCOK(buf []byte, h header) bool {
	n := h.fullSize()
	if len(buf) < n {
		return false
	}
	sum := crc.Checksum16(buf[:n-2])
	return buf[n-2] == sum.Low() && buf[n-1] == sum.High()
}

func buildFrame(addr, code byte, payload []byte) []byte {
	frame := make([]byte, 4+len(payload)+2)
	frame[0] = framing.FBGN
	frame[1] = addr
	frame[2] = code
	frame[3] = byte(len(payload))
	copy(frame[4:], payload)
	sum := crc.Checksum16(frame[:4+len(payload)])
	frame[len(frame)-2] = sum.Low()
	frame[len(frame)-1] = sum.High()
	return frame
}
