package protocol

import (
	"fmt"
	"sync"
	"time"

	"github.com/contactless/readerdrv/internal/framing"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/transport"
)

// TerminalProtocol implements the FSSTR/FMSTR/FEND framed, additive-
// checksum protocol used to talk to terminal-attached devices. Unlike
// ReaderProtocol, an inbound frame whose addr/code don't match the
// outstanding command is not an answer for us — it's traffic for another
// party on the same bus, so the decoder resets and keeps waiting instead
// of resolving.
type TerminalProtocol struct {
	t       transport.Transport
	timeout time.Duration
	typ     byte

	addr byte
	code byte

	un *framing.TerminalUnstuffer

	disconnect     func()
	disconnectOnce sync.Once

	answerCh    chan Answer
	resolveOnce sync.Once
}

// NewTerminalProtocol binds a fresh TerminalProtocol to t, using the
// default 150ms terminal timeout and FMAS ("master") as the outgoing type
// byte. Use WithTimeout / WithType to override before Send.
func NewTerminalProtocol(t transport.Transport) *TerminalProtocol {
	return &TerminalProtocol{
		t:        t,
		timeout:  TerminalDefaultTimeout,
		typ:      framing.FMAS,
		un:       framing.NewTerminalUnstuffer(),
		answerCh: make(chan Answer, 1),
	}
}

func (p *TerminalProtocol) WithTimeout(d time.Duration) *TerminalProtocol {
	p.timeout = d
	return p
}

func (p *TerminalProtocol) WithType(typ byte) *TerminalProtocol {
	p.typ = typ
	return p
}

func (p *TerminalProtocol) Send(addr, code byte, payload []byte) error {
	if len(payload) > 250 {
		return fmt.Errorf("terminal protocol: payload length %d exceeds 250", len(payload))
	}
	p.addr = addr
	p.code = code

	p.disconnect = p.t.Listen(p.feed)

	frame := buildTerminalFrame(p.typ, addr, code, payload)
	stuffed := framing.TerminalStuff(frame)

	p.t.Send(stuffed, func(n int, err error) {
		if err != nil {
			p.setAnswer(Answer{Result: rerr.IOError})
			return
		}
		if p.timeout == 0 {
			p.setAnswer(Answer{Result: rerr.NoAnswer})
			return
		}
		p.t.SetTimeout(p.timeout, func() {
			p.setAnswer(Answer{Result: rerr.NoAnswer})
		})
	})

	return nil
}

func (p *TerminalProtocol) GetAnswer() Answer {
	return <-p.answerCh
}

// feed is the transport's inbound-chunk callback. A frame addressed to
// someone else (addr or code mismatch) is discarded and the decoder is
// reset to wait for the next FSSTR, rather than resolving this command.
func (p *TerminalProtocol) feed(chunk []byte) int {
	p.un.Feed(chunk)
	if !p.un.Completed() {
		return 0
	}
	buf := p.un.Bytes()

	header, ok := parseTerminalHeader(buf)
	if !ok || header.addr != p.addr || header.code != p.code {
		p.un.Reset()
		return 0
	}

	switch {
	case len(buf) < terminalMinFrameSize:
		// addr/code already matched above, so a too-short frame is
		// obviously wrong rather than something else's traffic — resolve
		// instead of resetting to wait for more.
		p.setAnswer(Answer{Result: rerr.WrongAnswer})
	case !terminalChecksumOK(buf):
		p.setAnswer(Answer{Result: rerr.PacketCRCError})
	case header.typ == framing.FNAK:
		errNum := leUint32(terminalPayload(buf))
		p.setAnswer(Answer{Result: rerr.Code(errNum), Addr: header.addr, Code: header.code})
	default:
		src := terminalPayload(buf)
		payload := make([]byte, len(src))
		copy(payload, src)
		p.setAnswer(Answer{Addr: header.addr, Code: header.code, Payload: payload})
	}
	return 1
}

func (p *TerminalProtocol) setAnswer(a Answer) {
	p.resolveOnce.Do(func() {
		p.disconnectOnce.Do(func() {
			if p.disconnect != nil {
				p.disconnect()
			}
		})
		p.t.CancelTimeout()
		p.answerCh <- a
	})
}
