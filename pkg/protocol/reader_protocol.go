package protocol

import (
	"fmt"
	"sync"
	"time"

	"github.com/contactless/readerdrv/internal/framing"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/transport"
)

// ReaderProtocol implements the FBGN/FESC, CRC-16 protected protocol used
// to talk to the reader itself.
type ReaderProtocol struct {
	t       transport.Transport
	timeout time.Duration

	addr byte
	code byte

	un *framing.Unstuffer

	disconnect     func()
	disconnectOnce sync.Once

	answerCh    chan Answer
	resolveOnce sync.Once
}

// NewReaderProtocol binds a fresh ReaderProtocol to t, using the default
// 1500ms reader timeout. Use WithTimeout to override it before Send.
func NewReaderProtocol(t transport.Transport) *ReaderProtocol {
	return &ReaderProtocol{
		t:        t,
		timeout:  ReaderDefaultTimeout,
		un:       framing.NewUnstuffer(),
		answerCh: make(chan Answer, 1),
	}
}

// WithTimeout overrides the default timeout before Send is called. A zero
// duration means "send-only, no answer expected".
func (p *ReaderProtocol) WithTimeout(d time.Duration) *ReaderProtocol {
	p.timeout = d
	return p
}

func (p *ReaderProtocol) Send(addr, code byte, payload []byte) error {
	if len(payload) > 250 {
		return fmt.Errorf("reader protocol: payload length %d exceeds 250", len(payload))
	}
	p.addr = addr
	p.code = code

	// Subscribe before writing: the simulator transport may deliver the
	// response synchronously, inside Send, before Send's own completion
	// callback returns.
	p.disconnect = p.t.Listen(p.feed)

	frame := buildReaderFrame(addr, code, payload)
	stuffed := framing.Stuff(frame)

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

func (p *ReaderProtocol) GetAnswer() Answer {
	return <-p.answerCh
}

// feed is the transport's inbound-chunk callback. It returns 0 while more
// data is needed, 1 once a complete frame resolves this instance.
func (p *ReaderProtocol) feed(chunk []byte) int {
	p.un.Feed(chunk)
	buf := p.un.Bytes()

	header, ok := parseReaderHeader(buf)
	if !ok {
		return 0
	}
	full := header.fullSize()
	if len(buf) < full {
		return 0
	}

	switch {
	case !header.crcOK(buf):
		p.setAnswer(Answer{Result: rerr.PacketCRCError})
	case header.code == nackCode:
		errNum := leUint32(header.payload(buf))
		p.setAnswer(Answer{Result: rerr.Code(errNum), Addr: header.addr, Code: header.code})
	default:
		payload := make([]byte, header.len)
		copy(payload, header.payload(buf))
		p.setAnswer(Answer{Addr: header.addr, Code: header.code, Payload: payload})
	}
	return 1
}

func (p *ReaderProtocol) setAnswer(a Answer) {
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
