package protocol_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactless/readerdrv/internal/crc"
	"github.com/contactless/readerdrv/internal/framing"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/protocol"
)

// terminalReplyFrame stands in for a device's reply: it starts with
// FSSTR ("slave"), the direction marker TerminalUnstuffer actually waits
// for, regardless of what marker the outgoing request used.
func terminalReplyFrame(typ, addr, code byte, payload []byte) []byte {
	frame := make([]byte, 4+len(payload)+3)
	frame[0] = framing.FSSTR
	frame[1] = typ
	frame[2] = addr
	frame[3] = code
	copy(frame[4:], payload)
	sum := crc.TerminalChecksum(frame[1 : 4+len(payload)])
	n := len(frame)
	frame[n-3] = byte(sum >> 8)
	frame[n-2] = byte(sum)
	frame[n-1] = framing.FEND
	return frame
}

func buildTerminalReply(typ, addr, code byte, payload []byte) []byte {
	return framing.TerminalStuff(terminalReplyFrame(typ, addr, code, payload))
}

func TestTerminalProtocolRoundTrip(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft)

	require.NoError(t, p.Send(0x02, 0x44, nil))
	ft.deliver(buildTerminalReply(framing.FSLV, 0x02, 0x44, []byte{0xAA, 0xBB}))

	answer := p.GetAnswer()
	require.Equal(t, rerr.Success, answer.Result)
	require.Equal(t, []byte{0xAA, 0xBB}, answer.Payload)
}

func TestTerminalProtocolIgnoresMismatchedAddrCode(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft).WithTimeout(30 * time.Millisecond)

	require.NoError(t, p.Send(0x02, 0x44, nil))
	// Traffic for a different addr/code on the same bus must not resolve
	// this command — it should fall through to the timeout instead.
	ft.deliver(buildTerminalReply(framing.FSLV, 0x03, 0x44, []byte{1}))

	answer := p.GetAnswer()
	require.Equal(t, rerr.NoAnswer, answer.Result)
}

func TestTerminalProtocolNACKPropagates(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft)

	require.NoError(t, p.Send(0x00, 0x10, nil))
	ft.deliver(buildTerminalReply(framing.FNAK, 0x00, 0x10, []byte{0xFF, 0x00, 0x00, 0x0E}))

	answer := p.GetAnswer()
	require.Equal(t, rerr.Code(0x0E0000FF), answer.Result)
}

func TestTerminalProtocolCorruptedChecksum(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft)

	require.NoError(t, p.Send(0x00, 0x10, nil))
	frame := terminalReplyFrame(framing.FSLV, 0x00, 0x10, []byte{1, 2, 3})
	frame[len(frame)-3] ^= 0xFF // corrupt the checksum before stuffing
	ft.deliver(framing.TerminalStuff(frame))

	answer := p.GetAnswer()
	require.Equal(t, rerr.PacketCRCError, answer.Result)
}

func TestTerminalProtocolTimeout(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft).WithTimeout(20 * time.Millisecond)

	require.NoError(t, p.Send(0x00, 0x10, nil))

	answer := p.GetAnswer()
	require.Equal(t, rerr.NoAnswer, answer.Result)
}

func TestTerminalProtocolTooShortFrameResolvesWrongAnswer(t *testing.T) {
	ft := newFakeTransport()
	p := protocol.NewTerminalProtocol(ft).WithTimeout(30 * time.Millisecond)

	require.NoError(t, p.Send(0x02, 0x44, nil))
	// addr/code match, but the frame ends (FEND) before a checksum or
	// payload ever arrives — too short to be anything but a malformed
	// reply, so it must resolve immediately instead of being discarded
	// as someone else's traffic.
	short := []byte{framing.FSSTR, framing.FSLV, 0x02, 0x44, framing.FEND}
	ft.deliver(framing.TerminalStuff(short))

	answer := p.GetAnswer()
	require.Equal(t, rerr.WrongAnswer, answer.Result)
}
