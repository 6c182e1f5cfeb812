package card

import (
	"testing"

	"github.com/stretchr/testify/require"

	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// stubCommander is a scripted Commander: each call pops the next
// canned (code, result) response and, if ans is non-nil, copies
// answer into it via UnmarshalWire — truncated or zero-padded to
// ans.WireSize(), mirroring what pkg/reader.Command itself does, since
// these tests exercise pkg/card in isolation from the reader transport
// stack.
type stubCommander struct {
	calls []stubCall
	i     int
}

type stubCall struct {
	wantCode byte
	answer   []byte
	result   rerr.Code
}

func (s *stubCommander) Command(code byte, req WireEncoder, ans WireDecoder) rerr.Code {
	call := s.calls[s.i]
	s.i++
	if call.wantCode != code {
		panic("unexpected command code")
	}
	// Mirrors pkg/reader.Command: whatever bytes "arrived" are copied
	// into ans before the result (success or a length-mismatch error) is
	// reported, even when the reported result is non-nil.
	if ans != nil && call.answer != nil {
		size := ans.WireSize()
		buf := make([]byte, size)
		n := len(call.answer)
		if n > size {
			n = size
		}
		copy(buf, call.answer[:n])
		_ = ans.UnmarshalWire(buf)
	}
	return call.result
}

func TestCardScanRemapsSmallNACKToNoCard(t *testing.T) {
	cmd := &stubCommander{calls: []stubCall{
		{wantCode: requestStd, result: rerr.Code(8)}, // firmware ERROR_READ, < errorBase
	}}
	var c Card
	require.Equal(t, rerr.NoCard, c.Scan(cmd))
}

func TestCardScanPassesThroughLargeProtocolError(t *testing.T) {
	cmd := &stubCommander{calls: []stubCall{
		{wantCode: requestStd, result: rerr.IOError},
	}}
	var c Card
	require.Equal(t, rerr.IOError, c.Scan(cmd))
}

func TestCardScanSuccess(t *testing.T) {
	cmd := &stubCommander{calls: []stubCall{
		{wantCode: requestStd, answer: []byte{0x04, 0x00}, result: rerr.Success},
		{wantCode: anticollision, answer: []byte{0, 10, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0}, result: rerr.Success},
	}}
	var c Card
	require.Equal(t, rerr.Success, c.Scan(cmd))
	require.Equal(t, CardType(0x0004), c.Type)
}

func TestCardAnticollisionRecoversFromShortAnswer(t *testing.T) {
	// The simulator's ANTICOLLISION handler always answers short: a
	// PACKET_DATA_LEN_ERROR with whatever partial bytes did arrive
	// already copied into c.SN by the reader layer. Card.Anticollision
	// must turn that into a successful, Fix()-ed serial number.
	cmd := &stubCommander{calls: []stubCall{
		{
			wantCode: anticollision,
			answer:   []byte{0, 7, 1, 2, 3, 4, 5, 6, 7},
			result:   rerr.PacketDataLenError(9, 13),
		},
	}}
	var c Card
	require.Equal(t, rerr.Success, c.Anticollision(cmd))
	require.Equal(t, byte(7), c.SN.Len)
	require.Equal(t, [7]byte{1, 2, 3, 4, 5, 6, 7}, [7]byte(c.SN.SN[3:10]))
}

func TestCardResetDetectsCardSwap(t *testing.T) {
	cmd := &stubCommander{calls: []stubCall{
		{wantCode: requestStd, answer: []byte{0x05, 0x00}, result: rerr.Success},
	}}
	c := Card{Type: CardType(0x0004)}
	require.Equal(t, rerr.WrongCard, c.Reset(cmd))
}
