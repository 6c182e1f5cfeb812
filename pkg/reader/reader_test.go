package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/protocol"
	"github.com/contactless/readerdrv/pkg/transport"
)

// fakeProtocol is a scripted protocol.Protocol: Send just records its
// arguments, GetAnswer returns whatever the test queued up. It lets these
// tests exercise Reader.Command's length-reconciliation logic without a
// real transport or framing underneath.
type fakeProtocol struct {
	sendErr error
	answer  protocol.Answer

	sentAddr, sentCode byte
	sentPayload        []byte
}

func (f *fakeProtocol) Send(addr, code byte, payload []byte) error {
	f.sentAddr, f.sentCode, f.sentPayload = addr, code, payload
	return f.sendErr
}

func (f *fakeProtocol) GetAnswer() protocol.Answer { return f.answer }

func factoryFor(fp *fakeProtocol) protocol.Factory {
	return func(transport.Transport) protocol.Protocol { return fp }
}

// fixedSizeAnswer is a WireDecoder of whatever size the test wants,
// independent of any real card type.
type fixedSizeAnswer struct {
	size int
	got  []byte
}

func (a *fixedSizeAnswer) WireSize() int { return a.size }
func (a *fixedSizeAnswer) UnmarshalWire(b []byte) error {
	a.got = append([]byte(nil), b...)
	return nil
}

func TestReaderCommandExactLengthSucceeds(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{1, 2, 3}}}
	r := New(nil, factoryFor(fp), 0)

	ans := &fixedSizeAnswer{size: 3}
	require.Equal(t, rerr.Success, r.Command(0x42, nil, ans))
	require.Equal(t, []byte{1, 2, 3}, ans.got)
}

func TestReaderCommandShortAnswerStillCopiesPartialBytes(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{9, 8}}}
	r := New(nil, factoryFor(fp), 0)

	ans := &fixedSizeAnswer{size: 5}
	code := r.Command(0x42, nil, ans)

	received, expected := rerr.SplitPacketDataLenError(code)
	require.Equal(t, uint8(2), received)
	require.Equal(t, uint8(5), expected)
	require.Equal(t, []byte{9, 8, 0, 0, 0}, ans.got, "bytes that did arrive are zero-padded and copied before the mismatch is reported")
}

func TestReaderCommandLongAnswerIsTruncatedThenReported(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{1, 2, 3, 4, 5}}}
	r := New(nil, factoryFor(fp), 0)

	ans := &fixedSizeAnswer{size: 3}
	code := r.Command(0x42, nil, ans)

	received, expected := rerr.SplitPacketDataLenError(code)
	require.Equal(t, uint8(5), received)
	require.Equal(t, uint8(3), expected)
	require.Equal(t, []byte{1, 2, 3}, ans.got)
}

func TestReaderCommandTransportFailureSkipsAnswerEntirely(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.NoAnswer}}
	r := New(nil, factoryFor(fp), 0)

	ans := &fixedSizeAnswer{size: 3}
	require.Equal(t, rerr.NoAnswer, r.Command(0x42, nil, ans))
	require.Nil(t, ans.got, "a transport/protocol failure must not touch ans at all")
}

func TestReaderCommandNoExpectedPayloadToleratesEmptyAnswer(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success}}
	r := New(nil, factoryFor(fp), 0)

	require.Equal(t, rerr.Success, r.Command(0x42, nil, nil))
}

func TestReaderCommandNoExpectedPayloadButBytesArrivedIsAnError(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{1}}}
	r := New(nil, factoryFor(fp), 0)

	code := r.Command(0x42, nil, nil)
	received, expected := rerr.SplitPacketDataLenError(code)
	require.Equal(t, uint8(1), received)
	require.Equal(t, uint8(0), expected)
}

func TestReaderCommandMarshalsRequestPayload(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success}}
	r := New(nil, factoryFor(fp), 5)

	req := &fixedSizeAnswer{size: 2} // reused only for MarshalWire below
	_ = req
	r.Command(0x42, wireEncoderFunc(func() []byte { return []byte{0xAA, 0xBB} }), nil)

	require.Equal(t, byte(5), fp.sentAddr)
	require.Equal(t, byte(0x42), fp.sentCode)
	require.Equal(t, []byte{0xAA, 0xBB}, fp.sentPayload)
}

type wireEncoderFunc func() []byte

func (f wireEncoderFunc) MarshalWire() []byte { return f() }

func TestGetSNAndGetVersion(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8}}}
	r := New(nil, factoryFor(fp), 0)
	sn, code := r.GetSN()
	require.Equal(t, rerr.Success, code)
	require.Equal(t, DeviceSerial{1, 2, 3, 4, 5, 6, 7, 8}, sn)

	fp.answer = protocol.Answer{Result: rerr.Success, Payload: []byte("F01\x00\x00\x00\x00")}
	v, code := r.GetVersion()
	require.Equal(t, rerr.Success, code)
	require.Equal(t, "F01", v.String())
}

func TestFieldOnOffAndSync(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success}}
	r := New(nil, factoryFor(fp), 0)

	require.Equal(t, rerr.Success, r.FieldOn())
	require.Equal(t, byte(fieldOn), fp.sentCode)
	require.Equal(t, rerr.Success, r.FieldOff())
	require.Equal(t, byte(fieldOff), fp.sentCode)
	require.Equal(t, rerr.Success, r.SyncWithDevice())
	require.Equal(t, byte(syncWithDevice), fp.sentCode)
}

func TestMultibytePackageForwardsPayload(t *testing.T) {
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.Success, Payload: []byte{1, 2}}}
	r := New(nil, factoryFor(fp), 0)

	require.Equal(t, rerr.Success, r.MultibytePackage([]byte{1, 2, 3}))
	require.Equal(t, []byte{1, 2, 3}, fp.sentPayload)
}

func TestSaveReportsScanFailureLoadReportsNoImplSupportWithoutPersister(t *testing.T) {
	// Neither a nil transport.Transport nor SendRaw-level success gets far
	// enough to reach NoImplSupport here: the fallback walk's first step is
	// c.Scan, which itself needs a working command round-trip. A transport
	// that isn't a Persister and that fails the scan should report that
	// scan failure rather than NoImplSupport.
	fp := &fakeProtocol{answer: protocol.Answer{Result: rerr.NoAnswer}}
	r := New(nil, factoryFor(fp), 0)

	require.Equal(t, rerr.NoAnswer, r.Save(""))
	require.Equal(t, rerr.NoImplSupport, r.Load(""))
}
