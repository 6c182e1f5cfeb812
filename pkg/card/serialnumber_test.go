package card

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerialNumberFixLen7(t *testing.T) {
	var sn SerialNumber
	sn.Len = 7
	copy(sn.SN[:7], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x11, 0x22, 0x33})

	sn.Fix()

	// offsets: [0 0 0 7 7 7 7 7 7 7 chk] per the reported length.
	require.Equal(t, byte(0), sn.SN[0])
	require.Equal(t, byte(0), sn.SN[1])
	require.Equal(t, byte(0), sn.SN[2])
	require.Equal(t, [7]byte{0xAA, 0xBB, 0xCC, 0xDD, 0x11, 0x22, 0x33}, [7]byte(sn.SN[3:10]))
	require.Equal(t, byte(0xAA^0xBB^0xCC^0xDD), sn.SN[10])
}

func TestSerialNumberFixLen5(t *testing.T) {
	var sn SerialNumber
	sn.Len = 5
	copy(sn.SN[:5], []byte{1, 2, 3, 4, 5})

	sn.Fix()

	require.Equal(t, [5]byte{0, 0, 0, 0, 0}, [5]byte(sn.SN[0:5]))
	require.Equal(t, [5]byte{1, 2, 3, 4, 5}, [5]byte(sn.SN[5:10]))
	require.Equal(t, byte(1^2^3^4), sn.SN[10])
}

func TestSerialNumberFixIsNoopWhenAlreadyFull(t *testing.T) {
	var sn SerialNumber
	sn.Len = 11
	for i := range sn.SN {
		sn.SN[i] = byte(i + 1)
	}
	before := sn.SN

	sn.Fix()

	require.Equal(t, before, sn.SN, "Fix must not touch an already-full-length serial number")
}

func TestSerialNumberEqualComparesOnlySN(t *testing.T) {
	a := SerialNumber{SAK: 1, Len: 5, SN: [snBufLen]byte{1, 2, 3}}
	b := SerialNumber{SAK: 9, Len: 7, SN: [snBufLen]byte{1, 2, 3}}
	c := SerialNumber{SAK: 1, Len: 5, SN: [snBufLen]byte{1, 2, 4}}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestSerialNumberWireRoundTrip(t *testing.T) {
	sn := SerialNumber{SAK: 0x08, Len: 7}
	copy(sn.SN[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

	var got SerialNumber
	require.NoError(t, got.UnmarshalWire(sn.MarshalWire()))
	require.Equal(t, sn, got)
}

func TestSN5ExtractsTrailingFiveBytes(t *testing.T) {
	var sn SerialNumber
	for i := range sn.SN {
		sn.SN[i] = byte(i)
	}
	require.Equal(t, [5]byte{6, 7, 8, 9, 10}, sn.SN5().Bytes)
}
