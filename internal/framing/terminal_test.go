package framing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTerminalBody(typ, addr, code byte, payload []byte) []byte {
	body := make([]byte, 0, 4+len(payload)+1)
	body = append(body, FSSTR, typ, addr, code)
	body = append(body, payload...)
	body = append(body, FEND)
	return body
}

func TestTerminalStuffUnstuffRoundTrip(t *testing.T) {
	body := buildTerminalBody(FMAS, 0x00, 0x10, []byte{FSSTR, FMSTR, FEND, FMID, 0x01})
	stuffed := TerminalStuff(body)

	u := NewTerminalUnstuffer()
	u.Feed(stuffed)
	require.True(t, u.Completed())
	require.Equal(t, body, u.Bytes())
}

func TestTerminalUnstuffIsChunkInvariant(t *testing.T) {
	body := buildTerminalBody(FMAS, 0x02, 0x44, []byte{FMID, FSSTR, 0x00})
	stuffed := TerminalStuff(body)

	for split := 1; split < len(stuffed); split++ {
		u := NewTerminalUnstuffer()
		u.Feed(stuffed[:split])
		u.Feed(stuffed[split:])
		require.True(t, u.Completed(), "split at byte %d never completed", split)
		require.Equal(t, body, u.Bytes(), "split at byte %d produced a different result", split)
	}
}

func TestTerminalUnstufferWaitsForFSSTRNotFMSTR(t *testing.T) {
	// Outgoing frames start with FMSTR (the host/"master" marker); the
	// unstuffer watches for FSSTR (a device/"slave" reply) as its frame
	// start sentinel, so an FMSTR byte alone must not arm it.
	u := NewTerminalUnstuffer()
	u.Feed([]byte{FMSTR, 0x00, 0x00, 0x00})
	require.Equal(t, 0, u.Len())

	u.Feed([]byte{FSSTR, 0x00})
	require.Equal(t, 2, u.Len())
}
