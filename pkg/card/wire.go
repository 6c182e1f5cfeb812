// Package card implements the card/sector application-level model: serial
// number fixup, the scan/reset card lifecycle, and sector
// authenticate/read/write, each encoded as a byte-exact little-endian
// wire struct rather than relying on Go's struct layout (field order and
// size must match the legacy firmware's packed C structs exactly).
package card

import (
	"fmt"

	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// WireEncoder marshals a request to its exact on-wire byte representation.
type WireEncoder interface {
	MarshalWire() []byte
}

// WireDecoder unmarshals an answer from its exact on-wire byte
// representation. WireSize reports the number of bytes expected;
// pkg/reader.Command always hands UnmarshalWire exactly that many bytes
// (truncated or zero-padded) and reports a length mismatch afterwards.
type WireDecoder interface {
	WireSize() int
	UnmarshalWire([]byte) error
}

// Commander is the capability Card and Sector methods need from a bound
// driver: send one command (to whatever device address the driver is
// bound to) and decode its answer. pkg/reader.Reader implements this
// without importing pkg/card, so the dependency only runs one way.
type Commander interface {
	Command(code byte, req WireEncoder, ans WireDecoder) rerr.Code
}

// errWireSize reports a local encode/decode-time size mismatch, distinct
// from the wire-level PacketDataLenError produced by a live transceive.
func errWireSize(typeName string, want, got int) error {
	return fmt.Errorf("card: %s: wire size mismatch: want %d got %d", typeName, want, got)
}
