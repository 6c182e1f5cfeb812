package card

// The structs in this file mirror the firmware's packed request structs
// field-for-field: encoding is purely positional little-endian, with no
// padding, so the Go field order must match the original declaration
// order exactly.

// AuthRequest is the wire shape of Sector.Authenticate's AUTH/AUTH_DYN
// payload: { key, sector, SN5 }.
type AuthRequest struct {
	Key    byte
	Sector byte
	SN     SN5
}

func (r AuthRequest) WireSize() int { return 1 + 1 + 5 }

func (r AuthRequest) MarshalWire() []byte {
	out := make([]byte, 0, r.WireSize())
	out = append(out, r.Key, r.Sector)
	out = append(out, r.SN.Bytes[:]...)
	return out
}

// ReadBlockRequest is BLOCK_READ's payload: { block, sector, enc }.
type ReadBlockRequest struct {
	Block  byte
	Sector byte
	Enc    byte
}

func (r ReadBlockRequest) WireSize() int       { return 3 }
func (r ReadBlockRequest) MarshalWire() []byte { return []byte{r.Block, r.Sector, r.Enc} }

// WriteBlockRequest is BLOCK_WRITE's payload: { data[16], block, sector, enc }.
type WriteBlockRequest struct {
	Data   Block
	Block_ byte
	Sector byte
	Enc    byte
}

func (r WriteBlockRequest) WireSize() int { return 16 + 3 }

func (r WriteBlockRequest) MarshalWire() []byte {
	out := make([]byte, 0, r.WireSize())
	out = append(out, r.Data.Data[:]...)
	out = append(out, r.Block_, r.Sector, r.Enc)
	return out
}

// ReadSectorRequest is SECTOR_READ's payload: { sector, enc }.
type ReadSectorRequest struct {
	Sector byte
	Enc    byte
}

func (r ReadSectorRequest) WireSize() int       { return 2 }
func (r ReadSectorRequest) MarshalWire() []byte { return []byte{r.Sector, r.Enc} }

// WriteSectorRequest is SECTOR_WRITE's payload: { data[48], sector, enc }.
type WriteSectorRequest struct {
	Data   SectorData
	Sector byte
	Enc    byte
}

func (r WriteSectorRequest) WireSize() int { return 48 + 2 }

func (r WriteSectorRequest) MarshalWire() []byte {
	out := make([]byte, 0, r.WireSize())
	out = append(out, r.Data.MarshalWire()...)
	out = append(out, r.Sector, r.Enc)
	return out
}

// SetTrailerRequest is SET_TRAILER's payload: { sector, key }.
type SetTrailerRequest struct {
	Sector byte
	Key    byte
}

func (r SetTrailerRequest) WireSize() int       { return 2 }
func (r SetTrailerRequest) MarshalWire() []byte { return []byte{r.Sector, r.Key} }

// SetTrailerDynamicRequest is SET_TRAILER_DYN's payload: { sector, key, SN5 }.
type SetTrailerDynamicRequest struct {
	Sector byte
	Key    byte
	SN     SN5
}

func (r SetTrailerDynamicRequest) WireSize() int { return 2 + 5 }

func (r SetTrailerDynamicRequest) MarshalWire() []byte {
	out := make([]byte, 0, r.WireSize())
	out = append(out, r.Sector, r.Key)
	out = append(out, r.SN.Bytes[:]...)
	return out
}

// emptyAnswer is used as the Ans value for commands that return no
// payload (success is an empty, zero-length answer).
type emptyAnswer struct{}

func (emptyAnswer) WireSize() int            { return 0 }
func (*emptyAnswer) UnmarshalWire([]byte) error { return nil }

// NoAnswer is the shared instance passed as Ans for write-only commands.
var NoAnswer = &emptyAnswer{}
