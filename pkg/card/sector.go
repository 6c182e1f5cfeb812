package card

import (
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// AuthMode selects which authenticate command a Sector uses.
type AuthMode byte

const (
	// Static sectors authenticate with a fixed reader-side key.
	Static AuthMode = 0
	// Dynamic sectors authenticate with a key derived from the card's
	// own serial number.
	Dynamic AuthMode = 1
)

const (
	auth           = 0x44
	authDyn        = 0xBB
	blockRead      = 0xBC
	blockWrite     = 0xBD
	sectorRead     = 0xBE
	sectorWrite    = 0xBF
	setTrailer     = 0xC0
	setTrailerDyn  = 0xC1
	blocksPerSector = 3
)

// Sector is one Mifare Standard sector: its number, the reader-side key
// index to use for authentication, the authentication mode, and a local
// cache of its three 16-byte blocks.
type Sector struct {
	Data SectorData
	Num  byte
	Key  byte
	Mode AuthMode
}

// NewSector returns a Sector ready for use against sector num with the
// given key index and auth mode.
func NewSector(num, key byte, mode AuthMode) *Sector {
	return &Sector{Num: num, Key: key, Mode: mode}
}

// Authenticate selects AUTH or AUTH_DYN depending on Mode and
// authenticates against card's serial number.
func (s *Sector) Authenticate(cmd Commander, c *Card) rerr.Code {
	code := byte(auth)
	if s.Mode == Dynamic {
		code = authDyn
	}
	req := AuthRequest{Key: s.Key, Sector: s.Num, SN: c.SN.SN5()}
	return cmd.Command(code, req, NoAnswer)
}

// ReadBlock reads block (0, 1 or 2 within the sector) into the local
// cache, encrypted under key index enc.
func (s *Sector) ReadBlock(cmd Commander, block, enc byte) rerr.Code {
	if int(block) >= blocksPerSector {
		return rerr.WrongAnswer
	}
	req := ReadBlockRequest{Block: block, Sector: s.Num, Enc: enc}
	return cmd.Command(blockRead, req, &s.Data.Blocks[block])
}

// WriteBlock writes the local cache's block back to the card.
func (s *Sector) WriteBlock(cmd Commander, block, enc byte) rerr.Code {
	if int(block) >= blocksPerSector {
		return rerr.WrongAnswer
	}
	req := WriteBlockRequest{Data: s.Data.Blocks[block], Block_: block, Sector: s.Num, Enc: enc}
	return cmd.Command(blockWrite, req, NoAnswer)
}

// Read reads the whole sector into the local cache in one command.
func (s *Sector) Read(cmd Commander, enc byte) rerr.Code {
	req := ReadSectorRequest{Sector: s.Num, Enc: enc}
	return cmd.Command(sectorRead, req, &s.Data)
}

// Write writes the whole local cache back to the card in one command.
func (s *Sector) Write(cmd Commander, enc byte) rerr.Code {
	req := WriteSectorRequest{Data: s.Data, Sector: s.Num, Enc: enc}
	return cmd.Command(sectorWrite, req, NoAnswer)
}

// SetTrailer rewrites the sector's trailer block with its own key/mode,
// for a statically-keyed sector.
func (s *Sector) SetTrailer(cmd Commander) rerr.Code {
	req := SetTrailerRequest{Sector: s.Num, Key: s.Key}
	return cmd.Command(setTrailer, req, NoAnswer)
}

// SetTrailerDynamic rewrites the sector's trailer block using a key
// derived from card's serial number, for a dynamically-keyed sector.
func (s *Sector) SetTrailerDynamic(cmd Commander, c *Card) rerr.Code {
	req := SetTrailerDynamicRequest{Sector: s.Num, Key: s.Key, SN: c.SN.SN5()}
	return cmd.Command(setTrailerDyn, req, NoAnswer)
}
