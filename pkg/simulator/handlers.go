package simulator

import (
	"encoding/binary"

	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// deviceSN is the fixed reader identity GET_SN reports — the simulator
// emulates one reader, not a population of them.
var deviceSN = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

// deviceVersion is the fixed GET_VERSION answer, NUL-padded to 7 bytes.
var deviceVersion = [7]byte{'F', '0', '1'}

func (t *Transport) handleGetSN(_ []byte) ([]byte, byte) {
	return append([]byte(nil), deviceSN[:]...), 0
}

func (t *Transport) handleGetVersion(_ []byte) ([]byte, byte) {
	return append([]byte(nil), deviceVersion[:]...), 0
}

func (t *Transport) handleFieldOnOff(_ []byte) ([]byte, byte) {
	return nil, 0
}

// handleRequestStd answers REQUEST_STD with the card's type word — this
// simulator only ever emulates a Mifare Standard card.
func (t *Transport) handleRequestStd(_ []byte) ([]byte, byte) {
	return []byte{byte(cardTypeStandard), byte(cardTypeStandard >> 8)}, 0
}

// handleAnticollision deliberately answers with a short 9-byte frame —
// {sak, len=7, sn[7]} — instead of the full 13-byte SerialNumber wire
// size, the same way a reader that has only resolved a 7-byte UID does.
// The caller is expected to recover via SerialNumber.Fix.
func (t *Transport) handleAnticollision(_ []byte) ([]byte, byte) {
	var snBuf [8]byte
	binary.LittleEndian.PutUint64(snBuf[:], t.storage.SN)

	out := make([]byte, 9)
	out[0] = 0 // sak
	out[1] = 7 // len
	copy(out[2:], snBuf[:7])
	return out, 0
}

func (t *Transport) sector(num byte) (*SectorStorage, byte) {
	if int(num) >= numSectors {
		return nil, byte(rerr.ErrorValue)
	}
	return &t.storage.Sectors[num], 0
}

// handleAuth answers success for any well-formed request naming a valid
// sector (a short payload or an out-of-range sector is NACKed with
// ERROR_VALUE): a wrong key simply never sets the sector's authenticated
// flag, so later read/write commands against it
// fail instead — mirroring the firmware's own AUTH behaviour.
func (t *Transport) handleAuth(in []byte) ([]byte, byte) {
	return t.authenticate(in, false)
}

func (t *Transport) handleAuthDyn(in []byte) ([]byte, byte) {
	return t.authenticate(in, true)
}

// clearCardAuth de-authenticates every sector, mirroring the firmware's
// own clear_card_auth() — AUTH/AUTH_DYN always starts from a clean slate
// before conditionally re-authenticating the targeted sector, so an
// earlier successful auth never survives a later, unrelated one.
func (t *Transport) clearCardAuth() {
	for i := range t.storage.Sectors {
		t.storage.Sectors[i].Status = authNone
	}
}

func (t *Transport) authenticate(in []byte, dynamic bool) ([]byte, byte) {
	if len(in) < 2 {
		return nil, byte(rerr.ErrorValue)
	}
	key, num := in[0], in[1]

	t.clearCardAuth()

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}

	wantMode := card.Static
	if dynamic {
		wantMode = card.Dynamic
	}
	if s.Mode == wantMode && s.Key == key {
		s.Status = authAuthenticated
	}
	return nil, 0
}

func (t *Transport) handleBlockRead(in []byte) ([]byte, byte) {
	if len(in) < 3 {
		return nil, byte(rerr.ErrorValue)
	}
	block, num, enc := in[0], in[1], in[2]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if int(block) >= blocksPerSector {
		return nil, byte(rerr.ErrorValue)
	}
	if s.Status != authAuthenticated || s.Enc[block] != enc {
		return nil, byte(rerr.ErrorRead)
	}
	return append([]byte(nil), s.Data.Blocks[block].Data[:]...), 0
}

func (t *Transport) handleBlockWrite(in []byte) ([]byte, byte) {
	if len(in) < 19 {
		return nil, byte(rerr.ErrorValue)
	}
	block, num, enc := in[16], in[17], in[18]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if int(block) >= blocksPerSector {
		return nil, byte(rerr.ErrorValue)
	}
	if s.Status != authAuthenticated {
		return nil, byte(rerr.ErrorWrite)
	}
	s.Enc[block] = enc
	copy(s.Data.Blocks[block].Data[:], in[:16])
	return nil, 0
}

func (t *Transport) handleSectorRead(in []byte) ([]byte, byte) {
	if len(in) < 2 {
		return nil, byte(rerr.ErrorValue)
	}
	num, enc := in[0], in[1]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if s.Status != authAuthenticated || s.Enc[0] != enc {
		return nil, byte(rerr.ErrorRead)
	}
	out := make([]byte, 0, 48)
	for _, b := range s.Data.Blocks {
		out = append(out, b.Data[:]...)
	}
	return out, 0
}

func (t *Transport) handleSectorWrite(in []byte) ([]byte, byte) {
	if len(in) < 50 {
		return nil, byte(rerr.ErrorValue)
	}
	num, enc := in[48], in[49]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if s.Status != authAuthenticated {
		return nil, byte(rerr.ErrorWrite)
	}
	s.Enc[0] = enc
	for i := range s.Data.Blocks {
		copy(s.Data.Blocks[i].Data[:], in[i*16:(i+1)*16])
	}
	return nil, 0
}

func (t *Transport) handleSetTrailer(in []byte) ([]byte, byte) {
	if len(in) < 2 {
		return nil, byte(rerr.ErrorValue)
	}
	num, key := in[0], in[1]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if s.Status != authAuthenticated {
		return nil, byte(rerr.ErrorWrite)
	}
	s.Mode = card.Static
	s.Key = key
	return nil, 0
}

func (t *Transport) handleSetTrailerDyn(in []byte) ([]byte, byte) {
	if len(in) < 7 {
		return nil, byte(rerr.ErrorValue)
	}
	num, key := in[0], in[1]

	s, nack := t.sector(num)
	if nack != 0 {
		return nil, nack
	}
	if s.Status != authAuthenticated {
		return nil, byte(rerr.ErrorWrite)
	}
	s.Mode = card.Dynamic
	s.Key = key
	return nil, 0
}
