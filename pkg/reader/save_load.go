package reader

import (
	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/transport"
)

// sectorAccess describes one sector's fixed read policy for the
// no-native-Persister fallback walk: which key/mode authenticates it,
// and whether to read it as a whole (sectorEnc != 0) or block-by-block
// (blockEnc, used when a sector's per-block encryption indices differ).
type sectorAccess struct {
	num      byte
	key      byte
	mode     card.AuthMode
	sectorEnc byte
	blockEnc [3]byte
}

// saveTable is the fixed sector walk order: the set of sectors a
// reader-side save/load fallback is able to reach without any
// transport-native persistence support.
var saveTable = []sectorAccess{
	{num: 1, key: 2, mode: card.Static, sectorEnc: 0xFF},
	{num: 2, key: 3, mode: card.Static, sectorEnc: 0xFF},
	{num: 3, key: 7, mode: card.Static, sectorEnc: 0xFF},
	{num: 4, key: 7, mode: card.Static, sectorEnc: 0xFF},
	{num: 5, key: 6, mode: card.Static, sectorEnc: 0xFF},
	{num: 9, key: 4, mode: card.Static, sectorEnc: 0xFF},
	{num: 10, key: 5, mode: card.Static, sectorEnc: 0xFF},
	{num: 11, key: 8, mode: card.Static, sectorEnc: 0, blockEnc: [3]byte{0xFF, 0x0A, 0x0A}},
	{num: 13, key: 27, mode: card.Dynamic, sectorEnc: 3},
	{num: 14, key: 27, mode: card.Dynamic, sectorEnc: 0, blockEnc: [3]byte{0x03, 0x03, 0}},
}

// authTenacious authenticates sector against c, retrying once with key 0
// if the sector's configured key is refused — some cards ship with a
// sector already reset to the default key even though the access table
// still lists its provisioned one.
func authTenacious(r *Reader, c *card.Card, sector *card.Sector) rerr.Code {
	if ret := sector.Authenticate(r, c); ret == rerr.Success {
		if ret := sector.ReadBlock(r, 0, 0xFF); ret == rerr.Success {
			return rerr.Success
		}
	}
	if sector.Key != 0 {
		sector.Key = 0
		return authTenacious(r, c, sector)
	}
	return rerr.ErrorRead
}

// Save persists the currently-scanned card's contents. If the bound
// Transport implements transport.Persister, the call delegates to it
// directly (the simulator transport takes this path). Otherwise it walks
// the fixed sectorAccess table, reading every sector it can authenticate
// against — but since there is no non-simulator destination format
// defined for that walk, it always finishes by reporting
// NoImplSupport, matching the legacy API's own behaviour: reachable
// sectors are still exercised (and any auth/read failure along the way
// is reported immediately) even though the walk itself cannot produce a
// saved file.
func (r *Reader) Save(path string) rerr.Code {
	if p, ok := r.t.(transport.Persister); ok {
		if err := p.Save(path); err != nil {
			return rerr.IOError
		}
		return rerr.Success
	}

	var c card.Card
	if ret := c.Scan(r); ret != rerr.Success {
		return ret
	}

	for _, a := range saveTable {
		sector := card.NewSector(a.num, a.key, a.mode)
		if ret := authTenacious(r, &c, sector); ret != rerr.Success {
			return ret
		}

		if a.sectorEnc != 0 {
			if ret := sector.Read(r, a.sectorEnc); ret != rerr.Success {
				return ret
			}
			continue
		}
		for block := byte(0); block < 3; block++ {
			if ret := sector.ReadBlock(r, block, a.blockEnc[block]); ret != rerr.Success {
				return ret
			}
		}
	}

	return rerr.NoImplSupport
}

// Load restores a card's contents from path. If the bound Transport
// implements transport.Persister, the call delegates to it; otherwise
// there is no reader-side fallback (unlike Save, a blind restore has no
// sector contents to write), so it always reports NoImplSupport.
func (r *Reader) Load(path string) rerr.Code {
	if p, ok := r.t.(transport.Persister); ok {
		if err := p.Load(path); err != nil {
			return rerr.IOError
		}
		return rerr.Success
	}
	return rerr.NoImplSupport
}
