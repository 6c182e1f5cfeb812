package simulator

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/contactless/readerdrv/pkg/card"
)

const numSectors = 16
const blocksPerSector = 3

// Authentication status of one simulated sector.
const (
	authNone         = 0
	authAuthenticated = 1
)

// SectorStorage extends card.Sector with the per-block encryption
// indices and authentication flag the simulator needs to police
// read/write access — the Go analogue of the firmware's
// SectorStorage : public Sector inheritance.
type SectorStorage struct {
	card.Sector
	Enc    [3]byte
	Status byte
}

// CardStorage is the simulator's whole persisted state: one emulated
// card's identity and its 16 sectors.
type CardStorage struct {
	SN      uint64
	Unused  uint64
	Sectors [numSectors]SectorStorage
}

// NewCardStorage returns a freshly-seeded card with a random serial
// number and all sectors reset to their default key/mode/encryption
// indices.
func NewCardStorage() CardStorage {
	var cs CardStorage
	cs.SN = randomSN()
	for i := range cs.Sectors {
		cs.Sectors[i].Num = byte(i)
		cs.Sectors[i].Enc = [3]byte{0xFF, 0xFF, 0xFF}
	}
	return cs
}

func randomSN() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return binary.LittleEndian.Uint64(buf[:])
}
