package simulator

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Save writes the simulator's whole CardStorage to path as a fixed-size
// binary blob, satisfying transport.Persister. CardStorage has no
// variable-length fields, so a flat little-endian dump is sufficient —
// there is no versioning or migration logic, matching a real reader's
// Save having no file format of its own (the card holds its own
// contents).
func (t *Transport) Save(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, t.storage); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Load restores the simulator's CardStorage from a file written by Save.
func (t *Transport) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cs CardStorage
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &cs); err != nil {
		return err
	}

	t.mu.Lock()
	t.storage = cs
	t.mu.Unlock()
	return nil
}

// Dump renders the current CardStorage as CBOR, for diagnostics and for
// feeding the card/sector state into telemetry without exposing the flat
// binary layout Save/Load use on disk.
func (t *Transport) Dump() ([]byte, error) {
	t.mu.Lock()
	cs := t.storage
	t.mu.Unlock()
	return cbor.Marshal(cs)
}
