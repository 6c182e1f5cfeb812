package reader

import (
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// Reader-level (non-card) command codes.
const (
	getSN             = 0x10
	getVersion        = 0x02
	fieldOn           = 0x4E
	fieldOff          = 0x4F
	multibytePackage  = 0x04
	syncWithDevice    = 0x05
	updateStart       = 0x06
)

// DeviceSerial is the GET_SN answer: the reader's own fixed 8-byte
// identity, distinct from a scanned card's SerialNumber.
type DeviceSerial [8]byte

func (DeviceSerial) WireSize() int { return 8 }
func (d *DeviceSerial) UnmarshalWire(b []byte) error {
	copy(d[:], b)
	return nil
}

// Version is the GET_VERSION answer: an ASCII version string in a fixed
// 7-byte field, NUL-padded.
type Version [7]byte

func (Version) WireSize() int { return 7 }
func (v *Version) UnmarshalWire(b []byte) error {
	copy(v[:], b)
	return nil
}

func (v Version) String() string {
	n := 0
	for n < len(v) && v[n] != 0 {
		n++
	}
	return string(v[:n])
}

// GetSN reads the reader's own device serial number.
func (r *Reader) GetSN() (DeviceSerial, rerr.Code) {
	var sn DeviceSerial
	code := r.Command(getSN, nil, &sn)
	return sn, code
}

// GetVersion reads the reader's firmware version string.
func (r *Reader) GetVersion() (Version, rerr.Code) {
	var v Version
	code := r.Command(getVersion, nil, &v)
	return v, code
}

// FieldOn energizes the RF field.
func (r *Reader) FieldOn() rerr.Code {
	return r.Command(fieldOn, nil, nil)
}

// FieldOff de-energizes the RF field.
func (r *Reader) FieldOff() rerr.Code {
	return r.Command(fieldOff, nil, nil)
}

// SyncWithDevice performs the reader's handshake/keepalive exchange.
func (r *Reader) SyncWithDevice() rerr.Code {
	return r.Command(syncWithDevice, nil, nil)
}

// MultibytePackage forwards an opaque multi-byte payload to the reader
// (used by firmware update and other bulk-transfer commands).
func (r *Reader) MultibytePackage(payload []byte) rerr.Code {
	_, result := r.SendRaw(multibytePackage, payload)
	return result
}

// UpdateStart begins a firmware update sequence.
func (r *Reader) UpdateStart() rerr.Code {
	return r.Command(updateStart, nil, nil)
}
