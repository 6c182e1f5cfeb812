package card

import (
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

const (
	requestStd    = 0x40
	anticollision = 0x22
	selectCmd     = 0x43
)

// errorBase is the boundary below which a nonzero result is a small
// firmware NACK code (ERROR_READ=8, ERROR_VALUE=11, CRC_ERROR=255, ...)
// rather than a large 0x0E…/0x0A…/0x0C… driver composite; Card.Scan uses
// it to fold any such NACK into NoCard.
const errorBase rerr.Code = 0x100

// Card is the scanned card identity: its reported type (from
// RequestStd/REQUEST_STD) and serial number (from Anticollision/
// ANTICOLLISION).
type Card struct {
	SN   SerialNumber
	Type CardType
}

// RequestStd issues REQUEST_STD and records the card's type.
func (c *Card) RequestStd(cmd Commander) rerr.Code {
	return cmd.Command(requestStd, noRequest{}, &c.Type)
}

// Anticollision issues ANTICOLLISION and records the card's serial
// number. A PACKET_DATA_LEN_ERROR answer (the reader reported fewer
// bytes than the full buffer) is a known, bounded recovery case: the
// partial serial number is still valid, just not yet right-aligned, so
// Fix() is applied and the call reports success.
func (c *Card) Anticollision(cmd Commander) rerr.Code {
	ret := cmd.Command(anticollision, noRequest{}, &c.SN)
	if rerr.Is(ret, rerr.PacketDataLenErrorB) {
		c.SN.Fix()
		return rerr.Success
	}
	return ret
}

// Select issues SELECT against the card's own serial number.
func (c *Card) Select(cmd Commander) rerr.Code {
	sn5 := c.SN.SN5()
	return cmd.Command(selectCmd, sn5, NoAnswer)
}

// Scan runs RequestStd then Anticollision. Any firmware NACK from either
// step (a small result code, not a protocol/transport-level error) is
// remapped to NoCard: from the caller's point of view "the card answered
// with an error" and "there is no card" are the same outcome.
func (c *Card) Scan(cmd Commander) rerr.Code {
	if ret := c.RequestStd(cmd); ret != rerr.Success {
		if ret < errorBase {
			return rerr.NoCard
		}
		return ret
	}
	if ret := c.Anticollision(cmd); ret != rerr.Success {
		if ret < errorBase {
			return rerr.NoCard
		}
		return ret
	}
	return rerr.Success
}

// Reset re-scans the card and enforces that both the reported type and
// serial number are unchanged from the last Scan, returning WrongCard
// otherwise — used to detect a card swap between two commands against
// the same logical session.
func (c *Card) Reset(cmd Commander) rerr.Code {
	var probe Card
	if ret := probe.RequestStd(cmd); ret != rerr.Success {
		return ret
	}
	if probe.Type != c.Type {
		return rerr.WrongCard
	}
	if ret := probe.Anticollision(cmd); ret != rerr.Success {
		return ret
	}
	if !probe.SN.Equal(c.SN) {
		return rerr.WrongCard
	}
	return rerr.Success
}

// noRequest is the wire shape of a command with an empty payload.
type noRequest struct{}

func (noRequest) MarshalWire() []byte { return nil }
