// Command readerctl is a minimal exerciser for the reader driver: it
// opens a transport by tag, scans whatever card is in the field, prints
// its serial number, and optionally forwards the result to Redis — the
// CLI-shaped analogue of the teacher's cmd/bluetooth-service main, scaled
// down to this driver's one job instead of a long-running service loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/contactless/readerdrv/internal/observability"
	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
	"github.com/contactless/readerdrv/pkg/protocol"
	"github.com/contactless/readerdrv/pkg/reader"
	"github.com/contactless/readerdrv/pkg/simulator"
	"github.com/contactless/readerdrv/pkg/telemetry"
	"github.com/contactless/readerdrv/pkg/transport"
	"github.com/contactless/readerdrv/pkg/transport/blockwise"
	"github.com/contactless/readerdrv/pkg/transport/serial"
	"github.com/contactless/readerdrv/pkg/transport/tcpconn"
	"github.com/contactless/readerdrv/pkg/transport/unixconn"
)

var (
	transportTag = flag.String("transport", "sim", "Transport: asio (serial), blockwise, tcp, unix, or sim")
	device       = flag.String("device", "/dev/ttyUSB0", "Serial device path (asio/blockwise) or address (tcp/unix)")
	baud         = flag.Int("baud", 115200, "Serial baud rate (asio/blockwise)")
	dialTimeout  = flag.Duration("dial-timeout", 3*time.Second, "Connect timeout (tcp/unix)")
	protoFlavor  = flag.String("protocol", "reader", "Protocol framing: reader or terminal")
	cmdTimeout   = flag.Duration("cmd-timeout", 1500*time.Millisecond, "Per-command timeout")
	simFile      = flag.String("sim-file", "", "Simulator persistence file (transport=sim only)")

	sectorNum = flag.Int("sector", -1, "If >= 0, also read this sector (requires -key)")
	authKey   = flag.Uint("key", 0, "Reader-side key index for -sector")
	dynAuth   = flag.Bool("dynamic", false, "Use dynamic (AUTH_DYN) authentication for -sector")

	redisAddr = flag.String("redis-addr", "", "Redis server address; empty disables telemetry forwarding")
	redisPass = flag.String("redis-pass", "", "Redis password")
	redisDB   = flag.Int("redis-db", 0, "Redis database number")
)

func openTransport() (transport.Transport, error) {
	switch *transportTag {
	case "asio":
		cfg := serial.DefaultConfig()
		cfg.Baud = *baud
		return serial.Open(*device, cfg)
	case "blockwise":
		return blockwise.Open(*device, *baud)
	case "tcp":
		return tcpconn.Dial(*device, *dialTimeout)
	case "unix":
		return unixconn.Dial(*device, *dialTimeout)
	case "sim":
		return simulator.New(*simFile), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", *transportTag)
	}
}

func factory() protocol.Factory {
	if *protoFlavor == "terminal" {
		return func(t transport.Transport) protocol.Protocol {
			return protocol.NewTerminalProtocol(t).WithTimeout(*cmdTimeout)
		}
	}
	return func(t transport.Transport) protocol.Protocol {
		return protocol.NewReaderProtocol(t).WithTimeout(*cmdTimeout)
	}
}

func main() {
	flag.Parse()
	observability.Init()

	t, err := openTransport()
	if err != nil {
		log.Fatalf("Failed to open transport %q: %v", *transportTag, err)
	}
	if closer, ok := t.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	r := reader.New(t, factory(), 0)

	var tc *telemetry.Client
	if *redisAddr != "" {
		tc, err = telemetry.New(*redisAddr, *redisPass, *redisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer tc.Close()
		log.Printf("Connected to Redis at %s", *redisAddr)
	}

	if v, code := r.GetVersion(); code == rerr.Success {
		log.Printf("Reader firmware version: %s", v.String())
	} else {
		log.Printf("GetVersion failed: %v", code)
	}

	var c card.Card
	result := c.Scan(r)
	if tc != nil {
		if err := tc.PublishScan(c.SN, result); err != nil {
			log.Printf("Failed to publish scan to Redis: %v", err)
		}
	}
	if result != rerr.Success {
		log.Fatalf("Scan failed: %v", result)
	}

	log.Printf("Card type: 0x%04x", uint16(c.Type))
	log.Printf("Card SN: % x", c.SN.SN)

	if *sectorNum < 0 {
		return
	}

	mode := card.Static
	if *dynAuth {
		mode = card.Dynamic
	}
	sector := card.NewSector(byte(*sectorNum), byte(*authKey), mode)

	if result := sector.Authenticate(r, &c); result != rerr.Success {
		log.Fatalf("Authenticate sector %d failed: %v", *sectorNum, result)
	}
	if result := sector.Read(r, byte(*authKey)); result != rerr.Success {
		log.Fatalf("Read sector %d failed: %v", *sectorNum, result)
	}

	for i, b := range sector.Data.Blocks {
		log.Printf("Sector %d block %d: % x", *sectorNum, i, b.Data)
	}
	if tc != nil {
		if err := tc.PublishSector(byte(*sectorNum), sector.Data); err != nil {
			log.Printf("Failed to publish sector to Redis: %v", err)
		}
	}
}
