// Package telemetry is the event sink a host process attaches to a reader
// driver: publishing scan events and the last-seen card/sector state to
// Redis, the same HSet/Publish/Subscribe/BRPop shape the teacher's
// pkg/redis/client.go uses for MDB/BLE state.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// ScanChannel is the Redis Pub/Sub channel a scan event is published on.
const ScanChannel = "card:scan"

// StateKey is the Redis hash holding the last-seen card identity.
const StateKey = "reader:card"

// Client wraps a go-redis client with the handful of operations the
// reader driver needs: publishing scan events and recording last-seen
// state, plus a command queue a host process can drain with BRPop.
type Client struct {
	client *redis.Client
	ctx    context.Context
}

// New connects to addr and verifies the connection with a Ping, the same
// fail-fast pattern the teacher's redis.New uses.
func New(addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client, ctx: ctx}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// PublishScan records a scanned card's identity in the state hash and
// publishes a scan event saying whether the scan succeeded
// ("present:1" or "present:0"; the result code itself is not
// published), in one pipeline so
// subscribers never observe a published event before the hash reflects
// it.
func (c *Client) PublishScan(sn card.SerialNumber, result rerr.Code) error {
	present := "0"
	if result == rerr.Success {
		present = "1"
	}

	pipe := c.client.Pipeline()
	pipe.HSet(c.ctx, StateKey, "present", present)
	pipe.HSet(c.ctx, StateKey, "sn", fmt.Sprintf("%x", sn.SN))
	pipe.HSet(c.ctx, StateKey, "scanned-at", time.Now().UTC().Format(time.RFC3339))
	pipe.Publish(c.ctx, ScanChannel, fmt.Sprintf("present:%s", present))
	_, err := pipe.Exec(c.ctx)
	return err
}

// PublishSector records one sector's contents into the state hash under
// a per-sector field, for a host that wants to inspect the last read
// without re-scanning the card.
func (c *Client) PublishSector(num byte, data card.SectorData) error {
	field := fmt.Sprintf("sector:%d", num)
	return c.client.HSet(c.ctx, StateKey, field, fmt.Sprintf("%x", data.MarshalWire())).Err()
}

// WatchCommands blocks on a Redis list for host-issued commands (e.g. a
// request to rescan), forwarding each to handle until ctx is done — the
// reader-driver analogue of the teacher's WatchRedisCommands BRPop loop.
func (c *Client) WatchCommands(ctx context.Context, key string, handle func(payload string)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := c.client.BRPop(c.ctx, time.Second, key).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("telemetry: BRPOP on %s: %v", key, err)
			}
			continue
		}
		if len(result) == 2 {
			handle(result[1])
		}
	}
}
