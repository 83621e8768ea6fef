package lock

import (
	"context"
	"time"
)

// ServiceInfo identifies the GATT service/characteristics a Transport has
// selected during connect. The concrete values are opaque strings (UUIDs)
// so this package never needs a BLE library dependency.
type ServiceInfo struct {
	ServiceUUID    string
	WriteCharUUID  string
	NotifyCharUUID string
}

// ConnEvent is delivered out-of-band by a Transport whenever the link-level
// connection state changes.
type ConnEvent struct {
	Connected bool
	Err       string
}

// Transport is the narrow capability set the session engine depends on.
// welockbridge ships no concrete implementation of it: wiring a real BLE
// stack (scanning, GATT discovery, permissions) to this interface is the
// embedding application's job (spec §1, §6).
type Transport interface {
	// Connect establishes the GATT link and runs service discovery,
	// returning the selected service/characteristics.
	Connect(ctx context.Context) (ServiceInfo, error)

	// EnableNotifications enables local notifications and writes the
	// CCCD descriptor, returning once the descriptor write completes.
	EnableNotifications(ctx context.Context, svc ServiceInfo) error

	// Write sends bytes to the write characteristic. withResponse selects
	// between awaiting the write-completion callback and returning
	// immediately (write-without-response).
	Write(ctx context.Context, svc ServiceInfo, data []byte, withResponse bool) error

	// Inbound returns a channel that receives every notification payload
	// in arrival order. The channel is closed when the transport
	// disconnects.
	Inbound() <-chan []byte

	// ConnEvents returns a channel receiving link-level state changes.
	ConnEvents() <-chan ConnEvent

	// Disconnect tears down the link. Idempotent.
	Disconnect() error
}

// maxChunkSize is the effective BLE MTU payload this module assumes.
const maxChunkSize = 20

// chunkPacing is the fixed inter-chunk delay for writes larger than
// maxChunkSize.
const chunkPacing = 100 * time.Millisecond

// ChunkedWrite writes data to the transport, splitting it into
// maxChunkSize-byte segments with chunkPacing between them when data
// exceeds a single chunk. withResponse is honored per chunk.
func ChunkedWrite(ctx context.Context, tr Transport, svc ServiceInfo, data []byte, withResponse bool) error {
	if len(data) <= maxChunkSize {
		return tr.Write(ctx, svc, data, withResponse)
	}
	for off := 0; off < len(data); off += maxChunkSize {
		end := off + maxChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := tr.Write(ctx, svc, data[off:end], withResponse); err != nil {
			return err
		}
		if end < len(data) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(chunkPacing):
			}
		}
	}
	return nil
}
