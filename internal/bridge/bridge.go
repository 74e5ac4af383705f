// Package bridge feeds ingest messages from MQTT and Kafka into the same
// ingest path the realtime channel uses.
package bridge

import "context"

// Handler processes one ingest payload
type Handler func(ctx context.Context, payload []byte) error
