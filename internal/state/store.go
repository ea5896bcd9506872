package state

import "context"

// Store is a small durable kv surface for administrative state that should
// survive restarts. Price and inventory state deliberately stay in memory
// and rebuild from live venue data.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
