package db

import "context"

type DraftStoreType string

const (
	MemoryDrafts DraftStoreType = "memory"
	MongoDrafts  DraftStoreType = "mongo"
)

// DB is a backing service connection owned by main. Connect and Disconnect
// are bounded by the caller's context.
type DB interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}
