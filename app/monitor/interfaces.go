package monitor

import (
	"context"
)

// Connection is the server session shared by every watcher.
type Connection interface {
	EnsureConnected() bool
	NavigateTo(path string) error
	Disconnect()
}

// Syncer reconciles the local asset store against the union of active
// references.
type Syncer interface {
	Run(ctx context.Context, activeRefs []string) error
}
