package database

import (
	"time"

	"github.com/dbarreiro/rundown-sync/app/rundown"
)

// Change is one persisted change record: a story whose content fingerprint
// moved within a rundown.
type Change struct {
	ID         int64
	Rundown    string
	EntryName  string
	Title      string
	Labels     []rundown.Label
	DetectedAt time.Time
}

type ChangeRepository interface {
	InsertChange(record rundown.ChangeRecord) error
	GetRecentChanges(limit int) ([]Change, error)
	GetChangesByRundown(rundownName string, limit int) ([]Change, error)
	GetChangeCount() (int, error)
	GetChangeCountByRundown(rundownName string) (int, error)
}
