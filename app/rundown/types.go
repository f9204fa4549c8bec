package rundown

import (
	"time"
)

// Rundown processing types

// Entry is a single item in a rundown listing. Listings are rebuilt on
// every poll, entries are never persisted.
type Entry struct {
	Name  string
	IsDir bool
}

// Label is one caption record parsed from an <ap> region of a story.
type Label struct {
	Channel string // Optional short code, e.g. "CG1"
	Kind    string // Label category, e.g. "X_Total", "X_Faldon"
	Payload string // URL or free text, may be empty
}

// StoryInfo aggregates everything extracted from a single story body.
type StoryInfo struct {
	Title      string
	Status     string
	ModifyBy   string
	ModifyDate string
	AudioTime  string
	Labels     []Label // every parseable label, in document order
	Matched    []Label // labels whose kind is on the allow-list
	Refs       []string
}

// ChangeRecord is emitted when a story's content fingerprint differs from
// the previously recorded one. Used for reporting only; reconciliation is
// driven by set membership, not by change events.
type ChangeRecord struct {
	Rundown    string
	EntryName  string
	Title      string
	Labels     []Label
	DetectedAt time.Time
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Path     string         `yaml:"path"`
	Settings ConfigSettings `yaml:"settings"`
	Filter   string         `yaml:"filter"` // Empty or "LABELS" selects stories with allow-listed labels
	Kinds    []string       `yaml:"kinds"`  // Allow-list override, defaults to DefaultKinds
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"` // seconds between polls
}
