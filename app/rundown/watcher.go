package rundown

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

type WatcherState string

const (
	StateIdle      WatcherState = "idle"
	StatePolling   WatcherState = "polling"
	StateCompleted WatcherState = "completed"
	StateFailed    WatcherState = "failed"
)

// Watcher owns the poll cycle of a single rundown: list, read, filter,
// diff, accumulate active references. It keeps its own fingerprint map and
// active reference set; a failed cycle leaves both untouched so a transient
// listing error never triggers spurious deletions downstream.
type Watcher struct {
	config   *Config
	reader   StoryReader
	filterer *Filterer

	mu           sync.RWMutex
	state        WatcherState
	lastRun      time.Time
	fingerprints map[string]string
	activeRefs   []string
}

func NewWatcher(config *Config, reader StoryReader, filterer *Filterer) *Watcher {
	return &Watcher{
		config:       config,
		reader:       reader,
		filterer:     filterer,
		state:        StateIdle,
		fingerprints: make(map[string]string),
	}
}

func (w *Watcher) Name() string {
	return w.config.Name
}

func (w *Watcher) Path() string {
	return w.config.Path
}

// IsDue reports whether the configured interval has elapsed since the last
// poll started.
func (w *Watcher) IsDue() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return time.Since(w.lastRun) >= time.Duration(w.config.Settings.Interval)*time.Second
}

// State returns the outcome of the most recent poll cycle.
func (w *Watcher) State() WatcherState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Watcher) LastRun() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRun
}

// ActiveRefs returns the reference set collected by the last completed
// cycle. The returned slice is a copy.
func (w *Watcher) ActiveRefs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	refs := make([]string, len(w.activeRefs))
	copy(refs, w.activeRefs)
	return refs
}

// Process runs one poll cycle and returns the change records for stories
// whose content fingerprint moved since the previous cycle. A listing
// failure or an empty listing fails the cycle without touching the active
// reference set; a single story's read failure skips only that story.
func (w *Watcher) Process() []ChangeRecord {
	w.mu.Lock()
	w.lastRun = time.Now()
	w.state = StatePolling
	w.mu.Unlock()

	slog.Debug("Polling rundown", "rundown", w.config.Name, "path", w.config.Path)

	entries, err := w.reader.ListEntries(w.config.Path)
	if err != nil || len(entries) == 0 {
		slog.Warn("Listing failed or empty, keeping previous state",
			"rundown", w.config.Name, "path", w.config.Path, "error", err)
		w.setState(StateFailed)
		return nil
	}

	var records []ChangeRecord
	currentRefs := []string{}

	for _, entry := range entries {
		if entry.Name == "" || entry.IsDir {
			continue
		}

		content, err := w.reader.ReadStory(entry.Name)
		if err != nil {
			slog.Warn("Failed to read story, skipping", "rundown", w.config.Name, "entry", entry.Name, "error", err)
			continue
		}
		if content == "" {
			continue
		}

		if !w.filterer.HasMatch(content, w.config.Filter) {
			continue
		}

		info := w.filterer.ExtractStoryInfo(content)
		currentRefs = append(currentRefs, info.Refs...)

		fingerprint := contentFingerprint(content)

		w.mu.Lock()
		previous := w.fingerprints[entry.Name]
		if previous != fingerprint {
			w.fingerprints[entry.Name] = fingerprint
		}
		w.mu.Unlock()

		if previous != fingerprint {
			records = append(records, ChangeRecord{
				Rundown:    w.config.Name,
				EntryName:  entry.Name,
				Title:      info.Title,
				Labels:     info.Matched,
				DetectedAt: time.Now(),
			})
		}
	}

	w.mu.Lock()
	w.activeRefs = currentRefs
	w.state = StateCompleted
	w.mu.Unlock()

	slog.Debug("Poll completed", "rundown", w.config.Name,
		"entries", len(entries), "refs", len(currentRefs), "changes", len(records))

	return records
}

func (w *Watcher) setState(state WatcherState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// contentFingerprint is a stable digest of the raw story body, comparable
// across restarts.
func contentFingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
