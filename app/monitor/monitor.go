package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dbarreiro/rundown-sync/app/cfg"
	"github.com/dbarreiro/rundown-sync/app/database"
	"github.com/dbarreiro/rundown-sync/app/rundown"
)

// Monitor drives the poll/reconcile rounds. One control loop, one rundown
// polled at a time: reconciliation runs strictly after every due watcher has
// finished, so it always observes a consistent snapshot of active
// references.
type Monitor struct {
	conn       Connection
	watchers   []*rundown.Watcher
	syncer     Syncer
	changeRepo database.ChangeRepository
	interval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMonitor(conn Connection, watchers []*rundown.Watcher, syncer Syncer,
	changeRepo database.ChangeRepository) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		conn:       conn,
		watchers:   watchers,
		syncer:     syncer,
		changeRepo: changeRepo,
		interval:   time.Duration(cfg.Get().TickInterval) * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.RunOnce(m.ctx)

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.RunOnce(m.ctx)
			}
		}
	}()
}

func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
	m.conn.Disconnect()
}

// RunOnce executes a single round: poll every due watcher, persist the
// change records, and reconcile once if anything was polled. Watchers that
// were not due still contribute their last-known active sets to the union.
func (m *Monitor) RunOnce(ctx context.Context) []rundown.ChangeRecord {
	if !m.conn.EnsureConnected() {
		slog.Error("Cannot reach iNews server, skipping round")
		return nil
	}

	anyPolled := false
	var allRecords []rundown.ChangeRecord

	for _, watcher := range m.watchers {
		if ctx.Err() != nil {
			return allRecords
		}
		if !watcher.IsDue() {
			continue
		}

		if err := m.conn.NavigateTo(watcher.Path()); err != nil {
			slog.Error("Failed to navigate to rundown", "rundown", watcher.Name(), "path", watcher.Path(), "error", err)
			continue
		}

		records := watcher.Process()
		anyPolled = true

		for _, record := range records {
			slog.Info("Story changed", "rundown", record.Rundown, "entry", record.EntryName, "title", record.Title, "labels", len(record.Labels))
			if err := m.changeRepo.InsertChange(record); err != nil {
				slog.Error("Failed to persist change record", "rundown", record.Rundown, "entry", record.EntryName, "error", err)
			}
		}
		allRecords = append(allRecords, records...)
	}

	if anyPolled {
		refs := m.unionActiveRefs()
		if err := m.syncer.Run(ctx, refs); err != nil {
			slog.Error("Reconciliation failed", "error", err)
		}
	}

	return allRecords
}

// unionActiveRefs collects the deduplicated union of every watcher's active
// reference set, in sorted order.
func (m *Monitor) unionActiveRefs() []string {
	seen := make(map[string]bool)
	for _, watcher := range m.watchers {
		for _, ref := range watcher.ActiveRefs() {
			seen[ref] = true
		}
	}

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Watchers exposes the watcher collection for the status API.
func (m *Monitor) Watchers() []*rundown.Watcher {
	return m.watchers
}
