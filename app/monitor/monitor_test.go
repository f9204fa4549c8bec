package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbarreiro/rundown-sync/app/database"
	"github.com/dbarreiro/rundown-sync/app/rundown"
)

type mockConnection struct {
	connected    bool
	navigateErrs map[string]error
	navigated    []string
}

func (m *mockConnection) EnsureConnected() bool { return m.connected }
func (m *mockConnection) Disconnect()           {}
func (m *mockConnection) NavigateTo(path string) error {
	m.navigated = append(m.navigated, path)
	if err, ok := m.navigateErrs[path]; ok {
		return err
	}
	return nil
}

type mockSyncer struct {
	runs [][]string
}

func (m *mockSyncer) Run(ctx context.Context, activeRefs []string) error {
	m.runs = append(m.runs, activeRefs)
	return nil
}

type mockChangeRepo struct {
	inserted []rundown.ChangeRecord
}

func (m *mockChangeRepo) InsertChange(record rundown.ChangeRecord) error {
	m.inserted = append(m.inserted, record)
	return nil
}
func (m *mockChangeRepo) GetRecentChanges(limit int) ([]database.Change, error) { return nil, nil }
func (m *mockChangeRepo) GetChangesByRundown(name string, limit int) ([]database.Change, error) {
	return nil, nil
}
func (m *mockChangeRepo) GetChangeCount() (int, error)                     { return len(m.inserted), nil }
func (m *mockChangeRepo) GetChangeCountByRundown(name string) (int, error) { return 0, nil }

type mockReader struct {
	stories map[string]string
}

func (m *mockReader) ListEntries(path string) ([]rundown.Entry, error) {
	var entries []rundown.Entry
	for name := range m.stories {
		entries = append(entries, rundown.Entry{Name: name})
	}
	return entries, nil
}

func (m *mockReader) ReadStory(name string) (string, error) {
	return m.stories[name], nil
}

func storyWithRef(ref string) string {
	return "<nsml><fields><f id=title>Story</f></fields>" +
		"<body><p><ap>[CG1] X_Total | 1: |" + ref + "(</ap></p></body></nsml>"
}

func newWatcher(name, path string, interval int, reader rundown.StoryReader) *rundown.Watcher {
	config := &rundown.Config{
		Name:     name,
		Path:     path,
		Settings: rundown.ConfigSettings{Enabled: true, Interval: interval},
	}
	return rundown.NewWatcher(config, reader, rundown.NewFilterer(nil))
}

func newTestMonitor(conn Connection, watchers []*rundown.Watcher, syncer Syncer,
	repo database.ChangeRepository) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		conn:       conn,
		watchers:   watchers,
		syncer:     syncer,
		changeRepo: repo,
		interval:   time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func TestRunOnce_PollsAndReconciles(t *testing.T) {
	readerA := &mockReader{stories: map[string]string{"s1": storyWithRef("https://x.com/a/status/1")}}
	readerB := &mockReader{stories: map[string]string{"s2": storyWithRef("https://x.com/b/status/2")}}

	conn := &mockConnection{connected: true}
	syncer := &mockSyncer{}
	repo := &mockChangeRepo{}

	watchers := []*rundown.Watcher{
		newWatcher("a", "SHOW.A", 0, readerA),
		newWatcher("b", "SHOW.B", 0, readerB),
	}
	m := newTestMonitor(conn, watchers, syncer, repo)

	records := m.RunOnce(context.Background())

	if len(records) != 2 {
		t.Errorf("Expected 2 change records, got %d", len(records))
	}
	if len(repo.inserted) != 2 {
		t.Errorf("Expected 2 records persisted, got %d", len(repo.inserted))
	}
	if len(syncer.runs) != 1 {
		t.Fatalf("Expected exactly one reconciliation, got %d", len(syncer.runs))
	}

	refs := syncer.runs[0]
	if len(refs) != 2 || refs[0] != "https://x.com/a/status/1" || refs[1] != "https://x.com/b/status/2" {
		t.Errorf("Expected sorted union of refs, got %v", refs)
	}
}

func TestRunOnce_ConnectionFailureSkipsRound(t *testing.T) {
	conn := &mockConnection{connected: false}
	syncer := &mockSyncer{}
	reader := &mockReader{stories: map[string]string{"s1": storyWithRef("https://x.com/a/status/1")}}

	m := newTestMonitor(conn, []*rundown.Watcher{newWatcher("a", "SHOW.A", 0, reader)}, syncer, &mockChangeRepo{})

	m.RunOnce(context.Background())

	if len(conn.navigated) != 0 {
		t.Error("Expected no navigation when connection fails")
	}
	if len(syncer.runs) != 0 {
		t.Error("Expected no reconciliation when connection fails")
	}
}

func TestRunOnce_NoDueWatchersSkipsReconciliation(t *testing.T) {
	reader := &mockReader{stories: map[string]string{"s1": storyWithRef("https://x.com/a/status/1")}}
	watcher := newWatcher("a", "SHOW.A", 3600, reader)
	watcher.Process() // last run is now, not due for an hour

	syncer := &mockSyncer{}
	m := newTestMonitor(&mockConnection{connected: true}, []*rundown.Watcher{watcher}, syncer, &mockChangeRepo{})

	m.RunOnce(context.Background())

	if len(syncer.runs) != 0 {
		t.Errorf("Expected no reconciliation without a fresh poll, got %d", len(syncer.runs))
	}
}

func TestRunOnce_IdleWatcherRefsStillCounted(t *testing.T) {
	readerA := &mockReader{stories: map[string]string{"s1": storyWithRef("https://x.com/a/status/1")}}
	readerB := &mockReader{stories: map[string]string{"s2": storyWithRef("https://x.com/b/status/2")}}

	due := newWatcher("a", "SHOW.A", 0, readerA)
	idle := newWatcher("b", "SHOW.B", 3600, readerB)
	idle.Process() // populate its last-known set, now not due

	syncer := &mockSyncer{}
	m := newTestMonitor(&mockConnection{connected: true}, []*rundown.Watcher{due, idle}, syncer, &mockChangeRepo{})

	m.RunOnce(context.Background())

	if len(syncer.runs) != 1 {
		t.Fatalf("Expected one reconciliation, got %d", len(syncer.runs))
	}
	refs := syncer.runs[0]
	if len(refs) != 2 {
		t.Errorf("Expected idle watcher's refs in the union, got %v", refs)
	}
}

func TestRunOnce_NavigateFailureSkipsWatcher(t *testing.T) {
	reader := &mockReader{stories: map[string]string{"s1": storyWithRef("https://x.com/a/status/1")}}

	conn := &mockConnection{
		connected:    true,
		navigateErrs: map[string]error{"SHOW.A": errors.New("550 no such directory")},
	}
	syncer := &mockSyncer{}
	m := newTestMonitor(conn, []*rundown.Watcher{newWatcher("a", "SHOW.A", 0, reader)}, syncer, &mockChangeRepo{})

	m.RunOnce(context.Background())

	if len(syncer.runs) != 0 {
		t.Errorf("Expected no reconciliation when the only watcher failed to navigate, got %d", len(syncer.runs))
	}
}

func TestRunOnce_DuplicateRefsDeduplicated(t *testing.T) {
	ref := "https://x.com/shared/status/5"
	readerA := &mockReader{stories: map[string]string{"s1": storyWithRef(ref)}}
	readerB := &mockReader{stories: map[string]string{"s2": storyWithRef(ref)}}

	syncer := &mockSyncer{}
	watchers := []*rundown.Watcher{
		newWatcher("a", "SHOW.A", 0, readerA),
		newWatcher("b", "SHOW.B", 0, readerB),
	}
	m := newTestMonitor(&mockConnection{connected: true}, watchers, syncer, &mockChangeRepo{})

	m.RunOnce(context.Background())

	if len(syncer.runs) != 1 || len(syncer.runs[0]) != 1 {
		t.Errorf("Expected deduplicated union with a single ref, got %v", syncer.runs)
	}
}
