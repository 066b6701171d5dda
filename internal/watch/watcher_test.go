package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/muvel/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	syncs  []string
	synced []string
}

func (r *recorder) sync(_ context.Context, novelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs = append(r.syncs, novelID)
	return nil
}

func (r *recorder) onSynced(novelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, novelID)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.syncs), len(r.synced)
}

// projectDirs creates a bare project layout and returns its root.
func projectDirs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"episodes", "wiki"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func startWatcher(t *testing.T, rec *recorder, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := New(rec.sync, rec.onSynced, debounce, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w
}

func TestWatcher_EpisodeFileTriggersSync(t *testing.T) {
	rec := &recorder{}
	w := startWatcher(t, rec, 50*time.Millisecond)
	root := projectDirs(t)
	if err := w.Add("n1", root); err != nil {
		t.Fatal(err)
	}

	_ = os.WriteFile(filepath.Join(root, "episodes", "e1.mvle"), []byte(`{"id":"e1"}`), 0o644)

	testutil.Eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		syncs, synced := rec.counts()
		return syncs >= 1 && synced >= 1
	}, "episode write did not trigger a sync")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.syncs[0] != "n1" {
		t.Errorf("synced %q, want n1", rec.syncs[0])
	}
}

func TestWatcher_BurstIsDebounced(t *testing.T) {
	rec := &recorder{}
	w := startWatcher(t, rec, 300*time.Millisecond)
	root := projectDirs(t)
	if err := w.Add("n1", root); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_ = os.WriteFile(filepath.Join(root, "wiki", name+".mvlw"), []byte("{}"), 0o644)
	}

	testutil.Eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		n, _ := rec.counts()
		return n >= 1
	}, "wiki writes did not trigger a sync")
	time.Sleep(400 * time.Millisecond)
	if n, _ := rec.counts(); n >= 5 {
		t.Errorf("got %d syncs for 5 writes, want them collapsed", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	rec := &recorder{}
	w := startWatcher(t, rec, 30*time.Millisecond)
	root := projectDirs(t)
	if err := w.Add("n1", root); err != nil {
		t.Fatal(err)
	}

	_ = os.WriteFile(filepath.Join(root, "episodes", "e1.mvle.tmp"), []byte("{}"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "episodes", "notes.txt"), []byte("x"), 0o644)

	time.Sleep(300 * time.Millisecond)
	if n, _ := rec.counts(); n != 0 {
		t.Errorf("syncs = %d, want 0", n)
	}
}

func TestWatcher_RemoveStopsSyncs(t *testing.T) {
	rec := &recorder{}
	w := startWatcher(t, rec, 30*time.Millisecond)
	root := projectDirs(t)
	if err := w.Add("n1", root); err != nil {
		t.Fatal(err)
	}
	if w.Watching() != 1 {
		t.Fatalf("watching = %d", w.Watching())
	}
	w.Remove("n1")
	if w.Watching() != 0 {
		t.Fatalf("watching after remove = %d", w.Watching())
	}

	_ = os.WriteFile(filepath.Join(root, "episodes", "e1.mvle"), []byte("{}"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n, _ := rec.counts(); n != 0 {
		t.Errorf("syncs = %d, want 0", n)
	}
}

func TestWatcher_MissingWikiDirIsFine(t *testing.T) {
	rec := &recorder{}
	w := startWatcher(t, rec, 30*time.Millisecond)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "episodes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("n1", root); err != nil {
		t.Errorf("Add: %v", err)
	}
}

func TestWatcher_FireAfterStopDoesNotBlock(t *testing.T) {
	w, err := New((&recorder{}).sync, nil, 10*time.Millisecond, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}

	finished := make(chan struct{})
	go func() {
		for range cap(w.fired) + 1 {
			w.fire("n1")
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("fire blocked after Run returned")
	}
}
