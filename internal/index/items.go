package index

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// Items is the item index.
type Items struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// OpenItems returns the item index stored in dataDir.
func OpenItems(dataDir string, logger *slog.Logger) *Items {
	if logger == nil {
		logger = slog.Default()
	}
	return &Items{path: filepath.Join(dataDir, ItemsFile), logger: logger}
}

// Path returns the index file path.
func (x *Items) Path() string { return x.path }

// load reads the map. Files written before wiki pages existed map ids to
// a bare novel id string; those are upgraded to episode entries and
// written back at once. Caller holds mu.
func (x *Items) load() (map[string]models.ItemIndexEntry, error) {
	m := map[string]models.ItemIndexEntry{}
	data, err := os.ReadFile(x.path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, apperr.IO(err, "index: read %s", x.path)
	}
	if len(data) == 0 {
		return m, nil
	}

	currentErr := json.Unmarshal(data, &m)
	if currentErr == nil {
		return m, nil
	}

	var legacy map[string]string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, apperr.Corrupt(currentErr, "index: decode %s", x.path)
	}

	m = make(map[string]models.ItemIndexEntry, len(legacy))
	for id, novelID := range legacy {
		m[id] = models.ItemIndexEntry{NovelID: novelID, ItemType: models.ItemEpisode}
	}
	if err := x.save(m); err != nil {
		return nil, err
	}
	x.logger.Info("index: migrated legacy item index",
		slog.String("path", x.path),
		slog.Int("entries", len(m)))
	return m, nil
}

func (x *Items) save(m map[string]models.ItemIndexEntry) error {
	return storage.WriteJSONAtomic(x.path, m)
}

// mutate runs one load-mutate-save cycle; see Projects.mutate.
func (x *Items) mutate(fn func(map[string]models.ItemIndexEntry) bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.load()
	if err != nil {
		return err
	}
	if !fn(m) {
		return nil
	}
	return x.save(m)
}

// Load returns a copy of the whole index.
func (x *Items) Load() (map[string]models.ItemIndexEntry, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.load()
}

// Save replaces the whole index.
func (x *Items) Save(m map[string]models.ItemIndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.save(m)
}

// Get returns the mapping for itemID, or false when there is none.
func (x *Items) Get(itemID string) (models.ItemIndexEntry, bool, error) {
	m, err := x.Load()
	if err != nil {
		return models.ItemIndexEntry{}, false, err
	}
	e, ok := m[itemID]
	return e, ok, nil
}

// Upsert maps itemID to its novel and type.
func (x *Items) Upsert(itemID, novelID string, t models.ItemType) error {
	entry := models.ItemIndexEntry{NovelID: novelID, ItemType: t}
	return x.mutate(func(m map[string]models.ItemIndexEntry) bool {
		if m[itemID] == entry {
			return false
		}
		m[itemID] = entry
		return true
	})
}

// Remove drops the mapping for itemID. A missing mapping is not an error.
func (x *Items) Remove(itemID string) error {
	return x.mutate(func(m map[string]models.ItemIndexEntry) bool {
		if _, ok := m[itemID]; !ok {
			return false
		}
		delete(m, itemID)
		return true
	})
}

// RemoveNovel drops every mapping that points at novelID and returns how
// many were removed.
func (x *Items) RemoveNovel(novelID string) (int, error) {
	removed := 0
	err := x.mutate(func(m map[string]models.ItemIndexEntry) bool {
		for id, e := range m {
			if e.NovelID == novelID {
				delete(m, id)
				removed++
			}
		}
		return removed > 0
	})
	return removed, err
}

// IDsForNovel returns the sorted ids of novelID's items of type t.
func (x *Items) IDsForNovel(novelID string, t models.ItemType) ([]string, error) {
	m, err := x.Load()
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, e := range m {
		if e.NovelID == novelID && e.ItemType == t {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// AllIDsForNovel returns the sorted ids of every item of novelID.
func (x *Items) AllIDsForNovel(novelID string) ([]string, error) {
	m, err := x.Load()
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, e := range m {
		if e.NovelID == novelID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// ReconcileResult lists the changes made by Reconcile.
type ReconcileResult struct {
	Added   []string
	Removed []string
}

// Changed reports whether Reconcile touched the index.
func (r ReconcileResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconcile makes the mappings of novelID's items of type t match
// onDisk: ids on disk without a mapping are added, mapped ids missing
// from disk are removed. It runs as one load-mutate-save cycle.
func (x *Items) Reconcile(novelID string, t models.ItemType, onDisk []string) (ReconcileResult, error) {
	var res ReconcileResult
	disk := make(map[string]struct{}, len(onDisk))
	for _, id := range onDisk {
		disk[id] = struct{}{}
	}

	err := x.mutate(func(m map[string]models.ItemIndexEntry) bool {
		for id, e := range m {
			if e.NovelID != novelID || e.ItemType != t {
				continue
			}
			if _, ok := disk[id]; !ok {
				delete(m, id)
				res.Removed = append(res.Removed, id)
			}
		}
		for id := range disk {
			want := models.ItemIndexEntry{NovelID: novelID, ItemType: t}
			if m[id] != want {
				m[id] = want
				res.Added = append(res.Added, id)
			}
		}
		return res.Changed()
	})
	slices.Sort(res.Added)
	slices.Sort(res.Removed)
	return res, err
}

func decodeIndex(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Corrupt(err, "index: decode %s", path)
	}
	return nil
}
