// Package index maintains the two global lookup files kept in the app
// data directory: the project index (novel id -> project entry) and the
// item index (episode/wiki page id -> owning novel).
//
// Both are small JSON maps rewritten whole on every change. Each index
// serializes its load-mutate-save cycle behind one mutex.
package index

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// File names inside the app data directory.
const (
	ProjectsFile = "novel_index.json"
	ItemsFile    = "novel_item_index.json"
)

// Projects is the project index.
type Projects struct {
	mu   sync.Mutex
	path string
}

// OpenProjects returns the project index stored in dataDir. The file is
// created lazily on the first write.
func OpenProjects(dataDir string) *Projects {
	return &Projects{path: filepath.Join(dataDir, ProjectsFile)}
}

// Path returns the index file path.
func (p *Projects) Path() string { return p.path }

// load reads the map. A missing file is an empty map. Caller holds mu.
func (p *Projects) load() (map[string]models.ProjectIndexEntry, error) {
	m := map[string]models.ProjectIndexEntry{}
	if err := readIndexFile(p.path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Projects) save(m map[string]models.ProjectIndexEntry) error {
	return storage.WriteJSONAtomic(p.path, m)
}

// Load returns a copy of the whole index.
func (p *Projects) Load() (map[string]models.ProjectIndexEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

// Save replaces the whole index.
func (p *Projects) Save(m map[string]models.ProjectIndexEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(m)
}

// Get returns the entry for id, or false when there is none.
func (p *Projects) Get(id string) (models.ProjectIndexEntry, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.load()
	if err != nil {
		return models.ProjectIndexEntry{}, false, err
	}
	e, ok := m[id]
	return e, ok, nil
}

// Upsert inserts or replaces the entry keyed by e.ID.
func (p *Projects) Upsert(e models.ProjectIndexEntry) error {
	return p.mutate(func(m map[string]models.ProjectIndexEntry) bool {
		m[e.ID] = e
		return true
	})
}

// Update applies fn to the existing entry for id. fn reports whether it
// changed the entry; only then is the index written. Update reports
// false when there is no such entry.
func (p *Projects) Update(id string, fn func(*models.ProjectIndexEntry) bool) (bool, error) {
	found := false
	err := p.mutate(func(m map[string]models.ProjectIndexEntry) bool {
		e, ok := m[id]
		if !ok {
			return false
		}
		found = true
		if !fn(&e) {
			return false
		}
		m[id] = e
		return true
	})
	return found, err
}

// Remove deletes the entry for id. A missing entry is not an error.
func (p *Projects) Remove(id string) error {
	return p.mutate(func(m map[string]models.ProjectIndexEntry) bool {
		if _, ok := m[id]; !ok {
			return false
		}
		delete(m, id)
		return true
	})
}

// List returns every entry, most recently opened first, then by title.
func (p *Projects) List() ([]models.ProjectIndexEntry, error) {
	m, err := p.Load()
	if err != nil {
		return nil, err
	}
	out := make([]models.ProjectIndexEntry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.ProjectIndexEntry) int {
		switch {
		case a.LastOpened != nil && b.LastOpened != nil:
			if c := b.LastOpened.Compare(*a.LastOpened); c != 0 {
				return c
			}
		case a.LastOpened != nil:
			return -1
		case b.LastOpened != nil:
			return 1
		}
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// mutate runs one load-mutate-save cycle. fn reports whether it changed
// the map; unchanged maps are not written back.
func (p *Projects) mutate(fn func(map[string]models.ProjectIndexEntry) bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.load()
	if err != nil {
		return err
	}
	if !fn(m) {
		return nil
	}
	return p.save(m)
}

// readIndexFile decodes an index file into v, leaving v untouched when
// the file does not exist.
func readIndexFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.IO(err, "index: read %s", path)
	}
	if len(data) == 0 {
		return nil
	}
	return decodeIndex(path, data, v)
}
