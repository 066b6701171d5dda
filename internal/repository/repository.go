// Package repository implements the use cases of the document store on
// top of the project files (storage) and the global indexes (index).
//
// Every operation resolves ids to a project root through the indexes.
// When an index entry points at a folder that no longer holds a project,
// the entry and all item mappings of that novel are removed and the call
// fails with apperr.ErrNotFound.
package repository

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/index"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// Event types passed to the Notifier.
const (
	EventNovelCreated    = "novel.created"
	EventNovelUpdated    = "novel.updated"
	EventNovelDeleted    = "novel.deleted"
	EventNovelSynced     = "novel.synced"
	EventEpisodeCreated  = "episode.created"
	EventEpisodeUpdated  = "episode.updated"
	EventEpisodeDeleted  = "episode.deleted"
	EventWikiPageCreated = "wiki.created"
	EventWikiPageUpdated = "wiki.updated"
	EventWikiPageDeleted = "wiki.deleted"
)

// ChangeEvent describes a change made through the repositories.
type ChangeEvent struct {
	Type    string `json:"type"`
	NovelID string `json:"novelId"`
	ID      string `json:"id,omitempty"`
}

// Notifier receives change events. It must not block.
type Notifier func(ChangeEvent)

// Repositories groups the use-case objects that share one pair of
// indexes.
type Repositories struct {
	Novels    *NovelRepository
	Episodes  *EpisodeRepository
	WikiPages *WikiPageRepository
	Snapshots *SnapshotRepository
	Search    *SearchRepository
	Files     *FileOpener
	Cloud     *CloudBackup
}

// Option configures New.
type Option func(*core)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *core) { c.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

// WithNovelsDir sets the default parent folder of new projects.
func WithNovelsDir(dir string) Option {
	return func(c *core) { c.novelsDir = dir }
}

// WithCloudDir sets the folder holding backup copies.
func WithCloudDir(dir string) Option {
	return func(c *core) { c.cloudDir = dir }
}

// WithNotifier registers a change event callback.
func WithNotifier(n Notifier) Option {
	return func(c *core) { c.notify = n }
}

// New builds the repositories over the given indexes.
func New(projects *index.Projects, items *index.Items, opts ...Option) *Repositories {
	c := &core{
		projects: projects,
		items:    items,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.novelsDir == "" {
		c.novelsDir = filepath.Join(filepath.Dir(projects.Path()), "novels")
	}
	if c.cloudDir == "" {
		c.cloudDir = filepath.Join(filepath.Dir(projects.Path()), "cloud")
	}

	return &Repositories{
		Novels:    &NovelRepository{c},
		Episodes:  &EpisodeRepository{c},
		WikiPages: &WikiPageRepository{c},
		Snapshots: &SnapshotRepository{c},
		Search:    &SearchRepository{c},
		Files:     &FileOpener{c},
		Cloud:     &CloudBackup{c},
	}
}

// core holds what every repository shares.
type core struct {
	projects  *index.Projects
	items     *index.Items
	logger    *slog.Logger
	now       func() time.Time
	novelsDir string
	cloudDir  string
	notify    Notifier
}

func (c *core) project(root string) *storage.Project {
	return storage.NewProject(root, c.logger)
}

func (c *core) emit(typ, novelID, id string) {
	if c.notify != nil {
		c.notify(ChangeEvent{Type: typ, NovelID: novelID, ID: id})
	}
}

// checkProject reports why root cannot serve as a project: ErrNotFound
// when it is missing, not a directory or has no metadata file, and
// ErrAmbiguousState when it has several.
func checkProject(p *storage.Project) error {
	info, err := os.Stat(p.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.Wrap(apperr.ErrNotFound, err, "project folder %s does not exist", p.Root())
		}
		return apperr.IO(err, "stat %s", p.Root())
	}
	if !info.IsDir() {
		return apperr.NotFound("project path %s is not a directory", p.Root())
	}
	_, err = p.LocateMetadata()
	return err
}

// resolveNovel returns the project of novelID, pruning the index when
// the recorded folder is no longer a project. A folder with several
// metadata files is reported as ambiguous and left alone.
func (c *core) resolveNovel(novelID string) (*storage.Project, error) {
	entry, ok, err := c.projects.Get(novelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("novel %s is not indexed", novelID)
	}
	if entry.Path == nil || *entry.Path == "" {
		c.prune(novelID, "no path recorded")
		return nil, apperr.NotFound("novel %s has no project path", novelID)
	}

	p := c.project(*entry.Path)
	if err := checkProject(p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.prune(novelID, err.Error())
			return nil, apperr.Wrap(apperr.ErrNotFound, err, "novel %s is gone from %s", novelID, *entry.Path)
		}
		return nil, err
	}
	return p, nil
}

// resolveItem finds the novel and project owning an item of type t.
func (c *core) resolveItem(itemID string, t models.ItemType) (string, *storage.Project, error) {
	entry, ok, err := c.items.Get(itemID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, apperr.NotFound("no parent novel for item %s", itemID)
	}
	if entry.ItemType != t {
		return "", nil, apperr.NotFound("item %s is a %s, not a %s", itemID, entry.ItemType, t)
	}
	p, err := c.resolveNovel(entry.NovelID)
	if err != nil {
		return "", nil, err
	}
	return entry.NovelID, p, nil
}

// prune drops a dead project entry and every item mapping of the novel.
// Failures are logged; the caller reports not found either way.
func (c *core) prune(novelID, reason string) {
	if err := c.projects.Remove(novelID); err != nil {
		c.logger.Error("repository: prune project entry failed",
			slog.String("novel_id", novelID), slog.String("error", err.Error()))
	}
	n, err := c.items.RemoveNovel(novelID)
	if err != nil {
		c.logger.Error("repository: prune item mappings failed",
			slog.String("novel_id", novelID), slog.String("error", err.Error()))
	}
	c.logger.Warn("repository: pruned stale novel",
		slog.String("novel_id", novelID),
		slog.String("reason", reason),
		slog.Int("items_removed", n))
}

// forgetItem drops the mapping of an item whose file has disappeared.
func (c *core) forgetItem(itemID string) {
	if err := c.items.Remove(itemID); err != nil {
		c.logger.Error("repository: remove item mapping failed",
			slog.String("item_id", itemID), slog.String("error", err.Error()))
		return
	}
	c.logger.Warn("repository: removed mapping of missing item", slog.String("item_id", itemID))
}

// refreshNovel recounts the episode files of p, stamps updatedAt and
// writes the count to both the novel file and the project index.
func (c *core) refreshNovel(p *storage.Project, novelID string) (*models.Novel, error) {
	ids, err := p.EpisodeIDs()
	if err != nil {
		return nil, err
	}
	novel, err := p.ReadNovel()
	if err != nil {
		return nil, err
	}
	count := len(ids)
	novel.EpisodeCount = &count
	novel.UpdatedAt = c.now()
	if err := p.UpdateNovel(novel); err != nil {
		return nil, err
	}
	if _, err := c.projects.Update(novelID, func(e *models.ProjectIndexEntry) bool {
		if e.EpisodeCount != nil && *e.EpisodeCount == count {
			return false
		}
		e.EpisodeCount = &count
		return true
	}); err != nil {
		return nil, err
	}
	return novel, nil
}

// syncNovel brings the item index and the episode count of novelID in
// line with the files of p. Items added or removed outside the app are
// picked up here.
func (c *core) syncNovel(p *storage.Project, novelID string) error {
	episodeIDs, err := p.EpisodeIDs()
	if err != nil {
		return err
	}
	wikiIDs, err := p.WikiPageIDs()
	if err != nil {
		return err
	}

	for _, r := range []struct {
		typ models.ItemType
		ids []string
	}{
		{models.ItemEpisode, episodeIDs},
		{models.ItemWikiPage, wikiIDs},
	} {
		res, err := c.items.Reconcile(novelID, r.typ, r.ids)
		if err != nil {
			return err
		}
		if res.Changed() {
			c.logger.Info("repository: item index synced",
				slog.String("novel_id", novelID),
				slog.String("item_type", string(r.typ)),
				slog.Int("added", len(res.Added)),
				slog.Int("removed", len(res.Removed)))
		}
	}

	count := len(episodeIDs)
	novel, err := p.ReadNovel()
	if err != nil {
		return err
	}
	if novel.EpisodeCount == nil || *novel.EpisodeCount != count {
		novel.EpisodeCount = &count
		if err := p.UpdateNovel(novel); err != nil {
			return err
		}
	}
	_, err = c.projects.Update(novelID, func(e *models.ProjectIndexEntry) bool {
		if e.EpisodeCount != nil && *e.EpisodeCount == count {
			return false
		}
		e.EpisodeCount = &count
		return true
	})
	return err
}

// registerProject reads the project at root and records it in the
// project index with its real episode count, fixing the count in the
// novel file when it drifted. It also syncs the item index.
func (c *core) registerProject(root string) (*models.Novel, models.ProjectIndexEntry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, models.ProjectIndexEntry{}, apperr.IO(err, "resolve %s", root)
	}
	p := c.project(abs)
	if err := checkProject(p); err != nil {
		return nil, models.ProjectIndexEntry{}, err
	}
	novel, err := p.ReadNovel()
	if err != nil {
		return nil, models.ProjectIndexEntry{}, err
	}
	if novel.ID == "" {
		return nil, models.ProjectIndexEntry{}, apperr.New(apperr.ErrCorruptData, "novel metadata in %s has no id", abs)
	}

	ids, err := p.EpisodeIDs()
	if err != nil {
		return nil, models.ProjectIndexEntry{}, err
	}
	count := len(ids)
	if novel.EpisodeCount == nil || *novel.EpisodeCount != count || novel.LocalPath != abs {
		novel.EpisodeCount = &count
		novel.LocalPath = abs
		if err := p.UpdateNovel(novel); err != nil {
			return nil, models.ProjectIndexEntry{}, err
		}
	}

	now := c.now()
	entry := models.ProjectIndexEntry{
		ID:           novel.ID,
		Title:        novel.Title,
		EpisodeCount: &count,
		Thumbnail:    novel.Thumbnail,
		LastOpened:   &now,
		Path:         &abs,
	}
	if err := c.projects.Upsert(entry); err != nil {
		return nil, models.ProjectIndexEntry{}, err
	}
	if err := c.syncNovel(p, novel.ID); err != nil {
		return nil, models.ProjectIndexEntry{}, err
	}
	return novel, entry, nil
}
