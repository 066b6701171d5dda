package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// NovelRepository manages projects and the project index.
type NovelRepository struct {
	*core
}

// folderName turns a title into a project folder name.
func folderName(title, id string) string {
	name := slug.Make(title)
	if name == "" {
		name = "novel-" + id[:8]
	}
	return name
}

// CreateNovel makes a new project folder named after title under
// parentDir (the configured novels directory when empty) and indexes it.
func (r *NovelRepository) CreateNovel(_ context.Context, title, parentDir string) (*models.Novel, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("novel title is required")
	}
	if parentDir == "" {
		parentDir = r.novelsDir
	}
	parentDir, err := filepath.Abs(parentDir)
	if err != nil {
		return nil, apperr.IO(err, "resolve %s", parentDir)
	}

	id := uuid.NewString()
	root := filepath.Join(parentDir, folderName(title, id))
	if _, err := os.Stat(root); err == nil {
		return nil, apperr.New(apperr.ErrAlreadyExists, "project folder %s already exists", root)
	}

	p := r.project(root)
	if err := p.CreateDirectories(); err != nil {
		return nil, err
	}
	if err := p.CreateWikiDirectory(); err != nil {
		return nil, err
	}

	now := r.now()
	novel := &models.Novel{
		ID:           id,
		Title:        title,
		Tags:         []string{},
		Share:        models.ShareLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
		EpisodeCount: models.Ptr(0),
		LocalPath:    root,
	}
	if err := p.WriteNovelForCreation(novel); err != nil {
		return nil, err
	}
	if err := r.projects.Upsert(models.ProjectIndexEntry{
		ID:           id,
		Title:        title,
		EpisodeCount: models.Ptr(0),
		LastOpened:   &now,
		Path:         &root,
	}); err != nil {
		return nil, err
	}

	r.logger.Info("repository: novel created", slog.String("novel_id", id), slog.String("path", root))
	r.emit(EventNovelCreated, id, id)
	return novel, nil
}

// GetNovel reads the metadata of a novel.
func (r *NovelRepository) GetNovel(_ context.Context, novelID string) (*models.Novel, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	return p.ReadNovel()
}

// GetNovelDetails reads a novel with its episode and wiki page
// summaries. It syncs the item index first and marks the novel as
// opened.
func (r *NovelRepository) GetNovelDetails(_ context.Context, novelID string) (*models.NovelDetails, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	if err := r.syncNovel(p, novelID); err != nil {
		return nil, err
	}

	novel, err := p.ReadNovel()
	if err != nil {
		return nil, err
	}
	if novel.LocalPath != p.Root() {
		novel.LocalPath = p.Root()
		if err := p.UpdateNovel(novel); err != nil {
			return nil, err
		}
	}

	episodes, err := p.ListEpisodeSummaries()
	if err != nil {
		return nil, err
	}
	wiki, err := p.ListWikiPageSummaries()
	if err != nil {
		return nil, err
	}

	now := r.now()
	if _, err := r.projects.Update(novelID, func(e *models.ProjectIndexEntry) bool {
		e.LastOpened = &now
		return true
	}); err != nil {
		return nil, err
	}

	return &models.NovelDetails{Novel: *novel, Episodes: episodes, WikiPages: wiki}, nil
}

// UpdateNovelMetadata applies patch to the novel file and mirrors the
// title and thumbnail into the project index.
func (r *NovelRepository) UpdateNovelMetadata(_ context.Context, novelID string, patch models.NovelPatch) (*models.Novel, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	novel, err := p.ReadNovel()
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, apperr.Validation("novel title must not be empty")
		}
		novel.Title = t
	}
	if patch.Description != nil {
		novel.Description = patch.Description
	}
	if patch.Tags != nil {
		novel.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.Thumbnail != nil {
		novel.Thumbnail = patch.Thumbnail
	}
	novel.UpdatedAt = r.now()

	if err := p.UpdateNovel(novel); err != nil {
		return nil, err
	}
	if _, err := r.projects.Update(novelID, func(e *models.ProjectIndexEntry) bool {
		e.Title = novel.Title
		e.Thumbnail = novel.Thumbnail
		return true
	}); err != nil {
		return nil, err
	}

	r.emit(EventNovelUpdated, novelID, novelID)
	return novel, nil
}

// DeleteNovel removes the project folder and every index record of the
// novel. A novel that is not indexed is already gone.
func (r *NovelRepository) DeleteNovel(_ context.Context, novelID string) error {
	entry, ok, err := r.projects.Get(novelID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if entry.Path != nil && *entry.Path != "" {
		if err := r.project(*entry.Path).DeleteTree(); err != nil {
			return err
		}
	}
	if _, err := r.items.RemoveNovel(novelID); err != nil {
		return err
	}
	if err := r.projects.Remove(novelID); err != nil {
		return err
	}

	r.logger.Info("repository: novel deleted", slog.String("novel_id", novelID))
	r.emit(EventNovelDeleted, novelID, novelID)
	return nil
}

// ListNovels returns every indexed novel whose folder is still a valid
// project, most recently opened first. Entries pointing at missing
// folders are pruned; ambiguous folders are listed as they are.
func (r *NovelRepository) ListNovels(_ context.Context) ([]models.ProjectIndexEntry, error) {
	entries, err := r.projects.List()
	if err != nil {
		return nil, err
	}
	out := make([]models.ProjectIndexEntry, 0, len(entries))
	for _, e := range entries {
		if e.Path == nil || *e.Path == "" {
			r.prune(e.ID, "no path recorded")
			continue
		}
		if err := checkProject(r.project(*e.Path)); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				r.prune(e.ID, err.Error())
				continue
			}
			r.logger.Warn("repository: listing novel with unreadable folder",
				slog.String("novel_id", e.ID), slog.String("error", err.Error()))
		}
		out = append(out, e)
	}
	return out, nil
}

// GetNovelEntry returns the project index entry of a novel.
func (r *NovelRepository) GetNovelEntry(_ context.Context, novelID string) (models.ProjectIndexEntry, error) {
	if _, err := r.resolveNovel(novelID); err != nil {
		return models.ProjectIndexEntry{}, err
	}
	e, ok, err := r.projects.Get(novelID)
	if err != nil {
		return models.ProjectIndexEntry{}, err
	}
	if !ok {
		return models.ProjectIndexEntry{}, apperr.NotFound("novel %s is not indexed", novelID)
	}
	return e, nil
}

// RegisterFromPath indexes the project owning a .muvl file or a project
// folder.
func (r *NovelRepository) RegisterFromPath(_ context.Context, path string) (models.ProjectIndexEntry, error) {
	root := path
	if filepath.Ext(path) == "."+storage.NovelExt {
		root = filepath.Dir(path)
	}
	novel, entry, err := r.registerProject(root)
	if err != nil {
		return models.ProjectIndexEntry{}, err
	}
	r.emit(EventNovelUpdated, novel.ID, novel.ID)
	return entry, nil
}

// Sync reconciles the item index and episode count of a novel with its
// files.
func (r *NovelRepository) Sync(_ context.Context, novelID string) error {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return err
	}
	if err := r.syncNovel(p, novelID); err != nil {
		return err
	}
	r.emit(EventNovelSynced, novelID, novelID)
	return nil
}

// Root returns the validated project folder of a novel.
func (r *NovelRepository) Root(_ context.Context, novelID string) (string, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return "", err
	}
	return p.Root(), nil
}

// SaveImage stores an image in the project's resources folder and
// returns its absolute path.
func (r *NovelRepository) SaveImage(_ context.Context, novelID, originalName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("image is empty")
	}
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return "", err
	}
	path, err := p.SaveImage(originalName, data)
	if err != nil {
		return "", err
	}
	r.logger.Info("repository: image saved", slog.String("novel_id", novelID), slog.String("path", path))
	return path, nil
}
