package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// FileOpener indexes documents opened from outside the app, such as a
// double-clicked file.
type FileOpener struct {
	*core
}

// Open resolves the project owning path, records it and the opened item
// in the indexes and tells the caller where to navigate.
//
//	.muvl  project root is the parent folder
//	.mvle  must sit in an "episodes" folder directly under the root
//	.mvlw  must sit in a "wiki" folder directly under the root
func (f *FileOpener) Open(_ context.Context, path string) (*models.OpenedItem, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.IO(err, "resolve %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrNotFound, err, "file %s does not exist", abs)
		}
		return nil, apperr.IO(err, "stat %s", abs)
	}
	if info.IsDir() {
		return nil, apperr.Validation("%s is a directory", abs)
	}

	ext := strings.TrimPrefix(filepath.Ext(abs), ".")
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	dir := filepath.Dir(abs)

	var item *models.OpenedItem
	switch ext {
	case storage.NovelExt:
		novel, _, err := f.registerProject(dir)
		if err != nil {
			return nil, err
		}
		item = &models.OpenedItem{Kind: models.OpenedNovel, NovelID: novel.ID}

	case storage.EpisodeExt:
		if filepath.Base(dir) != storage.EpisodesDir {
			return nil, apperr.Validation("episode file %s is not inside an %q folder", abs, storage.EpisodesDir)
		}
		novelID, err := f.openItem(filepath.Dir(dir), stem, models.ItemEpisode)
		if err != nil {
			return nil, err
		}
		item = &models.OpenedItem{Kind: models.OpenedEpisode, NovelID: novelID, EpisodeID: stem}

	case storage.WikiPageExt:
		if filepath.Base(dir) != storage.WikiDir {
			return nil, apperr.Validation("wiki page file %s is not inside a %q folder", abs, storage.WikiDir)
		}
		novelID, err := f.openItem(filepath.Dir(dir), stem, models.ItemWikiPage)
		if err != nil {
			return nil, err
		}
		item = &models.OpenedItem{Kind: models.OpenedWikiPage, NovelID: novelID, WikiPageID: stem}

	default:
		return nil, apperr.Validation("unsupported file type %q", filepath.Ext(abs))
	}

	f.emit(EventNovelUpdated, item.NovelID, item.NovelID)
	f.logger.Info("repository: file opened",
		slog.String("path", abs), slog.String("kind", string(item.Kind)), slog.String("novel_id", item.NovelID))
	return item, nil
}

// openItem checks that the document decodes, then registers its project
// and maps it to the novel.
func (f *FileOpener) openItem(root, itemID string, t models.ItemType) (string, error) {
	p := f.project(root)
	var err error
	if t == models.ItemEpisode {
		_, err = p.ReadEpisode(itemID)
	} else {
		_, err = p.ReadWikiPage(itemID)
	}
	if err != nil {
		return "", err
	}

	novel, _, err := f.registerProject(root)
	if err != nil {
		return "", err
	}
	if err := f.items.Upsert(itemID, novel.ID, t); err != nil {
		return "", err
	}
	return novel.ID, nil
}
