package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/starford/muvel/internal/models"
)

func (p *Project) wikiPagePath(id string) string {
	return filepath.Join(p.root, WikiDir, id+"."+WikiPageExt)
}

// ReadWikiPage decodes wiki/<id>.mvlw. Like episodes, the file name
// wins over the id stored in the document.
func (p *Project) ReadWikiPage(id string) (*models.WikiPage, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var page models.WikiPage
	if err := readJSON(p.wikiPagePath(id), &page); err != nil {
		return nil, err
	}
	page.ID = id
	if page.Tags == nil {
		page.Tags = []string{}
	}
	if page.Attributes == nil {
		page.Attributes = map[string]string{}
	}
	if page.Blocks == nil {
		page.Blocks = []models.Block{}
	}
	return &page, nil
}

// WriteWikiPage atomically writes wiki/<id>.mvlw.
func (p *Project) WriteWikiPage(id string, page *models.WikiPage) error {
	if err := checkID(id); err != nil {
		return err
	}
	return WriteJSONAtomic(p.wikiPagePath(id), page)
}

// DeleteWikiPage removes wiki/<id>.mvlw. Deleting a missing page succeeds.
func (p *Project) DeleteWikiPage(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return removeFile(p.wikiPagePath(id))
}

// WikiPageIDs lists the ids of the wiki page files.
func (p *Project) WikiPageIDs() ([]string, error) {
	return listIDs(filepath.Join(p.root, WikiDir), WikiPageExt)
}

// ListWikiPageSummaries decodes the summary fields of every wiki page,
// skipping unreadable files, most recently updated first.
func (p *Project) ListWikiPageSummaries() ([]models.WikiPageSummary, error) {
	ids, err := p.WikiPageIDs()
	if err != nil {
		return nil, err
	}

	out := make([]models.WikiPageSummary, 0, len(ids))
	for _, id := range ids {
		path := p.wikiPagePath(id)
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("storage: read wiki page failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		var s models.WikiPageSummary
		if err := json.Unmarshal(data, &s); err != nil {
			p.logger.Warn("storage: decode wiki summary failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		s.ID = id
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b models.WikiPageSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}
