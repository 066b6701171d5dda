package storage

import (
	"cmp"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/starford/muvel/internal/models"
)

func (p *Project) episodePath(id string) string {
	return filepath.Join(p.root, EpisodesDir, id+"."+EpisodeExt)
}

// ReadEpisode decodes episodes/<id>.mvle. The file name is the
// episode's identity; an id stored in the document is overridden.
func (p *Project) ReadEpisode(id string) (*models.Episode, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var ep models.Episode
	if err := readJSON(p.episodePath(id), &ep); err != nil {
		return nil, err
	}
	ep.ID = id
	if ep.Blocks == nil {
		ep.Blocks = []models.Block{}
	}
	return &ep, nil
}

// WriteEpisode atomically writes episodes/<id>.mvle.
func (p *Project) WriteEpisode(id string, ep *models.Episode) error {
	if err := checkID(id); err != nil {
		return err
	}
	return WriteJSONAtomic(p.episodePath(id), ep)
}

// DeleteEpisode removes episodes/<id>.mvle. Deleting a missing episode
// succeeds.
func (p *Project) DeleteEpisode(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return removeFile(p.episodePath(id))
}

// EpisodeIDs lists the ids of the episode files without decoding them.
func (p *Project) EpisodeIDs() ([]string, error) {
	return listIDs(filepath.Join(p.root, EpisodesDir), EpisodeExt)
}

// ListEpisodeSummaries decodes only the summary fields of every episode
// file. Files that fail to decode are logged and skipped. The result is
// sorted by order, ascending.
func (p *Project) ListEpisodeSummaries() ([]models.EpisodeSummary, error) {
	ids, err := p.EpisodeIDs()
	if err != nil {
		return nil, err
	}

	out := make([]models.EpisodeSummary, 0, len(ids))
	for _, id := range ids {
		path := p.episodePath(id)
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("storage: read episode failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		var s models.EpisodeSummary
		if err := json.Unmarshal(data, &s); err != nil {
			p.logger.Warn("storage: decode episode summary failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		s.ID = id
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b models.EpisodeSummary) int {
		return compareOrder(a.Order, b.Order)
	})
	return out, nil
}

// compareOrder orders floats ascending and treats NaN as equal to
// anything, leaving such pairs in their current relative order.
func compareOrder(a, b float64) int {
	if a != a || b != b {
		return 0
	}
	return cmp.Compare(a, b)
}
