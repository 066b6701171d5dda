package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
)

func (p *Project) snapshotDir(episodeID string) string {
	return filepath.Join(p.root, EpisodesDir, SnapshotsDir, episodeID)
}

func (p *Project) snapshotPath(episodeID, id string) string {
	return filepath.Join(p.snapshotDir(episodeID), id+"."+SnapshotExt)
}

// WriteSnapshot stores s under its episode's snapshot folder.
func (p *Project) WriteSnapshot(s *models.EpisodeSnapshot) error {
	if err := checkID(s.EpisodeID); err != nil {
		return err
	}
	if err := checkID(s.ID); err != nil {
		return err
	}
	return WriteJSONAtomic(p.snapshotPath(s.EpisodeID, s.ID), s)
}

// ReadSnapshot decodes one snapshot.
func (p *Project) ReadSnapshot(episodeID, id string) (*models.EpisodeSnapshot, error) {
	if err := checkID(episodeID); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	var s models.EpisodeSnapshot
	if err := readJSON(p.snapshotPath(episodeID, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots reads every snapshot of an episode in full, skipping
// unreadable files, oldest first.
func (p *Project) ListSnapshots(episodeID string) ([]models.EpisodeSnapshot, error) {
	if err := checkID(episodeID); err != nil {
		return nil, err
	}
	dir := p.snapshotDir(episodeID)
	ids, err := listIDs(dir, SnapshotExt)
	if err != nil {
		return nil, err
	}

	out := make([]models.EpisodeSnapshot, 0, len(ids))
	for _, id := range ids {
		var s models.EpisodeSnapshot
		if err := readJSON(p.snapshotPath(episodeID, id), &s); err != nil {
			p.logger.Warn("storage: skip snapshot", slog.String("dir", dir), slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b models.EpisodeSnapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// DeleteSnapshots removes every snapshot of an episode.
func (p *Project) DeleteSnapshots(episodeID string) error {
	if err := checkID(episodeID); err != nil {
		return err
	}
	dir := p.snapshotDir(episodeID)
	if err := os.RemoveAll(dir); err != nil {
		return apperr.IO(err, "storage: delete snapshots %s", dir)
	}
	return nil
}
