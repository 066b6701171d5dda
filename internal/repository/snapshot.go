package repository

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/blocks"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// SnapshotRepository keeps point-in-time copies of episode blocks.
type SnapshotRepository struct {
	*core
}

func checkReason(r models.SnapshotReason) error {
	switch r {
	case models.SnapshotMerge, models.SnapshotManual, models.SnapshotAutosave:
		return nil
	}
	return apperr.Validation("unknown snapshot reason %q", r)
}

// CreateSnapshot copies the current blocks of an episode. An empty
// reason means manual.
func (r *SnapshotRepository) CreateSnapshot(_ context.Context, episodeID string, reason models.SnapshotReason) (*models.EpisodeSnapshot, error) {
	if reason == "" {
		reason = models.SnapshotManual
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	_, p, err := r.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		return nil, err
	}
	ep, err := p.ReadEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	return r.take(p, episodeID, ep, reason)
}

func (r *SnapshotRepository) take(p *storage.Project, episodeID string, ep *models.Episode, reason models.SnapshotReason) (*models.EpisodeSnapshot, error) {
	s := &models.EpisodeSnapshot{
		ID:        uuid.NewString(),
		EpisodeID: episodeID,
		Reason:    reason,
		Blocks:    slices.Clone(ep.Blocks),
		CreatedAt: r.now(),
	}
	if s.Blocks == nil {
		s.Blocks = []models.Block{}
	}
	if err := p.WriteSnapshot(s); err != nil {
		return nil, err
	}
	r.logger.Info("repository: snapshot created",
		slog.String("episode_id", episodeID), slog.String("snapshot_id", s.ID), slog.String("reason", string(reason)))
	return s, nil
}

// ListSnapshots returns the snapshots of an episode, oldest first.
func (r *SnapshotRepository) ListSnapshots(_ context.Context, episodeID string) ([]models.EpisodeSnapshot, error) {
	_, p, err := r.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		return nil, err
	}
	return p.ListSnapshots(episodeID)
}

// RestoreSnapshot puts the blocks of a snapshot back into its episode.
// The state being replaced is kept as a merge snapshot.
func (r *SnapshotRepository) RestoreSnapshot(_ context.Context, episodeID, snapshotID string) (*models.Episode, error) {
	novelID, p, err := r.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		return nil, err
	}
	snap, err := p.ReadSnapshot(episodeID, snapshotID)
	if err != nil {
		return nil, err
	}
	ep, err := p.ReadEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	if _, err := r.take(p, episodeID, ep, models.SnapshotMerge); err != nil {
		return nil, err
	}

	ep.Blocks = blocks.Normalize(slices.Clone(snap.Blocks))
	ep.ContentLength = blocks.ContentLength(ep.Blocks)
	ep.UpdatedAt = r.now()
	if err := p.WriteEpisode(episodeID, ep); err != nil {
		return nil, err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return nil, err
	}

	r.emit(EventEpisodeUpdated, novelID, episodeID)
	return ep, nil
}
