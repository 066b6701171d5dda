package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/blocks"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// EpisodeRepository manages the episodes of all projects.
type EpisodeRepository struct {
	*core
}

func checkOrder(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return apperr.Validation("order must be a finite number")
	}
	return nil
}

// nextEpisodeOrder is one past the highest episode order, never below 1.
func nextEpisodeOrder(summaries []models.EpisodeSummary) float64 {
	top := 0.0
	for _, s := range summaries {
		if !math.IsNaN(s.Order) && s.Order > top {
			top = s.Order
		}
	}
	return top + 1
}

// CreateEpisode adds an empty episode to a novel. Without an explicit
// order it is placed after the last episode.
func (r *EpisodeRepository) CreateEpisode(_ context.Context, novelID string, opts models.CreateEpisodeOptions) (*models.Episode, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}

	var order float64
	if opts.Order != nil {
		if err := checkOrder(*opts.Order); err != nil {
			return nil, err
		}
		order = *opts.Order
	} else {
		summaries, err := p.ListEpisodeSummaries()
		if err != nil {
			return nil, err
		}
		order = nextEpisodeOrder(summaries)
	}

	typ := models.EpisodeTypeEpisode
	if opts.EpisodeType != nil {
		if !opts.EpisodeType.Valid() {
			return nil, apperr.Validation("unknown episode type %d", *opts.EpisodeType)
		}
		typ = *opts.EpisodeType
	}
	title := fmt.Sprintf("Episode %g", order)
	if opts.Title != nil {
		title = *opts.Title
	}
	var desc string
	if opts.Description != nil {
		desc = *opts.Description
	}

	now := r.now()
	ep := &models.Episode{
		ID:          uuid.NewString(),
		NovelID:     novelID,
		Title:       title,
		Description: desc,
		EpisodeType: typ,
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
		Blocks:      []models.Block{},
	}
	if err := p.WriteEpisode(ep.ID, ep); err != nil {
		return nil, err
	}
	if err := r.items.Upsert(ep.ID, novelID, models.ItemEpisode); err != nil {
		return nil, err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return nil, err
	}

	r.logger.Info("repository: episode created",
		slog.String("novel_id", novelID), slog.String("episode_id", ep.ID), slog.Float64("order", order))
	r.emit(EventEpisodeCreated, novelID, ep.ID)
	return ep, nil
}

// load resolves and reads an episode. A mapping whose file is gone is
// dropped from the item index.
func (r *EpisodeRepository) load(episodeID string) (string, *storage.Project, *models.Episode, error) {
	novelID, p, err := r.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		return "", nil, nil, err
	}
	ep, err := p.ReadEpisode(episodeID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			r.forgetItem(episodeID)
		}
		return "", nil, nil, err
	}
	return novelID, p, ep, nil
}

// GetEpisode reads an episode together with its parent novel context.
func (r *EpisodeRepository) GetEpisode(_ context.Context, episodeID string) (*models.EpisodeWithNovel, error) {
	_, p, ep, err := r.load(episodeID)
	if err != nil {
		return nil, err
	}
	novel, err := p.ReadNovel()
	if err != nil {
		return nil, err
	}
	return &models.EpisodeWithNovel{
		Episode: *ep,
		Novel:   models.ParentNovel{ID: novel.ID, Share: novel.Share, Title: novel.Title},
	}, nil
}

// UpdateEpisodeMetadata applies patch to an episode.
func (r *EpisodeRepository) UpdateEpisodeMetadata(_ context.Context, episodeID string, patch models.EpisodePatch) (*models.Episode, error) {
	novelID, p, ep, err := r.load(episodeID)
	if err != nil {
		return nil, err
	}

	if patch.Order != nil {
		if err := checkOrder(*patch.Order); err != nil {
			return nil, err
		}
		ep.Order = *patch.Order
	}
	if patch.EpisodeType != nil {
		if !patch.EpisodeType.Valid() {
			return nil, apperr.Validation("unknown episode type %d", *patch.EpisodeType)
		}
		ep.EpisodeType = *patch.EpisodeType
	}
	if patch.Title != nil {
		ep.Title = *patch.Title
	}
	if patch.Description != nil {
		ep.Description = *patch.Description
	}
	if patch.AuthorComment != nil {
		ep.AuthorComment = patch.AuthorComment
	}
	if patch.AIRating != nil {
		ep.AIRating = patch.AIRating
	}
	ep.UpdatedAt = r.now()

	if err := r.save(novelID, episodeID, p, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// BatchUpdateEpisodes applies title, type and order changes to several
// episodes of one novel and returns the refreshed summaries. Items are
// validated before anything is written.
func (r *EpisodeRepository) BatchUpdateEpisodes(_ context.Context, novelID string, items []models.EpisodeBatchItem) ([]models.EpisodeSummary, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if it.Order != nil {
			if err := checkOrder(*it.Order); err != nil {
				return nil, err
			}
		}
		if it.EpisodeType != nil && !it.EpisodeType.Valid() {
			return nil, apperr.Validation("unknown episode type %d", *it.EpisodeType)
		}
		entry, ok, err := r.items.Get(it.ID)
		if err != nil {
			return nil, err
		}
		if !ok || entry.NovelID != novelID || entry.ItemType != models.ItemEpisode {
			return nil, apperr.NotFound("episode %s does not belong to novel %s", it.ID, novelID)
		}
	}

	now := r.now()
	for _, it := range items {
		ep, err := p.ReadEpisode(it.ID)
		if err != nil {
			return nil, err
		}
		if it.Title != nil {
			ep.Title = *it.Title
		}
		if it.EpisodeType != nil {
			ep.EpisodeType = *it.EpisodeType
		}
		if it.Order != nil {
			ep.Order = *it.Order
		}
		ep.UpdatedAt = now
		if err := p.WriteEpisode(it.ID, ep); err != nil {
			return nil, err
		}
		r.emit(EventEpisodeUpdated, novelID, it.ID)
	}

	if _, err := r.refreshNovel(p, novelID); err != nil {
		return nil, err
	}
	return p.ListEpisodeSummaries()
}

// ReplaceBlocks swaps the whole block list of an episode.
func (r *EpisodeRepository) ReplaceBlocks(_ context.Context, episodeID string, list []models.Block) (*models.Episode, error) {
	novelID, p, ep, err := r.load(episodeID)
	if err != nil {
		return nil, err
	}
	ep.Blocks = blocks.Normalize(list)
	ep.ContentLength = blocks.ContentLength(ep.Blocks)
	ep.UpdatedAt = r.now()
	if err := r.save(novelID, episodeID, p, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// SyncDeltaBlocks merges editor deltas into an episode's blocks.
func (r *EpisodeRepository) SyncDeltaBlocks(_ context.Context, episodeID string, deltas []models.DeltaBlock) (*models.Episode, error) {
	novelID, p, ep, err := r.load(episodeID)
	if err != nil {
		return nil, err
	}
	merged, err := blocks.Merge(ep.Blocks, deltas, r.logger)
	if err != nil {
		return nil, err
	}
	ep.Blocks = merged
	ep.ContentLength = blocks.ContentLength(merged)
	ep.UpdatedAt = r.now()
	if err := r.save(novelID, episodeID, p, ep); err != nil {
		return nil, err
	}

	r.logger.Debug("repository: delta applied",
		slog.String("episode_id", episodeID), slog.Int("deltas", len(deltas)), slog.Int("blocks", len(merged)))
	return ep, nil
}

// save writes ep under episodeID, keeps its mapping and touches the novel.
func (r *EpisodeRepository) save(novelID, episodeID string, p *storage.Project, ep *models.Episode) error {
	ep.ID = episodeID
	if err := p.WriteEpisode(episodeID, ep); err != nil {
		return err
	}
	if err := r.items.Upsert(episodeID, novelID, models.ItemEpisode); err != nil {
		return err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return err
	}
	r.emit(EventEpisodeUpdated, novelID, episodeID)
	return nil
}

// DeleteEpisode removes an episode and its snapshots. An episode that is
// no longer mapped, or whose novel is gone, is already deleted.
func (r *EpisodeRepository) DeleteEpisode(_ context.Context, episodeID string) error {
	novelID, p, err := r.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := p.DeleteEpisode(episodeID); err != nil {
		return err
	}
	if err := p.DeleteSnapshots(episodeID); err != nil {
		return err
	}
	if err := r.items.Remove(episodeID); err != nil {
		return err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return err
	}

	r.logger.Info("repository: episode deleted", slog.String("novel_id", novelID), slog.String("episode_id", episodeID))
	r.emit(EventEpisodeDeleted, novelID, episodeID)
	return nil
}

// ListEpisodeSummaries syncs the novel and lists its episodes by order.
func (r *EpisodeRepository) ListEpisodeSummaries(_ context.Context, novelID string) ([]models.EpisodeSummary, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	if err := r.syncNovel(p, novelID); err != nil {
		return nil, err
	}
	return p.ListEpisodeSummaries()
}
