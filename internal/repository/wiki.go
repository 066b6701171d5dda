package repository

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/blocks"
	"github.com/starford/muvel/internal/models"
)

// WikiPageRepository manages the wiki pages of all projects.
type WikiPageRepository struct {
	*core
}

func checkCategory(c *models.WikiPageCategory) error {
	if c == nil || slices.Contains(models.WikiCategories, *c) {
		return nil
	}
	return apperr.Validation("unknown wiki category %q", *c)
}

// Create adds a wiki page to a novel.
func (r *WikiPageRepository) Create(_ context.Context, novelID string, in models.WikiPageInput) (*models.WikiPage, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("wiki page title is required")
	}
	if err := checkCategory(in.Category); err != nil {
		return nil, err
	}
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	if err := p.CreateWikiDirectory(); err != nil {
		return nil, err
	}

	now := r.now()
	page := &models.WikiPage{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(*in.Title),
		Summary:    in.Summary,
		Category:   in.Category,
		Tags:       append([]string{}, in.Tags...),
		Thumbnail:  in.Thumbnail,
		Attributes: map[string]string{},
		Blocks:     blocks.Normalize(in.Blocks),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	maps.Copy(page.Attributes, in.Attributes)

	if err := p.WriteWikiPage(page.ID, page); err != nil {
		return nil, err
	}
	if err := r.items.Upsert(page.ID, novelID, models.ItemWikiPage); err != nil {
		return nil, err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return nil, err
	}

	r.logger.Info("repository: wiki page created", slog.String("novel_id", novelID), slog.String("wiki_page_id", page.ID))
	r.emit(EventWikiPageCreated, novelID, page.ID)
	return page, nil
}

// Get reads a wiki page.
func (r *WikiPageRepository) Get(_ context.Context, pageID string) (*models.WikiPage, error) {
	_, p, err := r.resolveItem(pageID, models.ItemWikiPage)
	if err != nil {
		return nil, err
	}
	page, err := p.ReadWikiPage(pageID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			r.forgetItem(pageID)
		}
		return nil, err
	}
	return page, nil
}

// Update applies the non-nil fields of in to a wiki page.
func (r *WikiPageRepository) Update(_ context.Context, pageID string, in models.WikiPageInput) (*models.WikiPage, error) {
	if err := checkCategory(in.Category); err != nil {
		return nil, err
	}
	novelID, p, err := r.resolveItem(pageID, models.ItemWikiPage)
	if err != nil {
		return nil, err
	}
	page, err := p.ReadWikiPage(pageID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			r.forgetItem(pageID)
		}
		return nil, err
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.Validation("wiki page title must not be empty")
		}
		page.Title = t
	}
	if in.Summary != nil {
		page.Summary = in.Summary
	}
	if in.Category != nil {
		page.Category = in.Category
	}
	if in.Tags != nil {
		page.Tags = append([]string{}, in.Tags...)
	}
	if in.Thumbnail != nil {
		page.Thumbnail = in.Thumbnail
	}
	if in.Attributes != nil {
		page.Attributes = maps.Clone(in.Attributes)
	}
	if in.Blocks != nil {
		page.Blocks = blocks.Normalize(in.Blocks)
	}
	page.UpdatedAt = r.now()

	if err := p.WriteWikiPage(pageID, page); err != nil {
		return nil, err
	}
	if err := r.items.Upsert(pageID, novelID, models.ItemWikiPage); err != nil {
		return nil, err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return nil, err
	}

	r.emit(EventWikiPageUpdated, novelID, pageID)
	return page, nil
}

// Delete removes a wiki page. A page that is no longer mapped is
// already deleted.
func (r *WikiPageRepository) Delete(_ context.Context, pageID string) error {
	novelID, p, err := r.resolveItem(pageID, models.ItemWikiPage)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := p.DeleteWikiPage(pageID); err != nil {
		return err
	}
	if err := r.items.Remove(pageID); err != nil {
		return err
	}
	if _, err := r.refreshNovel(p, novelID); err != nil {
		return err
	}

	r.logger.Info("repository: wiki page deleted", slog.String("novel_id", novelID), slog.String("wiki_page_id", pageID))
	r.emit(EventWikiPageDeleted, novelID, pageID)
	return nil
}

// ListSummaries syncs the novel and lists its wiki pages, most recently
// updated first.
func (r *WikiPageRepository) ListSummaries(_ context.Context, novelID string) ([]models.WikiPageSummary, error) {
	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}
	if err := r.syncNovel(p, novelID); err != nil {
		return nil, err
	}
	return p.ListWikiPageSummaries()
}
