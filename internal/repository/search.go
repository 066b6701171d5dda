package repository

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/search"
	"github.com/starford/muvel/internal/storage"
)

// SearchRepository runs content searches over one novel.
type SearchRepository struct {
	*core
}

// SearchNovel scans every episode and wiki page of a novel for query and
// returns one page of hits. All hits are collected before paginating so
// EstimatedTotalHits is exact. A nil limit means the default page size.
func (r *SearchRepository) SearchNovel(_ context.Context, novelID, query string, limit *int, offset int) (*models.SearchResponse, error) {
	start := time.Now()
	pageSize := search.ClampLimit(limit)
	offset = max(0, offset)

	resp := &models.SearchResponse{
		Hits:   []models.SearchHit{},
		Query:  query,
		Limit:  pageSize,
		Offset: offset,
	}
	if strings.TrimSpace(query) == "" {
		return resp, nil
	}

	p, err := r.resolveNovel(novelID)
	if err != nil {
		return nil, err
	}

	var hits []models.SearchHit
	epHits, err := r.searchEpisodes(p, novelID, query)
	if err != nil {
		return nil, err
	}
	hits = append(hits, epHits...)
	wikiHits, err := r.searchWiki(p, novelID, query)
	if err != nil {
		return nil, err
	}
	hits = append(hits, wikiHits...)

	resp.EstimatedTotalHits = len(hits)
	resp.Hits = search.Paginate(hits, pageSize, offset)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()

	r.logger.Debug("repository: search",
		slog.String("novel_id", novelID), slog.Int("hits", len(hits)), slog.Int64("ms", resp.ProcessingTimeMs))
	return resp, nil
}

func (r *SearchRepository) searchEpisodes(p *storage.Project, novelID, query string) ([]models.SearchHit, error) {
	summaries, err := p.ListEpisodeSummaries()
	if err != nil {
		return nil, err
	}

	var hits []models.SearchHit
	for _, s := range summaries {
		ep, err := p.ReadEpisode(s.ID)
		if err != nil {
			r.logger.Warn("repository: search skipped episode",
				slog.String("episode_id", s.ID), slog.String("error", err.Error()))
			continue
		}

		matched := search.Contains(ep.Title, query) || search.Contains(ep.Description, query)
		if ep.AuthorComment != nil && search.Contains(*ep.AuthorComment, query) {
			matched = true
		}
		if matched {
			hits = append(hits, models.SearchHit{
				ID:            ep.ID,
				NovelID:       novelID,
				ItemType:      models.SearchEpisode,
				Order:         models.Ptr(ep.Order),
				Title:         ep.Title,
				Description:   models.Ptr(ep.Description),
				ContentLength: models.Ptr(ep.ContentLength),
				AIRating:      ep.AIRating,
				EpisodeType:   models.Ptr(ep.EpisodeType),
			})
		}

		for _, b := range ep.Blocks {
			if strings.TrimSpace(b.Text) == "" || !search.Contains(b.Text, query) {
				continue
			}
			hits = append(hits, models.SearchHit{
				ID:            b.ID,
				NovelID:       novelID,
				ItemType:      models.SearchEpisodeBlock,
				Order:         models.Ptr(float64(b.Order)),
				Content:       search.Snippet(b.Text, query, search.SnippetMaxLen, search.SnippetContext),
				BlockType:     b.BlockType,
				EpisodeID:     ep.ID,
				EpisodeName:   ep.Title,
				EpisodeNumber: models.Ptr(ep.Order),
			})
		}
	}
	return hits, nil
}

func (r *SearchRepository) searchWiki(p *storage.Project, novelID, query string) ([]models.SearchHit, error) {
	summaries, err := p.ListWikiPageSummaries()
	if err != nil {
		return nil, err
	}

	contains := func(s string) bool { return search.Contains(s, query) }

	var hits []models.SearchHit
	for _, s := range summaries {
		page, err := p.ReadWikiPage(s.ID)
		if err != nil {
			r.logger.Warn("repository: search skipped wiki page",
				slog.String("wiki_page_id", s.ID), slog.String("error", err.Error()))
			continue
		}

		matched := contains(page.Title) ||
			(page.Summary != nil && contains(*page.Summary)) ||
			slices.ContainsFunc(page.Tags, contains)
		if !matched {
			for _, v := range page.Attributes {
				if contains(v) {
					matched = true
					break
				}
			}
		}
		if matched {
			hits = append(hits, models.SearchHit{
				ID:        page.ID,
				NovelID:   novelID,
				ItemType:  models.SearchWikiPage,
				Title:     page.Title,
				Summary:   page.Summary,
				Category:  page.Category,
				Tags:      page.Tags,
				Thumbnail: page.Thumbnail,
			})
		}

		for _, b := range page.Blocks {
			if strings.TrimSpace(b.Text) == "" || !contains(b.Text) {
				continue
			}
			hits = append(hits, models.SearchHit{
				ID:           b.ID,
				NovelID:      novelID,
				ItemType:     models.SearchWikiBlock,
				Order:        models.Ptr(float64(b.Order)),
				Content:      search.Snippet(b.Text, query, search.SnippetMaxLen, search.SnippetContext),
				BlockType:    b.BlockType,
				WikiPageID:   page.ID,
				WikiPageName: page.Title,
			})
		}
	}
	return hits, nil
}
