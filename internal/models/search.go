package models

// SearchItemType discriminates SearchHit variants.
type SearchItemType string

const (
	SearchEpisode      SearchItemType = "episode"
	SearchEpisodeBlock SearchItemType = "episode_block"
	SearchWikiPage     SearchItemType = "wiki_page"
	SearchWikiBlock    SearchItemType = "wiki_block"
)

// SearchHit is one search result. Which optional fields are set depends
// on ItemType.
type SearchHit struct {
	ID       string         `json:"id"`
	NovelID  string         `json:"novelId"`
	ItemType SearchItemType `json:"itemType"`
	// Order is the episode order for episode hits and the block order
	// for block hits.
	Order *float64 `json:"order,omitempty"`

	// episode and wiki_page
	Title string `json:"title,omitempty"`

	// episode
	Description   *string      `json:"description,omitempty"`
	ContentLength *int         `json:"contentLength,omitempty"`
	AIRating      *float64     `json:"aiRating,omitempty"`
	EpisodeType   *EpisodeType `json:"episodeType,omitempty"`

	// wiki_page
	Summary   *string           `json:"summary,omitempty"`
	Category  *WikiPageCategory `json:"category,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Thumbnail *string           `json:"thumbnail,omitempty"`

	// episode_block and wiki_block
	Content   string `json:"content,omitempty"`
	BlockType string `json:"blockType,omitempty"`

	// episode_block
	EpisodeID     string   `json:"episodeId,omitempty"`
	EpisodeName   string   `json:"episodeName,omitempty"`
	EpisodeNumber *float64 `json:"episodeNumber,omitempty"`

	// wiki_block
	WikiPageID   string `json:"wikiPageId,omitempty"`
	WikiPageName string `json:"wikiPageName,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Hits               []SearchHit `json:"hits"`
	Query              string      `json:"query"`
	ProcessingTimeMs   int64       `json:"processingTimeMs"`
	Limit              int         `json:"limit"`
	Offset             int         `json:"offset"`
	EstimatedTotalHits int         `json:"estimatedTotalHits"`
}

// OpenedKind is the kind of document a file-open resolved to.
type OpenedKind string

const (
	OpenedNovel    OpenedKind = "novel"
	OpenedEpisode  OpenedKind = "episode"
	OpenedWikiPage OpenedKind = "wiki_page"
)

// OpenedItem tells the UI where to navigate after a file was opened.
type OpenedItem struct {
	Kind       OpenedKind `json:"kind"`
	NovelID    string     `json:"novelId"`
	EpisodeID  string     `json:"episodeId,omitempty"`
	WikiPageID string     `json:"wikiPageId,omitempty"`
}
