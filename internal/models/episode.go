package models

import "time"

// EpisodeType classifies an episode. Serialized as an integer.
type EpisodeType uint8

const (
	EpisodeTypeEpisode EpisodeType = iota
	EpisodeTypeGroup
	EpisodeTypePrologue
	EpisodeTypeEpilogue
	EpisodeTypeSpecial
	EpisodeTypeMemo
)

// Valid reports whether t is a known episode type.
func (t EpisodeType) Valid() bool { return t <= EpisodeTypeMemo }

// Episode is the full document stored at episodes/<id>.mvle.
//
// Order is fractional so an episode can be placed between two others
// without renumbering its siblings.
type Episode struct {
	ID            string      `json:"id"`
	NovelID       string      `json:"novelId"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	AuthorComment *string     `json:"authorComment,omitempty"`
	ContentLength int         `json:"contentLength"`
	AIRating      *float64    `json:"aiRating,omitempty"`
	EpisodeType   EpisodeType `json:"episodeType"`
	Order         float64     `json:"order"`
	FlowDoc       any         `json:"flowDoc,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Blocks        []Block     `json:"blocks"`
}

// EpisodeSummary is the listing projection of an episode. It is decoded
// from the same bytes as Episode and skips the block bodies.
type EpisodeSummary struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Order         float64     `json:"order"`
	EpisodeType   EpisodeType `json:"episodeType"`
	ContentLength *int        `json:"contentLength,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Summary projects e the same way a partial decode of its file would.
func (e *Episode) Summary() EpisodeSummary {
	n := e.ContentLength
	return EpisodeSummary{
		ID:            e.ID,
		Title:         e.Title,
		Order:         e.Order,
		EpisodeType:   e.EpisodeType,
		ContentLength: &n,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ParentNovel is the slice of novel metadata returned with an episode.
type ParentNovel struct {
	ID    string    `json:"id"`
	Share ShareType `json:"share"`
	Title string    `json:"title"`
}

// EpisodeWithNovel is an episode plus its parent novel context.
type EpisodeWithNovel struct {
	Episode
	Novel ParentNovel `json:"novel"`
}

// CreateEpisodeOptions are the optional inputs of episode creation.
type CreateEpisodeOptions struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	EpisodeType *EpisodeType `json:"episodeType,omitempty"`
	Order       *float64     `json:"order,omitempty"`
}

// EpisodePatch lists the episode metadata fields a caller may change.
type EpisodePatch struct {
	Title         *string      `json:"title,omitempty"`
	Description   *string      `json:"description,omitempty"`
	AuthorComment *string      `json:"authorComment,omitempty"`
	EpisodeType   *EpisodeType `json:"episodeType,omitempty"`
	Order         *float64     `json:"order,omitempty"`
	AIRating      *float64     `json:"aiRating,omitempty"`
}

// EpisodeBatchItem is one entry of a batch metadata update.
type EpisodeBatchItem struct {
	ID          string       `json:"id"`
	Title       *string      `json:"title,omitempty"`
	EpisodeType *EpisodeType `json:"episodeType,omitempty"`
	Order       *float64     `json:"order,omitempty"`
}
