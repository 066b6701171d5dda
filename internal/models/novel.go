// Package models holds the document types persisted by the store and the
// projections and payloads built from them.
package models

import "time"

// ShareType is the visibility of a novel. Serialized as an integer.
type ShareType uint8

const (
	SharePrivate ShareType = iota
	ShareUnlisted
	SharePublic
	ShareLocal
)

// Novel is the project metadata document stored at the project root.
type Novel struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Thumbnail    *string   `json:"thumbnail,omitempty"`
	Share        ShareType `json:"share"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	EpisodeCount *int      `json:"episodeCount,omitempty"`
	// LocalPath is informational. The project index and the folder on
	// disk decide where a project lives.
	LocalPath string `json:"localPath"`
}

// NovelDetails is a novel together with the summaries of its content.
type NovelDetails struct {
	Novel
	Episodes  []EpisodeSummary  `json:"episodes"`
	WikiPages []WikiPageSummary `json:"wikiPages"`
}

// NovelPatch lists the metadata fields a caller may change. Nil means
// leave unchanged.
type NovelPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
}

// ProjectIndexEntry is one row of the global project index.
type ProjectIndexEntry struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	EpisodeCount *int       `json:"episodeCount,omitempty"`
	Thumbnail    *string    `json:"thumbnail,omitempty"`
	LastOpened   *time.Time `json:"lastOpened,omitempty"`
	Path         *string    `json:"path,omitempty"`
}

// ItemType tells which kind of document an item index row points at.
type ItemType string

const (
	ItemEpisode  ItemType = "episode"
	ItemWikiPage ItemType = "wiki_page"
)

// ItemIndexEntry is one row of the global item index.
type ItemIndexEntry struct {
	NovelID  string   `json:"novelId"`
	ItemType ItemType `json:"itemType"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
