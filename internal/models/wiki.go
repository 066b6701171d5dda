package models

import "time"

// WikiPageCategory groups wiki pages in the sidebar.
type WikiPageCategory string

const (
	WikiCharacter    WikiPageCategory = "character"
	WikiLocation     WikiPageCategory = "location"
	WikiItem         WikiPageCategory = "item"
	WikiEvent        WikiPageCategory = "event"
	WikiOrganization WikiPageCategory = "organization"
	WikiConcept      WikiPageCategory = "concept"
	WikiOther        WikiPageCategory = "other"
)

// WikiCategories lists every known category.
var WikiCategories = []WikiPageCategory{
	WikiCharacter, WikiLocation, WikiItem, WikiEvent, WikiOrganization, WikiConcept, WikiOther,
}

// WikiPage is the full document stored at wiki/<id>.mvlw.
type WikiPage struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Summary    *string           `json:"summary,omitempty"`
	Category   *WikiPageCategory `json:"category,omitempty"`
	Tags       []string          `json:"tags"`
	Thumbnail  *string           `json:"thumbnail,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Blocks     []Block           `json:"blocks"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// WikiPageSummary is the listing projection of a wiki page.
type WikiPageSummary struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Category  *WikiPageCategory `json:"category,omitempty"`
	Thumbnail *string           `json:"thumbnail,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// WikiPageInput is used both to create a page and to patch one. On
// update, nil fields are left unchanged; Blocks replaces the whole list
// when set.
type WikiPageInput struct {
	Title      *string           `json:"title,omitempty"`
	Summary    *string           `json:"summary,omitempty"`
	Category   *WikiPageCategory `json:"category,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Thumbnail  *string           `json:"thumbnail,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Blocks     []Block           `json:"blocks,omitempty"`
}
