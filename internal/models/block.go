package models

import (
	"encoding/json"
	"time"
)

// Block is one unit of rich text inside an episode or wiki page.
//
// Content and Attr are owned by the editor and kept as generic JSON
// values. Text is the plain text derived from Content.
type Block struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Content   []any      `json:"content"`
	BlockType string     `json:"blockType"`
	Attr      any        `json:"attr"`
	Order     int        `json:"order"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DeltaAction is the mutation a DeltaBlock describes.
type DeltaAction string

const (
	DeltaCreate DeltaAction = "create"
	DeltaUpdate DeltaAction = "update"
	DeltaDelete DeltaAction = "delete"
)

// DeltaBlock is a sparse patch to one block sent by the editor. It is
// never persisted.
//
// Attr stays raw so that an explicit JSON null ("null") can be told apart
// from an omitted field (nil).
type DeltaBlock struct {
	ID        string          `json:"id"`
	Action    DeltaAction     `json:"action"`
	Date      time.Time       `json:"date"`
	Content   []any           `json:"content,omitempty"`
	BlockType *string         `json:"blockType,omitempty"`
	Attr      json.RawMessage `json:"attr,omitempty"`
	Order     *float64        `json:"order,omitempty"`
}
