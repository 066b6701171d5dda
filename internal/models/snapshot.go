package models

import "time"

// SnapshotReason records what triggered a snapshot.
type SnapshotReason string

const (
	SnapshotMerge    SnapshotReason = "merge"
	SnapshotManual   SnapshotReason = "manual"
	SnapshotAutosave SnapshotReason = "autosave"
)

// EpisodeSnapshot is an immutable copy of an episode's blocks.
type EpisodeSnapshot struct {
	ID        string         `json:"id"`
	EpisodeID string         `json:"episodeId"`
	Reason    SnapshotReason `json:"reason"`
	Blocks    []Block        `json:"blocks"`
	CreatedAt time.Time      `json:"createdAt"`
}
