package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
)

// validate runs v's rules and reports failures as validation errors.
func validate(v validation.Validatable) error {
	if err := v.Validate(); err != nil {
		return apperr.Wrap(apperr.ErrValidation, err, "invalid request")
	}
	return nil
}

// CreateNovelRequest is the request body for creating a project.
type CreateNovelRequest struct {
	Title string `json:"title" example:"The Long Road" validate:"required"`
	// ParentDir defaults to the configured novels directory.
	ParentDir string `json:"parentDir,omitempty" example:"/home/me/novels"`
}

// Validate implements validation.Validatable.
func (r CreateNovelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// PathRequest carries a filesystem path, for registering a project or
// opening a document file.
type PathRequest struct {
	Path string `json:"path" example:"/home/me/novels/the-long-road/the-long-road.muvl" validate:"required"`
}

// Validate implements validation.Validatable.
func (r PathRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// BlocksRequest replaces the whole block list of an episode.
type BlocksRequest struct {
	Blocks []models.Block `json:"blocks"`
}

// Validate implements validation.Validatable.
func (r BlocksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Blocks, validation.NotNil),
	)
}

// DeltaRequest carries editor deltas for one episode.
type DeltaRequest struct {
	Deltas []models.DeltaBlock `json:"deltas"`
}

// Validate implements validation.Validatable.
func (r DeltaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deltas, validation.NotNil, validation.Each(validation.By(func(v any) error {
			d, _ := v.(models.DeltaBlock)
			return validation.ValidateStruct(&d,
				validation.Field(&d.ID, validation.Required),
				validation.Field(&d.Action, validation.Required,
					validation.In(models.DeltaCreate, models.DeltaUpdate, models.DeltaDelete)),
			)
		}))),
	)
}

// BatchEpisodesRequest updates several episodes of one novel.
type BatchEpisodesRequest struct {
	Episodes []models.EpisodeBatchItem `json:"episodes"`
}

// Validate implements validation.Validatable.
func (r BatchEpisodesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Episodes, validation.Required, validation.Each(validation.By(func(v any) error {
			it, _ := v.(models.EpisodeBatchItem)
			return validation.ValidateStruct(&it, validation.Field(&it.ID, validation.Required))
		}))),
	)
}

// SnapshotRequest creates a snapshot.
type SnapshotRequest struct {
	Reason models.SnapshotReason `json:"reason,omitempty" example:"manual"`
}

// Validate implements validation.Validatable.
func (r SnapshotRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason,
			validation.In(models.SnapshotManual, models.SnapshotAutosave, models.SnapshotMerge)),
	)
}

// NovelListResponse wraps the project listing.
type NovelListResponse struct {
	Novels []models.ProjectIndexEntry `json:"novels" validate:"required"`
}

// EpisodeListResponse wraps episode summaries.
type EpisodeListResponse struct {
	Episodes []models.EpisodeSummary `json:"episodes" validate:"required"`
}

// WikiPageListResponse wraps wiki page summaries.
type WikiPageListResponse struct {
	WikiPages []models.WikiPageSummary `json:"wikiPages" validate:"required"`
}

// SnapshotListResponse wraps the snapshots of an episode.
type SnapshotListResponse struct {
	Snapshots []models.EpisodeSnapshot `json:"snapshots" validate:"required"`
}

// ImageUploadResponse is returned after an image was stored.
type ImageUploadResponse struct {
	Path string `json:"path" example:"/home/me/novels/x/resources/images/0b6c.png" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
}

// BackupResponse is returned after an episode was copied to the mirror.
type BackupResponse struct {
	Path string `json:"path" validate:"required"`
}
