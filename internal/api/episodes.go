package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/checksum"
	"github.com/starford/muvel/internal/models"
)

// setETag sets the ETag header for ep.
func setETag(w http.ResponseWriter, ep *models.Episode) {
	tag, err := checksum.SumJSON(ep)
	if err != nil {
		return
	}
	w.Header().Set("ETag", `"`+tag+`"`)
}

// checkIfMatch compares the request's If-Match header with the current
// episode. Without the header any version is accepted.
func (h *Handler) checkIfMatch(ctx context.Context, r *http.Request, episodeID string) error {
	header := r.Header.Get("If-Match")
	if header == "" {
		return nil
	}
	cur, err := h.repos.Episodes.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}
	tag, err := checksum.SumJSON(&cur.Episode)
	if err != nil {
		return fmt.Errorf("checksum episode %s: %w", episodeID, err)
	}
	if !checksum.Match(header, tag) {
		return apperr.New(apperr.ErrConflict, "episode %s was modified", episodeID)
	}
	return nil
}

// ListEpisodes handles GET /api/novels/{id}/episodes.
//
//	@Summary		List episode summaries of a novel
//	@Tags			episodes
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	EpisodeListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/episodes [get]
func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	list, err := h.repos.Episodes.ListEpisodeSummaries(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "list episodes", err)
		return
	}
	writeJSON(w, http.StatusOK, EpisodeListResponse{Episodes: list})
}

// CreateEpisode handles POST /api/novels/{id}/episodes.
//
//	@Summary		Create an episode
//	@Tags			episodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Novel ID"
//	@Param			body	body		models.CreateEpisodeOptions	false	"Optional fields"
//	@Success		201		{object}	models.Episode
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/episodes [post]
func (h *Handler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	var opts models.CreateEpisodeOptions
	if err := decodeJSON(w, r, &opts, true); err != nil {
		h.writeError(w, "create episode", err)
		return
	}
	ep, err := h.repos.Episodes.CreateEpisode(r.Context(), idParam(r), opts)
	if err != nil {
		h.writeError(w, "create episode", err)
		return
	}
	setETag(w, ep)
	writeJSON(w, http.StatusCreated, ep)
}

// BatchUpdateEpisodes handles PATCH /api/novels/{id}/episodes.
//
//	@Summary		Update title, type or order of several episodes
//	@Tags			episodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Novel ID"
//	@Param			body	body		BatchEpisodesRequest	true	"Episode changes"
//	@Success		200		{object}	EpisodeListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/episodes [patch]
func (h *Handler) BatchUpdateEpisodes(w http.ResponseWriter, r *http.Request) {
	var req BatchEpisodesRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "batch update episodes", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "batch update episodes", err)
		return
	}
	list, err := h.repos.Episodes.BatchUpdateEpisodes(r.Context(), idParam(r), req.Episodes)
	if err != nil {
		h.writeError(w, "batch update episodes", err)
		return
	}
	writeJSON(w, http.StatusOK, EpisodeListResponse{Episodes: list})
}

// GetEpisode handles GET /api/episodes/{id}.
//
//	@Summary		Get an episode with its parent novel
//	@Tags			episodes
//	@Produce		json
//	@Param			id	path		string	true	"Episode ID"
//	@Success		200	{object}	models.EpisodeWithNovel
//	@Header			200	{string}	ETag	"Checksum of the episode document"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id} [get]
func (h *Handler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	ep, err := h.repos.Episodes.GetEpisode(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "get episode", err)
		return
	}
	setETag(w, &ep.Episode)
	writeJSON(w, http.StatusOK, ep)
}

// UpdateEpisode handles PATCH /api/episodes/{id}.
//
//	@Summary		Update episode metadata
//	@Tags			episodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Episode ID"
//	@Param			body	body		models.EpisodePatch	true	"Fields to change"
//	@Success		200		{object}	models.Episode
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id} [patch]
func (h *Handler) UpdateEpisode(w http.ResponseWriter, r *http.Request) {
	var patch models.EpisodePatch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		h.writeError(w, "update episode", err)
		return
	}
	ep, err := h.repos.Episodes.UpdateEpisodeMetadata(r.Context(), idParam(r), patch)
	if err != nil {
		h.writeError(w, "update episode", err)
		return
	}
	setETag(w, ep)
	writeJSON(w, http.StatusOK, ep)
}

// DeleteEpisode handles DELETE /api/episodes/{id}.
//
//	@Summary		Delete an episode and its snapshots
//	@Tags			episodes
//	@Param			id	path	string	true	"Episode ID"
//	@Success		204	"Episode deleted"
//	@Security		BearerAuth
//	@Router			/episodes/{id} [delete]
func (h *Handler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.Episodes.DeleteEpisode(r.Context(), idParam(r)); err != nil {
		h.writeError(w, "delete episode", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceBlocks handles PUT /api/episodes/{id}/blocks.
//
//	@Summary		Replace the block list of an episode
//	@Tags			episodes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Episode ID"
//	@Param			If-Match	header		string			false	"ETag from a previous read"
//	@Param			body		body		BlocksRequest	true	"New blocks"
//	@Success		200			{object}	models.Episode
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		412			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/blocks [put]
func (h *Handler) ReplaceBlocks(w http.ResponseWriter, r *http.Request) {
	var req BlocksRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "replace blocks", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "replace blocks", err)
		return
	}
	id := idParam(r)
	if err := h.checkIfMatch(r.Context(), r, id); err != nil {
		h.writeError(w, "replace blocks", err)
		return
	}
	ep, err := h.repos.Episodes.ReplaceBlocks(r.Context(), id, req.Blocks)
	if err != nil {
		h.writeError(w, "replace blocks", err)
		return
	}
	setETag(w, ep)
	writeJSON(w, http.StatusOK, ep)
}

// SyncDelta handles POST /api/episodes/{id}/delta.
//
//	@Summary		Apply editor block deltas to an episode
//	@Tags			episodes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Episode ID"
//	@Param			If-Match	header		string			false	"ETag from a previous read"
//	@Param			body		body		DeltaRequest	true	"Block deltas"
//	@Success		200			{object}	models.Episode
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		412			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/delta [post]
func (h *Handler) SyncDelta(w http.ResponseWriter, r *http.Request) {
	var req DeltaRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "sync delta", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "sync delta", err)
		return
	}
	id := idParam(r)
	if err := h.checkIfMatch(r.Context(), r, id); err != nil {
		h.writeError(w, "sync delta", err)
		return
	}
	ep, err := h.repos.Episodes.SyncDeltaBlocks(r.Context(), id, req.Deltas)
	if err != nil {
		h.writeError(w, "sync delta", err)
		return
	}
	setETag(w, ep)
	writeJSON(w, http.StatusOK, ep)
}

// ListSnapshots handles GET /api/episodes/{id}/snapshots.
//
//	@Summary		List snapshots of an episode, oldest first
//	@Tags			snapshots
//	@Produce		json
//	@Param			id	path		string	true	"Episode ID"
//	@Success		200	{object}	SnapshotListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/snapshots [get]
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.repos.Snapshots.ListSnapshots(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotListResponse{Snapshots: list})
}

// CreateSnapshot handles POST /api/episodes/{id}/snapshots.
//
//	@Summary		Snapshot the current blocks of an episode
//	@Tags			snapshots
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Episode ID"
//	@Param			body	body		SnapshotRequest	false	"Snapshot reason"
//	@Success		201		{object}	models.EpisodeSnapshot
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/snapshots [post]
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.writeError(w, "create snapshot", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "create snapshot", err)
		return
	}
	snap, err := h.repos.Snapshots.CreateSnapshot(r.Context(), idParam(r), req.Reason)
	if err != nil {
		h.writeError(w, "create snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// RestoreSnapshot handles POST /api/episodes/{id}/snapshots/{snapshotId}/restore.
//
//	@Summary		Restore an episode's blocks from a snapshot
//	@Tags			snapshots
//	@Produce		json
//	@Param			id			path		string	true	"Episode ID"
//	@Param			snapshotId	path		string	true	"Snapshot ID"
//	@Success		200			{object}	models.Episode
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/snapshots/{snapshotId}/restore [post]
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	ep, err := h.repos.Snapshots.RestoreSnapshot(r.Context(), idParam(r), chi.URLParam(r, "snapshotId"))
	if err != nil {
		h.writeError(w, "restore snapshot", err)
		return
	}
	setETag(w, ep)
	writeJSON(w, http.StatusOK, ep)
}

// BackupEpisode handles POST /api/episodes/{id}/backup.
//
//	@Summary		Copy an episode into the local backup mirror
//	@Tags			episodes
//	@Produce		json
//	@Param			id	path		string	true	"Episode ID"
//	@Success		200	{object}	BackupResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/episodes/{id}/backup [post]
func (h *Handler) BackupEpisode(w http.ResponseWriter, r *http.Request) {
	root, err := h.repos.Cloud.BackupEpisode(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "backup episode", err)
		return
	}
	writeJSON(w, http.StatusOK, BackupResponse{Path: root})
}
