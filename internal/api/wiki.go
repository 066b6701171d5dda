package api

import (
	"net/http"

	"github.com/starford/muvel/internal/models"
)

// ListWikiPages handles GET /api/novels/{id}/wiki.
//
//	@Summary		List wiki page summaries of a novel
//	@Tags			wiki
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	WikiPageListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/wiki [get]
func (h *Handler) ListWikiPages(w http.ResponseWriter, r *http.Request) {
	list, err := h.repos.WikiPages.ListSummaries(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "list wiki pages", err)
		return
	}
	writeJSON(w, http.StatusOK, WikiPageListResponse{WikiPages: list})
}

// CreateWikiPage handles POST /api/novels/{id}/wiki.
//
//	@Summary		Create a wiki page
//	@Tags			wiki
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Novel ID"
//	@Param			body	body		models.WikiPageInput	true	"Page fields; title is required"
//	@Success		201		{object}	models.WikiPage
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/wiki [post]
func (h *Handler) CreateWikiPage(w http.ResponseWriter, r *http.Request) {
	var in models.WikiPageInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.writeError(w, "create wiki page", err)
		return
	}
	page, err := h.repos.WikiPages.Create(r.Context(), idParam(r), in)
	if err != nil {
		h.writeError(w, "create wiki page", err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// GetWikiPage handles GET /api/wiki/{id}.
//
//	@Summary		Get a wiki page
//	@Tags			wiki
//	@Produce		json
//	@Param			id	path		string	true	"Wiki page ID"
//	@Success		200	{object}	models.WikiPage
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/wiki/{id} [get]
func (h *Handler) GetWikiPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.repos.WikiPages.Get(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "get wiki page", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateWikiPage handles PATCH /api/wiki/{id}.
//
//	@Summary		Update a wiki page
//	@Tags			wiki
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Wiki page ID"
//	@Param			body	body		models.WikiPageInput	true	"Fields to change"
//	@Success		200		{object}	models.WikiPage
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/wiki/{id} [patch]
func (h *Handler) UpdateWikiPage(w http.ResponseWriter, r *http.Request) {
	var in models.WikiPageInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		h.writeError(w, "update wiki page", err)
		return
	}
	page, err := h.repos.WikiPages.Update(r.Context(), idParam(r), in)
	if err != nil {
		h.writeError(w, "update wiki page", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DeleteWikiPage handles DELETE /api/wiki/{id}.
//
//	@Summary		Delete a wiki page
//	@Tags			wiki
//	@Param			id	path	string	true	"Wiki page ID"
//	@Success		204	"Wiki page deleted"
//	@Security		BearerAuth
//	@Router			/wiki/{id} [delete]
func (h *Handler) DeleteWikiPage(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.WikiPages.Delete(r.Context(), idParam(r)); err != nil {
		h.writeError(w, "delete wiki page", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
