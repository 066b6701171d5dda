package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/repository"
)

// Handler holds API route handlers.
type Handler struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(repos *repository.Repositories, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repos: repos, logger: logger}
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryOptInt is nil when key is absent or not a number.
func queryOptInt(r *http.Request, key string) *int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &n
}

// ListNovels handles GET /api/novels.
//
//	@Summary		List indexed novels, most recently opened first
//	@Tags			novels
//	@Produce		json
//	@Success		200	{object}	NovelListResponse
//	@Security		BearerAuth
//	@Router			/novels [get]
func (h *Handler) ListNovels(w http.ResponseWriter, r *http.Request) {
	list, err := h.repos.Novels.ListNovels(r.Context())
	if err != nil {
		h.writeError(w, "list novels", err)
		return
	}
	writeJSON(w, http.StatusOK, NovelListResponse{Novels: list})
}

// CreateNovel handles POST /api/novels.
//
//	@Summary		Create a project folder for a new novel
//	@Tags			novels
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNovelRequest	true	"Novel to create"
//	@Success		201		{object}	models.Novel
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels [post]
func (h *Handler) CreateNovel(w http.ResponseWriter, r *http.Request) {
	var req CreateNovelRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "create novel", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "create novel", err)
		return
	}
	novel, err := h.repos.Novels.CreateNovel(r.Context(), req.Title, req.ParentDir)
	if err != nil {
		h.writeError(w, "create novel", err)
		return
	}
	writeJSON(w, http.StatusCreated, novel)
}

// RegisterNovel handles POST /api/novels/register.
//
//	@Summary		Index an existing project folder or .muvl file
//	@Tags			novels
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PathRequest	true	"Project path"
//	@Success		200		{object}	models.ProjectIndexEntry
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/register [post]
func (h *Handler) RegisterNovel(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "register novel", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "register novel", err)
		return
	}
	entry, err := h.repos.Novels.RegisterFromPath(r.Context(), req.Path)
	if err != nil {
		h.writeError(w, "register novel", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GetNovel handles GET /api/novels/{id}.
//
//	@Summary		Get a novel with its episode and wiki page summaries
//	@Tags			novels
//	@Produce		json
//	@Param			id	path		string	true	"Novel ID"
//	@Success		200	{object}	models.NovelDetails
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id} [get]
func (h *Handler) GetNovel(w http.ResponseWriter, r *http.Request) {
	details, err := h.repos.Novels.GetNovelDetails(r.Context(), idParam(r))
	if err != nil {
		h.writeError(w, "get novel", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// UpdateNovel handles PATCH /api/novels/{id}.
//
//	@Summary		Update novel metadata
//	@Tags			novels
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Novel ID"
//	@Param			body	body		models.NovelPatch	true	"Fields to change"
//	@Success		200		{object}	models.Novel
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id} [patch]
func (h *Handler) UpdateNovel(w http.ResponseWriter, r *http.Request) {
	var patch models.NovelPatch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		h.writeError(w, "update novel", err)
		return
	}
	novel, err := h.repos.Novels.UpdateNovelMetadata(r.Context(), idParam(r), patch)
	if err != nil {
		h.writeError(w, "update novel", err)
		return
	}
	writeJSON(w, http.StatusOK, novel)
}

// DeleteNovel handles DELETE /api/novels/{id}.
//
//	@Summary		Delete a project folder and forget it
//	@Tags			novels
//	@Param			id	path	string	true	"Novel ID"
//	@Success		204	"Novel deleted"
//	@Security		BearerAuth
//	@Router			/novels/{id} [delete]
func (h *Handler) DeleteNovel(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.Novels.DeleteNovel(r.Context(), idParam(r)); err != nil {
		h.writeError(w, "delete novel", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchNovel handles GET /api/novels/{id}/search.
//
//	@Summary		Search the episodes and wiki pages of a novel
//	@Tags			search
//	@Produce		json
//	@Param			id		path		string	true	"Novel ID"
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Page size (default 20, max 100; 0 returns no hits)"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	models.SearchResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/novels/{id}/search [get]
func (h *Handler) SearchNovel(w http.ResponseWriter, r *http.Request) {
	resp, err := h.repos.Search.SearchNovel(r.Context(), idParam(r),
		r.URL.Query().Get("q"), queryOptInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// OpenFile handles POST /api/open.
//
//	@Summary		Resolve and index a document file opened from outside the app
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PathRequest	true	"File path"
//	@Success		200		{object}	models.OpenedItem
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/open [post]
func (h *Handler) OpenFile(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, "open file", err)
		return
	}
	if err := validate(req); err != nil {
		h.writeError(w, "open file", err)
		return
	}
	item, err := h.repos.Files.Open(r.Context(), req.Path)
	if err != nil {
		h.writeError(w, "open file", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
