package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muvel/internal/repository"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(repos *repository.Repositories, authEnabled bool, token string, sseHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(repos, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/novels", func(r chi.Router) {
		r.Get("/", h.ListNovels)
		r.Post("/", h.CreateNovel)
		r.Post("/register", h.RegisterNovel)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNovel)
			r.Patch("/", h.UpdateNovel)
			r.Delete("/", h.DeleteNovel)
			r.Post("/images", h.UploadImage)
			r.Get("/search", h.SearchNovel)

			r.Get("/episodes", h.ListEpisodes)
			r.Post("/episodes", h.CreateEpisode)
			r.Patch("/episodes", h.BatchUpdateEpisodes)

			r.Get("/wiki", h.ListWikiPages)
			r.Post("/wiki", h.CreateWikiPage)
		})
	})

	r.Route("/episodes/{id}", func(r chi.Router) {
		r.Get("/", h.GetEpisode)
		r.Patch("/", h.UpdateEpisode)
		r.Delete("/", h.DeleteEpisode)
		r.Put("/blocks", h.ReplaceBlocks)
		r.Post("/delta", h.SyncDelta)
		r.Get("/snapshots", h.ListSnapshots)
		r.Post("/snapshots", h.CreateSnapshot)
		r.Post("/snapshots/{snapshotId}/restore", h.RestoreSnapshot)
		r.Post("/backup", h.BackupEpisode)
	})

	r.Route("/wiki/{id}", func(r chi.Router) {
		r.Get("/", h.GetWikiPage)
		r.Patch("/", h.UpdateWikiPage)
		r.Delete("/", h.DeleteWikiPage)
	})

	r.Post("/open", h.OpenFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
