package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/index"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/repository"
	"github.com/starford/muvel/internal/testutil"
)

// testEnv sets up a temp data dir, indexes, repositories, and router for
// testing. An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*repository.Repositories, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*repository.Repositories, http.Handler) {
	t.Helper()
	dataDir := t.TempDir()
	repos := repository.New(
		index.OpenProjects(dataDir),
		index.OpenItems(dataDir, testutil.Logger()),
		repository.WithLogger(testutil.Logger()),
		repository.WithClock(testutil.NewClock().Now),
		repository.WithNovelsDir(filepath.Join(dataDir, "novels")),
		repository.WithCloudDir(filepath.Join(dataDir, "cloud")),
	)
	return repos, NewRouter(repos, authEnabled, token, sseHandler, testutil.Logger())
}

func do(t *testing.T, router http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createNovel(t *testing.T, router http.Handler, title string) models.Novel {
	t.Helper()
	w := do(t, router, http.MethodPost, "/novels", map[string]string{"title": title})
	if w.Code != http.StatusCreated {
		t.Fatalf("create novel = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Novel](t, w)
}

func createEpisode(t *testing.T, router http.Handler, novelID string) models.Episode {
	t.Helper()
	w := do(t, router, http.MethodPost, "/novels/"+novelID+"/episodes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create episode = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Episode](t, w)
}

func TestCreateAndGetNovel(t *testing.T) {
	_, router := testEnv(t, "")

	novel := createNovel(t, router, "Sample")
	if novel.Share != models.ShareLocal {
		t.Errorf("share = %d, want local", novel.Share)
	}

	w := do(t, router, http.MethodGet, "/novels/"+novel.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	details := decode[models.NovelDetails](t, w)
	if details.Title != "Sample" {
		t.Errorf("title = %q", details.Title)
	}
	if details.Episodes == nil || len(details.Episodes) != 0 {
		t.Errorf("episodes = %v, want empty list", details.Episodes)
	}

	w = do(t, router, http.MethodGet, "/novels", nil)
	list := decode[NovelListResponse](t, w)
	if len(list.Novels) != 1 || list.Novels[0].ID != novel.ID {
		t.Errorf("list = %+v", list.Novels)
	}
}

func TestCreateNovel_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/novels", map[string]string{"title": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty title = %d, want 400", w.Code)
	}
	resp := decode[errResponse](t, w)
	if resp.Kind != "validation" {
		t.Errorf("kind = %q", resp.Kind)
	}

	req := httptest.NewRequest(http.MethodPost, "/novels", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestCreateNovel_Duplicate(t *testing.T) {
	_, router := testEnv(t, "")

	createNovel(t, router, "Twice")
	w := do(t, router, http.MethodPost, "/novels", map[string]string{"title": "Twice"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestUpdateAndDeleteNovel(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Before")

	w := do(t, router, http.MethodPatch, "/novels/"+novel.ID, map[string]any{"title": "After", "tags": []string{"a"}})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Novel](t, w); got.Title != "After" || len(got.Tags) != 1 {
		t.Errorf("patched = %+v", got)
	}

	w = do(t, router, http.MethodDelete, "/novels/"+novel.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/novels/"+novel.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	// Deleting again is not an error.
	w = do(t, router, http.MethodDelete, "/novels/"+novel.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete = %d, want 204", w.Code)
	}
}

func TestEpisodeCRUD(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Episodes")

	ep := createEpisode(t, router, novel.ID)
	if ep.Order != 1 {
		t.Errorf("order = %v, want 1", ep.Order)
	}

	w := do(t, router, http.MethodGet, "/episodes/"+ep.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	got := decode[models.EpisodeWithNovel](t, w)
	if got.Novel.ID != novel.ID || got.Novel.Title != "Episodes" {
		t.Errorf("parent = %+v", got.Novel)
	}

	w = do(t, router, http.MethodPatch, "/episodes/"+ep.ID, map[string]any{"title": "Opening"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}
	if decode[models.Episode](t, w).Title != "Opening" {
		t.Error("title not updated")
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/episodes", nil)
	list := decode[EpisodeListResponse](t, w)
	if len(list.Episodes) != 1 || list.Episodes[0].Title != "Opening" {
		t.Errorf("list = %+v", list.Episodes)
	}

	w = do(t, router, http.MethodDelete, "/episodes/"+ep.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/episodes/"+ep.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestBatchUpdateEpisodes(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Batch")
	a := createEpisode(t, router, novel.ID)
	b := createEpisode(t, router, novel.ID)

	body := map[string]any{"episodes": []map[string]any{
		{"id": a.ID, "order": 2},
		{"id": b.ID, "order": 1},
	}}
	w := do(t, router, http.MethodPatch, "/novels/"+novel.ID+"/episodes", body)
	if w.Code != http.StatusOK {
		t.Fatalf("batch = %d, body = %s", w.Code, w.Body.String())
	}
	list := decode[EpisodeListResponse](t, w)
	if len(list.Episodes) != 2 || list.Episodes[0].ID != b.ID {
		t.Errorf("order after batch = %+v", list.Episodes)
	}

	w = do(t, router, http.MethodPatch, "/novels/"+novel.ID+"/episodes", map[string]any{"episodes": []any{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch = %d, want 400", w.Code)
	}
}

func TestReplaceBlocksWithIfMatch(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Locks")
	ep := createEpisode(t, router, novel.ID)

	w := do(t, router, http.MethodGet, "/episodes/"+ep.ID, nil)
	etag := w.Header().Get("ETag")

	blocks := map[string]any{"blocks": []map[string]any{{
		"id": "b1", "blockType": "paragraph", "order": 0,
		"content": []any{map[string]any{"type": "text", "text": "hello world"}},
	}}}
	w = do(t, router, http.MethodPut, "/episodes/"+ep.ID+"/blocks", blocks, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("put with current etag = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decode[models.Episode](t, w)
	if updated.ContentLength != 10 {
		t.Errorf("contentLength = %d, want 10", updated.ContentLength)
	}
	if w.Header().Get("ETag") == "" || w.Header().Get("ETag") == etag {
		t.Error("ETag not refreshed after write")
	}

	// The first write changed the episode, so the old tag is stale.
	w = do(t, router, http.MethodPut, "/episodes/"+ep.ID+"/blocks", blocks, "If-Match", etag)
	if w.Code != http.StatusPreconditionFailed {
		t.Errorf("put with stale etag = %d, want 412", w.Code)
	}
	if decode[errResponse](t, w).Kind != "conflict" {
		t.Error("stale write should report conflict")
	}

	w = do(t, router, http.MethodPut, "/episodes/"+ep.ID+"/blocks", blocks, "If-Match", "*")
	if w.Code != http.StatusOK {
		t.Errorf("put with wildcard = %d, want 200", w.Code)
	}
	w = do(t, router, http.MethodPut, "/episodes/"+ep.ID+"/blocks", blocks)
	if w.Code != http.StatusOK {
		t.Errorf("put without If-Match = %d, want 200", w.Code)
	}
}

func TestSyncDelta(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Delta")
	ep := createEpisode(t, router, novel.ID)

	body := map[string]any{"deltas": []map[string]any{{
		"id": "b1", "action": "create", "date": time.Now().UTC(), "blockType": "paragraph", "order": 0,
		"content": []any{map[string]any{"type": "text", "text": "ab c"}},
	}}}
	w := do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/delta", body)
	if w.Code != http.StatusOK {
		t.Fatalf("delta = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[models.Episode](t, w)
	if len(got.Blocks) != 1 || got.Blocks[0].Text != "ab c" {
		t.Errorf("blocks = %+v", got.Blocks)
	}

	bad := map[string]any{"deltas": []map[string]any{{"id": "b1", "action": "explode"}}}
	w = do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/delta", bad)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown action = %d, want 400", w.Code)
	}
}

func TestSnapshotsEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Snaps")
	ep := createEpisode(t, router, novel.ID)

	w := do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/snapshots", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("snapshot = %d, body = %s", w.Code, w.Body.String())
	}
	snap := decode[models.EpisodeSnapshot](t, w)
	if snap.Reason != models.SnapshotManual {
		t.Errorf("reason = %q, want manual", snap.Reason)
	}

	w = do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/snapshots", map[string]string{"reason": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus reason = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/snapshots/"+snap.ID+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/episodes/"+ep.ID+"/snapshots", nil)
	list := decode[SnapshotListResponse](t, w)
	// The restore takes a merge snapshot first.
	if len(list.Snapshots) != 2 {
		t.Errorf("snapshots = %d, want 2", len(list.Snapshots))
	}
}

func TestWikiEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Wiki")

	w := do(t, router, http.MethodPost, "/novels/"+novel.ID+"/wiki", map[string]any{"title": "Hero", "category": "character"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	page := decode[models.WikiPage](t, w)

	w = do(t, router, http.MethodPatch, "/wiki/"+page.ID, map[string]any{"summary": "The lead."})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/wiki/"+page.ID, nil)
	got := decode[models.WikiPage](t, w)
	if got.Summary == nil || *got.Summary != "The lead." {
		t.Errorf("summary = %v", got.Summary)
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/wiki", nil)
	if list := decode[WikiPageListResponse](t, w); len(list.WikiPages) != 1 {
		t.Errorf("wiki pages = %d, want 1", len(list.WikiPages))
	}

	w = do(t, router, http.MethodPost, "/novels/"+novel.ID+"/wiki", map[string]any{"title": "X", "category": "weather"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/wiki/"+page.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodGet, "/wiki/"+page.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Find")
	ep := createEpisode(t, router, novel.ID)
	w := do(t, router, http.MethodPatch, "/episodes/"+ep.ID, map[string]any{"title": "uniquetoken chapter"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/search?q=uniquetoken&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[models.SearchResponse](t, w)
	if resp.EstimatedTotalHits != 1 || len(resp.Hits) != 1 {
		t.Errorf("hits = %d/%d, want 1", len(resp.Hits), resp.EstimatedTotalHits)
	}
	if resp.Limit != 5 {
		t.Errorf("limit = %d", resp.Limit)
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/search?q=uniquetoken&limit=0", nil)
	resp = decode[models.SearchResponse](t, w)
	if len(resp.Hits) != 0 || resp.EstimatedTotalHits != 1 || resp.Limit != 0 {
		t.Errorf("limit=0: %d hits of %d, limit %d", len(resp.Hits), resp.EstimatedTotalHits, resp.Limit)
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/search?q=uniquetoken", nil)
	if resp = decode[models.SearchResponse](t, w); resp.Limit != 20 || len(resp.Hits) != 1 {
		t.Errorf("default limit: %d hits, limit %d", len(resp.Hits), resp.Limit)
	}

	w = do(t, router, http.MethodGet, "/novels/"+novel.ID+"/search", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("blank search = %d", w.Code)
	}
	if resp := decode[models.SearchResponse](t, w); len(resp.Hits) != 0 {
		t.Errorf("blank query hits = %d", len(resp.Hits))
	}
}

func TestOpenAndRegister(t *testing.T) {
	repos, router := testEnv(t, "")
	novel := createNovel(t, router, "Opened")
	ep := createEpisode(t, router, novel.ID)

	root, err := repos.Novels.Root(context.Background(), novel.ID)
	if err != nil {
		t.Fatal(err)
	}
	w := do(t, router, http.MethodPost, "/open", map[string]string{"path": filepath.Join(root, "episodes", ep.ID+".mvle")})
	if w.Code != http.StatusOK {
		t.Fatalf("open = %d, body = %s", w.Code, w.Body.String())
	}
	item := decode[models.OpenedItem](t, w)
	if item.Kind != models.OpenedEpisode || item.EpisodeID != ep.ID {
		t.Errorf("opened = %+v", item)
	}

	txt := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w = do(t, router, http.MethodPost, "/open", map[string]string{"path": txt})
	if w.Code != http.StatusBadRequest {
		t.Errorf("open txt = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/novels/register", map[string]string{"path": filepath.Join(root, "opened.muvl")})
	if w.Code != http.StatusOK {
		t.Fatalf("register = %d, body = %s", w.Code, w.Body.String())
	}
	entry := decode[models.ProjectIndexEntry](t, w)
	if entry.EpisodeCount == nil || *entry.EpisodeCount != 1 {
		t.Errorf("episodeCount = %v, want 1", entry.EpisodeCount)
	}

	w = do(t, router, http.MethodPost, "/novels/register", map[string]string{"path": filepath.Join(t.TempDir(), "gone", "gone.muvl")})
	if w.Code != http.StatusNotFound {
		t.Errorf("register missing = %d, want 404", w.Code)
	}
}

func TestBackupEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Backup")
	ep := createEpisode(t, router, novel.ID)

	w := do(t, router, http.MethodPost, "/episodes/"+ep.ID+"/backup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backup = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[BackupResponse](t, w)
	if _, err := os.Stat(filepath.Join(resp.Path, "episodes", ep.ID+".mvle")); err != nil {
		t.Errorf("mirrored episode: %v", err)
	}
}

func TestUnknownIDs(t *testing.T) {
	_, router := testEnv(t, "")

	for _, path := range []string{"/novels/nope", "/episodes/nope", "/wiki/nope", "/novels/nope/episodes"} {
		w := do(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, w.Code)
		}
		if resp := decode[errResponse](t, w); resp.Kind != "not_found" {
			t.Errorf("GET %s kind = %q", path, resp.Kind)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Validation("x"), http.StatusBadRequest},
		{apperr.New(apperr.ErrAmbiguousState, "x"), http.StatusConflict},
		{apperr.New(apperr.ErrAlreadyExists, "x"), http.StatusConflict},
		{apperr.New(apperr.ErrConflict, "x"), http.StatusPreconditionFailed},
		{apperr.Corrupt(io.ErrUnexpectedEOF, "x"), http.StatusUnprocessableEntity},
		{apperr.IO(os.ErrPermission, "x"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodPost, "/novels", map[string]string{"title": "Authed"}, "Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/novels", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/novels", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/novels", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Image upload tests.

func uploadImage(t *testing.T, router http.Handler, novelID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/novels/"+novelID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Images")

	w := uploadImage(t, router, novel.ID, "cover.PNG", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[ImageUploadResponse](t, w)
	if filepath.Ext(resp.Path) != ".png" {
		t.Errorf("path = %q, want .png extension", resp.Path)
	}
	if filepath.Base(filepath.Dir(resp.Path)) != "images" {
		t.Errorf("path = %q, want it under resources/images", resp.Path)
	}
	data, err := os.ReadFile(resp.Path)
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" || resp.Size != int64(len(data)) {
		t.Errorf("content mismatch")
	}
}

func TestUploadImage_UnknownNovel(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadImage(t, router, "nope", "x.png", []byte("data"))
	if w.Code != http.StatusNotFound {
		t.Errorf("upload to unknown novel = %d, want 404", w.Code)
	}
}

func TestUploadImage_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")
	novel := createNovel(t, router, "Images")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/novels/"+novel.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
