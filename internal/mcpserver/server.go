// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Muvel novels to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/blocks"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/repository"
	"github.com/starford/muvel/internal/search"
)

// Server wraps the MCP server with Muvel tools.
type Server struct {
	mcp    *server.MCPServer
	repos  *repository.Repositories
	logger *slog.Logger
}

// New creates a new MCP server with all Muvel tools registered.
func New(repos *repository.Repositories, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{repos: repos, logger: logger}

	s.mcp = server.NewMCPServer(
		"Muvel",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_novels",
		mcp.WithDescription("List the novels known to Muvel, most recently opened first."),
	), s.listNovels)

	s.mcp.AddTool(mcp.NewTool("get_novel",
		mcp.WithDescription("Get a novel's metadata with the summaries of its episodes and wiki pages."),
		mcp.WithString("novel_id", mcp.Required(), mcp.Description("Novel ID")),
	), s.getNovel)

	s.mcp.AddTool(mcp.NewTool("list_episodes",
		mcp.WithDescription("List the episodes of a novel in reading order."),
		mcp.WithString("novel_id", mcp.Required(), mcp.Description("Novel ID")),
	), s.listEpisodes)

	s.mcp.AddTool(mcp.NewTool("read_episode",
		mcp.WithDescription("Read the text of an episode. Blocks are rendered as plain text, one per line."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode ID")),
	), s.readEpisode)

	s.mcp.AddTool(mcp.NewTool("search_novel",
		mcp.WithDescription("Search the episodes and wiki pages of a novel. Matching ignores case and whitespace."),
		mcp.WithString("novel_id", mcp.Required(), mcp.Description("Novel ID")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20, max 100)")),
		mcp.WithNumber("offset", mcp.Description("Number of hits to skip")),
	), s.searchNovel)

	s.mcp.AddTool(mcp.NewTool("list_wiki_pages",
		mcp.WithDescription("List the wiki pages of a novel."),
		mcp.WithString("novel_id", mcp.Required(), mcp.Description("Novel ID")),
	), s.listWikiPages)

	s.mcp.AddTool(mcp.NewTool("read_wiki_page",
		mcp.WithDescription("Read a wiki page: summary, attributes and body text."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Wiki page ID")),
	), s.readWikiPage)

	s.mcp.AddTool(mcp.NewTool("create_snapshot",
		mcp.WithDescription("Save a snapshot of an episode's current blocks so they can be restored later."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode ID")),
		mcp.WithString("reason", mcp.Description("manual (default), autosave or merge"),
			mcp.Enum(string(models.SnapshotManual), string(models.SnapshotAutosave), string(models.SnapshotMerge))),
	), s.createSnapshot)

	s.mcp.AddTool(mcp.NewTool("save_image",
		mcp.WithDescription("Store an image in a novel's resources/images folder. "+
			"Pass the image as a base64 data URI. Returns the absolute path of the saved file."),
		mcp.WithString("novel_id", mcp.Required(), mcp.Description("Novel ID")),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("Optional original file name; only its extension is kept")),
	), s.saveImage)

	s.mcp.AddTool(mcp.NewTool("get_project_format",
		mcp.WithDescription("Returns the on-disk layout and document formats of a Muvel project."),
	), s.getProjectFormat)

	// Resource: project format.
	s.mcp.AddResource(
		mcp.NewResource(ProjectFormatURI, "Project Format",
			mcp.WithResourceDescription("On-disk layout and document formats of a Muvel project."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readProjectFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError reports err to the client with its kind.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	kind := apperr.KindOf(err)
	s.logger.Debug("mcp: tool failed", slog.String("tool", tool), slog.String("kind", kind), slog.String("error", err.Error()))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listNovels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.repos.Novels.ListNovels(ctx)
	if err != nil {
		return s.toolError("list_novels", err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) getNovel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("novel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	details, err := s.repos.Novels.GetNovelDetails(ctx, id)
	if err != nil {
		return s.toolError("get_novel", err), nil
	}
	return jsonResult(details), nil
}

func (s *Server) listEpisodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("novel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.repos.Episodes.ListEpisodeSummaries(ctx, id)
	if err != nil {
		return s.toolError("list_episodes", err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) readEpisode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("episode_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ep, err := s.repos.Episodes.GetEpisode(ctx, id)
	if err != nil {
		return s.toolError("read_episode", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", ep.Title)
	fmt.Fprintf(&b, "Novel: %s\nOrder: %g\nLength: %d\n", ep.Novel.Title, ep.Order, ep.ContentLength)
	if ep.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", ep.Description)
	}
	b.WriteString("\n")
	b.WriteString(blocks.PlainText(ep.Blocks))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) searchNovel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("novel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var limit *int
	if _, ok := req.GetArguments()["limit"]; ok {
		n := req.GetInt("limit", search.DefaultLimit)
		limit = &n
	}
	resp, err := s.repos.Search.SearchNovel(ctx, id, query, limit, req.GetInt("offset", 0))
	if err != nil {
		return s.toolError("search_novel", err), nil
	}
	return jsonResult(resp), nil
}

func (s *Server) listWikiPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("novel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.repos.WikiPages.ListSummaries(ctx, id)
	if err != nil {
		return s.toolError("list_wiki_pages", err), nil
	}
	return jsonResult(list), nil
}

func (s *Server) readWikiPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.repos.WikiPages.Get(ctx, id)
	if err != nil {
		return s.toolError("read_wiki_page", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", page.Title)
	if page.Category != nil {
		fmt.Fprintf(&b, "Category: %s\n", *page.Category)
	}
	if len(page.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(page.Tags, ", "))
	}
	if page.Summary != nil && *page.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", *page.Summary)
	}
	for _, k := range slices.Sorted(maps.Keys(page.Attributes)) {
		fmt.Fprintf(&b, "%s: %s\n", k, page.Attributes[k])
	}
	b.WriteString("\n")
	b.WriteString(blocks.PlainText(page.Blocks))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) createSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("episode_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reason := models.SnapshotReason(req.GetString("reason", ""))
	snap, err := s.repos.Snapshots.CreateSnapshot(ctx, id, reason)
	if err != nil {
		return s.toolError("create_snapshot", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("snapshot %s created (%s, %d blocks)", snap.ID, snap.Reason, len(snap.Blocks))), nil
}

func (s *Server) getProjectFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProjectFormat), nil
}

func (s *Server) readProjectFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ProjectFormatURI,
			MIMEType: "text/markdown",
			Text:     ProjectFormat,
		},
	}, nil
}
