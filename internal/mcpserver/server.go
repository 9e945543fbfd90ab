// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Scribe notes and their link index to LLMs via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/noteservice"
)

const noteFormatURI = "scribe://note-format"

// Server wraps the MCP server with Scribe tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Scribe tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Scribe",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the Markdown content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Its [[wiki-links]] and #tags are indexed immediately. "+
			"Read the format via get_note_contract or the "+noteFormatURI+" resource first."),
		mcp.WithString("title", mcp.Description("Title; derived from frontmatter or the first heading when empty")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
		mcp.WithString("folder", mcp.Description("Folder (default inbox)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns how Scribe reads titles, wiki-links and tags."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally in one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_note_tags",
		mcp.WithDescription("List the tags of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNoteTags)

	s.mcp.AddTool(mcp.NewTool("notes_by_tag",
		mcp.WithDescription("List the notes carrying a tag. The leading # is optional."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.notesByTag)

	s.mcp.AddTool(mcp.NewTool("reindex",
		mcp.WithDescription("Rebuild the link and tag index from every note."),
	), s.reindex)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How Scribe reads titles, wiki-links and tags."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError reports err to the model. A stale index is not a failure: the
// note was saved.
func toolError(err error, id string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err, ""), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(err, id), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateNote(ctx, noteservice.CreateInput{
		Title:   req.GetString("title", ""),
		Content: content,
		Folder:  req.GetString("folder", ""),
	})
	if err != nil && !errors.Is(err, apperr.ErrIndexStale) {
		return toolError(err, ""), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.ID, n.Title)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListNotes(ctx, noteservice.ListParams{Folder: req.GetString("folder", "")})
	if err != nil {
		return toolError(err, ""), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.ID + "\t" + it.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.Backlinks(ctx, id)
	if err != nil {
		return toolError(err, id), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = r.ID + "\t" + r.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := s.svc.NoteTags(ctx, id)
	if err != nil {
		return toolError(err, id), nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) notesByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.NotesByTag(ctx, tag)
	if err != nil {
		return toolError(err, ""), nil
	}
	return jsonResult(refs)
}

func (s *Server) reindex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Reindex(ctx)
	if err != nil {
		return toolError(err, ""), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("indexed %d of %d notes, removed %d, failed %d",
		rep.Indexed, rep.Total, rep.Removed, rep.Failed)), nil
}
