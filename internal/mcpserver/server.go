// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the mind map library over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mindatlas/internal/apperr"
	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/guard"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/models"
)

const (
	subjectsURI = "mindatlas://subjects"
	formatURI   = "mindatlas://mindmap-format"
)

// Server wraps the MCP server with the mind map tools.
type Server struct {
	mcp   *server.MCPServer
	gate  *authgate.Gate
	maps  *mindmap.Service
	paths guard.Paths
}

// New creates a new MCP server with all tools registered. Document tools act
// on behalf of the signed-in session and follow the user-area rules.
func New(gate *authgate.Gate, maps *mindmap.Service, paths guard.Paths) *Server {
	s := &Server{gate: gate, maps: maps, paths: paths}

	s.mcp = server.NewMCPServer(
		"MindAtlas",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("whoami",
		mcp.WithDescription("Describe the signed-in session: email, role and user id."),
	), s.whoami)

	s.mcp.AddTool(mcp.NewTool("list_subjects",
		mcp.WithDescription("List the subject catalog mind maps are filed under."),
	), s.listSubjects)

	s.mcp.AddTool(mcp.NewTool("list_mindmaps",
		mcp.WithDescription("List mind maps, newest first."),
		mcp.WithString("subject", mcp.Description("Optional subject id to filter by")),
	), s.guarded(s.listMindMaps))

	s.mcp.AddTool(mcp.NewTool("get_mindmap",
		mcp.WithDescription("Read one mind map with its nodes, edges and current etag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Mind map id")),
	), s.guarded(s.getMindMap))

	s.mcp.AddTool(mcp.NewTool("create_mindmap",
		mcp.WithDescription("Create a mind map. Content MUST follow the format in "+
			"the "+formatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Map title")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Subject id from list_subjects")),
		mcp.WithArray("nodes", mcp.Description("Nodes: {id, type, data{label, description?, color?}, position{x,y}}")),
		mcp.WithArray("edges", mcp.Description("Edges: {id, source, target, type?, animated?}")),
	), s.guarded(s.createMindMap))

	s.mcp.AddTool(mcp.NewTool("update_mindmap",
		mcp.WithDescription("Merge changes into a mind map. Omitted fields are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Mind map id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("subject", mcp.Description("New subject id")),
		mcp.WithArray("nodes", mcp.Description("Replacement node list")),
		mcp.WithArray("edges", mcp.Description("Replacement edge list")),
		mcp.WithString("etag", mcp.Description("Etag from get_mindmap; the update fails if the map changed since")),
	), s.guarded(s.updateMindMap))

	s.mcp.AddTool(mcp.NewTool("delete_mindmap",
		mcp.WithDescription("Delete a mind map. Deleting a missing id is not an error."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Mind map id")),
	), s.guarded(s.deleteMindMap))

	s.mcp.AddResource(
		mcp.NewResource(subjectsURI, "Subject Catalog",
			mcp.WithResourceDescription("Subjects a mind map can be filed under."),
			mcp.WithMIMEType("application/json"),
		),
		s.readSubjectsResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Mind Map Format",
			mcp.WithResourceDescription("Document shape accepted by create_mindmap and update_mindmap."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

// guarded runs the user-area check before h.
func (s *Server) guarded(h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := s.gate.Resolve(ctx)
		d := guard.UserArea(id, s.paths)
		switch d.Outcome {
		case guard.Render:
			return h(authgate.WithIdentity(ctx, id), req)
		case guard.Redirect:
			if id.Authenticated {
				return mcp.NewToolResultError(fmt.Sprintf("administrators manage the library from %s", d.Location)), nil
			}
			return mcp.NewToolResultError("not signed in: run `mindatlas login` first"), nil
		default:
			return mcp.NewToolResultError("access denied"), nil
		}
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) whoami(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.gate.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session unreadable, signed out: %v", err)), nil
	}
	return jsonResult(id)
}

func (s *Server) listSubjects(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(models.Subjects)
}

func (s *Server) listMindMaps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maps, err := s.maps.List(ctx, req.GetString("subject", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type summary struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Subject string `json:"subject"`
		Nodes   int    `json:"nodes"`
	}
	out := make([]summary, 0, len(maps))
	for _, m := range maps {
		out = append(out, summary{ID: m.ID, Title: m.Title, Subject: m.Subject, Nodes: len(m.Nodes)})
	}
	return jsonResult(out)
}

type mindMapWithTag struct {
	models.MindMap
	ETag string `json:"etag"`
}

func (s *Server) getMindMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.maps.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(mindMapWithTag{MindMap: m, ETag: mindmap.ETag(m)})
}

func (s *Server) createMindMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var d models.Draft
	if err := req.BindArguments(&d); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	m, err := s.maps.Create(ctx, d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(mindMapWithTag{MindMap: m, ETag: mindmap.ETag(m)})
}

type updateArgs struct {
	ID      string         `json:"id"`
	Title   *string        `json:"title"`
	Subject *string        `json:"subject"`
	Nodes   *[]models.Node `json:"nodes"`
	Edges   *[]models.Edge `json:"edges"`
	ETag    string         `json:"etag"`
}

func (s *Server) updateMindMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.ID == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	patch := models.Patch{Title: args.Title, Subject: args.Subject, Nodes: args.Nodes, Edges: args.Edges}
	m, found, err := s.maps.Update(ctx, args.ID, patch, args.ETag)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("mind map changed since it was read; fetch it again"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	case !found:
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", args.ID)), nil
	}
	return jsonResult(mindMapWithTag{MindMap: m, ETag: mindmap.ETag(m)})
}

func (s *Server) deleteMindMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	found, err := s.maps.Delete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("already absent: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) readSubjectsResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(models.Subjects, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      subjectsURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     MindMapFormat,
		},
	}, nil
}
