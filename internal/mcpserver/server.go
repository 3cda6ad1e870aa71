// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the reference store to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/anchor/internal/index"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/refstore"
)

const referencesURI = "anchor://references"

// ReferenceService is the reference store as used by the tools.
type ReferenceService interface {
	List(ctx context.Context) ([]models.Reference, error)
	Create(ctx context.Context, c models.Candidate) (*models.Reference, error)
	Update(ctx context.Context, id string, c models.Candidate) (*models.Reference, error)
	Delete(ctx context.Context, id string) error
}

// Searcher answers search queries with ids in display order.
type Searcher interface {
	Search(q index.Query) ([]string, error)
}

// Server wraps the MCP server with reference tools.
type Server struct {
	mcp    *server.MCPServer
	refs   ReferenceService
	search Searcher
	logger *slog.Logger
}

// New creates a new MCP server with all reference tools registered.
// search may be nil, in which case searches scan the collection.
func New(refs ReferenceService, search Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{refs: refs, search: search, logger: logger}

	s.mcp = server.NewMCPServer(
		"Anchor",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_references",
		mcp.WithDescription("List every tracked reference in stored order."),
	), s.listReferences)

	s.mcp.AddTool(mcp.NewTool("search_references",
		mcp.WithDescription("Find references whose name, path or tags contain the query, "+
			"ordered pinned first, then by status, then by name."),
		mcp.WithString("query", mcp.Description("Case-insensitive text to match")),
		mcp.WithString("status", mcp.Description("Only references with this status"), statusEnum()),
		mcp.WithString("tag", mcp.Description("Only references carrying this exact tag")),
	), s.searchReferences)

	addOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Track a new file or folder path."),
	}, referenceFields()...)
	s.mcp.AddTool(mcp.NewTool("add_reference", addOpts...), s.addReference)

	updateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Replace the editable fields of an existing reference. " +
			"The id and creation time are kept; the last-opened time is refreshed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Reference id")),
	}, referenceFields()...)
	s.mcp.AddTool(mcp.NewTool("update_reference", updateOpts...), s.updateReference)

	s.mcp.AddTool(mcp.NewTool("delete_reference",
		mcp.WithDescription("Stop tracking a reference. The path on disk is not touched."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Reference id")),
	), s.deleteReference)

	s.mcp.AddResource(
		mcp.NewResource(referencesURI, "References",
			mcp.WithResourceDescription("The full reference collection as stored in data.json."),
			mcp.WithMIMEType("application/json"),
		),
		s.readReferencesResource,
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

func statusEnum() mcp.PropertyOption {
	values := make([]string, len(models.StatusOrder))
	for i, st := range models.StatusOrder {
		values[i] = string(st)
	}
	return mcp.Enum(values...)
}

func referenceFields() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("referenceName", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("absolutePath", mcp.Required(), mcp.Description("Absolute filesystem path")),
		mcp.WithString("type", mcp.Required(), mcp.Description("What the path points at"), mcp.Enum("folder", "file")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Lifecycle status"), statusEnum()),
		mcp.WithArray("tags", mcp.Description("Free-form labels"), mcp.WithStringItems()),
		mcp.WithString("description", mcp.Description("Optional notes")),
		mcp.WithBoolean("pinned", mcp.Description("Show at the top of lists")),
	}
}

type referenceArgs struct {
	ID            string   `json:"id"`
	ReferenceName string   `json:"referenceName"`
	AbsolutePath  string   `json:"absolutePath"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags"`
	Description   *string  `json:"description"`
	Pinned        bool     `json:"pinned"`
}

func (a referenceArgs) candidate() models.Candidate {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Candidate{
		ReferenceName: a.ReferenceName,
		AbsolutePath:  a.AbsolutePath,
		Type:          models.RefType(a.Type),
		Status:        models.Status(a.Status),
		Tags:          tags,
		Description:   a.Description,
		Pinned:        a.Pinned,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listReferences(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := s.refs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(refs)
}

func (s *Server) searchReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Query  string `json:"query"`
		Status string `json:"status"`
		Tag    string `json:"tag"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	refs, err := s.refs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := index.Query{Text: args.Query, Status: models.Status(args.Status), Tag: args.Tag}

	if s.search != nil {
		ids, err := s.search.Search(q)
		if err == nil {
			byID := make(map[string]models.Reference, len(refs))
			for _, r := range refs {
				byID[r.ID] = r
			}
			out := make([]models.Reference, 0, len(ids))
			for _, id := range ids {
				if r, ok := byID[id]; ok {
					out = append(out, r)
				}
			}
			return jsonResult(out)
		}
		s.logger.Warn("mcp: index search failed, scanning", slog.String("error", err.Error()))
	}
	return jsonResult(refstore.Filter(refs, q.Text, q.Status, q.Tag))
}

func (s *Server) addReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args referenceArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	ref, err := s.refs.Create(ctx, args.candidate())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ref)
}

func (s *Server) updateReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args referenceArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	ref, err := s.refs.Update(ctx, id, args.candidate())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ref)
}

func (s *Server) deleteReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.refs.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) readReferencesResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	refs, err := s.refs.List(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(models.StorageFile{References: refs}, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      referencesURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
