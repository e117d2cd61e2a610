// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the console's forms, content and statistics to LLM agents
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/formschema"
	"github.com/brandoo/console/internal/stats"
	"github.com/brandoo/console/internal/workspace"
)

// FieldTypesURI is the resource describing the selectable field and
// content types.
const FieldTypesURI = "brandoo://field-types"

// Server wraps the MCP server with the console tools.
type Server struct {
	mcp    *server.MCPServer
	client *brandoo.Client
	ws     *workspace.Workspace
	stats  *stats.Service
	logger *slog.Logger
}

// New creates a new MCP server with all tools registered. Editors are
// taken from ws so unsaved changes made over HTTP are visible to agents.
func New(client *brandoo.Client, ws *workspace.Workspace, st *stats.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, ws: ws, stats: st, logger: logger}

	s.mcp = server.NewMCPServer(
		"Brandoo Console",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List the contact-capture forms of the signed-in user."),
	), s.listForms)

	s.mcp.AddTool(mcp.NewTool("get_form_schema",
		mcp.WithDescription("Return the field schema of a form together with the "+
			"soft issues it currently has (missing reserved fields, duplicate keys, "+
			"choice fields without options). Unsaved edits are included."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("Form id")),
	), s.getFormSchema)

	s.mcp.AddTool(mcp.NewTool("derive_field_key",
		mcp.WithDescription("Derive the storage key a field label will be saved under."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Field label, e.g. \"Jaké je Vaše příjmení?\"")),
	), s.deriveFieldKey)

	s.mcp.AddTool(mcp.NewTool("list_contents",
		mcp.WithDescription("List the CMS root nodes of the signed-in user."),
	), s.listContents)

	s.mcp.AddTool(mcp.NewTool("get_content_tree",
		mcp.WithDescription("Return a CMS node with its item properties resolved recursively."),
		mcp.WithString("content_id", mcp.Required(), mcp.Description("Content node id")),
	), s.getContentTree)

	s.mcp.AddTool(mcp.NewTool("statistic_summary",
		mcp.WithDescription("Aggregate a statistic over an interval."),
		mcp.WithString("statistic_id", mcp.Required(), mcp.Description("Statistic id")),
		mcp.WithString("interval",
			mcp.Description("Interval to aggregate over (default last-week)"),
			mcp.Enum(string(stats.Today), string(stats.LastWeek), string(stats.LastMonth), string(stats.LastYear), string(stats.All)),
		),
	), s.statisticSummary)

	s.mcp.AddTool(mcp.NewTool("set_content_image",
		mcp.WithDescription("Upload an image from an http(s) URL or a base64 data URI and "+
			"set it as the payload of an image content node. The previous image is removed."),
		mcp.WithString("content_id", mcp.Required(), mcp.Description("Image content node id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.setContentImage)

	s.mcp.AddResource(
		mcp.NewResource(FieldTypesURI, "Field and content types",
			mcp.WithResourceDescription("Selectable form field types, CMS content types and reserved form keys."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFieldTypesResource,
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

func (s *Server) listForms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := s.client.UserID()
	if err != nil {
		return mcp.NewToolResultError("not signed in: run the login command first"), nil
	}
	forms, err := s.client.UserForms(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(forms)
}

type formSchema struct {
	Form   any                `json:"form"`
	Issues []formschema.Issue `json:"issues"`
}

func (s *Server) getFormSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("form_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.ws.FormEditor(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issues := e.Validate()
	if issues == nil {
		issues = []formschema.Issue{}
	}
	return jsonResult(formSchema{Form: e.Snapshot(), Issues: issues})
}

func (s *Server) deriveFieldKey(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formschema.DeriveKey(label)), nil
}

func (s *Server) listContents(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := s.client.UserID()
	if err != nil {
		return mcp.NewToolResultError("not signed in: run the login command first"), nil
	}
	roots, err := s.ws.CMS().ListRoots(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(roots)
}

func (s *Server) getContentTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("content_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree, err := s.ws.CMS().Tree(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tree)
}

func (s *Server) statisticSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("statistic_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	interval := ""
	if v, ivErr := req.RequireString("interval"); ivErr == nil {
		interval = v
	}
	iv, err := stats.ParseInterval(interval)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uid, err := s.client.UserID()
	if err != nil {
		return mcp.NewToolResultError("not signed in: run the login command first"), nil
	}
	sum, err := s.stats.Summary(ctx, uid, id, iv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

func (s *Server) readFieldTypesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FieldTypesURI,
			MIMEType: "text/markdown",
			Text:     FieldTypesDocument(),
		},
	}, nil
}
