// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lectern parsing and citation tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lectern/internal/docservice"
	"github.com/starford/lectern/internal/models"
)

const guideURI = "lectern://alias-pattern-guide"

// Server wraps the MCP server with Lectern tools.
type Server struct {
	mcp  *server.MCPServer
	docs *docservice.Service
}

// New creates a new MCP server with all Lectern tools registered.
func New(docs *docservice.Service) *Server {
	s := &Server{docs: docs}

	s.mcp = server.NewMCPServer(
		"Lectern",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("preview_document",
		mcp.WithDescription("Parse plain text into structural headings and numbered paragraphs without storing it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain document text")),
		mcp.WithString("source_type", mcp.Description("catechism, scripture, patristic, treatise or generic")),
	), s.previewDocument)

	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Parse and store a document. Review the result of preview_document first."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain document text")),
		mcp.WithString("source_type", mcp.Description("catechism, scripture, patristic, treatise or generic")),
	), s.importDocument)

	s.mcp.AddTool(mcp.NewTool("import_file",
		mcp.WithDescription("Import a .txt, .md, .html, .pdf or .docx file from a base64 data URI or an http(s) URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:<mime>;base64,<data> URI or http(s) URL")),
		mcp.WithString("filename", mcp.Description("File name; its extension selects the text extractor")),
		mcp.WithString("source_type", mcp.Description("catechism, scripture, patristic, treatise or generic")),
		mcp.WithString("title", mcp.Description("Document title; defaults to the file's own title")),
	), s.importFile)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List imported documents."),
		mcp.WithString("source_type", mcp.Description("Optional source type filter")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("find_citations",
		mcp.WithDescription("Find citations such as 'CCC 1234' in text using the configured aliases, and resolve them to paragraphs. "+
			"Read the lectern://alias-pattern-guide resource to learn how aliases match."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
	), s.findCitations)

	s.mcp.AddTool(mcp.NewTool("resolve_citation",
		mcp.WithDescription("Resolve a citation identifier of the form doc:<documentId> or doc:<documentId>:<nodeId>."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Citation identifier")),
	), s.resolveCitation)

	s.mcp.AddTool(mcp.NewTool("get_paragraph",
		mcp.WithDescription("Read one numbered paragraph of a document."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Paragraph number")),
	), s.getParagraph)

	s.mcp.AddTool(mcp.NewTool("search_paragraphs",
		mcp.WithDescription("Full-text search through numbered paragraphs of all documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchParagraphs)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Alias Pattern Guide",
			mcp.WithResourceDescription("How citation aliases and their patterns are written."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
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

func sourceType(req mcp.CallToolRequest) models.SourceType {
	return models.SourceType(req.GetString("source_type", ""))
}

func (s *Server) previewDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.docs.Preview(text, sourceType(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) importDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.docs.Import(ctx, docservice.ImportRequest{Title: title, Text: text, SourceType: sourceType(req)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, total, err := s.docs.List(ctx, sourceType(req), 200, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"documents": docs, "total": total})
}

func (s *Server) findCitations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.docs.ScanText(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) resolveCitation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.docs.ResolveID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c)
}

func (s *Server) getParagraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := req.RequireInt("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.docs.Paragraph(ctx, docID, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("paragraph %d not found in %s", number, docID)), nil
	}
	return jsonResult(p)
}

func (s *Server) searchParagraphs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.docs.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no paragraphs found"), nil
	}
	return jsonResult(results)
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     AliasPatternGuide,
		},
	}, nil
}
