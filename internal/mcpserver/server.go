// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes conversion and corpus tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/corpusservice"
	"github.com/starford/semconv/internal/semgraph"
)

const formatURI = "semconv://conllu-format"

// Server wraps the MCP server with semconv tools.
type Server struct {
	mcp *server.MCPServer
	svc *corpusservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *corpusservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"semconv",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_to_semantic",
		mcp.WithDescription("Convert a CoNLL-U document into layered semantic graphs, one per sentence. "+
			"Sentences that fail are reported individually; read the format contract first."),
		mcp.WithString("conllu", mcp.Required(), mcp.Description("CoNLL-U text, sentences separated by blank lines")),
	), s.convertToSemantic)

	s.mcp.AddTool(mcp.NewTool("convert_to_dependency",
		mcp.WithDescription("Convert semantic graph documents (as returned by convert_to_semantic) back to CoNLL-U."),
		mcp.WithString("graphs", mcp.Required(), mcp.Description("JSON array of graph documents")),
	), s.convertToDependency)

	s.mcp.AddTool(mcp.NewTool("search_sentences",
		mcp.WithDescription("Full-text search through the text of indexed sentences."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchSentences)

	s.mcp.AddTool(mcp.NewTool("read_sentence",
		mcp.WithDescription("Read one indexed sentence by its sent_id, as a semantic graph or as regenerated CoNLL-U."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Sentence id (the sent_id comment)")),
		mcp.WithString("format", mcp.Description("graph (default) or conllu"), mcp.Enum("graph", "conllu")),
	), s.readSentence)

	s.mcp.AddTool(mcp.NewTool("list_corpus",
		mcp.WithDescription("List indexed corpus files with sentence and failure counts."),
	), s.listCorpus)

	s.mcp.AddTool(mcp.NewTool("read_corpus_file",
		mcp.WithDescription("Read the raw CoNLL-U content of a corpus file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. ud/en.conllu)")),
	), s.readCorpusFile)

	s.mcp.AddTool(mcp.NewTool("create_corpus_file",
		mcp.WithDescription("Create a CoNLL-U file in the corpus and convert it. "+
			"Content MUST follow the format contract (get_format_contract or "+formatURI+")."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new file (must end with .conllu)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("CoNLL-U text")),
	), s.createCorpusFile)

	s.mcp.AddTool(mcp.NewTool("list_failures",
		mcp.WithDescription("List sentences that failed to convert, optionally for one file."),
		mcp.WithString("file", mcp.Description("Optional corpus file path")),
	), s.listFailures)

	s.mcp.AddTool(mcp.NewTool("import_corpus_file",
		mcp.WithDescription("Fetch a CoNLL-U file from an http(s) URL or a base64 data URI and add it to the corpus."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:text/plain;base64,... URI")),
		mcp.WithString("path", mcp.Description("Target path (defaults to the URL's file name)")),
	), s.importCorpusFile)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the CoNLL-U and graph format contract. "+
			"Call this before converting or creating corpus files."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "CoNLL-U Format Contract",
			mcp.WithResourceDescription("Input and output formats accepted by the converter."),
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) convertToSemantic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("conllu")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ConvertToSemantic(ctx, []byte(text))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

func (s *Server) convertToDependency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("graphs")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var docs []semgraph.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graphs must be a JSON array of graph documents: %v", err)), nil
	}
	res, err := s.svc.ConvertToDependency(ctx, docs)
	if err != nil {
		return toolError(err), nil
	}
	if res.Failed == 0 {
		return mcp.NewToolResultText(res.CoNLLU), nil
	}
	var b strings.Builder
	b.WriteString(res.CoNLLU)
	for _, item := range res.Sentences {
		if item.Error != "" {
			fmt.Fprintf(&b, "# failed %s: %s\n", item.SentenceID, item.Error)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) searchSentences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(hits)
}

func (s *Server) readSentence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sent, err := s.svc.GetSentence(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if req.GetString("format", "graph") == "conllu" {
		if sent.CoNLLU == "" {
			return mcp.NewToolResultError("sentence has no dependency rendering"), nil
		}
		return mcp.NewToolResultText(sent.CoNLLU), nil
	}
	return jsonResult(sent)
}

func (s *Server) listCorpus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.ListFiles(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("corpus is empty"), nil
	}
	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = fmt.Sprintf("%s\t%d sentences\t%d failed", f.Path, f.Sentences, f.Failed)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readCorpusFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.GetFile(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return toolError(err), nil
	}
	return mcp.NewToolResultText(f.Content), nil
}

func (s *Server) createCorpusFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.CreateFile(ctx, path, []byte(content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", path)), nil
		}
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d sentences, %d failed)", f.Path, f.Sentences, f.Failed)), nil
}

func (s *Server) listFailures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fails, err := s.svc.Failures(ctx, req.GetString("file", ""), 0)
	if err != nil {
		return toolError(err), nil
	}
	if len(fails) == 0 {
		return mcp.NewToolResultText("no failures"), nil
	}
	return jsonResult(fails)
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
