// ABOUTME: MCP tool implementations for embedding runs.
// ABOUTME: Registers generate_embedding, read_task_status, and nearest_genes tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/runner"
)

func (s *Server) registerEmbeddingTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "generate_embedding",
		Description: "Run node2vec over a PPI edge list and write ppi_emd.tsv plus task records and provenance into outdir.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"outdir": {"type": "string", "description": "Output directory, created if missing.", "minLength": 1},
				"inputdir": {"type": "string", "description": "Directory holding ppi_edgelist.tsv and optionally ro-crate-metadata.json.", "minLength": 1},
				"dimensions": {"type": "number", "description": "Embedding size (default 1024)"},
				"walk_length": {"type": "number", "description": "Nodes per random walk (default 80)"},
				"num_walks": {"type": "number", "description": "Walks per node (default 80)"},
				"workers": {"type": "number", "description": "Parallel workers (default 8)"},
				"p": {"type": "number", "description": "Return parameter (default 2)"},
				"q": {"type": "number", "description": "In-out parameter (default 1)"},
				"window": {"type": "number", "description": "Skip-gram context window (default 10)"},
				"epochs": {"type": "number", "description": "Training epochs (default 1, SNAP dialect only for other values)"},
				"seed": {"type": "number", "description": "Random seed for the fake embedder; node2vec tools reject it"},
				"fake_embedder": {"type": "boolean", "description": "Emit random vectors instead of training node2vec"},
				"skip_provenance": {"type": "boolean", "description": "Do not register an RO-Crate"},
				"skip_logging": {"type": "boolean", "description": "Do not write task records or log files"},
				"provenance": {"type": "string", "description": "Path to a provenance JSON file, used when inputdir has no RO-Crate"},
				"name": {"type": "string", "description": "RO-Crate name override"},
				"organization_name": {"type": "string", "description": "RO-Crate organization override"},
				"project_name": {"type": "string", "description": "RO-Crate project override"}
			},
			"required": ["outdir", "inputdir"]
		}`),
	}, s.handleGenerateEmbedding)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "read_task_status",
		Description: "Report the start and finish records of the latest run in an output directory.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"outdir": {"type": "string", "description": "Output directory of a previous run.", "minLength": 1}
			},
			"required": ["outdir"]
		}`),
	}, s.handleReadTaskStatus)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "nearest_genes",
		Description: "List the genes whose embeddings are most similar to a given gene.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"outdir": {"type": "string", "description": "Output directory holding ppi_emd.tsv.", "minLength": 1},
				"gene": {"type": "string", "description": "Gene identifier to query.", "minLength": 1},
				"limit": {"type": "number", "description": "Maximum number of neighbours (default 10)"}
			},
			"required": ["outdir", "gene"]
		}`),
	}, s.handleNearestGenes)
}

type generateArgs struct {
	Outdir           string  `json:"outdir"`
	InputDir         string  `json:"inputdir"`
	Dimensions       int     `json:"dimensions"`
	WalkLength       int     `json:"walk_length"`
	NumWalks         int     `json:"num_walks"`
	Workers          int     `json:"workers"`
	P                float64 `json:"p"`
	Q                float64 `json:"q"`
	Window           int     `json:"window"`
	Epochs           int     `json:"epochs"`
	Seed             *int64  `json:"seed"`
	FakeEmbedder     bool    `json:"fake_embedder"`
	SkipProvenance   bool    `json:"skip_provenance"`
	SkipLogging      bool    `json:"skip_logging"`
	Provenance       string  `json:"provenance"`
	Name             string  `json:"name"`
	OrganizationName string  `json:"organization_name"`
	ProjectName      string  `json:"project_name"`
}

// params overlays the caller's non-zero values on the defaults.
func (a generateArgs) params() embedding.Params {
	p := embedding.DefaultParams()
	if a.Dimensions != 0 {
		p.Dimensions = a.Dimensions
	}
	if a.WalkLength != 0 {
		p.WalkLength = a.WalkLength
	}
	if a.NumWalks != 0 {
		p.NumWalks = a.NumWalks
	}
	if a.Workers != 0 {
		p.Workers = a.Workers
	}
	if a.P != 0 {
		p.P = a.P
	}
	if a.Q != 0 {
		p.Q = a.Q
	}
	if a.Window != 0 {
		p.Window = a.Window
	}
	if a.Epochs != 0 {
		p.Epochs = a.Epochs
	}
	p.Seed = a.Seed
	return p
}

func (s *Server) handleGenerateEmbedding(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args generateArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Outdir == "" {
		return toolError("outdir is required"), nil
	}
	if args.InputDir == "" {
		return toolError("inputdir is required"), nil
	}

	job := runner.JobConfig{
		Outdir:           args.Outdir,
		InputDir:         args.InputDir,
		Params:           args.params(),
		Fake:             args.FakeEmbedder,
		Node2Vec:         s.node2vec,
		ProvenancePath:   args.Provenance,
		Name:             args.Name,
		OrganizationName: args.OrganizationName,
		ProjectName:      args.ProjectName,
		SkipLogging:      args.SkipLogging,
		Warnings:         s.warnings,
	}
	if !args.SkipProvenance {
		job.Registrar = s.registrar
	}
	job.CommandLineArgs = runner.CommandLineArgs(job)

	e, err := runner.NewJob(job)
	if err != nil {
		return toolError("failed to prepare run: %v", err), nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	status, err := e.Run(ctx)
	if err != nil {
		return toolError("run failed with status %d: %v", status, err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{
			Text: fmt.Sprintf("Embeddings written to %s (status %d)", e.EmbeddingPath(), status),
		}},
	}, nil
}

func (s *Server) handleReadTaskStatus(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Outdir string `json:"outdir"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Outdir == "" {
		return toolError("outdir is required"), nil
	}

	status, err := runner.ReadTaskStatus(args.Outdir)
	if err != nil {
		return toolError("failed to read task status: %v", err), nil
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return toolError("failed to encode task status: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(data)}},
	}, nil
}

func (s *Server) handleNearestGenes(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Outdir string `json:"outdir"`
		Gene   string `json:"gene"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Outdir == "" {
		return toolError("outdir is required"), nil
	}
	if args.Gene == "" {
		return toolError("gene is required"), nil
	}

	rows, err := embedding.ReadTableFile(filepath.Join(args.Outdir, runner.EmbeddingFile))
	if err != nil {
		return toolError("failed to read embeddings: %v", err), nil
	}

	results, err := embedding.Nearest(rows, args.Gene, embedding.SearchOptions{Limit: args.Limit})
	if err != nil {
		return toolError("search failed: %v", err), nil
	}

	if len(results) == 0 {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf("No other genes in %s", runner.EmbeddingFile)}},
		}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Nearest to %s:\n", args.Gene)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (%.4f)\n", i+1, r.ID, r.Score)
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
	}, nil
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
