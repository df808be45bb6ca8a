// ABOUTME: Tests for the embedding MCP tools.
// ABOUTME: Drives handlers directly against temp input and output directories.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
	"github.com/2389-research/ppiembed/internal/network"
	"github.com/2389-research/ppiembed/internal/provenance"
	"github.com/2389-research/ppiembed/internal/runner"
)

// constNode2Vec gives every node a vector filled with its position.
type constNode2Vec struct{}

func (constNode2Vec) Fit(_ context.Context, net *network.Network, params embedding.Params) (*embedding.KeyedVectors, error) {
	kv := &embedding.KeyedVectors{}
	for i, node := range net.Nodes() {
		vec := make([]float64, params.Dimensions)
		for j := range vec {
			vec[j] = float64(i + 1)
		}
		kv.Keys = append(kv.Keys, node)
		kv.Vectors = append(kv.Vectors, vec)
	}
	return kv, nil
}

func makeServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(func() { logger.Init() })
	warnings := &bytes.Buffer{}
	s, err := NewServer(constNode2Vec{}, provenance.NewCrateStore(), WithWarnings(warnings))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return s, warnings
}

func makeInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	edges := "geneA\tgeneB\nABC\tDEF\nDEF\tGHI\n"
	if err := os.WriteFile(network.EdgeListPath(dir), []byte(edges), 0644); err != nil {
		t.Fatalf("failed to write edge list: %v", err)
	}
	return dir
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}

	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}

	ctx := context.Background()
	var result *gomcp.CallToolResult
	switch name {
	case "generate_embedding":
		result, err = s.handleGenerateEmbedding(ctx, req)
	case "read_task_status":
		result, err = s.handleReadTaskStatus(ctx, req)
	case "nearest_genes":
		result, err = s.handleNearestGenes(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func getTextContent(result *gomcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*gomcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func readHeader(t *testing.T, outdir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outdir, runner.EmbeddingFile))
	if err != nil {
		t.Fatalf("failed to read embeddings: %v", err)
	}
	first, _, _ := strings.Cut(string(data), "\n")
	return strings.Split(first, "\t")
}

func TestGenerateEmbeddingFake(t *testing.T) {
	s, warnings := makeServer(t)
	outdir := filepath.Join(t.TempDir(), "out")

	result := callTool(t, s, "generate_embedding", map[string]any{
		"outdir":          outdir,
		"inputdir":        makeInputDir(t),
		"dimensions":      4,
		"fake_embedder":   true,
		"skip_provenance": true,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if !strings.Contains(getTextContent(result), "status 0") {
		t.Errorf("unexpected result %q", getTextContent(result))
	}
	if got := len(readHeader(t, outdir)); got != 5 {
		t.Errorf("expected 5 header cells, got %d", got)
	}
	if !strings.Contains(warnings.String(), "WARNING") {
		t.Error("expected fake embedder warning")
	}
	if _, err := os.Stat(provenance.CratePath(outdir)); !os.IsNotExist(err) {
		t.Error("expected no crate when provenance is skipped")
	}
}

func TestGenerateEmbeddingRegistersCrate(t *testing.T) {
	s, _ := makeServer(t)
	inputDir := makeInputDir(t)
	err := provenance.NewCrateStore().RegisterROCrate(context.Background(), inputDir, models.CrateMetadata{
		Name:             "PPI network",
		OrganizationName: "Lab",
		ProjectName:      "Cell Maps",
	})
	if err != nil {
		t.Fatalf("RegisterROCrate error: %v", err)
	}
	outdir := filepath.Join(t.TempDir(), "out")

	result := callTool(t, s, "generate_embedding", map[string]any{
		"outdir":     outdir,
		"inputdir":   inputDir,
		"dimensions": 3,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if _, err := os.Stat(provenance.CratePath(outdir)); err != nil {
		t.Errorf("expected output crate: %v", err)
	}
	if got := len(readHeader(t, outdir)); got != 4 {
		t.Errorf("expected 4 header cells, got %d", got)
	}
}

func TestGenerateEmbeddingMissingEdgeList(t *testing.T) {
	s, _ := makeServer(t)

	result := callTool(t, s, "generate_embedding", map[string]any{
		"outdir":          filepath.Join(t.TempDir(), "out"),
		"inputdir":        t.TempDir(),
		"skip_provenance": true,
	})
	if !result.IsError {
		t.Fatal("expected error for missing edge list")
	}
	if !strings.Contains(getTextContent(result), "status 3") {
		t.Errorf("expected configuration status, got %q", getTextContent(result))
	}
}

func TestGenerateEmbeddingRequiredArgs(t *testing.T) {
	s, _ := makeServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no outdir", map[string]any{"inputdir": "in"}, "outdir is required"},
		{"no inputdir", map[string]any{"outdir": "out"}, "inputdir is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, "generate_embedding", tt.args)
			if !result.IsError {
				t.Fatal("expected error")
			}
			if getTextContent(result) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, getTextContent(result))
			}
		})
	}
}

func TestGenerateEmbeddingSeedRejectedByTool(t *testing.T) {
	t.Cleanup(func() { logger.Init() })
	n2v := &embedding.ExecNode2Vec{Command: "node2vec", Dialect: embedding.DialectSMORe}
	s, err := NewServer(n2v, provenance.NewCrateStore(), WithWarnings(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}

	outdir := filepath.Join(t.TempDir(), "out")
	result := callTool(t, s, "generate_embedding", map[string]any{
		"outdir":          outdir,
		"inputdir":        makeInputDir(t),
		"seed":            42,
		"skip_provenance": true,
	})
	if !result.IsError {
		t.Fatal("expected error for a seed the node2vec tool cannot apply")
	}
	if !strings.Contains(getTextContent(result), "cannot apply seed") {
		t.Errorf("unexpected message %q", getTextContent(result))
	}
	if _, err := os.Stat(outdir); !os.IsNotExist(err) {
		t.Errorf("expected no outdir, got %v", err)
	}
}

func TestGenerateArgsParams(t *testing.T) {
	seed := int64(7)
	p := generateArgs{Dimensions: 16, P: 0.5, Window: 5, Epochs: 3, Seed: &seed}.params()
	if p.Dimensions != 16 || p.P != 0.5 || p.Window != 5 || p.Epochs != 3 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.WalkLength != 80 || p.Q != 1 {
		t.Errorf("defaults not kept: %+v", p)
	}
	if p.Seed == nil || *p.Seed != 7 {
		t.Error("expected seed to be passed through")
	}
}

func TestReadTaskStatus(t *testing.T) {
	s, _ := makeServer(t)
	outdir := filepath.Join(t.TempDir(), "out")
	result := callTool(t, s, "generate_embedding", map[string]any{
		"outdir":          outdir,
		"inputdir":        makeInputDir(t),
		"dimensions":      2,
		"fake_embedder":   true,
		"skip_provenance": true,
	})
	if result.IsError {
		t.Fatalf("generate failed: %s", getTextContent(result))
	}

	result = callTool(t, s, "read_task_status", map[string]string{"outdir": outdir})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	var status runner.TaskStatus
	if err := json.Unmarshal([]byte(getTextContent(result)), &status); err != nil {
		t.Fatalf("failed to parse status: %v", err)
	}
	if status.Finish == nil {
		t.Fatal("expected finish record")
	}
	if status.Finish.Status != 0 {
		t.Errorf("expected status 0, got %d", status.Finish.Status)
	}
}

func TestReadTaskStatusEmptyDir(t *testing.T) {
	s, _ := makeServer(t)

	result := callTool(t, s, "read_task_status", map[string]string{"outdir": t.TempDir()})
	if !result.IsError {
		t.Error("expected error for directory without task records")
	}
}

func writeTable(t *testing.T, outdir string) {
	t.Helper()
	table := "\t1\t2\n" +
		"ABC\t1\t0\n" +
		"DEF\t0.9\t0.1\n" +
		"GHI\t0\t1\n" +
		"JKL\t-1\t0\n"
	if err := os.WriteFile(filepath.Join(outdir, runner.EmbeddingFile), []byte(table), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}
}

func TestNearestGenes(t *testing.T) {
	s, _ := makeServer(t)
	outdir := t.TempDir()
	writeTable(t, outdir)

	result := callTool(t, s, "nearest_genes", map[string]any{"outdir": outdir, "gene": "ABC", "limit": 2})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}

	text := getTextContent(result)
	if !strings.Contains(text, "1. DEF") {
		t.Errorf("expected DEF first, got %q", text)
	}
	if !strings.Contains(text, "2. GHI") {
		t.Errorf("expected GHI second, got %q", text)
	}
	if strings.Contains(text, "JKL") {
		t.Errorf("expected limit to drop JKL, got %q", text)
	}
}

func TestNearestGenesErrors(t *testing.T) {
	s, _ := makeServer(t)
	outdir := t.TempDir()
	writeTable(t, outdir)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown gene", map[string]any{"outdir": outdir, "gene": "XYZ"}},
		{"missing table", map[string]any{"outdir": t.TempDir(), "gene": "ABC"}},
		{"no gene", map[string]any{"outdir": outdir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, "nearest_genes", tt.args)
			if !result.IsError {
				t.Errorf("expected error, got %q", getTextContent(result))
			}
		})
	}
}
