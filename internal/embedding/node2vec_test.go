// ABOUTME: Tests for the node2vec generator using an in-process stand-in trainer.
// ABOUTME: Covers header stripping, parameter passing, node coverage, and single consumption.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/network"
)

// stubNode2Vec returns one constant vector per node, in reverse node order.
type stubNode2Vec struct {
	gotParams Params
	gotNodes  []string
	err       error
	width     int
	drop      int
}

func (s *stubNode2Vec) Fit(_ context.Context, net *network.Network, params Params) (*KeyedVectors, error) {
	s.gotParams = params
	s.gotNodes = net.Nodes()
	if s.err != nil {
		return nil, s.err
	}
	width := params.Dimensions
	if s.width > 0 {
		width = s.width
	}
	kv := &KeyedVectors{}
	nodes := net.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		vec := make([]float64, width)
		for j := range vec {
			vec[j] = float64(i)
		}
		kv.Keys = append(kv.Keys, nodes[i])
		kv.Vectors = append(kv.Vectors, vec)
	}
	kv.Keys = kv.Keys[s.drop:]
	kv.Vectors = kv.Vectors[s.drop:]
	return kv, nil
}

func smallParams() Params {
	p := DefaultParams()
	p.Dimensions = 4
	return p
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	want := Params{
		Dimensions: 1024,
		WalkLength: 80,
		NumWalks:   80,
		P:          2,
		Q:          1,
		Workers:    8,
		Window:     10,
		MinCount:   0,
		SkipGram:   true,
		Epochs:     1,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero dimensions", func(p *Params) { p.Dimensions = 0 }},
		{"negative walk length", func(p *Params) { p.WalkLength = -1 }},
		{"zero num walks", func(p *Params) { p.NumWalks = 0 }},
		{"zero p", func(p *Params) { p.P = 0 }},
		{"negative q", func(p *Params) { p.Q = -1 }},
		{"zero workers", func(p *Params) { p.Workers = 0 }},
		{"zero window", func(p *Params) { p.Window = 0 }},
		{"zero epochs", func(p *Params) { p.Epochs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); !errs.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNewNode2VecGeneratorRequiresNetwork(t *testing.T) {
	_, err := NewNode2VecGenerator(Node2VecOptions{Params: smallParams(), Delegate: &stubNode2Vec{}})
	if err == nil || err.Error() != "network is nil" {
		t.Fatalf("expected 'network is nil', got %v", err)
	}
	if !errs.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %T", err)
	}
}

func TestNode2VecGeneratorStripsHeader(t *testing.T) {
	net := network.New()
	net.AddEdge("geneA", "geneB")
	net.AddEdge("ABC", "DEF")
	net.AddEdge("DEF", "GHI")

	stub := &stubNode2Vec{}
	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: stub})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}

	rows, err := Collect(context.Background(), g)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if diff := cmp.Diff([]string{"ABC", "DEF", "GHI"}, stub.gotNodes); diff != "" {
		t.Errorf("delegate nodes mismatch (-want +got):\n%s", diff)
	}
	var ids []string
	for _, row := range rows {
		ids = append(ids, row.ID)
		if len(row.Vector) != 4 {
			t.Errorf("row %s has %d dimensions, want 4", row.ID, len(row.Vector))
		}
	}
	// Rows follow the delegate's key order, which the stub reverses.
	if diff := cmp.Diff([]string{"GHI", "DEF", "ABC"}, ids); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
}

func TestNode2VecGeneratorWithoutHeader(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	rows, err := Collect(context.Background(), g)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestNode2VecGeneratorPassesParams(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	seed := int64(42)
	params := smallParams()
	params.WalkLength = 5
	params.NumWalks = 3
	params.P = 0.5
	params.Q = 4
	params.Workers = 2
	params.Seed = &seed

	stub := &stubNode2Vec{}
	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: params, Delegate: stub})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	if _, err := Collect(context.Background(), g); err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if diff := cmp.Diff(params, stub.gotParams); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestNode2VecGeneratorRejectsUnsupportedParams(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	seed := int64(42)
	params := smallParams()
	params.Seed = &seed

	_, err := NewNode2VecGenerator(Node2VecOptions{
		Network:  net,
		Params:   params,
		Delegate: &ExecNode2Vec{Command: "node2vec", Dialect: DialectSMORe},
	})
	if !errs.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNode2VecGeneratorOneRowPerNode(t *testing.T) {
	net := network.New()
	net.AddEdge("geneA", "geneB")
	for i := range 25 {
		net.AddEdge(fmt.Sprintf("G%02d", i), fmt.Sprintf("G%02d", (i+1)%25))
	}
	net.AddEdge("G03", "G17")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	rows, err := Collect(context.Background(), g)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		ids[row.ID] = true
	}
	if len(rows) != 25 || len(ids) != 25 {
		t.Errorf("expected 25 distinct rows, got %d rows with %d ids", len(rows), len(ids))
	}
}

func TestNode2VecGeneratorMissingNode(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")
	net.AddEdge("DEF", "GHI")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{drop: 1}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	rows, err := Collect(context.Background(), g)
	if !errs.IsData(err) {
		t.Fatalf("expected data error, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows before the coverage check, got %d", len(rows))
	}
}

func TestNode2VecGeneratorFromEdgeListPath(t *testing.T) {
	dir := t.TempDir()
	path := network.EdgeListPath(dir)
	if err := os.WriteFile(path, []byte("geneA\tgeneB\nABC\tDEF\n"), 0644); err != nil {
		t.Fatalf("failed to write edge list: %v", err)
	}

	stub := &stubNode2Vec{}
	g, err := NewNode2VecGenerator(Node2VecOptions{EdgeListPath: path, Params: smallParams(), Delegate: stub})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	rows, err := Collect(context.Background(), g)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestNode2VecGeneratorMissingEdgeList(t *testing.T) {
	g, err := NewNode2VecGenerator(Node2VecOptions{
		EdgeListPath: filepath.Join(t.TempDir(), "nope.tsv"),
		Params:       smallParams(),
		Delegate:     &stubNode2Vec{},
	})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	_, err = Collect(context.Background(), g)
	if !errs.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNode2VecGeneratorDelegateFailure(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")
	boom := errors.New("boom")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{err: boom}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	rows, err := Collect(context.Background(), g)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped delegate error, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestNode2VecGeneratorWidthMismatch(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{width: 3}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	if _, err := Collect(context.Background(), g); !errs.IsData(err) {
		t.Errorf("expected data error, got %v", err)
	}
}

func TestNode2VecGeneratorConsumedOnce(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	if _, err := Collect(context.Background(), g); err != nil {
		t.Fatalf("first Collect error: %v", err)
	}
	if _, err := Collect(context.Background(), g); !errs.IsData(err) {
		t.Errorf("expected data error on second consumption, got %v", err)
	}
}

func TestNode2VecGeneratorCancelled(t *testing.T) {
	net := network.New()
	net.AddEdge("ABC", "DEF")

	g, err := NewNode2VecGenerator(Node2VecOptions{Network: net, Params: smallParams(), Delegate: &stubNode2Vec{}})
	if err != nil {
		t.Fatalf("NewNode2VecGenerator error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Collect(ctx, g); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
