// ABOUTME: Fake generator that yields random normal vectors for testing pipelines.
// ABOUTME: Takes identifiers from the node attributes file, or from the edge list when it is absent.
package embedding

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
	"github.com/2389-research/ppiembed/internal/network"
)

// FakeOptions configures a FakeGenerator.
type FakeOptions struct {
	InputDir   string
	Dimensions int
	// Seed makes the vectors reproducible. Nil seeds from the runtime.
	Seed *uint64
	// Warnings receives the synthetic-output notice. Defaults to os.Stderr.
	Warnings io.Writer
}

// FakeGenerator yields N(0,1) vectors so downstream steps can be exercised without node2vec.
type FakeGenerator struct {
	opts FakeOptions
	consumeOnce
}

// NewFakeGenerator returns a generator over the identifiers found in opts.InputDir.
func NewFakeGenerator(opts FakeOptions) (*FakeGenerator, error) {
	if opts.InputDir == "" {
		return nil, errs.Configf("input directory is not set")
	}
	if opts.Dimensions <= 0 {
		return nil, errs.Configf("dimensions must be positive, got %d", opts.Dimensions)
	}
	if opts.Warnings == nil {
		opts.Warnings = os.Stderr
	}
	return &FakeGenerator{opts: opts}, nil
}

// Dimensions returns the configured embedding width.
func (g *FakeGenerator) Dimensions() int { return g.opts.Dimensions }

// Embeddings yields one random vector per identifier.
func (g *FakeGenerator) Embeddings(ctx context.Context) iter.Seq2[models.EmbeddingRow, error] {
	if err := g.claim(); err != nil {
		return failed(err)
	}
	return func(yield func(models.EmbeddingRow, error) bool) {
		logger.Warn("fake embedder enabled, output embeddings are random")
		_, _ = fmt.Fprintln(g.opts.Warnings, "WARNING: --fake_embedder is set, embeddings are random and not derived from the network")

		ids, err := g.identifiers()
		if err != nil {
			yield(models.EmbeddingRow{}, err)
			return
		}

		rng := g.rand()
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(models.EmbeddingRow{}, err)
				return
			}
			vec := make([]float64, g.opts.Dimensions)
			for i := range vec {
				vec[i] = rng.NormFloat64()
			}
			if !yield(models.EmbeddingRow{ID: id, Vector: vec}, nil) {
				return
			}
		}
	}
}

func (g *FakeGenerator) rand() *rand.Rand {
	if g.opts.Seed != nil {
		return rand.New(rand.NewPCG(*g.opts.Seed, *g.opts.Seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (g *FakeGenerator) identifiers() ([]string, error) {
	attrPath := filepath.Join(g.opts.InputDir, network.NodeAttributesFile)
	ids, err := readAttributeIDs(attrPath)
	if err == nil {
		logger.Debug("fake embedder identifiers from node attributes", "path", attrPath, "count", len(ids))
		return ids, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	edgePath := network.EdgeListPath(g.opts.InputDir)
	net, err := network.ReadFile(edgePath)
	if err != nil {
		return nil, err
	}
	_ = net.StripHeader()
	logger.Debug("fake embedder identifiers from edge list", "path", edgePath, "count", net.NumNodes())
	return net.Nodes(), nil
}

// readAttributeIDs returns the "name" column of a node attributes file,
// falling back to the first column when there is no such header. Repeated
// names keep their first position.
func readAttributeIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Dataf("%s: %v", path, err)
	}
	col := 0
	for i, h := range header {
		if strings.TrimSpace(h) == "name" {
			col = i
			break
		}
	}

	var ids []string
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Dataf("%s: %v", path, err)
		}
		if col >= len(record) {
			continue
		}
		if id := strings.TrimSpace(record[col]); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
