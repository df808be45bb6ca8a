// ABOUTME: Node2Vec-backed generator that embeds every node of a PPI network.
// ABOUTME: Strips the edge list header edge and delegates training to a Node2Vec implementation.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
	"github.com/2389-research/ppiembed/internal/network"
)

// Params holds the random walk and skip-gram settings handed to node2vec.
type Params struct {
	Dimensions int
	WalkLength int
	NumWalks   int
	P          float64
	Q          float64
	Workers    int
	Window     int
	MinCount   int
	SkipGram   bool
	Epochs     int
	Seed       *int64
}

// DefaultParams returns the standard settings for PPI embeddings.
func DefaultParams() Params {
	return Params{
		Dimensions: DefaultDimensions,
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
}

// Validate rejects settings no node2vec implementation can honor.
func (p Params) Validate() error {
	switch {
	case p.Dimensions <= 0:
		return errs.Configf("dimensions must be positive, got %d", p.Dimensions)
	case p.WalkLength <= 0:
		return errs.Configf("walk length must be positive, got %d", p.WalkLength)
	case p.NumWalks <= 0:
		return errs.Configf("num walks must be positive, got %d", p.NumWalks)
	case p.P <= 0 || p.Q <= 0:
		return errs.Configf("p and q must be positive, got p=%g q=%g", p.P, p.Q)
	case p.Workers <= 0:
		return errs.Configf("workers must be positive, got %d", p.Workers)
	case p.Window <= 0:
		return errs.Configf("window must be positive, got %d", p.Window)
	case p.Epochs <= 0:
		return errs.Configf("epochs must be positive, got %d", p.Epochs)
	}
	return nil
}

// KeyedVectors is a trained model: one vector per key, in the model's key order.
type KeyedVectors struct {
	Keys    []string
	Vectors [][]float64
}

// Len returns the number of keys.
func (kv *KeyedVectors) Len() int { return len(kv.Keys) }

// Node2Vec trains embeddings for the nodes of a network.
type Node2Vec interface {
	Fit(ctx context.Context, net *network.Network, params Params) (*KeyedVectors, error)
}

// ParamChecker is implemented by Node2Vec implementations that cannot honor
// every Params setting. NewNode2VecGenerator calls it so such settings fail
// before a run starts.
type ParamChecker interface {
	CheckParams(params Params) error
}

// Node2VecOptions configures a Node2VecGenerator. Either Network or EdgeListPath must be set.
type Node2VecOptions struct {
	Network      *network.Network
	EdgeListPath string
	Params       Params
	Delegate     Node2Vec
}

// Node2VecGenerator embeds the nodes of a PPI network with node2vec.
type Node2VecGenerator struct {
	net      *network.Network
	path     string
	params   Params
	delegate Node2Vec
	consumeOnce
}

// NewNode2VecGenerator validates opts and returns a generator.
// A supplied Network is modified in place when the header edge is stripped.
func NewNode2VecGenerator(opts Node2VecOptions) (*Node2VecGenerator, error) {
	if opts.Network == nil && opts.EdgeListPath == "" {
		return nil, errs.Configf("network is nil")
	}
	if opts.Delegate == nil {
		return nil, errs.Configf("node2vec implementation is nil")
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if checker, ok := opts.Delegate.(ParamChecker); ok {
		if err := checker.CheckParams(opts.Params); err != nil {
			return nil, err
		}
	}
	return &Node2VecGenerator{
		net:      opts.Network,
		path:     opts.EdgeListPath,
		params:   opts.Params,
		delegate: opts.Delegate,
	}, nil
}

// Dimensions returns the configured embedding width.
func (g *Node2VecGenerator) Dimensions() int { return g.params.Dimensions }

// Params returns the settings passed to the delegate.
func (g *Node2VecGenerator) Params() Params { return g.params }

// Embeddings trains the model and yields one row per key in the model's order.
func (g *Node2VecGenerator) Embeddings(ctx context.Context) iter.Seq2[models.EmbeddingRow, error] {
	if err := g.claim(); err != nil {
		return failed(err)
	}
	return func(yield func(models.EmbeddingRow, error) bool) {
		net, err := g.network()
		if err != nil {
			yield(models.EmbeddingRow{}, err)
			return
		}

		if err := net.StripHeader(); err != nil {
			if !errors.Is(err, network.ErrNoEdge) {
				yield(models.EmbeddingRow{}, err)
				return
			}
			logger.Debug("no header edge to remove", "error", err)
		}

		logger.Info("training node2vec",
			"nodes", net.NumNodes(),
			"edges", net.NumEdges(),
			"dimensions", g.params.Dimensions,
			"walk_length", g.params.WalkLength,
			"num_walks", g.params.NumWalks,
			"p", g.params.P,
			"q", g.params.Q,
			"workers", g.params.Workers)

		kv, err := g.delegate.Fit(ctx, net, g.params)
		if err != nil {
			yield(models.EmbeddingRow{}, fmt.Errorf("node2vec: %w", err))
			return
		}
		if len(kv.Vectors) != len(kv.Keys) {
			yield(models.EmbeddingRow{}, errs.Dataf("node2vec returned %d keys but %d vectors", len(kv.Keys), len(kv.Vectors)))
			return
		}
		if err := checkCoverage(net.Nodes(), kv.Keys); err != nil {
			yield(models.EmbeddingRow{}, err)
			return
		}

		for i, key := range kv.Keys {
			if err := ctx.Err(); err != nil {
				yield(models.EmbeddingRow{}, err)
				return
			}
			vec := kv.Vectors[i]
			if len(vec) != g.params.Dimensions {
				yield(models.EmbeddingRow{}, errs.Dataf("vector for %s has %d dimensions, expected %d", key, len(vec), g.params.Dimensions))
				return
			}
			if !yield(models.EmbeddingRow{ID: key, Vector: vec}, nil) {
				return
			}
		}
	}
}

func (g *Node2VecGenerator) network() (*network.Network, error) {
	if g.net != nil {
		return g.net, nil
	}
	logger.Debug("reading edge list", "path", g.path)
	return network.ReadFile(g.path)
}

// checkCoverage requires exactly one key per node.
func checkCoverage(nodes, keys []string) error {
	have := make(map[string]bool, len(keys))
	for _, key := range keys {
		if have[key] {
			return errs.Dataf("node2vec returned %s more than once", key)
		}
		have[key] = true
	}
	var missing []string
	for _, node := range nodes {
		if !have[node] {
			missing = append(missing, node)
		}
	}
	if len(missing) > 0 {
		shown := missing
		if len(shown) > 5 {
			shown = shown[:5]
		}
		return errs.Dataf("node2vec returned no vector for %d of %d nodes: %s", len(missing), len(nodes), strings.Join(shown, ", "))
	}
	if len(keys) != len(nodes) {
		return errs.Dataf("node2vec returned %d vectors for %d nodes", len(keys), len(nodes))
	}
	return nil
}
