// ABOUTME: Generator interface for producing per-entity embedding rows.
// ABOUTME: Generators are lazy, finite, and may be consumed only once.
package embedding

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/models"
)

// DefaultDimensions is the embedding width used when none is configured.
const DefaultDimensions = 1024

// Generator produces embedding rows for a set of entities.
type Generator interface {
	// Dimensions returns the width of every vector the generator yields.
	Dimensions() int

	// Embeddings yields one row per entity. A non-nil error ends the sequence.
	// Calling Embeddings a second time yields a DataError.
	Embeddings(ctx context.Context) iter.Seq2[models.EmbeddingRow, error]
}

// Collect drains a generator into a slice.
func Collect(ctx context.Context, g Generator) ([]models.EmbeddingRow, error) {
	var rows []models.EmbeddingRow
	for row, err := range g.Embeddings(ctx) {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type consumeOnce struct {
	used atomic.Bool
}

func (c *consumeOnce) claim() error {
	if c.used.Swap(true) {
		return errs.Dataf("embeddings already consumed")
	}
	return nil
}

func failed(err error) iter.Seq2[models.EmbeddingRow, error] {
	return func(yield func(models.EmbeddingRow, error) bool) {
		yield(models.EmbeddingRow{}, err)
	}
}
