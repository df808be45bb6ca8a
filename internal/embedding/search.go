// ABOUTME: Nearest-neighbour lookup over a written embedding table.
// ABOUTME: Reads ppi_emd.tsv back into rows and ranks genes by cosine similarity.
package embedding

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/models"
)

// SearchResult pairs a gene identifier with its similarity to the query gene.
type SearchResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SearchOptions configures a nearest-neighbour search.
type SearchOptions struct {
	Limit int
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ReadTable parses an embedding table: a header row, then an identifier and
// its vector components per row.
func ReadTable(r io.Reader) ([]models.EmbeddingRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errs.Dataf("embedding table is empty")
	}
	if err != nil {
		return nil, errs.Dataf("failed to read embedding table header: %v", err)
	}
	dimensions := len(header) - 1

	var rows []models.EmbeddingRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Dataf("failed to read embedding table: %v", err)
		}
		vec := make([]float64, dimensions)
		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errs.Dataf("row %s: %v", record[0], err)
			}
			vec[i] = v
		}
		rows = append(rows, models.EmbeddingRow{ID: record[0], Vector: vec})
	}
	return rows, nil
}

// ReadTableFile reads an embedding table from path.
func ReadTableFile(path string) ([]models.EmbeddingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Configf("%s is not a file", path)
	}
	defer func() { _ = f.Close() }()
	return ReadTable(f)
}

// Nearest ranks every other row by cosine similarity to the row named id.
func Nearest(rows []models.EmbeddingRow, id string, opts SearchOptions) ([]SearchResult, error) {
	var query []float64
	found := false
	for _, row := range rows {
		if row.ID == id {
			query = row.Vector
			found = true
			break
		}
	}
	if !found {
		return nil, errs.Dataf("%s is not in the embedding table", id)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		if row.ID == id {
			continue
		}
		results = append(results, SearchResult{
			ID:    row.ID,
			Score: CosineSimilarity(query, row.Vector),
		})
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(results) {
		limit = len(results)
	}

	return results[:limit], nil
}
