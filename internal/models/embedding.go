// ABOUTME: Core data models for edge lists and embedding rows.
// ABOUTME: Provides the row type yielded by generators and written to the embedding table.
package models

import "strconv"

// Edge is one undirected interaction between two gene identifiers.
type Edge struct {
	A string
	B string
}

// EmbeddingRow pairs an entity identifier with its embedding vector.
type EmbeddingRow struct {
	ID     string
	Vector []float64
}

// Cells renders the row as table cells: the identifier followed by each component.
func (r EmbeddingRow) Cells() []string {
	cells := make([]string, 0, len(r.Vector)+1)
	cells = append(cells, r.ID)
	for _, v := range r.Vector {
		cells = append(cells, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return cells
}

// EmbeddingHeader returns the header row for a table of the given dimensionality:
// an empty label followed by the 1-based dimension indices.
func EmbeddingHeader(dimensions int) []string {
	header := make([]string, 0, dimensions+1)
	header = append(header, "")
	for i := 1; i <= dimensions; i++ {
		header = append(header, strconv.Itoa(i))
	}
	return header
}
