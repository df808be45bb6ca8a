// ABOUTME: Tests for embedding row rendering and table header layout.
// ABOUTME: Verifies header width matches row width for a given dimensionality.
package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmbeddingHeader(t *testing.T) {
	got := EmbeddingHeader(4)
	want := []string{"", "1", "2", "3", "4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EmbeddingHeader(4) mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddingRowCells(t *testing.T) {
	row := EmbeddingRow{ID: "ABC", Vector: []float64{0.5, -1, 1e-05, 2.25}}
	got := row.Cells()
	want := []string{"ABC", "0.5", "-1", "1e-05", "2.25"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}
	if len(got) != len(EmbeddingHeader(len(row.Vector))) {
		t.Error("row width should equal header width")
	}
}
