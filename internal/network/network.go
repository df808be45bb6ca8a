// ABOUTME: In-memory PPI network built from a tab-separated edge list.
// ABOUTME: Keeps nodes in first-appearance order and supports edge and node removal.
package network

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/models"
)

// File names inside an input directory.
const (
	EdgeListFile       = "ppi_edgelist.tsv"
	NodeAttributesFile = "ppi_gene_node_attributes.tsv"
)

// Column labels of the edge list header row.
const (
	HeaderA = "geneA"
	HeaderB = "geneB"
)

// ErrNoEdge is returned by RemoveEdge when the edge is not in the network.
var ErrNoEdge = errors.New("edge not in network")

// Network is an undirected multigraph over string identifiers.
type Network struct {
	edges []models.Edge
	nodes []string
	index map[string]int
}

// New returns an empty network.
func New() *Network {
	return &Network{index: make(map[string]int)}
}

// EdgeListPath returns the edge list location inside an input directory.
func EdgeListPath(inputDir string) string {
	return filepath.Join(inputDir, EdgeListFile)
}

// AddEdge appends an edge, registering unseen endpoints in order.
func (n *Network) AddEdge(a, b string) {
	n.addNode(a)
	n.addNode(b)
	n.edges = append(n.edges, models.Edge{A: a, B: b})
}

func (n *Network) addNode(id string) {
	if _, ok := n.index[id]; ok {
		return
	}
	n.index[id] = len(n.nodes)
	n.nodes = append(n.nodes, id)
}

// Nodes returns node identifiers in first-appearance order.
func (n *Network) Nodes() []string {
	return append([]string(nil), n.nodes...)
}

// Edges returns a copy of the edge list.
func (n *Network) Edges() []models.Edge {
	return append([]models.Edge(nil), n.edges...)
}

// NumNodes returns the number of distinct identifiers.
func (n *Network) NumNodes() int { return len(n.nodes) }

// NumEdges returns the number of edges, duplicates included.
func (n *Network) NumEdges() int { return len(n.edges) }

// HasNode reports whether id is a node of the network.
func (n *Network) HasNode(id string) bool {
	_, ok := n.index[id]
	return ok
}

// RemoveEdge removes every a-b edge in either direction.
// Returns ErrNoEdge when there is none.
func (n *Network) RemoveEdge(a, b string) error {
	kept := n.edges[:0]
	removed := false
	for _, e := range n.edges {
		if (e.A == a && e.B == b) || (e.A == b && e.B == a) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	n.edges = kept
	if !removed {
		return fmt.Errorf("%s -> %s: %w", a, b, ErrNoEdge)
	}
	return nil
}

// RemoveNodes removes the given nodes and their incident edges. Unknown ids are ignored.
func (n *Network) RemoveNodes(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if n.HasNode(id) {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	kept := n.edges[:0]
	for _, e := range n.edges {
		if drop[e.A] || drop[e.B] {
			continue
		}
		kept = append(kept, e)
	}
	n.edges = kept

	nodes := make([]string, 0, len(n.nodes))
	index := make(map[string]int, len(n.nodes))
	for _, id := range n.nodes {
		if drop[id] {
			continue
		}
		index[id] = len(nodes)
		nodes = append(nodes, id)
	}
	n.nodes = nodes
	n.index = index
}

// Read parses a tab-separated edge list. Every row, including a header row,
// becomes an edge between its first two columns; extra columns are ignored.
// Blank lines are skipped.
func Read(r io.Reader) (*Network, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	n := New()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Dataf("failed to parse edge list: %v", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			line, _ := reader.FieldPos(0)
			return nil, errs.Dataf("edge list line %d: expected 2 columns, got %d", line, len(record))
		}
		n.AddEdge(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]))
	}
	return n, nil
}

// ReadFile reads an edge list from path.
func ReadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Configf("%s is not a file", path)
	}
	defer func() { _ = f.Close() }()

	n, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// StripHeader removes the geneA-geneB edge that a header row turns into, along with
// the geneA and geneB nodes. The returned error wraps ErrNoEdge when the edge was absent;
// the nodes are removed either way.
func (n *Network) StripHeader() error {
	err := n.RemoveEdge(HeaderA, HeaderB)
	n.RemoveNodes(HeaderA, HeaderB)
	return err
}
