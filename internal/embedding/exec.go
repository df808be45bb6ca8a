// ABOUTME: Node2Vec implementation that runs an external node2vec executable.
// ABOUTME: Writes the graph to a scratch dir, supports SMORe and SNAP flag dialects, and parses word2vec text output.
package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/network"
)

// Dialect selects the command-line flag convention of the external tool.
type Dialect string

// Supported dialects.
const (
	DialectSMORe Dialect = "smore"
	DialectSNAP  Dialect = "snap"
)

// ParseDialect converts a configured dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectSMORe, DialectSNAP:
		return d, nil
	case "":
		return DialectSMORe, nil
	default:
		return "", errs.Configf("unknown node2vec dialect %q (expected smore or snap)", name)
	}
}

const (
	graphFileName  = "graph.edgelist"
	vectorFileName = "graph.emb"
)

// ExecNode2Vec trains embeddings by running an external node2vec binary.
type ExecNode2Vec struct {
	Command string
	Dialect Dialect
	// Loss receives per-epoch loss lines from the tool output. Optional.
	Loss LossSink
	// ScratchDir is the parent for per-run temp dirs. Empty means os.TempDir.
	ScratchDir string
}

// Fit writes net with integer node ids, runs the tool, and reads back the vectors.
func (e *ExecNode2Vec) Fit(ctx context.Context, net *network.Network, params Params) (*KeyedVectors, error) {
	if e.Command == "" {
		return nil, errs.Configf("node2vec command is not set")
	}
	dialect := e.dialect()
	if err := checkDialect(dialect, params); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.ScratchDir, "ppiembed-node2vec-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	graphPath := filepath.Join(dir, graphFileName)
	vectorPath := filepath.Join(dir, vectorFileName)
	names, err := writeGraph(graphPath, net, dialect)
	if err != nil {
		return nil, err
	}

	args, env := commandLine(dialect, graphPath, vectorPath, params)
	logger.Debug("running node2vec", "command", e.Command, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errs.Configf("failed to start %s: %v", e.Command, err)
	}

	var g errgroup.Group
	g.Go(func() error { return e.drain(stdout, "stdout") })
	g.Go(func() error { return e.drain(stderr, "stderr") })
	drainErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s failed: %w", e.Command, err)
	}
	if drainErr != nil {
		return nil, fmt.Errorf("failed to read node2vec output: %w", drainErr)
	}

	f, err := os.Open(vectorPath)
	if err != nil {
		return nil, errs.Dataf("node2vec produced no vectors: %v", err)
	}
	defer func() { _ = f.Close() }()
	return ReadVectors(f, names, params.Dimensions)
}

func (e *ExecNode2Vec) dialect() Dialect {
	if e.Dialect == "" {
		return DialectSMORe
	}
	return e.Dialect
}

// CheckParams rejects settings the configured dialect has no flag for.
func (e *ExecNode2Vec) CheckParams(params Params) error {
	return checkDialect(e.dialect(), params)
}

// checkDialect fails on non-default settings the tool would silently ignore.
// Both tools train skip-gram over every node, so only the defaults of
// min_count and skip_gram are expressible. Neither takes a seed, and SMORe
// has no epoch count.
func checkDialect(dialect Dialect, p Params) error {
	defaults := DefaultParams()
	var unsupported []string
	if p.Seed != nil {
		unsupported = append(unsupported, "seed")
	}
	if p.MinCount != defaults.MinCount {
		unsupported = append(unsupported, fmt.Sprintf("min_count=%d", p.MinCount))
	}
	if p.SkipGram != defaults.SkipGram {
		unsupported = append(unsupported, "skip_gram=false")
	}
	if dialect == DialectSMORe && p.Epochs != defaults.Epochs {
		unsupported = append(unsupported, fmt.Sprintf("epochs=%d", p.Epochs))
	}
	if len(unsupported) > 0 {
		return errs.Configf("node2vec dialect %s cannot apply %s", dialect, strings.Join(unsupported, ", "))
	}
	return nil
}

func (e *ExecNode2Vec) drain(r io.Reader, stream string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("node2vec", "stream", stream, "line", line)
		if e.Loss != nil {
			if epoch, loss, ok := parseLoss(line); ok {
				e.Loss.ReportLoss(epoch, loss)
			}
		}
	}
	return scanner.Err()
}

// writeGraph writes one line per edge using node positions as ids.
// SMORe expects a weight column; SNAP does not.
func writeGraph(path string, net *network.Network, dialect Dialect) ([]string, error) {
	names := net.Nodes()
	ids := make(map[string]int, len(names))
	for i, name := range names {
		ids[name] = i
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, edge := range net.Edges() {
		if dialect == DialectSMORe {
			_, err = fmt.Fprintf(w, "%d %d 1\n", ids[edge.A], ids[edge.B])
		} else {
			_, err = fmt.Fprintf(w, "%d %d\n", ids[edge.A], ids[edge.B])
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write graph file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write graph file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close graph file: %w", err)
	}
	return names, nil
}

// commandLine renders params as argv for the dialect. Settings without a flag
// must have been rejected by checkDialect.
func commandLine(dialect Dialect, graphPath, vectorPath string, p Params) (args, env []string) {
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	if dialect == DialectSNAP {
		args = []string{
			"-i:" + graphPath,
			"-o:" + vectorPath,
			"-d:" + strconv.Itoa(p.Dimensions),
			"-l:" + strconv.Itoa(p.WalkLength),
			"-r:" + strconv.Itoa(p.NumWalks),
			"-k:" + strconv.Itoa(p.Window),
			"-e:" + strconv.Itoa(p.Epochs),
			"-p:" + format(p.P),
			"-q:" + format(p.Q),
		}
		env = []string{"OMP_NUM_THREADS=" + strconv.Itoa(p.Workers)}
		return args, env
	}

	args = []string{
		"-train", graphPath,
		"-save", vectorPath,
		"-undirected",
		"-dimensions", strconv.Itoa(p.Dimensions),
		"-p", format(p.P),
		"-q", format(p.Q),
		"-walk_times", strconv.Itoa(p.NumWalks),
		"-walk_steps", strconv.Itoa(p.WalkLength),
		"-window_size", strconv.Itoa(p.Window),
		"-threads", strconv.Itoa(p.Workers),
	}
	return args, nil
}

// ReadVectors parses word2vec text output: an optional "count dimensions" line,
// then one line per node with its integer id followed by the vector components.
// Ids index into names. Rows keep the file's order. Every name must get a vector.
func ReadVectors(r io.Reader, names []string, dimensions int) (*KeyedVectors, error) {
	kv := &KeyedVectors{}
	seen := make(map[int]bool, len(names))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 && fields[1] == strconv.Itoa(dimensions) {
			if _, err := strconv.Atoi(fields[0]); err == nil && dimensions != 1 {
				continue
			}
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil || id < 0 || id >= len(names) {
			return nil, errs.Dataf("vector line %d: unknown node id %q", lineNo, fields[0])
		}
		if seen[id] {
			return nil, errs.Dataf("vector line %d: duplicate node id %d", lineNo, id)
		}
		if len(fields)-1 != dimensions {
			return nil, errs.Dataf("vector line %d: got %d dimensions, expected %d", lineNo, len(fields)-1, dimensions)
		}

		vec := make([]float64, dimensions)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errs.Dataf("vector line %d: %v", lineNo, err)
			}
			vec[i] = v
		}
		seen[id] = true
		kv.Keys = append(kv.Keys, names[id])
		kv.Vectors = append(kv.Vectors, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Dataf("failed to read vectors: %v", err)
	}
	if err := checkCoverage(names, kv.Keys); err != nil {
		return nil, err
	}
	return kv, nil
}
