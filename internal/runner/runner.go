// ABOUTME: Embedder orchestrates one embedding run: validate, write the table, register provenance.
// ABOUTME: Writes task start and finish records around the run and maps failures to exit statuses.
package runner

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
	"github.com/2389-research/ppiembed/internal/network"
	"github.com/2389-research/ppiembed/internal/provenance"
)

// EmbeddingFile is the embedding table written into the output directory.
const EmbeddingFile = "ppi_emd.tsv"

// Tool identity recorded in task records and software registrations.
const (
	ToolName        = "ppiembed"
	ToolDescription = "Generates node2vec embeddings of protein-protein interaction networks"
	ToolAuthor      = "2389 Research"
	ToolURL         = "https://github.com/2389-research/ppiembed"
)

// Version is the tool version. Set at build time with -ldflags "-X".
var Version = "0.1.0"

// Options configures an Embedder.
type Options struct {
	// Outdir receives the embedding table, task records, logs, and RO-Crate.
	Outdir string
	// InputDir holds the input RO-Crate and edge list.
	InputDir string
	// EdgeListPath is checked during validation when set.
	EdgeListPath string
	Generator    embedding.Generator
	// Registrar records provenance. Nil skips registration.
	Registrar provenance.Registrar
	// Provenance describes the input when InputDir has no RO-Crate.
	Provenance *models.ProvenanceContext
	// Name, OrganizationName, and ProjectName override the input crate's values.
	Name             string
	OrganizationName string
	ProjectName      string
	SkipLogging      bool
	// CommandLineArgs is the effective configuration recorded in task records.
	CommandLineArgs map[string]any
}

// Embedder runs one embedding job. Create with New; Run may be called once.
type Embedder struct {
	opts       Options
	state      atomic.Int32
	start      time.Time
	recordKey  int64
	started    bool
	inputCrate *provenance.InputCrate
	now        func() time.Time
}

// New validates the static options and returns an Embedder.
func New(opts Options) (*Embedder, error) {
	if opts.Outdir == "" {
		return nil, errs.Configf("outdir is not set")
	}
	outdir, err := filepath.Abs(opts.Outdir)
	if err != nil {
		return nil, errs.Configf("invalid outdir %s: %v", opts.Outdir, err)
	}
	opts.Outdir = outdir
	return &Embedder{opts: opts, now: time.Now}, nil
}

// State returns the current lifecycle state.
func (e *Embedder) State() State {
	return State(e.state.Load())
}

// Outdir returns the absolute output directory.
func (e *Embedder) Outdir() string { return e.opts.Outdir }

// EmbeddingPath returns the embedding table location.
func (e *Embedder) EmbeddingPath() string {
	return filepath.Join(e.opts.Outdir, EmbeddingFile)
}

// StartTime returns the unix second the run started, or 0 before Run.
func (e *Embedder) StartTime() int64 {
	if e.start.IsZero() {
		return 0
	}
	return e.start.Unix()
}

func (e *Embedder) transition(to State) {
	from := State(e.state.Swap(int32(to)))
	logger.Debug("embedder state", "from", from, "to", to)
}

// RecordKey returns the number naming this run's task records, or 0 before
// the start record is written.
func (e *Embedder) RecordKey() int64 { return e.recordKey }

// Run executes the job and returns its exit status with the error that caused
// a non-zero status. Once the start record is written, a matching finish
// record is written on every path.
func (e *Embedder) Run(ctx context.Context) (status int, err error) {
	if e.State() != StateUnstarted {
		return errs.ExitConfiguration, errs.Configf("embedder has already run")
	}
	e.start = e.now()
	status = errs.ExitUnknown
	var closeLogs func() error

	defer func() {
		if err != nil {
			status = errs.ExitCode(err)
			logger.Error("embedding run failed", "status", status, "error", err)
			e.transition(StateFailed)
		}
		e.transition(StateFinalizing)
		if e.started {
			if finishErr := e.writeFinish(status); finishErr != nil {
				logger.Error("failed to write task finish record", "error", finishErr)
			}
		}
		if closeLogs != nil {
			if closeErr := closeLogs(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
	}()

	e.transition(StateValidating)
	if err = e.validate(); err != nil {
		return status, err
	}

	e.transition(StatePreparing)
	if err = os.MkdirAll(e.opts.Outdir, 0755); err != nil {
		return status, errs.Configf("failed to create outdir %s: %v", e.opts.Outdir, err)
	}
	if !e.opts.SkipLogging {
		closeLogs, err = logger.SetupFileLoggers(e.opts.Outdir)
		if err != nil {
			return status, fmt.Errorf("failed to set up log files: %w", err)
		}
		if err = e.writeStart(); err != nil {
			return status, err
		}
	}

	logger.Info("generating embeddings", "outdir", e.opts.Outdir, "dimensions", e.opts.Generator.Dimensions())
	if err = e.writeEmbeddings(ctx); err != nil {
		return status, err
	}

	if e.opts.Registrar != nil {
		e.transition(StateRegistering)
		if err = e.register(ctx); err != nil {
			return status, err
		}
	}

	status = errs.ExitSuccess
	e.transition(StateSucceeded)
	logger.Info("embedding run finished", "outdir", e.opts.Outdir)
	return status, nil
}

func (e *Embedder) validate() error {
	if e.opts.Generator == nil {
		return errs.Configf("embedding generator is not set")
	}
	if e.opts.Generator.Dimensions() <= 0 {
		return errs.Configf("dimensions must be positive, got %d", e.opts.Generator.Dimensions())
	}
	if e.opts.EdgeListPath != "" {
		info, err := os.Stat(e.opts.EdgeListPath)
		if err != nil || !info.Mode().IsRegular() {
			return errs.Configf("%s is not a file", e.opts.EdgeListPath)
		}
	}
	if e.opts.Registrar == nil {
		return nil
	}

	if e.opts.InputDir != "" {
		crate, err := e.opts.Registrar.ReadInputCrate(e.opts.InputDir)
		if err == nil {
			e.inputCrate = crate
			return nil
		}
		if e.opts.Provenance == nil {
			return errs.Configf("no %s in %s and no provenance file given: %v", provenance.CrateFile, e.opts.InputDir, err)
		}
		logger.Debug("input has no RO-Crate, using provenance file", "inputdir", e.opts.InputDir)
	}
	if e.opts.Provenance == nil {
		return errs.Configf("provenance requires an input RO-Crate or a provenance file")
	}
	if e.edgeListPath() == "" {
		return errs.Configf("provenance file given but no edge list to register")
	}
	return nil
}

func (e *Embedder) edgeListPath() string {
	if e.opts.EdgeListPath != "" {
		return e.opts.EdgeListPath
	}
	if e.opts.InputDir != "" {
		return network.EdgeListPath(e.opts.InputDir)
	}
	return ""
}

func (e *Embedder) writeEmbeddings(ctx context.Context) error {
	e.transition(StateGenerating)
	dims := e.opts.Generator.Dimensions()

	f, err := os.OpenFile(e.EmbeddingPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", e.EmbeddingPath(), err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(models.EmbeddingHeader(dims)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	count := 0
	for row, err := range e.opts.Generator.Embeddings(ctx) {
		if err != nil {
			w.Flush()
			return err
		}
		if count == 0 {
			e.transition(StateWriting)
		}
		if len(row.Vector) != dims {
			w.Flush()
			return errs.Dataf("row %s has %d dimensions, expected %d", row.ID, len(row.Vector), dims)
		}
		if err := w.Write(row.Cells()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.ID, err)
		}
		count++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.EmbeddingPath(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", e.EmbeddingPath(), err)
	}
	logger.Info("wrote embeddings", "path", e.EmbeddingPath(), "rows", count)
	return nil
}

func (e *Embedder) register(ctx context.Context) error {
	reg := e.opts.Registrar
	outdir := e.opts.Outdir

	crateMeta := e.crateMetadata()
	logger.Debug("registering rocrate", "name", crateMeta.Name, "organization", crateMeta.OrganizationName, "project", crateMeta.ProjectName)
	if err := reg.RegisterROCrate(ctx, outdir, crateMeta); err != nil {
		return err
	}

	softwareID, err := reg.RegisterSoftware(ctx, outdir, models.SoftwareMetadata{
		Name:        ToolName,
		Description: ToolDescription,
		Author:      ToolAuthor,
		Version:     Version,
		FileFormat:  "executable",
		URL:         ToolURL,
		Keywords:    crateMeta.Keywords,
	})
	if err != nil {
		return err
	}

	var inputID string
	if e.inputCrate != nil {
		inputID = e.inputCrate.ID
	} else {
		inputID, err = e.registerEdgeList(ctx)
		if err != nil {
			return err
		}
	}

	today := e.now().Format("01-02-2006")
	embeddingID, err := reg.RegisterDataset(ctx, outdir, e.EmbeddingPath(), models.DatasetMetadata{
		Name:          ToolName + " output file",
		Description:   "PPI Embedding file",
		DataFormat:    "tsv",
		Author:        ToolName,
		Version:       Version,
		DatePublished: today,
		Keywords:      crateMeta.Keywords,
	})
	if err != nil {
		return err
	}

	_, err = reg.RegisterComputation(ctx, outdir, models.ComputationMetadata{
		Name:         ToolName,
		Description:  "run of " + ToolName,
		RunBy:        login(),
		Command:      e.command(),
		DateCreated:  today,
		UsedSoftware: []string{softwareID},
		UsedDataset:  []string{inputID},
		Generated:    []string{embeddingID},
		Keywords:     crateMeta.Keywords,
	})
	return err
}

// crateMetadata takes values from the input crate, then the provenance file,
// then explicit options, later sources winning when non-empty.
func (e *Embedder) crateMetadata() models.CrateMetadata {
	var meta models.CrateMetadata
	if c := e.inputCrate; c != nil {
		meta = models.CrateMetadata{
			Name:             c.Name,
			OrganizationName: c.OrganizationName,
			ProjectName:      c.ProjectName,
			Description:      c.Description,
			Keywords:         c.Keywords,
		}
	}
	if pc := e.opts.Provenance; pc != nil {
		override(&meta.Name, pc.Name)
		override(&meta.OrganizationName, pc.OrganizationName)
		override(&meta.ProjectName, pc.ProjectName)
		override(&meta.Description, pc.Description)
		if len(pc.Keywords) > 0 {
			meta.Keywords = pc.Keywords
		}
	}
	override(&meta.Name, e.opts.Name)
	override(&meta.OrganizationName, e.opts.OrganizationName)
	override(&meta.ProjectName, e.opts.ProjectName)
	fillBlank(&meta.Description, "Embedding of "+meta.Name)
	return meta
}

func (e *Embedder) registerEdgeList(ctx context.Context) (string, error) {
	meta := models.DatasetMetadata{}
	if e.opts.Provenance.EdgeList != nil {
		meta = *e.opts.Provenance.EdgeList
	}
	fillBlank(&meta.Name, "PPI edge list")
	fillBlank(&meta.Description, "Protein-protein interaction edge list")
	fillBlank(&meta.DataFormat, "tsv")
	fillBlank(&meta.DatePublished, e.now().Format("01-02-2006"))
	return e.opts.Registrar.RegisterDataset(ctx, e.opts.Outdir, e.edgeListPath(), meta)
}

// override sets *dst to value when value is non-empty.
func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// fillBlank sets *dst to value when *dst is empty.
func fillBlank(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func (e *Embedder) command() string {
	data, err := json.Marshal(e.opts.CommandLineArgs)
	if err != nil {
		return fmt.Sprint(e.opts.CommandLineArgs)
	}
	return string(data)
}

// writeStart keys the records by start second. A key already used by an
// earlier run in outdir is skipped so its records survive.
func (e *Embedder) writeStart() error {
	key := e.start.Unix()
	for {
		if _, err := os.Stat(TaskStartPath(e.opts.Outdir, key)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		key++
	}
	cwd, _ := os.Getwd()
	rec := models.TaskStart{
		StartTime:       e.start.Unix(),
		Version:         Version,
		Login:           login(),
		Cwd:             cwd,
		CommandLineArgs: e.opts.CommandLineArgs,
	}
	if err := writeJSON(TaskStartPath(e.opts.Outdir, key), rec); err != nil {
		return err
	}
	e.recordKey = key
	e.started = true
	return nil
}

func (e *Embedder) writeFinish(status int) error {
	end := e.now()
	rec := models.TaskFinish{
		StartTime:       e.start.Unix(),
		EndTime:         end.Unix(),
		ElapsedTime:     end.Unix() - e.start.Unix(),
		Status:          status,
		Version:         Version,
		CommandLineArgs: e.opts.CommandLineArgs,
	}
	return writeJSON(TaskFinishPath(e.opts.Outdir, e.recordKey), rec)
}

func login() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
