// ABOUTME: Builds a ready-to-run Embedder from flat job settings.
// ABOUTME: Chooses the node2vec or fake generator and loads the provenance file when given.
package runner

import (
	"io"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/network"
	"github.com/2389-research/ppiembed/internal/provenance"
)

// JobConfig holds the settings shared by the CLI and the MCP server.
type JobConfig struct {
	Outdir   string
	InputDir string
	Params   embedding.Params
	// Fake replaces node2vec with random vectors.
	Fake bool
	// Node2Vec trains the real embeddings. Required unless Fake is set.
	Node2Vec embedding.Node2Vec
	// Registrar records provenance. Nil skips registration.
	Registrar        provenance.Registrar
	ProvenancePath   string
	Name             string
	OrganizationName string
	ProjectName      string
	SkipLogging      bool
	CommandLineArgs  map[string]any
	// Warnings receives the fake generator notice. Nil means stderr.
	Warnings io.Writer
}

// NewJob constructs the generator and Embedder described by cfg.
func NewJob(cfg JobConfig) (*Embedder, error) {
	if cfg.Outdir == "" {
		return nil, errs.Configf("outdir is not set")
	}
	if cfg.InputDir == "" {
		return nil, errs.Configf("inputdir is not set")
	}

	opts := Options{
		Outdir:           cfg.Outdir,
		InputDir:         cfg.InputDir,
		Registrar:        cfg.Registrar,
		Name:             cfg.Name,
		OrganizationName: cfg.OrganizationName,
		ProjectName:      cfg.ProjectName,
		SkipLogging:      cfg.SkipLogging,
		CommandLineArgs:  cfg.CommandLineArgs,
	}

	if cfg.Fake {
		var seed *uint64
		if cfg.Params.Seed != nil {
			s := uint64(*cfg.Params.Seed)
			seed = &s
		}
		gen, err := embedding.NewFakeGenerator(embedding.FakeOptions{
			InputDir:   cfg.InputDir,
			Dimensions: cfg.Params.Dimensions,
			Seed:       seed,
			Warnings:   cfg.Warnings,
		})
		if err != nil {
			return nil, err
		}
		opts.Generator = gen
	} else {
		opts.EdgeListPath = network.EdgeListPath(cfg.InputDir)
		gen, err := embedding.NewNode2VecGenerator(embedding.Node2VecOptions{
			EdgeListPath: opts.EdgeListPath,
			Params:       cfg.Params,
			Delegate:     cfg.Node2Vec,
		})
		if err != nil {
			return nil, err
		}
		opts.Generator = gen
	}

	if cfg.ProvenancePath != "" {
		pc, err := provenance.LoadProvenanceFile(cfg.ProvenancePath)
		if err != nil {
			return nil, err
		}
		opts.Provenance = pc
	}

	return New(opts)
}

// CommandLineArgs renders job settings the way task records store them.
func CommandLineArgs(cfg JobConfig) map[string]any {
	args := map[string]any{
		"outdir":            cfg.Outdir,
		"inputdir":          cfg.InputDir,
		"dimensions":        cfg.Params.Dimensions,
		"walk_length":       cfg.Params.WalkLength,
		"num_walks":         cfg.Params.NumWalks,
		"workers":           cfg.Params.Workers,
		"p":                 cfg.Params.P,
		"q":                 cfg.Params.Q,
		"window":            cfg.Params.Window,
		"epochs":            cfg.Params.Epochs,
		"fake_embedder":     cfg.Fake,
		"provenance":        cfg.ProvenancePath,
		"name":              cfg.Name,
		"organization_name": cfg.OrganizationName,
		"project_name":      cfg.ProjectName,
		"skip_logging":      cfg.SkipLogging,
		"skip_provenance":   cfg.Registrar == nil,
	}
	if cfg.Params.Seed != nil {
		args["seed"] = *cfg.Params.Seed
	}
	return args
}
