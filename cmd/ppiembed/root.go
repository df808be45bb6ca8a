// ABOUTME: Root Cobra command for ppiembed: runs node2vec over a PPI edge list.
// ABOUTME: Sets up lifecycle hooks for config loading and console logging.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/ppiembed/internal/config"
	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/provenance"
	"github.com/2389-research/ppiembed/internal/runner"
)

var globalConfig *config.Config

// Flags
var (
	inputDir         string
	dimensions       int
	walkLength       int
	numWalks         int
	workers          int
	pParam           float64
	qParam           float64
	window           int
	epochs           int
	seed             int64
	fakeEmbedder     bool
	provenancePath   string
	crateName        string
	organizationName string
	projectName      string
	skipLogging      bool
	skipProvenance   bool
	logConf          string
	verbose          int
)

var rootCmd = &cobra.Command{
	Use:   "ppiembed OUTDIR",
	Short: "Generate node2vec embeddings for a protein-protein interaction network",
	Long: `
██████╗ ██████╗ ██╗███████╗███╗   ███╗██████╗ ███████╗██████╗
██╔══██╗██╔══██╗██║██╔════╝████╗ ████║██╔══██╗██╔════╝██╔══██╗
██████╔╝██████╔╝██║█████╗  ██╔████╔██║██████╔╝█████╗  ██║  ██║
██╔═══╝ ██╔═══╝ ██║██╔══╝  ██║╚██╔╝██║██╔══██╗██╔══╝  ██║  ██║
██║     ██║     ██║███████╗██║ ╚═╝ ██║██████╔╝███████╗██████╔╝
╚═╝     ╚═╝     ╚═╝╚══════╝╚═╝     ╚═╝╚═════╝ ╚══════╝╚═════╝

Reads ppi_edgelist.tsv from --inputdir, trains node2vec, and writes
ppi_emd.tsv into OUTDIR with task records and an RO-Crate.`,
	Version:       runner.Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConsoleLogger(); err != nil {
			return err
		}
		if cmd.Name() == "help" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg
		return nil
	},
	RunE: runEmbed,
}

func init() {
	flags := rootCmd.Flags()
	defaults := embedding.DefaultParams()

	flags.StringVar(&inputDir, "inputdir", "", "Directory holding ppi_edgelist.tsv")
	flags.IntVar(&dimensions, "dimensions", defaults.Dimensions, "Size of each embedding vector")
	flags.IntVar(&walkLength, "walk_length", defaults.WalkLength, "Nodes in each random walk")
	flags.IntVar(&numWalks, "num_walks", defaults.NumWalks, "Random walks started per node")
	flags.IntVar(&workers, "workers", defaults.Workers, "Parallel workers for node2vec")
	flags.Float64Var(&pParam, "p", defaults.P, "Return parameter")
	flags.Float64Var(&qParam, "q", defaults.Q, "In-out parameter")
	flags.IntVar(&window, "window", defaults.Window, "Skip-gram context window")
	flags.IntVar(&epochs, "epochs", defaults.Epochs, "Training epochs")
	flags.Int64Var(&seed, "seed", 0, "Random seed for --fake_embedder runs (node2vec tools reject it)")
	flags.BoolVar(&fakeEmbedder, "fake_embedder", false, "Emit random vectors instead of training node2vec")
	flags.StringVar(&provenancePath, "provenance", "", "Provenance JSON file, used when inputdir has no RO-Crate")
	flags.StringVar(&crateName, "name", "", "Name for the output RO-Crate")
	flags.StringVar(&organizationName, "organization_name", "", "Organization for the output RO-Crate")
	flags.StringVar(&projectName, "project_name", "", "Project for the output RO-Crate")
	flags.BoolVar(&skipLogging, "skip_logging", false, "Do not write task records or log files")
	flags.BoolVar(&skipProvenance, "skip_provenance", false, "Do not register an RO-Crate")

	rootCmd.PersistentFlags().StringVar(&logConf, "logconf", "", "YAML logging config (overrides -v)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase console verbosity (repeatable)")
}

func initConsoleLogger() error {
	params := logger.ConsoleParams{Verbosity: verbose}
	if logConf != "" {
		cfg, err := logger.LoadConfig(logConf)
		if err != nil {
			return err
		}
		params.Config = cfg
	}
	logger.Init(logger.NewConsoleLogger(params))
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var outdir string
	if len(args) > 0 {
		outdir = args[0]
	}

	params := embedding.DefaultParams()
	params.Dimensions = dimensions
	params.WalkLength = walkLength
	params.NumWalks = numWalks
	params.Workers = workers
	params.P = pParam
	params.Q = qParam
	params.Window = window
	params.Epochs = epochs
	if cmd.Flags().Changed("seed") {
		params.Seed = &seed
	}

	job := runner.JobConfig{
		Outdir:           outdir,
		InputDir:         inputDir,
		Params:           params,
		Fake:             fakeEmbedder,
		ProvenancePath:   provenancePath,
		Name:             crateName,
		OrganizationName: organizationName,
		ProjectName:      projectName,
		SkipLogging:      skipLogging,
	}
	if !fakeEmbedder {
		n2v, err := newNode2Vec(globalConfig)
		if err != nil {
			return err
		}
		job.Node2Vec = n2v
	}
	if !skipProvenance {
		job.Registrar = newRegistrar(globalConfig)
	}
	job.CommandLineArgs = runner.CommandLineArgs(job)

	e, err := runner.NewJob(job)
	if err != nil {
		return err
	}
	if _, err := e.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Embeddings written to %s\n", e.EmbeddingPath())
	return nil
}

func newNode2Vec(cfg *config.Config) (*embedding.ExecNode2Vec, error) {
	command, err := cfg.GetNode2VecCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve node2vec command: %w", err)
	}
	dialect, err := embedding.ParseDialect(cfg.GetNode2VecDialect())
	if err != nil {
		return nil, err
	}
	return &embedding.ExecNode2Vec{
		Command: command,
		Dialect: dialect,
		Loss:    embedding.LogLossSink{},
	}, nil
}

func newRemoteClient(cfg *config.Config) *provenance.RemoteClient {
	if !cfg.HasRemote() {
		return nil
	}
	return provenance.NewRemoteClient(cfg.Fairscape.APIURL, cfg.Fairscape.Username, cfg.Fairscape.Token)
}

func newRegistrar(cfg *config.Config) provenance.Registrar {
	var reg provenance.Registrar = provenance.NewCrateStore()
	if remote := newRemoteClient(cfg); remote != nil {
		reg = provenance.NewRemoteRegistrar(reg, remote)
	}
	return reg
}
