// ABOUTME: MCP server command implementation for ppiembed.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/ppiembed/internal/mcp"
	"github.com/2389-research/ppiembed/internal/provenance"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to run
embeddings, check task status, and query nearest genes.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n2v, err := newNode2Vec(globalConfig)
	if err != nil {
		return err
	}

	var opts []mcppkg.ServerOption
	if remote := newRemoteClient(globalConfig); remote != nil {
		opts = append(opts, mcppkg.WithRemoteClient(remote))
	}

	server, err := mcppkg.NewServer(n2v, provenance.NewCrateStore(), opts...)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
