// ABOUTME: MCP server initialization and configuration for ppiembed.
// ABOUTME: Sets up the server with embedding run, status, and neighbour tools for AI agent access.
package mcp

import (
	"context"
	"fmt"
	"io"
	"sync"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ppiembed/internal/embedding"
	"github.com/2389-research/ppiembed/internal/provenance"
	"github.com/2389-research/ppiembed/internal/runner"
)

// Server wraps the MCP server with the node2vec implementation and provenance registrar.
type Server struct {
	mcp       *gomcp.Server
	node2vec  embedding.Node2Vec
	registrar provenance.Registrar
	remote    *provenance.RemoteClient
	warnings  io.Writer

	// Runs share the process-wide file loggers, so only one may be active.
	runMu sync.Mutex
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithRemoteClient publishes every registered entity to a FAIRSCAPE server.
func WithRemoteClient(rc *provenance.RemoteClient) ServerOption {
	return func(s *Server) {
		s.remote = rc
	}
}

// WithWarnings redirects the fake embedder notice. Stdout is reserved for the protocol.
func WithWarnings(w io.Writer) ServerOption {
	return func(s *Server) {
		s.warnings = w
	}
}

// NewServer creates an MCP server that runs embedding jobs.
func NewServer(n2v embedding.Node2Vec, registrar provenance.Registrar, opts ...ServerOption) (*Server, error) {
	if n2v == nil {
		return nil, fmt.Errorf("node2vec implementation is required")
	}
	if registrar == nil {
		return nil, fmt.Errorf("provenance registrar is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    runner.ToolName,
			Version: runner.Version,
		},
		nil,
	)

	s := &Server{
		mcp:       mcpServer,
		node2vec:  n2v,
		registrar: registrar,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.remote != nil {
		s.registrar = provenance.NewRemoteRegistrar(s.registrar, s.remote)
	}

	s.registerEmbeddingTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
