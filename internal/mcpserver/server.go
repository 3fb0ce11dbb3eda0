// Package mcpserver exposes the simulation engine as MCP tools.
package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/stats"
)

// Server wraps the MCP SDK server.
type Server struct {
	server  *sdk.Server
	passage model.SimulationConfig
	arcsine model.ArcsineConfig
	bins    int
	workers int
	log     *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "brownian")
	Version string
	// Passage and Arcsine supply values for omitted tool arguments.
	Passage model.SimulationConfig
	Arcsine model.ArcsineConfig
	Bins    int
	Workers int
	Logger  *slog.Logger
}

// NewServer creates an MCP server with the simulation tools registered.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bins := cfg.Bins
	if bins <= 0 {
		bins = stats.DefaultBinCount
	}
	s := &Server{
		server: sdk.NewServer(&sdk.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		passage: cfg.Passage,
		arcsine: cfg.Arcsine,
		bins:    bins,
		workers: cfg.Workers,
		log:     logger,
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process receives SIGINT or SIGTERM.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.log.Info("mcp server starting", "transport", "stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.log.Info("mcp server stopped", "error", err)
	return err
}
