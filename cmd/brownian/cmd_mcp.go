package main

import (
	"github.com/spf13/cobra"

	"github.com/verte-zerg/brownian/internal/mcpserver"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the simulations as MCP tools over stdio",
		Long: `Start an MCP server on stdin/stdout exposing first_passage, arcsine_laws
and normal_cdf. Values from the config file become the tool defaults. Logs go
to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadFileConfig(cmd, opts)
			if err != nil {
				return err
			}
			passage := defaultPassageOptions()
			passage.apply(cmd, fileCfg)
			arcsine := defaultArcsineOptions()
			arcsine.apply(cmd, fileCfg)

			server := mcpserver.NewServer(&mcpserver.Config{
				Name:    "brownian",
				Version: version,
				Passage: passage.config(),
				Arcsine: arcsine.config(),
				Bins:    arcsine.bins,
				Workers: opts.workers,
				Logger:  newLogger(cmd, opts),
			})
			return server.Run(cmd.Context())
		},
	}
}
