package main

import (
	"github.com/spf13/cobra"

	"github.com/hurttlocker/cardex/internal/catalog"
	"github.com/hurttlocker/cardex/internal/config"
	"github.com/hurttlocker/cardex/internal/mcp"
)

func buildMcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol server on stdio",
		Long: `Expose the cardex pipeline as MCP tools over stdio, for use by agent
tooling. Tools: cardex_extract, cardex_convert, cardex_runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(config.ResolveOptions{ConfigPath: configPath, CLICatalog: catalogPath})
			if err != nil {
				return err
			}

			// Stdio carries the protocol, so the catalog being down is
			// a warning, not a startup failure.
			var cat catalog.Catalog
			if c, err := catalog.Open(catalog.Config{DBPath: cfg.CatalogDB.Value}); err != nil {
				log.WithError(err).Warn("run catalog unavailable, history disabled")
			} else {
				cat = c
				defer c.Close()
			}

			srv := mcp.NewServer(mcp.ServerConfig{
				Catalog: cat,
				Version: version,
				Tag:     cfg.Tag.Value,
			})
			return mcp.Serve(srv)
		},
	}
}
