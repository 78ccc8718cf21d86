package main

import (
	"github.com/spf13/cobra"

	"github.com/memtensor/reqdocx/api"
)

func serveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the REST API until interrupted.

  POST /api/v1/parse              parse an uploaded export (multipart field "document")
  GET  /api/v1/runs               list stored parse runs
  GET  /api/v1/runs/:id           one run with its requirements (?format=csv|md|...)
  GET  /api/v1/requirements/:item every stored version of one requirement
  GET  /health, /metrics

Run endpoints need store.enabled in the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.API.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("host") {
				c.cfg.API.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("store") {
				c.cfg.Store.Enabled, _ = cmd.Flags().GetBool("store")
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			opts := api.Options{API: c.cfg.API, Export: c.cfg.Export, Version: Version}

			st, err := c.openStore(false)
			if err != nil {
				return err
			}
			// a nil *store.Store must not become a non-nil interface
			var runs api.RunStore
			if st != nil {
				runs = st
			}

			c.logger.Info("Starting reqdocx", map[string]interface{}{
				"version":    Version,
				"build_time": BuildTime,
				"git_commit": GitCommit,
				"store":      st != nil,
			})

			server := api.NewServer(c.factory(), runs, opts, c.logger, c.metrics)
			return server.Start(cmd.Context())
		},
	}

	cmd.Flags().String("host", "", "Listen host (overrides api.host)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides api.port)")
	cmd.Flags().Bool("store", false, "Enable the parse-run database (overrides store.enabled)")

	return cmd
}
