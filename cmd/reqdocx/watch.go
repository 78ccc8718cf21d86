package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/memtensor/reqdocx/pkg/export"
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/watch"
)

func watchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-extract requirements whenever an export changes",
		Long: `Parse the export once, then again after every burst of writes to it,
until interrupted. With --out the rendered records are rewritten on every
successful parse; otherwise a one-line summary is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			if format == "" {
				format = c.cfg.Export.Format
			}
			exporter, err := export.New(format, export.Options{Pretty: c.cfg.Export.Pretty, Title: c.cfg.Export.Title})
			if err != nil {
				return err
			}

			parser := parsers.NewAllDataParser(c.cfg.Parser.Options(c.logger), c.metrics)
			handler := func(ev watch.Event) {
				stamp := ev.At.Format(time.TimeOnly)
				if ev.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", stamp, ev.Path, ev.Err)
					return
				}
				if outPath == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d requirement(s)\n", stamp, ev.Path, len(ev.Requirements))
					return
				}
				if err := writeExport(cmd, exporter, outPath, ev.Requirements); err != nil {
					c.logger.Error("failed to write export", err, map[string]interface{}{"out": outPath})
				}
			}

			w := watch.New(args[0], parser, handler, watch.WithDebounce(debounce), watch.WithLogger(c.logger))
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format for --out (json, yaml, csv, md, html)")
	cmd.Flags().StringP("out", "o", "", "Rewrite this file after every successful parse")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed file is parsed")

	return cmd
}
