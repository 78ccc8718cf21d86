package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/export"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/store"
	"github.com/memtensor/reqdocx/pkg/types"
)

func parseCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file...>",
		Short: "Extract requirements from one or more exports",
		Long: `Extract the requirement records of one or more "All Data" exports and
write them in the chosen format. Records of several files are concatenated
in argument order.

Example:
  reqdocx parse export.docx
  reqdocx parse export.docx --format md --out report.md
  reqdocx parse a.docx b.docx --format csv --persist`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			persist, _ := cmd.Flags().GetBool("persist")
			title, _ := cmd.Flags().GetString("title")
			showStats, _ := cmd.Flags().GetBool("stats")
			workers, _ := cmd.Flags().GetInt("workers")

			if format == "" {
				format = c.cfg.Export.Format
			}
			if title == "" {
				title = c.cfg.Export.Title
			}
			exporter, err := export.New(format, export.Options{Pretty: c.cfg.Export.Pretty, Title: title})
			if err != nil {
				return err
			}

			var st *store.Store
			if persist {
				if st, err = c.openStore(true); err != nil {
					return err
				}
			}

			factory := c.factory()
			parserCfg := parsers.DefaultParserConfig()
			parserCfg.MaxFileSize = c.cfg.Parser.MaxFileSize

			files, err := factory.ParseFiles(cmd.Context(), args, parsers.BatchOptions{Workers: workers, Config: parserCfg})
			if err != nil {
				return err
			}

			var all []types.Requirement
			for _, f := range files {
				result := f.Result
				all = append(all, result.Requirements...)

				if showStats {
					s := result.Stats
					fmt.Fprintf(cmd.ErrOrStderr(),
						"%s: %d requirement(s), %d block(s), %d table(s) (%d kv, %d loose, %d fused), %d discarded in %s\n",
						f.Path, s.Requirements, s.Blocks, s.Tables, s.KVTables, s.LooseTables, s.FusedTables,
						s.Discarded, result.ParsingDuration.Round(time.Millisecond))
				}

				if st != nil {
					run := store.NewRun(f.Path, result.Metadata.Title, result.ParsedAt, result.ParsingDuration, result.Stats)
					saved, err := st.SaveRun(cmd.Context(), run, result.Requirements)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: saved as run %s\n", f.Path, saved.ID)
				}
			}

			return writeExport(cmd, exporter, outPath, all)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format (json, yaml, csv, md, html); defaults to export.format")
	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("persist", false, "Save every parse run to the configured database")
	cmd.Flags().String("title", "", "Report title for md and html output")
	cmd.Flags().Bool("stats", false, "Print parse statistics to stderr")
	cmd.Flags().Int("workers", parsers.DefaultBatchWorkers, "Files parsed concurrently")

	return cmd
}

// writeExport renders reqs to outPath, or stdout when outPath is empty
func writeExport(cmd *cobra.Command, exporter interfaces.Exporter, outPath string, reqs []types.Requirement) error {
	if outPath == "" {
		return exporter.Export(cmd.Context(), cmd.OutOrStdout(), reqs)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return errors.NewFileError("failed to create output directory", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return errors.NewFileError("failed to create output file", err)
	}
	if err := exporter.Export(cmd.Context(), f, reqs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewFileError("failed to write output file", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d requirement(s) to %s\n", len(reqs), outPath)
	return nil
}
