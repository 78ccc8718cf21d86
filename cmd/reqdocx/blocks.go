package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/types"
)

func blocksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks <file>",
		Short: "Dump the body blocks of an export and how the parser reads them",
		Long: `Print every top-level paragraph and table of the document body in order,
with the table classification, emitted requirements and discarded
candidates interleaved. Useful when an export does not parse as expected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, _ := cmd.Flags().GetInt("width")
			showRows, _ := cmd.Flags().GetBool("rows")

			doc, err := docx.Open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			dump := &blockDump{w: cmd.OutOrStdout(), width: width, rows: showRows}
			opts := c.cfg.Parser.Options(c.logger)
			opts.Observer = dump

			_, stats := alldata.New(opts).ParseDocument(doc)
			fmt.Fprintf(dump.w, "\n%d block(s): %d paragraph(s), %d table(s) (%d kv, %d loose, %d fused); %d requirement(s), %d discarded\n",
				stats.Blocks, stats.Paragraphs, stats.Tables, stats.KVTables, stats.LooseTables, stats.FusedTables,
				stats.Requirements, stats.Discarded)
			return nil
		},
	}

	cmd.Flags().Int("width", 72, "Truncate text to this many characters (0 disables)")
	cmd.Flags().Bool("rows", false, "Print table rows")

	return cmd
}

// blockDump prints parser events as they happen
type blockDump struct {
	alldata.NopObserver
	w     io.Writer
	width int
	rows  bool
}

func (d *blockDump) OnBlock(index int, block docx.Block) {
	switch b := block.(type) {
	case *docx.Paragraph:
		style := b.Style
		if style == "" {
			style = "-"
		}
		fmt.Fprintf(d.w, "%5d  P  %-14s %q\n", index, style, d.clip(b.Text))
	case *docx.Table:
		cols := 0
		for _, r := range b.Rows {
			cols = max(cols, len(r.Cells))
		}
		fmt.Fprintf(d.w, "%5d  T  %dx%d\n", index, len(b.Rows), cols)
		if d.rows {
			for _, r := range b.Rows {
				cells := r.Texts()
				for i := range cells {
					cells[i] = d.clip(cells[i])
				}
				fmt.Fprintf(d.w, "          | %s |\n", strings.Join(cells, " | "))
			}
		}
	}
}

func (d *blockDump) OnTable(index int, c alldata.Classification) {
	verdict := "loose"
	if c.Accepted {
		verdict = "kv"
	}
	fmt.Fprintf(d.w, "          %s: %d known key(s), window %d-%d", verdict, c.Matches, c.Window[0], c.Window[1])
	if c.Anchored {
		fmt.Fprintf(d.w, ", anchored, %d fused table(s)", len(c.Fused))
	}
	fmt.Fprintln(d.w)
}

func (d *blockDump) OnRequirement(req types.Requirement) {
	fmt.Fprintf(d.w, "          => %s %q\n", req.Item, d.clip(req.Name))
}

func (d *blockDump) OnDiscard(index int, reason string) {
	fmt.Fprintf(d.w, "          xx discarded at %d: %s\n", index, reason)
}

func (d *blockDump) clip(s string) string {
	if d.width <= 0 || utf8.RuneCountInString(s) <= d.width {
		return s
	}
	r := []rune(s)
	return string(r[:d.width]) + "..."
}
