package alldata

import (
	"fmt"
	"strings"

	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/types"
)

// DebugObserver receives diagnostics during one Parse call. Calls happen
// synchronously on the parsing goroutine.
type DebugObserver interface {
	OnBlock(index int, block docx.Block)
	OnTable(index int, c Classification)
	OnRequirement(req types.Requirement)
	OnDiscard(index int, reason string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnBlock(int, docx.Block) {}
func (NopObserver) OnTable(int, Classification) {}
func (NopObserver) OnRequirement(types.Requirement) {}
func (NopObserver) OnDiscard(int, string) {}

type observers []DebugObserver

func (o observers) OnBlock(index int, block docx.Block) {
	for _, obs := range o {
		obs.OnBlock(index, block)
	}
}

func (o observers) OnTable(index int, c Classification) {
	for _, obs := range o {
		obs.OnTable(index, c)
	}
}

func (o observers) OnRequirement(req types.Requirement) {
	for _, obs := range o {
		obs.OnRequirement(req)
	}
}

func (o observers) OnDiscard(index int, reason string) {
	for _, obs := range o {
		obs.OnDiscard(index, reason)
	}
}

// dumpObserver writes the blocks and key-value pairs leading up to the first
// requirement of a parse to the logger. It lives for a single call.
type dumpObserver struct {
	NopObserver
	logger interfaces.Logger
	done   bool
}

func newDumpObserver(logger interfaces.Logger) *dumpObserver {
	return &dumpObserver{logger: logger}
}

func (d *dumpObserver) OnBlock(index int, block docx.Block) {
	if d.done {
		return
	}
	switch b := block.(type) {
	case *docx.Paragraph:
		d.logger.Debug(fmt.Sprintf("block %d paragraph: %q", index, b.Text))
	case *docx.Table:
		d.logger.Debug(fmt.Sprintf("block %d table: %d rows", index, len(b.Rows)))
	}
}

func (d *dumpObserver) OnTable(index int, c Classification) {
	if d.done {
		return
	}
	d.logger.Debug(fmt.Sprintf("block %d classified: accepted=%t matches=%d window=%v anchored=%t fused=%d",
		index, c.Accepted, c.Matches, c.Window, c.Anchored, len(c.Fused)))
	for _, label := range c.Pairs.Labels() {
		d.logger.Debug(fmt.Sprintf("  %s = %q", label, c.Pairs[label]))
	}
}

func (d *dumpObserver) OnRequirement(req types.Requirement) {
	if d.done {
		return
	}
	d.done = true
	d.logger.Debug(fmt.Sprintf("first requirement %s %q: description=%q paragraphs=[%s] tables=%d",
		req.Item, req.Name, req.Description, strings.Join(req.Loose.Paragraphs, " | "), len(req.Loose.Tables)))
}

func (d *dumpObserver) OnDiscard(index int, reason string) {
	if d.done {
		return
	}
	d.logger.Debug(fmt.Sprintf("block %d discarded: %s", index, reason))
}
