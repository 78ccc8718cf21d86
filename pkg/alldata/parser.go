package alldata

import (
	"fmt"
	"iter"

	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/textnorm"
	"github.com/memtensor/reqdocx/pkg/types"
)

// Options configure a Parser. Zero values select the defaults.
type Options struct {
	KnownKeys    KnownKeys
	StartAnchors []string
	EndAnchors   []string
	ItemInfix    string

	// DebugDump logs the blocks and pairs leading to the first requirement
	// of every parse at debug level.
	DebugDump bool
	Observer  DebugObserver
	Logger    interfaces.Logger
}

// DefaultOptions returns options for a standard "All Data" export.
func DefaultOptions() Options {
	anchors := DefaultAnchors()
	return Options{
		KnownKeys:    DefaultKnownKeys(),
		StartAnchors: anchors.Start,
		EndAnchors:   anchors.End,
		ItemInfix:    DefaultItemInfix,
	}
}

// Stats counts what a parse saw and produced.
type Stats struct {
	Blocks       int `json:"blocks" yaml:"blocks"`
	Paragraphs   int `json:"paragraphs" yaml:"paragraphs"`
	Tables       int `json:"tables" yaml:"tables"`
	KVTables     int `json:"kv_tables" yaml:"kv_tables"`
	LooseTables  int `json:"loose_tables" yaml:"loose_tables"`
	FusedTables  int `json:"fused_tables" yaml:"fused_tables"`
	Requirements int `json:"requirements" yaml:"requirements"`
	Discarded    int `json:"discarded" yaml:"discarded"`
}

// Parser turns a block stream into requirements. A Parser holds no state
// between calls and may be shared by goroutines as long as its Observer is
// safe for concurrent use.
type Parser struct {
	keys      KnownKeys
	anchors   Anchors
	matcher   *Matcher
	debugDump bool
	observer  DebugObserver
	logger    interfaces.Logger
}

// New builds a parser from opts.
func New(opts Options) *Parser {
	defaults := DefaultOptions()
	if opts.KnownKeys == nil {
		opts.KnownKeys = defaults.KnownKeys
	}
	if len(opts.StartAnchors) == 0 {
		opts.StartAnchors = defaults.StartAnchors
	}
	if len(opts.EndAnchors) == 0 {
		opts.EndAnchors = defaults.EndAnchors
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}

	return &Parser{
		keys:      opts.KnownKeys,
		anchors:   Anchors{Start: opts.StartAnchors, End: opts.EndAnchors},
		matcher:   NewMatcher(opts.ItemInfix, opts.KnownKeys),
		debugDump: opts.DebugDump,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
}

// Matcher returns the line predicates the parser uses.
func (p *Parser) Matcher() *Matcher {
	return p.matcher
}

// Parse returns the requirements found in blocks, in document order.
func (p *Parser) Parse(blocks iter.Seq[docx.Block]) []types.Requirement {
	reqs, _ := p.ParseWithStats(blocks)
	return reqs
}

// ParseWithStats is Parse that also reports counts.
func (p *Parser) ParseWithStats(blocks iter.Seq[docx.Block]) ([]types.Requirement, Stats) {
	r := p.newRun()
	for block := range blocks {
		r.block(block)
	}

	p.logger.Debug("document parsed", map[string]interface{}{
		"blocks":       r.stats.Blocks,
		"requirements": r.stats.Requirements,
		"discarded":    r.stats.Discarded,
	})
	return r.reqs, r.stats
}

// ParseFile opens the package at path and parses its body. A document
// without a body yields no requirements.
func (p *Parser) ParseFile(path string) ([]types.Requirement, error) {
	reqs, _, err := p.ParseFileWithStats(path)
	return reqs, err
}

// ParseFileWithStats is ParseFile that also reports counts.
func (p *Parser) ParseFileWithStats(path string) ([]types.Requirement, Stats, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer doc.Close()

	reqs, stats := p.ParseDocument(doc)
	return reqs, stats, nil
}

// ParseDocument parses an already opened package.
func (p *Parser) ParseDocument(doc *docx.Document) ([]types.Requirement, Stats) {
	if !doc.HasBody() {
		p.logger.Warn("document has no body", map[string]interface{}{"source": doc.Source})
		return []types.Requirement{}, Stats{}
	}
	return p.ParseWithStats(doc.Blocks())
}

// run is the state of one Parse call.
type run struct {
	p        *Parser
	prelude  *preludeAccumulator
	observer DebugObserver
	reqs     []types.Requirement
	stats    Stats
}

func (p *Parser) newRun() *run {
	var obs observers
	if p.observer != nil {
		obs = append(obs, p.observer)
	}
	if p.debugDump {
		obs = append(obs, newDumpObserver(p.logger))
	}

	var observer DebugObserver = NopObserver{}
	if len(obs) > 0 {
		observer = obs
	}

	return &run{
		p:        p,
		prelude:  newPreludeAccumulator(p.matcher),
		observer: observer,
		reqs:     []types.Requirement{},
	}
}

func (r *run) block(block docx.Block) {
	index := r.stats.Blocks
	r.stats.Blocks++
	r.observer.OnBlock(index, block)

	switch b := block.(type) {
	case *docx.Paragraph:
		r.stats.Paragraphs++
		r.prelude.AddParagraph(textnorm.Normalize(b.Text))
	case *docx.Table:
		r.stats.Tables++
		r.table(index, b)
	}
}

func (r *run) table(index int, t *docx.Table) {
	rows := normalizeRows(t)
	c := classifyRows(rows, r.p.keys, r.p.anchors)
	r.observer.OnTable(index, c)

	if !c.Accepted {
		r.looseTable(rows)
		return
	}
	r.stats.KVTables++

	// fused supporting tables keep the titles found in their own rows
	for _, f := range c.Fused {
		r.prelude.AddTable(f)
		r.stats.FusedTables++
	}

	res, ok := ResolvePrelude(r.prelude.Entries(), r.p.matcher)
	if !ok {
		r.stats.Discarded++
		r.observer.OnDiscard(index, fmt.Sprintf("no header before key-value table (%d pairs)", c.Matches))
		r.prelude.Reset(r.prelude.State())
		return
	}

	req := types.Requirement{
		Item:        res.Header.Item,
		Heading:     res.Header.Heading,
		Name:        res.Header.Name,
		Description: res.Description,
		Loose: types.LooseContent{
			Paragraphs: res.Paragraphs,
			Tables:     res.Tables,
		},
	}
	MapFields(&req, c.Pairs)

	r.reqs = append(r.reqs, req)
	r.stats.Requirements++
	r.observer.OnRequirement(req)
	r.prelude.Reset(StateSuppressingTrailer)
}

// looseTable buffers a rejected table. A caption paragraph right before the
// table becomes its title; otherwise a single-cell first row does.
func (r *run) looseTable(rows [][]string) {
	lt := looseTable(rows, r.p.keys)
	if len(lt.Rows) == 0 {
		return
	}
	if title, ok := r.prelude.StealTitle(); ok {
		lt.Title = title
	}
	r.prelude.AddTable(lt)
	r.stats.LooseTables++
}
