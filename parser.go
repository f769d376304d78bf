package mdit

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"pkt.systems/mdit/internal/linkutil"
)

// Parser ties the core, block and inline rule chains together with a
// renderer. A Parser may be shared for parsing as long as its rules are not
// mutated concurrently.
type Parser struct {
	Core     *ParserCore
	Block    *ParserBlock
	Inline   *ParserInline
	Renderer *Renderer

	// NormalizeLink encodes link destinations.
	NormalizeLink func(string) string
	// NormalizeLinkText decodes autolink text for display.
	NormalizeLinkText func(string) string
	// ValidateLink rejects unsafe destinations.
	ValidateLink func(string) bool

	opts Options
	log  *zap.Logger
}

// New returns a Parser configured by DefaultOptions and opts.
func New(opts ...Option) *Parser {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.MaxNesting <= 0 {
		o.MaxNesting = DefaultOptions().MaxNesting
	}
	if len([]rune(o.Quotes)) != 4 {
		o.Quotes = DefaultOptions().Quotes
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{
		Core:              newParserCore(),
		Block:             newParserBlock(),
		Inline:            newParserInline(),
		NormalizeLink:     linkutil.NormalizeLink,
		NormalizeLinkText: linkutil.NormalizeLinkText,
		ValidateLink:      linkutil.ValidateLink,
		opts:              o,
		log:               log,
	}
	p.Renderer = NewRenderer(o)
	if o.FrontMatter {
		_ = p.Block.Ruler.Before("table", "front_matter", ruleFrontMatter)
	}
	if o.TaskLists {
		_ = p.Core.Ruler.After("inline", "task_lists", ruleTaskLists)
	}
	return p
}

// Options returns a copy of the parser options.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse tokenizes a document. env may be nil. Very large inputs are split
// into chunks when Options.Full.ChunkedFallback is set.
func (p *Parser) Parse(src string, env *Env) []*Token {
	if env == nil {
		env = NewEnv()
	}
	full := p.opts.Full
	if full.ChunkedFallback && (len(src) >= full.ThresholdChars || countLines(src) >= full.ThresholdLines) {
		return p.chunkedParse(src, env, ChunkOptions{
			MaxChunkChars: full.ChunkSizeChars,
			MaxChunkLines: full.ChunkSizeLines,
			FenceAware:    full.FenceAware,
			MaxChunks:     full.MaxChunks,
		})
	}
	return p.parse(src, env, false)
}

func (p *Parser) parse(src string, env *Env, fragment bool) []*Token {
	s := &StateCore{Src: src, Env: env, Parser: p, fragment: fragment}
	p.Core.Process(s)
	return s.Tokens
}

// ParseInline tokenizes src as a single inline token, skipping block rules.
func (p *Parser) ParseInline(src string, env *Env) []*Token {
	if env == nil {
		env = NewEnv()
	}
	s := &StateCore{Src: src, Env: env, Parser: p, InlineMode: true}
	p.Core.Process(s)
	return s.Tokens
}

// Render parses and renders src to HTML.
func (p *Parser) Render(src string, env *Env) string {
	if env == nil {
		env = NewEnv()
	}
	return p.Renderer.Render(p.Parse(src, env), env)
}

// RenderInline parses and renders src without paragraph wrapping.
func (p *Parser) RenderInline(src string, env *Env) string {
	if env == nil {
		env = NewEnv()
	}
	return p.Renderer.Render(p.ParseInline(src, env), env)
}

// Enable turns on rules by name across every chain.
func (p *Parser) Enable(names []string, ignoreInvalid bool) error {
	return p.toggle(names, ignoreInvalid, true)
}

// Disable turns off rules by name across every chain.
func (p *Parser) Disable(names []string, ignoreInvalid bool) error {
	return p.toggle(names, ignoreInvalid, false)
}

func (p *Parser) toggle(names []string, ignoreInvalid, enabled bool) error {
	found := make(map[string]bool, len(names))
	mark := func(got []string) {
		for _, n := range got {
			found[n] = true
		}
	}
	apply := func(fn func([]string, bool) ([]string, error)) {
		got, _ := fn(names, true)
		mark(got)
	}
	if enabled {
		apply(p.Core.Ruler.Enable)
		apply(p.Block.Ruler.Enable)
		apply(p.Inline.Ruler.Enable)
		apply(p.Inline.Ruler2.Enable)
	} else {
		apply(p.Core.Ruler.Disable)
		apply(p.Block.Ruler.Disable)
		apply(p.Inline.Ruler.Disable)
		apply(p.Inline.Ruler2.Disable)
	}
	if ignoreInvalid {
		return nil
	}
	var missing []string
	for _, n := range names {
		if !found[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrRuleNotFound, "parser: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewStreamParser returns a StreamParser bound to p.
func (p *Parser) NewStreamParser() *StreamParser {
	return newStreamParser(p)
}

func countLines(src string) int {
	return strings.Count(src, "\n")
}
