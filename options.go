package mdit

import (
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures a Parser and its Renderer.
type Options struct {
	// HTML allows raw HTML blocks and inline tags.
	HTML bool `yaml:"html"`
	// XHTMLOut closes void tags with " />".
	XHTMLOut bool `yaml:"xhtml_out"`
	// Breaks renders soft line breaks as <br>.
	Breaks bool `yaml:"breaks"`
	// LangPrefix is prepended to the fence language class.
	LangPrefix string `yaml:"lang_prefix"`
	// Linkify turns bare URLs in text into links.
	Linkify bool `yaml:"linkify"`
	// Typographer enables the replacements and smartquotes rules.
	Typographer bool `yaml:"typographer"`
	// Quotes holds the double open, double close, single open and single
	// close glyphs used by smartquotes.
	Quotes string `yaml:"quotes"`
	// MaxNesting bounds block and inline recursion depth.
	MaxNesting int `yaml:"max_nesting"`
	// FrontMatter strips a leading YAML front matter block into Env.
	FrontMatter bool `yaml:"front_matter"`
	// TaskLists renders "[ ]" and "[x]" list item prefixes as checkboxes.
	TaskLists bool `yaml:"task_lists"`
	// Highlight renders fenced code; an empty result falls back to escaping.
	Highlight func(code, lang, attrs string) string `yaml:"-"`

	// Stream configures StreamParser.
	Stream StreamOptions `yaml:"stream"`
	// Full configures chunking of one-shot Parse calls.
	Full FullParseOptions `yaml:"full"`

	Logger *zap.Logger `yaml:"-"`
}

// StreamOptions configures the incremental stream parser.
type StreamOptions struct {
	// ChunkedFallback parses large documents in independent chunks.
	ChunkedFallback bool `yaml:"chunked_fallback"`
	ChunkSizeChars  int  `yaml:"chunk_size_chars"`
	ChunkSizeLines  int  `yaml:"chunk_size_lines"`
	// FenceAware keeps fenced code blocks inside a single chunk.
	FenceAware bool `yaml:"fence_aware"`
	// MaxChunks grows the chunk budget when a document would split into
	// more chunks than this. Zero means unbounded.
	MaxChunks int `yaml:"max_chunks"`
	// OptimizationMinSize is the size below which small documents are
	// always fully re-parsed.
	OptimizationMinSize int `yaml:"optimization_min_size"`
	// SkipCacheChars and SkipCacheLines mark one-shot inputs too large to
	// be worth caching.
	SkipCacheChars int `yaml:"skip_cache_chars"`
	SkipCacheLines int `yaml:"skip_cache_lines"`
	// DisableFastPath forces a full parse on every change.
	DisableFastPath bool `yaml:"disable_fast_path"`
}

// FullParseOptions configures chunking of Parser.Parse.
type FullParseOptions struct {
	ChunkedFallback bool `yaml:"chunked_fallback"`
	ThresholdChars  int  `yaml:"threshold_chars"`
	ThresholdLines  int  `yaml:"threshold_lines"`
	ChunkSizeChars  int  `yaml:"chunk_size_chars"`
	ChunkSizeLines  int  `yaml:"chunk_size_lines"`
	FenceAware      bool `yaml:"fence_aware"`
	MaxChunks       int  `yaml:"max_chunks"`
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the CommonMark-compatible defaults.
func DefaultOptions() Options {
	return Options{
		LangPrefix: "language-",
		Quotes:     "“”‘’",
		MaxNesting: 100,
		Stream: StreamOptions{
			ChunkSizeChars:      10000,
			ChunkSizeLines:      200,
			FenceAware:          true,
			OptimizationMinSize: 1000,
			SkipCacheChars:      50000,
			SkipCacheLines:      1000,
		},
		Full: FullParseOptions{
			ThresholdChars: 20000,
			ThresholdLines: 400,
			ChunkSizeChars: 10000,
			ChunkSizeLines: 200,
			FenceAware:     true,
		},
	}
}

// WithOptions replaces all options.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// WithHTML enables or disables raw HTML.
func WithHTML(enabled bool) Option {
	return func(o *Options) {
		o.HTML = enabled
	}
}

// WithXHTMLOut enables XHTML-style void tags.
func WithXHTMLOut(enabled bool) Option {
	return func(o *Options) {
		o.XHTMLOut = enabled
	}
}

// WithBreaks renders soft breaks as <br>.
func WithBreaks(enabled bool) Option {
	return func(o *Options) {
		o.Breaks = enabled
	}
}

// WithLangPrefix sets the fence language class prefix.
func WithLangPrefix(prefix string) Option {
	return func(o *Options) {
		o.LangPrefix = prefix
	}
}

// WithLinkify enables bare URL detection.
func WithLinkify(enabled bool) Option {
	return func(o *Options) {
		o.Linkify = enabled
	}
}

// WithTypographer enables typographic replacements and smart quotes.
func WithTypographer(enabled bool) Option {
	return func(o *Options) {
		o.Typographer = enabled
	}
}

// WithQuotes sets the four smartquote glyphs.
func WithQuotes(quotes string) Option {
	return func(o *Options) {
		o.Quotes = quotes
	}
}

// WithMaxNesting bounds recursion depth.
func WithMaxNesting(n int) Option {
	return func(o *Options) {
		o.MaxNesting = n
	}
}

// WithFrontMatter enables YAML front matter extraction.
func WithFrontMatter(enabled bool) Option {
	return func(o *Options) {
		o.FrontMatter = enabled
	}
}

// WithTaskLists enables GitHub-style task list items.
func WithTaskLists(enabled bool) Option {
	return func(o *Options) {
		o.TaskLists = enabled
	}
}

// WithHighlight sets the fenced code highlighter.
func WithHighlight(fn func(code, lang, attrs string) string) Option {
	return func(o *Options) {
		o.Highlight = fn
	}
}

// WithStreamOptions configures the stream parser.
func WithStreamOptions(so StreamOptions) Option {
	return func(o *Options) {
		o.Stream = so
	}
}

// WithChunkedFallback toggles chunked parsing for both stream and one-shot
// parses.
func WithChunkedFallback(enabled bool) Option {
	return func(o *Options) {
		o.Stream.ChunkedFallback = enabled
		o.Full.ChunkedFallback = enabled
	}
}

// WithLogger sets the logger used for stream parser diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

// LoadOptions decodes YAML over DefaultOptions.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		if errors.Is(err, io.EOF) {
			return opts, nil
		}
		return opts, errors.Wrap(err, "options: decode yaml")
	}
	if err := opts.validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o Options) validate() error {
	if o.MaxNesting <= 0 {
		return errors.Newf("options: max_nesting must be > 0, got %d", o.MaxNesting)
	}
	if n := len([]rune(o.Quotes)); o.Quotes != "" && n != 4 {
		return errors.Newf("options: quotes must hold 4 glyphs, got %d", n)
	}
	return nil
}
