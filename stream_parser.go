package mdit

import (
	"strings"

	"go.uber.org/zap"
)

// StreamMode names the strategy a StreamParser used for its last call.
type StreamMode string

const (
	ModeIdle    StreamMode = "idle"
	ModeCache   StreamMode = "cache"
	ModeAppend  StreamMode = "append"
	ModeFull    StreamMode = "full"
	ModeReset   StreamMode = "reset"
	ModeChunked StreamMode = "chunked"
)

// StreamStats counts StreamParser decisions.
type StreamStats struct {
	Total         int
	CacheHits     int
	AppendHits    int
	FullParses    int
	Resets        int
	ChunkedParses int
	LastMode      StreamMode
}

type streamCache struct {
	src       string
	tokens    []*Token
	env       *Env
	lineCount int
}

// StreamParser re-parses a growing document, reusing tokens of the
// unchanged prefix when text is appended. It is not safe for concurrent
// use. The returned token slice is owned by the parser and stays valid
// until the next call to Parse or Reset.
type StreamParser struct {
	p     *Parser
	opts  StreamOptions
	log   *zap.Logger
	cache *streamCache
	stats StreamStats
}

const (
	minAppendContext = 3
	maxAppendContext = 8
	// maxFenceScanLines bounds the backward fence check before an append.
	maxFenceScanLines = 2000
)

func newStreamParser(p *Parser) *StreamParser {
	return &StreamParser{
		p:     p,
		opts:  p.opts.Stream,
		log:   p.log.Named("stream"),
		stats: StreamStats{LastMode: ModeIdle},
	}
}

// Reset drops the cache.
func (sp *StreamParser) Reset() {
	sp.cache = nil
	sp.stats.Resets++
	sp.stats.LastMode = ModeReset
}

// ResetStats zeroes every counter except Resets.
func (sp *StreamParser) ResetStats() {
	sp.stats = StreamStats{Resets: sp.stats.Resets, LastMode: ModeIdle}
}

// Stats returns a snapshot of the counters.
func (sp *StreamParser) Stats() StreamStats {
	return sp.stats
}

// Peek returns the cached tokens without parsing.
func (sp *StreamParser) Peek() []*Token {
	if sp.cache == nil {
		return nil
	}
	return sp.cache.tokens
}

// Parse tokenizes src. Passing a different env than the previous call
// starts over; a nil env reuses the cached one.
func (sp *StreamParser) Parse(src string, env *Env) []*Token {
	sp.stats.Total++
	c := sp.cache
	if c == nil || (env != nil && env != c.env) {
		if env == nil {
			env = NewEnv()
		}
		return sp.parseFresh(src, env)
	}

	if src == c.src {
		sp.stats.CacheHits++
		sp.stats.LastMode = ModeCache
		return c.tokens
	}

	isAppend := len(src) > len(c.src) && strings.HasPrefix(src, c.src)
	minSize := sp.opts.OptimizationMinSize
	if !isAppend && len(c.src) < minSize && float64(len(src)) < 1.5*float64(minSize) {
		sp.log.Debug("small edit, full parse", zap.Int("bytes", len(src)))
		return sp.reparse(src, c.env)
	}

	if isAppend && !sp.opts.DisableFastPath {
		if tokens, ok := sp.appendParse(src); ok {
			return tokens
		}
	}
	return sp.reparse(src, c.env)
}

func (sp *StreamParser) parseFresh(src string, env *Env) []*Token {
	lines := countLines(src)
	if len(src) >= sp.opts.SkipCacheChars || lines >= sp.opts.SkipCacheLines {
		sp.log.Debug("one-shot input, not cached", zap.Int("bytes", len(src)), zap.Int("lines", lines))
		sp.cache = nil
		if sp.useChunks(src, lines) {
			sp.stats.ChunkedParses++
			sp.stats.LastMode = ModeChunked
			return sp.p.chunkedParse(src, env, sp.chunkOptions())
		}
		sp.stats.FullParses++
		sp.stats.LastMode = ModeFull
		return sp.p.parse(src, env, false)
	}
	return sp.parseAndCache(src, env, lines)
}

// reparse replaces the cache with a fresh parse. References and front
// matter left in env by the previous version are dropped first.
func (sp *StreamParser) reparse(src string, env *Env) []*Token {
	env.References = nil
	env.FrontMatter = nil
	return sp.parseAndCache(src, env, countLines(src))
}

func (sp *StreamParser) parseAndCache(src string, env *Env, lines int) []*Token {
	var tokens []*Token
	if sp.useChunks(src, lines) {
		tokens = sp.p.chunkedParse(src, env, sp.chunkOptions())
		sp.stats.ChunkedParses++
		sp.stats.LastMode = ModeChunked
	} else {
		tokens = sp.p.parse(src, env, false)
		sp.stats.FullParses++
		sp.stats.LastMode = ModeFull
	}
	sp.cache = &streamCache{src: src, tokens: tokens, env: env, lineCount: lines}
	return tokens
}

func (sp *StreamParser) useChunks(src string, lines int) bool {
	o := sp.opts
	return o.ChunkedFallback && (len(src) >= 2*o.ChunkSizeChars || lines >= 2*o.ChunkSizeLines)
}

func (sp *StreamParser) chunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChunkChars: sp.opts.ChunkSizeChars,
		MaxChunkLines: sp.opts.ChunkSizeLines,
		FenceAware:    sp.opts.FenceAware,
		MaxChunks:     sp.opts.MaxChunks,
	}
}

// appendParse re-parses only the tail of the document after a clean
// append. The window starts at the top-level block that contains the line
// a few lines before the old end, so blocks the append may extend are
// parsed again as a whole.
func (sp *StreamParser) appendParse(src string) ([]*Token, bool) {
	c := sp.cache
	appended, ok := cleanAppend(c.src, src)
	if !ok {
		return nil, false
	}
	if sp.p.opts.Typographer || strings.ContainsAny(src, "\r\x00") {
		return nil, false
	}
	if sp.p.opts.FrontMatter && frontMatterPending(src, c.tokens) {
		return nil, false
	}

	ctxLines := min(minAppendContext+len(appended)/256, maxAppendContext)
	target := c.lineCount - ctxLines
	startIdx, window := 0, 0
	for i := len(c.tokens) - 1; i >= 0; i-- {
		t := c.tokens[i]
		if t.Level == 0 && t.Nesting != -1 && t.Map != nil && t.Map[0] <= target {
			startIdx, window = i, t.Map[0]
			break
		}
	}

	offset := lineStartBackward(c.src, c.lineCount, window)
	if endsInsideFence(c.src[offset:]) {
		sp.log.Debug("append inside open fence", zap.Int("window", window))
		return nil, false
	}

	tokens, defined := sp.p.parseWindow(src[offset:], c.env, window, window > 0)
	if !sameWindowReferences(c.env, defined, window) {
		sp.log.Debug("append changes references", zap.Int("window", window))
		return nil, false
	}

	c.tokens = append(c.tokens[:startIdx], tokens...)
	c.src = src
	c.lineCount += countLines(appended)
	sp.stats.AppendHits++
	sp.stats.LastMode = ModeAppend
	sp.log.Debug("append fast path",
		zap.Int("window", window),
		zap.Int("reused", startIdx),
		zap.Int("parsed", len(tokens)))
	return c.tokens, true
}

// cleanAppend returns the text added to prev when next extends it by whole
// lines that cannot change how the last line of prev is read.
func cleanAppend(prev, next string) (string, bool) {
	if len(next) <= len(prev) || len(prev) == 0 || !strings.HasPrefix(next, prev) {
		return "", false
	}
	if prev[len(prev)-1] != '\n' {
		return "", false
	}
	seg := next[len(prev):]
	if seg[len(seg)-1] != '\n' || strings.Count(seg, "\n") < 2 {
		return "", false
	}
	first := strings.TrimSpace(seg[:strings.IndexByte(seg, '\n')])
	if first == "" {
		return "", false
	}
	if strings.Trim(first, "-") == "" || strings.Trim(first, "=") == "" {
		body := prev[:len(prev)-1]
		if strings.TrimSpace(body[strings.LastIndexByte(body, '\n')+1:]) != "" {
			return "", false
		}
	}
	return seg, true
}

// lineStartBackward returns the byte offset of line in src, which holds
// lineCount newline-terminated lines.
func lineStartBackward(src string, lineCount, line int) int {
	start := len(src)
	for l := lineCount; l > line && start > 0; l-- {
		start = strings.LastIndexByte(src[:start-1], '\n') + 1
	}
	return start
}

// endsInsideFence reports whether src, which starts at a top-level block,
// leaves a fenced code block open. Overlong inputs count as open.
func endsInsideFence(src string) bool {
	var fence fenceTracker
	lines := 0
	for len(src) > 0 {
		i := strings.IndexByte(src, '\n')
		if i < 0 {
			fence.update(src)
			break
		}
		fence.update(src[:i])
		src = src[i+1:]
		if lines++; lines > maxFenceScanLines {
			return true
		}
	}
	return fence.open()
}

// sameWindowReferences reports whether the definitions found in the
// re-parsed window are exactly those the cached parse recorded there.
func sameWindowReferences(env *Env, defined map[string]Reference, window int) bool {
	n := 0
	for label, ref := range env.References {
		if ref.line < window {
			continue
		}
		n++
		if got, ok := defined[label]; !ok || got != ref {
			return false
		}
	}
	return n == len(defined)
}
