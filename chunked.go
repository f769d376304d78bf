package mdit

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkOptions controls SplitIntoChunks.
type ChunkOptions struct {
	// MaxChunkChars and MaxChunkLines are soft budgets: a chunk is closed
	// at the next safe block boundary once either is reached, and forced
	// closed outside fences at twice the budget.
	MaxChunkChars int
	MaxChunkLines int
	// FenceAware never splits inside a fenced code block.
	FenceAware bool
	// MaxChunks grows the budgets so the document splits into at most
	// roughly this many chunks. Zero means unbounded.
	MaxChunks int
}

// SplitIntoChunks cuts src into pieces that can be parsed independently.
// Chunks end after a blank line followed by an unindented line that
// starts a fresh top-level block. Concatenating the chunks yields src.
func SplitIntoChunks(src string, o ChunkOptions) []string {
	if src == "" {
		return nil
	}
	maxChars, maxLines := o.MaxChunkChars, o.MaxChunkLines
	if maxChars <= 0 {
		maxChars = len(src)
	}
	if maxLines <= 0 {
		maxLines = countLines(src) + 1
	}
	if o.MaxChunks > 0 {
		if len(src)/maxChars+1 > o.MaxChunks {
			maxChars = (len(src) + o.MaxChunks - 1) / o.MaxChunks
		}
		if lines := countLines(src); lines/maxLines+1 > o.MaxChunks {
			maxLines = (lines + o.MaxChunks - 1) / o.MaxChunks
		}
	}

	var (
		chunks     []string
		start      int
		chunkLines int
		fence      fenceTracker
	)
	for pos := 0; pos < len(src); {
		end := strings.IndexByte(src[pos:], '\n')
		next := len(src)
		line := src[pos:]
		if end >= 0 {
			line = src[pos : pos+end]
			next = pos + end + 1
		}
		chunkLines++
		if o.FenceAware {
			fence.update(line)
		}
		pos = next
		if pos >= len(src) || fence.open() {
			continue
		}

		size := pos - start
		switch {
		case strings.TrimSpace(line) == "" && (size >= maxChars || chunkLines >= maxLines) && safeChunkStart(src[pos:]):
		case size >= 2*maxChars || chunkLines >= 2*maxLines:
		default:
			continue
		}
		chunks = append(chunks, src[start:pos])
		start = pos
		chunkLines = 0
	}
	if start < len(src) {
		chunks = append(chunks, src[start:])
	}
	return chunks
}

// safeChunkStart reports whether the line at the start of rest begins a
// block that cannot continue whatever precedes the blank line before it.
func safeChunkStart(rest string) bool {
	line := rest
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
	}
	if strings.TrimSpace(line) == "" {
		return false
	}
	switch line[0] {
	case ' ', '\t', '>', '|':
		return false
	case '-', '+', '*':
		if len(line) == 1 || line[1] == ' ' || line[1] == '\t' {
			return false
		}
	}
	if isDigit(line[0]) {
		i := 0
		for i < len(line) && i < 10 && isDigit(line[i]) {
			i++
		}
		if i < len(line) && (line[i] == '.' || line[i] == ')') {
			return false
		}
	}
	return !strings.Contains(line, "|")
}

// fenceTracker follows top-level fenced code blocks line by line.
type fenceTracker struct {
	marker byte
	length int
}

func (f *fenceTracker) open() bool {
	return f.length > 0
}

func (f *fenceTracker) update(line string) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 {
		return
	}
	rest := line[indent:]
	if len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return
	}
	n := 0
	for n < len(rest) && rest[n] == rest[0] {
		n++
	}
	if n < 3 {
		return
	}
	if f.open() {
		if rest[0] == f.marker && n >= f.length && strings.TrimSpace(rest[n:]) == "" {
			f.marker, f.length = 0, 0
		}
		return
	}
	if rest[0] == '`' && strings.IndexByte(rest[n:], '`') >= 0 {
		return
	}
	f.marker, f.length = rest[0], n
}

// chunkedParse parses each chunk of src as an independent fragment and
// concatenates the results with line maps made absolute. Reference
// definitions are shared forward through env.
func (p *Parser) chunkedParse(src string, env *Env, o ChunkOptions) []*Token {
	if strings.ContainsAny(src, "\r\x00") {
		src = newlineNormalizer.Replace(src)
	}
	chunks := SplitIntoChunks(src, o)
	p.log.Debug("chunked parse", zap.Int("chunks", len(chunks)), zap.Int("bytes", len(src)))

	var out []*Token
	line := 0
	for i, chunk := range chunks {
		if i == 0 {
			out = p.parse(chunk, env, false)
			line = strings.Count(chunk, "\n")
			continue
		}
		tokens, defined := p.parseWindow(chunk, env, line, true)
		for label, ref := range defined {
			env.defineReference(label, ref)
		}
		out = append(out, tokens...)
		line += strings.Count(chunk, "\n")
	}
	return out
}

// parseWindow parses src as if it started at line firstLine of a larger
// document. References already in env are visible to src but env is not
// modified; definitions made by src are returned with absolute lines.
func (p *Parser) parseWindow(src string, env *Env, firstLine int, fragment bool) ([]*Token, map[string]Reference) {
	scratch := &Env{
		References:  make(map[string]Reference, len(env.References)),
		FrontMatter: env.FrontMatter,
	}
	for label, ref := range env.References {
		if ref.line < firstLine {
			scratch.References[label] = ref
		}
	}
	seeded := len(scratch.References)

	tokens := p.parse(src, scratch, fragment)
	shiftTokenLines(tokens, firstLine)
	if !fragment && scratch.FrontMatter != nil {
		env.FrontMatter = scratch.FrontMatter
	}

	if len(scratch.References) == seeded {
		return tokens, nil
	}
	defined := make(map[string]Reference, len(scratch.References)-seeded)
	for label, ref := range scratch.References {
		if prev, ok := env.References[label]; ok && prev.line < firstLine {
			continue
		}
		ref.line += firstLine
		defined[label] = ref
	}
	return tokens, defined
}

// shiftTokenLines adds offset to every line map in tokens and their
// children.
func shiftTokenLines(tokens []*Token, offset int) {
	if offset == 0 {
		return
	}
	stack := append([]*Token(nil), tokens...)
	for len(stack) > 0 {
		tok := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if tok.Map != nil {
			tok.Map[0] += offset
			tok.Map[1] += offset
		}
		stack = append(stack, tok.Children...)
	}
}
