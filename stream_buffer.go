package mdit

import (
	"bytes"
	"strings"
)

// StreamBuffer collects streamed text and hands it to a StreamParser only
// at boundaries where the append fast path applies.
type StreamBuffer struct {
	sp     *StreamParser
	env    *Env
	buf    []byte
	parsed int
	tokens []*Token

	fence   fenceTracker
	scanned int
}

// NewStreamBuffer returns a buffer feeding sp. A nil env gets a fresh one
// that is reused for every flush.
func NewStreamBuffer(sp *StreamParser, env *Env) *StreamBuffer {
	if env == nil {
		env = NewEnv()
	}
	return &StreamBuffer{sp: sp, env: env}
}

// Feed appends text without parsing.
func (b *StreamBuffer) Feed(text string) {
	b.buf = append(b.buf, text...)
}

// Pending returns the number of bytes fed since the last flush.
func (b *StreamBuffer) Pending() int {
	return len(b.buf) - b.parsed
}

// FlushIfBoundary parses when the unparsed tail ends with a newline, holds
// at least two newlines and does not leave a fenced code block open.
func (b *StreamBuffer) FlushIfBoundary() ([]*Token, bool) {
	tail := b.buf[b.parsed:]
	if len(tail) == 0 || tail[len(tail)-1] != '\n' || bytes.Count(tail, []byte{'\n'}) < 2 {
		return b.tokens, false
	}
	b.scanFences()
	if b.fence.open() {
		return b.tokens, false
	}
	return b.FlushForce(), true
}

// FlushForce parses everything fed so far.
func (b *StreamBuffer) FlushForce() []*Token {
	if b.parsed == len(b.buf) && b.tokens != nil {
		return b.tokens
	}
	b.tokens = b.sp.Parse(string(b.buf), b.env)
	b.parsed = len(b.buf)
	return b.tokens
}

// Tokens returns the tokens of the last flush.
func (b *StreamBuffer) Tokens() []*Token {
	return b.tokens
}

// Env returns the environment shared by every flush.
func (b *StreamBuffer) Env() *Env {
	return b.env
}

// String returns everything fed so far.
func (b *StreamBuffer) String() string {
	return string(b.buf)
}

func (b *StreamBuffer) scanFences() {
	for {
		i := bytes.IndexByte(b.buf[b.scanned:], '\n')
		if i < 0 {
			return
		}
		b.fence.update(strings.TrimSuffix(string(b.buf[b.scanned:b.scanned+i]), "\r"))
		b.scanned += i + 1
	}
}
