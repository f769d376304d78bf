package mdit

import (
	"bufio"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
)

var defaultParserPool = sync.Pool{
	New: func() any {
		return New()
	},
}

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 4096)
	},
}

// RenderRequest configures Render.
type RenderRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Env     *Env
	Options []Option
	// Validate rejects invalid UTF-8 and binary input instead of dropping
	// the offending bytes.
	Validate bool
}

// ParseRequest configures Parse.
type ParseRequest struct {
	Reader   io.Reader
	Env      *Env
	Options  []Option
	Validate bool
}

// Render reads Markdown from Reader and writes HTML to Writer.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return errors.New("render: reader is nil")
	}
	if req.Writer == nil {
		return errors.New("render: writer is nil")
	}
	src, err := readSource(req.Reader, req.Validate)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	env := req.Env
	if env == nil {
		env = NewEnv()
	}
	p, release := acquireParser(req.Options)
	defer release()
	if err := p.Renderer.RenderTo(req.Writer, p.Parse(src, env), env); err != nil {
		return errors.Wrap(err, "render: write")
	}
	return nil
}

// Parse reads Markdown from Reader and returns its tokens.
func Parse(req ParseRequest) ([]*Token, error) {
	if req.Reader == nil {
		return nil, errors.New("parse: reader is nil")
	}
	src, err := readSource(req.Reader, req.Validate)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	env := req.Env
	if env == nil {
		env = NewEnv()
	}
	p, release := acquireParser(req.Options)
	defer release()
	return p.Parse(src, env), nil
}

// acquireParser hands out a pooled default parser when no options are
// given.
func acquireParser(opts []Option) (*Parser, func()) {
	if len(opts) > 0 {
		return New(opts...), func() {}
	}
	p := defaultParserPool.Get().(*Parser)
	return p, func() { defaultParserPool.Put(p) }
}

// readSource drains r into a string through an inputFilter, strict when
// validate is set.
func readSource(r io.Reader, validate bool) (string, error) {
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(r)
	defer func() {
		reader.Reset(nil)
		readerPool.Put(reader)
	}()

	var (
		out  []byte
		buf  [4096]byte
		tail []byte
		ferr error
	)
	f := inputFilter{strict: validate}
	for {
		n, err := reader.Read(buf[:])
		if n > 0 {
			var rest []byte
			out, rest, ferr = f.filter(out, append(tail, buf[:n]...))
			if ferr != nil {
				return "", ferr
			}
			tail = append(tail[:0:0], rest...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", errors.Wrap(err, "read")
		}
	}
	if len(tail) > 0 && validate {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}
