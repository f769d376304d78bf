package mdit

import (
	"bufio"
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

// StreamSimulateRequest configures StreamSimulate.
type StreamSimulateRequest struct {
	Reader io.Reader
	Writer io.Writer
	// ChunkSize is the number of runes fed per simulated network chunk.
	ChunkSize int
	// Delay is slept after every chunk.
	Delay   time.Duration
	Options []Option
	// Stats receives the stream parser counters when set.
	Stats *StreamStats
}

// StreamSimulate feeds Reader to a StreamParser ChunkSize runes at a time,
// the way tokens arrive from a model, and writes HTML for each top-level
// block once a later block has started. The remainder is written at EOF.
func StreamSimulate(req StreamSimulateRequest) error {
	if req.Reader == nil {
		return errors.New("stream simulate: Reader is nil")
	}
	if req.Writer == nil {
		return errors.New("stream simulate: Writer is nil")
	}
	if req.ChunkSize <= 0 {
		return errors.New("stream simulate: ChunkSize must be > 0")
	}
	p := New(req.Options...)
	sp := p.NewStreamParser()
	sb := NewStreamBuffer(sp, nil)
	sim := streamSim{r: p.Renderer, w: req.Writer, env: sb.Env()}

	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(req.Reader)
	defer func() {
		reader.Reset(nil)
		readerPool.Put(reader)
	}()

	var (
		chunk  []rune
		filter inputFilter
	)
	feed := func() error {
		sb.Feed(string(chunk))
		chunk = chunk[:0]
		if tokens, ok := sb.FlushIfBoundary(); ok {
			upto := stablePrefix(tokens)
			if p.opts.FrontMatter && sim.emitted == 0 && frontMatterPending(sb.String(), tokens) {
				upto = 0
			}
			if err := sim.emit(tokens, upto); err != nil {
				return err
			}
		}
		if req.Delay > 0 {
			time.Sleep(req.Delay)
		}
		return nil
	}
	for {
		r, size, err := reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "stream simulate: read")
		}
		kept, ok, _ := filter.next(r, size)
		if !ok {
			continue
		}
		chunk = append(chunk, kept)
		if len(chunk) >= req.ChunkSize {
			if err := feed(); err != nil {
				return errors.Wrap(err, "stream simulate: write")
			}
		}
	}
	if len(chunk) > 0 {
		sb.Feed(string(chunk))
	}
	tokens := sb.FlushForce()
	if err := sim.emit(tokens, len(tokens)); err != nil {
		return errors.Wrap(err, "stream simulate: write")
	}
	if req.Stats != nil {
		*req.Stats = sp.Stats()
	}
	return nil
}

type streamSim struct {
	r       *Renderer
	w       io.Writer
	env     *Env
	emitted int
}

func (s *streamSim) emit(tokens []*Token, upto int) error {
	if upto <= s.emitted {
		return nil
	}
	err := s.r.renderRange(s.w, tokens, s.emitted, upto, s.env)
	s.emitted = upto
	return err
}

// stablePrefix returns the index of the token that opens the last
// top-level block. Appends can only change tokens from there on.
func stablePrefix(tokens []*Token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if t := tokens[i]; t.Level == 0 && t.Nesting != -1 {
			return i
		}
	}
	return 0
}
