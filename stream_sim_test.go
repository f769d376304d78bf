package mdit

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestStreamSimulatePlainText(t *testing.T) {
	input := "alpha beta gamma"
	var out bytes.Buffer
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    strings.NewReader(input),
		Writer:    &out,
		ChunkSize: 2,
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	got := out.String()
	want := "<p>alpha beta gamma</p>\n"
	if got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
}

func TestStreamSimulateMatchesRender(t *testing.T) {
	// Blocks are written once the next one starts, so the document must not
	// use references defined further down.
	doc := strings.Replace(streamDoc, "[ref] link", "[plain](/plain) link", 1)
	opts := []Option{WithHTML(true), WithLinkify(true), WithTaskLists(true)}
	want := New(opts...).Render(doc, nil)
	for _, size := range []int{1, 3, 7, 64, 4096} {
		var out bytes.Buffer
		var stats StreamStats
		err := StreamSimulate(StreamSimulateRequest{
			Reader:    strings.NewReader(doc),
			Writer:    &out,
			ChunkSize: size,
			Options:   opts,
			Stats:     &stats,
		})
		require.NoError(t, err)
		require.Equal(t, want, out.String(), "chunk size %d", size)
		require.Positive(t, stats.Total)
	}
}

func TestStreamSimulateWritesIncrementally(t *testing.T) {
	src := "# One\n\nfirst paragraph\n\n# Two\n\nsecond paragraph\n"
	var out bytes.Buffer
	r := &snapshotReader{r: strings.NewReader(src), w: &out}
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    r,
		Writer:    &out,
		ChunkSize: 1,
	})
	require.NoError(t, err)
	require.Equal(t, New().Render(src, nil), out.String())
	require.Equal(t, "<h1>One</h1>\n<p>first paragraph</p>\n", r.atEOF)
}

func TestStreamSimulateDropsInvalidRunes(t *testing.T) {
	src := []byte("ok \xff\x01text\n")
	var out bytes.Buffer
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    bytes.NewReader(src),
		Writer:    &out,
		ChunkSize: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "<p>ok text</p>\n", out.String())
	require.True(t, utf8.ValidString(out.String()))
}

func TestStreamSimulateRejectsBadRequests(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, StreamSimulate(StreamSimulateRequest{Writer: &out, ChunkSize: 1}))
	require.Error(t, StreamSimulate(StreamSimulateRequest{Reader: strings.NewReader("x"), ChunkSize: 1}))
	require.Error(t, StreamSimulate(StreamSimulateRequest{Reader: strings.NewReader("x"), Writer: &out}))
}

// snapshotReader records what had been written when the input ran out.
type snapshotReader struct {
	r     io.Reader
	w     *bytes.Buffer
	atEOF string
	done  bool
}

func (s *snapshotReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == io.EOF && !s.done {
		s.atEOF = s.w.String()
		s.done = true
	}
	return n, err
}

func TestStreamSimulateHoldsFrontMatter(t *testing.T) {
	doc := "---\ntitle: Streamed\n---\n# Head\n\nbody\n"
	opts := []Option{WithFrontMatter(true)}
	for _, size := range []int{1, 4} {
		var out bytes.Buffer
		err := StreamSimulate(StreamSimulateRequest{
			Reader:    strings.NewReader(doc),
			Writer:    &out,
			ChunkSize: size,
			Options:   opts,
		})
		require.NoError(t, err)
		require.Equal(t, "<h1>Head</h1>\n<p>body</p>\n", out.String(), "chunk size %d", size)
	}
}
