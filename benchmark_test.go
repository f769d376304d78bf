package mdit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func BenchmarkRender(b *testing.B) {
	for _, blocks := range []int{10, 100, 1000} {
		data := []byte(sectionDoc(blocks))
		b.Run("blocks"+strconv.Itoa(blocks), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			reader := bytes.NewReader(data)
			for i := 0; i < b.N; i++ {
				reader.Reset(data)
				if err := Render(RenderRequest{Reader: reader, Writer: io.Discard}); err != nil {
					b.Fatalf("render: %v", err)
				}
			}
		})
	}
}

func BenchmarkParseChunked(b *testing.B) {
	src := sectionDoc(1000)
	p := New()
	opts := ChunkOptions{MaxChunkChars: 4000, MaxChunkLines: 150, FenceAware: true}
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		_ = p.chunkedParse(src, NewEnv(), opts)
	}
}

// BenchmarkStreamParser compares re-parsing a document as it grows three
// lines at a time with and without the append fast path.
func BenchmarkStreamParser(b *testing.B) {
	prefixes := splitEvery(sectionDoc(40), 3)
	for _, fast := range []bool{true, false} {
		name := "append"
		if !fast {
			name = "full"
		}
		b.Run(name, func(b *testing.B) {
			p := New()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				sp := p.NewStreamParser()
				sp.opts.DisableFastPath = !fast
				env := NewEnv()
				for _, prefix := range prefixes {
					sp.Parse(prefix, env)
				}
			}
		})
	}
}

func BenchmarkStreamSimulate(b *testing.B) {
	data := []byte(strings.Repeat("alpha beta gamma delta epsilon\n\n", 200))
	b.ReportAllocs()
	reader := bytes.NewReader(data)
	for i := 0; i < b.N; i++ {
		reader.Reset(data)
		if err := StreamSimulate(StreamSimulateRequest{
			Reader:    reader,
			Writer:    io.Discard,
			ChunkSize: 16,
		}); err != nil {
			b.Fatalf("stream simulate: %v", err)
		}
	}
}

func BenchmarkHTTPRender(b *testing.B) {
	data := []byte(sectionDoc(100))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}))
	defer server.Close()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := HTTPRender(context.Background(), HTTPRenderRequest{
			URL:    server.URL,
			Client: server.Client(),
			Writer: io.Discard,
		}); err != nil {
			b.Fatalf("stream http: %v", err)
		}
	}
}
