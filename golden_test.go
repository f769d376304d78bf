package mdit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRenderGolden renders every testdata/golden/*.md, with the options in
// the neighbouring .yaml when present, and compares against the .html.
// Regenerate with: go run ./cmd/gen-golden
func TestRenderGolden(t *testing.T) {
	root := filepath.Join("testdata", "golden")
	paths, err := filepath.Glob(filepath.Join(root, "*.md"))
	if err != nil {
		t.Fatalf("glob %s: %v", root, err)
	}
	if len(paths) == 0 {
		t.Fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			want, err := os.ReadFile(strings.TrimSuffix(path, ".md") + ".html")
			if err != nil {
				t.Fatalf("read golden: %v", err)
			}
			opts := goldenOptions(t, path)

			var out bytes.Buffer
			if err := Render(RenderRequest{Reader: bytes.NewReader(src), Writer: &out, Options: opts}); err != nil {
				t.Fatalf("render %s: %v", path, err)
			}
			if diff := cmp.Diff(string(want), out.String()); diff != "" {
				t.Fatalf("golden mismatch %s (-want +got):\n%s", path, diff)
			}

			out.Reset()
			err = StreamSimulate(StreamSimulateRequest{
				Reader:    bytes.NewReader(src),
				Writer:    &out,
				ChunkSize: 5,
				Options:   opts,
			})
			if err != nil {
				t.Fatalf("stream %s: %v", path, err)
			}
			if diff := cmp.Diff(string(want), out.String()); diff != "" {
				t.Fatalf("streamed mismatch %s (-want +got):\n%s", path, diff)
			}
		})
	}
}

func goldenOptions(t *testing.T, mdPath string) []Option {
	t.Helper()
	f, err := os.Open(strings.TrimSuffix(mdPath, ".md") + ".yaml")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open options: %v", err)
	}
	defer f.Close()
	o, err := LoadOptions(f)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	return []Option{WithOptions(o)}
}
