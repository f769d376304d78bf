package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"pkt.systems/mdit"
)

func main() {
	root := filepath.Join("testdata", "golden")
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		opts, err := goldenOptions(path)
		if err != nil {
			fatalf("options for %s: %v", path, err)
		}
		var out bytes.Buffer
		err = mdit.Render(mdit.RenderRequest{
			Reader:  bytes.NewReader(src),
			Writer:  &out,
			Options: opts,
		})
		if err != nil {
			fatalf("render %s: %v", path, err)
		}
		goldenPath := goldenHTMLPath(path)
		if err := renameio.WriteFile(goldenPath, out.Bytes(), 0o644); err != nil {
			fatalf("write %s: %v", goldenPath, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
	}
}

// goldenOptions loads the optional options file that sits next to a
// fixture as <name>.yaml.
func goldenOptions(mdPath string) ([]mdit.Option, error) {
	f, err := os.Open(strings.TrimSuffix(mdPath, ".md") + ".yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	opts, err := mdit.LoadOptions(f)
	if err != nil {
		return nil, err
	}
	return []mdit.Option{mdit.WithOptions(opts)}, nil
}

func goldenHTMLPath(mdPath string) string {
	return strings.TrimSuffix(mdPath, ".md") + ".html"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
