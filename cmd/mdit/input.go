package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"pkt.systems/mdit"
)

// openInputs opens every argument, in order, and returns one reader over
// their concatenation. Remote documents are fetched the same way
// mdit.HTTPRender fetches them. Without arguments the reader is stdin.
func openInputs(ctx context.Context, client *http.Client, args []string) (io.Reader, func() error, error) {
	if len(args) == 0 {
		return os.Stdin, func() error { return nil }, nil
	}
	var (
		readers []io.Reader
		opened  []io.Closer
	)
	closeAll := func() error {
		var err error
		for _, c := range opened {
			err = errors.CombineErrors(err, c.Close())
		}
		return err
	}
	for _, arg := range args {
		rc, err := openInput(ctx, client, arg)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		readers = append(readers, rc)
		opened = append(opened, rc)
	}
	return io.MultiReader(readers...), closeAll, nil
}

// openInput accepts a path, a file:// URL or an http(s):// URL.
func openInput(ctx context.Context, client *http.Client, arg string) (io.ReadCloser, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, errors.New("empty input argument")
	}
	path := arg
	if u, err := url.Parse(arg); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return mdit.FetchMarkdown(ctx, client, arg)
		case "file":
			path = u.Path
			if path == "" {
				path = u.Host
			}
		}
	}
	f, err := os.Open(expandPath(path))
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	return f, nil
}

// expandPath resolves a leading ~ to the home directory and makes the
// result absolute when possible.
func expandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + rest
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
