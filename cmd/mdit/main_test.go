package main

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pkt.systems/mdit"
)

func readInputs(t *testing.T, client *http.Client, args ...string) string {
	t.Helper()
	reader, closeInputs, err := openInputs(context.Background(), client, args)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeInputs()) }()
	buf, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(buf)
}

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	require.Equal(t, "hello", readInputs(t, nil, path))
	require.Equal(t, "hello", readInputs(t, nil, "file://"+path))

	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("stream"))
	}))
	defer srv.Close()
	require.Equal(t, "stream", readInputs(t, srv.Client(), srv.URL))
	require.Contains(t, accept, "text/markdown")
}

func TestOpenInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(first, []byte("one "), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("two"), 0o644))
	require.Equal(t, "one two", readInputs(t, nil, first, second))
}

func TestOpenInputsFailsBeforeReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "a.md")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	_, _, err := openInputs(context.Background(), srv.Client(), []string{path, srv.URL + "/gone.md"})
	require.ErrorContains(t, err, "404")

	_, _, err = openInputs(context.Background(), nil, []string{filepath.Join(t.TempDir(), "missing.md")})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenInputsRejectsEmptyArgument(t *testing.T) {
	if _, _, err := openInputs(context.Background(), nil, []string{"  "}); err == nil {
		t.Fatalf("expected error for empty argument")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.Equal(t, home, expandPath("~"))
	require.Equal(t, filepath.Join(home, "notes.md"), expandPath("~/notes.md"))
	require.True(t, filepath.IsAbs(expandPath("~other/x.md")))
	require.NotEqual(t, home, filepath.Dir(expandPath("~other/x.md")))
}

func TestResolveWidth(t *testing.T) {
	require.Equal(t, 42, resolveWidth(42))
	t.Setenv("COLUMNS", "57")
	// Test output is not a terminal.
	require.Equal(t, 57, resolveWidth(0))
	t.Setenv("COLUMNS", "junk")
	require.Equal(t, defaultWidth, resolveWidth(0))
}

func TestRunRendersHTML(t *testing.T) {
	var out bytes.Buffer
	err := run(cliConfig{}, nil, strings.NewReader("# Hi\n\nHello *world*\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>\n<p>Hello <em>world</em></p>\n", out.String())
}

func TestRunDisablesRules(t *testing.T) {
	var out bytes.Buffer
	err := run(cliConfig{disable: []string{"emphasis"}}, nil, strings.NewReader("Hello *world*\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "<p>Hello *world*</p>\n", out.String())

	err = run(cliConfig{disable: []string{"no_such_rule"}}, nil, strings.NewReader("x\n"), io.Discard)
	require.ErrorIs(t, err, mdit.ErrRuleNotFound)
}

func TestRunDumpsTokens(t *testing.T) {
	var out bytes.Buffer
	err := run(cliConfig{dumpTokens: true, widthFlag: 80}, nil, strings.NewReader("Hello *world*\n"), &out)
	require.NoError(t, err)
	got := out.String()
	require.Contains(t, got, "paragraph_open <p> [0,1)")
	require.Contains(t, got, "  em_open <em>")
}

func TestRunSimulateMatchesRender(t *testing.T) {
	src := "# Title\n\nFirst paragraph\nwith two lines.\n\n- a\n- b\n\n```go\nfmt.Println(1)\n```\n\nTail.\n"
	var want, got bytes.Buffer
	require.NoError(t, run(cliConfig{}, nil, strings.NewReader(src), &want))
	cfg := cliConfig{simulate: true, simChunkSize: 5}
	require.NoError(t, run(cfg, nil, strings.NewReader(src), &got))
	require.Equal(t, want.String(), got.String())
}

func TestRunValidateRejectsBinary(t *testing.T) {
	err := run(cliConfig{validate: true}, nil, strings.NewReader("abc\x00def"), io.Discard)
	require.ErrorIs(t, err, mdit.ErrBinaryInput)
}

func TestBuildOptionsFromConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mdit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("html: true\nlang_prefix: lang-\n"), 0o644))

	opts, err := buildOptions(cliConfig{configPath: path, typographer: true}, nil)
	require.NoError(t, err)
	got := mdit.New(opts...).Options()
	require.True(t, got.HTML)
	require.True(t, got.Typographer)
	require.Equal(t, "lang-", got.LangPrefix)
	require.False(t, got.Linkify)
}

func TestBuildOptionsMissingConfig(t *testing.T) {
	_, err := buildOptions(cliConfig{configPath: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.Error(t, err)
}

func TestWriteOutputIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.html")
	require.NoError(t, writeOutput(path, []byte("<p>one</p>\n")))
	require.NoError(t, writeOutput(path, []byte("<p>two</p>\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<p>two</p>\n", string(data))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFormatStats(t *testing.T) {
	got := formatStats(mdit.StreamStats{Total: 1234, CacheHits: 1, AppendHits: 1000, FullParses: 233, LastMode: mdit.ModeAppend})
	require.Equal(t, "stream: 1,234 parses (1 cached, 1,000 appended, 233 full, 0 chunked), last mode append", got)
}
