package mdit

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestRenderRequest(t *testing.T) {
	var out bytes.Buffer
	err := Render(RenderRequest{
		Reader: strings.NewReader("# Hi\n\nHello *world*\n"),
		Writer: &out,
	})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>\n<p>Hello <em>world</em></p>\n", out.String())

	out.Reset()
	err = Render(RenderRequest{
		Reader:  strings.NewReader("<b>x</b>\n"),
		Writer:  &out,
		Options: []Option{WithHTML(true)},
	})
	require.NoError(t, err)
	require.Equal(t, "<p><b>x</b></p>\n", out.String())
}

func TestRenderRequestSanitizesOrValidates(t *testing.T) {
	src := "a\x00b \xffc\n"
	var out bytes.Buffer
	require.NoError(t, Render(RenderRequest{Reader: strings.NewReader(src), Writer: &out}))
	require.Equal(t, "<p>a\uFFFDb c</p>\n", out.String())

	err := Render(RenderRequest{Reader: strings.NewReader(src), Writer: &out, Validate: true})
	require.True(t, errors.Is(err, ErrInvalidUTF8) || errors.Is(err, ErrBinaryInput), "got %v", err)

	err = Render(RenderRequest{Reader: strings.NewReader("ok \xe2\x82"), Writer: &out, Validate: true})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestRenderRequestLargeInput(t *testing.T) {
	// Crosses the read buffer size with a multi-byte rune on the boundary.
	src := strings.Repeat("x", 4095) + "é\n"
	var out bytes.Buffer
	require.NoError(t, Render(RenderRequest{Reader: strings.NewReader(src), Writer: &out, Validate: true}))
	require.Equal(t, "<p>"+strings.Repeat("x", 4095)+"é</p>\n", out.String())
}

func TestRenderRequestErrors(t *testing.T) {
	require.Error(t, Render(RenderRequest{Writer: &bytes.Buffer{}}))
	require.Error(t, Render(RenderRequest{Reader: strings.NewReader("x")}))
	_, err := Parse(ParseRequest{})
	require.Error(t, err)
}

func TestParseRequestFillsEnv(t *testing.T) {
	env := NewEnv()
	tokens, err := Parse(ParseRequest{
		Reader:  strings.NewReader("---\ntitle: T\n---\n[a]: /x\n\n[a]\n"),
		Env:     env,
		Options: []Option{WithFrontMatter(true)},
	})
	require.NoError(t, err)
	require.NoError(t, ValidateTokens(tokens))
	require.Equal(t, "T", env.FrontMatter["title"])
	require.Len(t, env.References, 1)
}

func TestHTTPRender(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Remote\n\n- one\n- two\n"))
	}))
	defer server.Close()

	var out bytes.Buffer
	err := HTTPRender(context.Background(), HTTPRenderRequest{
		URL:    server.URL + "/doc.md",
		Client: server.Client(),
		Writer: &out,
	})
	require.NoError(t, err)
	require.Equal(t, "<h1>Remote</h1>\n<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n", out.String())
	require.Contains(t, accept, "text/markdown")

	err = HTTPRender(context.Background(), HTTPRenderRequest{
		URL:    server.URL + "/missing",
		Client: server.Client(),
		Writer: &out,
	})
	require.ErrorContains(t, err, "404")

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: "ftp://example.com/x", Writer: &out})
	require.ErrorContains(t, err, "unsupported scheme")
	require.Error(t, HTTPRender(context.Background(), HTTPRenderRequest{Writer: &out}))
	require.Error(t, HTTPRender(context.Background(), HTTPRenderRequest{URL: server.URL}))
}

func TestHTTPRenderCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := HTTPRender(ctx, HTTPRenderRequest{URL: server.URL, Client: server.Client(), Writer: &bytes.Buffer{}})
	require.ErrorIs(t, err, context.Canceled)
}
