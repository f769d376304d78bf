package mdit

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// markdownAccept prefers Markdown and plain text over anything else a
// server might negotiate.
const markdownAccept = "text/markdown, text/x-markdown;q=0.95, text/plain;q=0.9, */*;q=0.1"

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL      string
	Client   *http.Client
	Writer   io.Writer
	Env      *Env
	Options  []Option
	Validate bool
}

// FetchMarkdown issues a GET for an http or https URL and returns the
// response body for the caller to close. Non-2xx responses are errors.
// A nil client uses http.DefaultClient.
func FetchMarkdown(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	if rawURL == "" {
		return nil, errors.New("fetch: URL is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch: build request")
	}
	switch strings.ToLower(req.URL.Scheme) {
	case "http", "https":
	default:
		return nil, errors.Newf("fetch: unsupported scheme %q", req.URL.Scheme)
	}
	req.Header.Set("Accept", markdownAccept)
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.Newf("fetch %s: status %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}

// HTTPRender fetches Markdown with FetchMarkdown and writes HTML.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) error {
	if req.Writer == nil {
		return errors.New("http render: Writer is nil")
	}
	body, err := FetchMarkdown(ctx, req.Client, req.URL)
	if err != nil {
		return errors.Wrap(err, "http render")
	}
	defer body.Close()
	return Render(RenderRequest{
		Reader:   body,
		Writer:   req.Writer,
		Env:      req.Env,
		Options:  req.Options,
		Validate: req.Validate,
	})
}
