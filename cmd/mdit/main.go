package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/renameio"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
	"pkt.systems/mdit"
	"pkt.systems/version"
)

const (
	defaultWidth     = 80
	defaultChunkSize = 3
	defaultDelay     = 20 * time.Millisecond
	defaultTimeout   = 30 * time.Second
)

func init() {
	version.SetDefaultModule("pkt.systems/mdit")
}

type cliConfig struct {
	configPath   string
	html         bool
	xhtml        bool
	breaks       bool
	linkify      bool
	typographer  bool
	frontMatter  bool
	taskLists    bool
	chunked      bool
	disable      []string
	dumpTokens   bool
	widthFlag    int
	simulate     bool
	simChunkSize int
	simDelay     time.Duration
	stats        bool
	validate     bool
	outPath      string
	verbose      bool
	timeout      time.Duration
}

func main() {
	var cfg cliConfig
	flags := pflag.NewFlagSet("mdit", pflag.ExitOnError)
	flags.StringVarP(&cfg.configPath, "config", "c", "", "YAML options file")
	flags.BoolVar(&cfg.html, "html", false, "Allow raw HTML in the source")
	flags.BoolVar(&cfg.xhtml, "xhtml", false, "Close void tags XHTML style")
	flags.BoolVar(&cfg.breaks, "breaks", false, "Render soft line breaks as <br>")
	flags.BoolVar(&cfg.linkify, "linkify", false, "Turn bare URLs into links")
	flags.BoolVar(&cfg.typographer, "typographer", false, "Smart quotes and dash/ellipsis replacement")
	flags.BoolVar(&cfg.frontMatter, "front-matter", false, "Strip leading YAML/TOML/JSON front matter")
	flags.BoolVar(&cfg.taskLists, "task-lists", false, "Render [ ] and [x] list items as checkboxes")
	flags.BoolVar(&cfg.chunked, "chunked", false, "Parse very large inputs in independent chunks")
	flags.StringSliceVar(&cfg.disable, "disable", nil, "Rule names to disable")
	flags.BoolVarP(&cfg.dumpTokens, "tokens", "T", false, "Print the token stream instead of HTML")
	flags.IntVarP(&cfg.widthFlag, "width", "w", 0, "Token dump width (0 uses terminal width if available)")
	flags.BoolVar(&cfg.simulate, "simulate", false, "Feed input through the stream parser in small chunks")
	flags.IntVar(&cfg.simChunkSize, "simulate-chunk", defaultChunkSize, "Runes per simulated chunk")
	flags.DurationVar(&cfg.simDelay, "simulate-delay", defaultDelay, "Delay per simulated chunk")
	flags.BoolVar(&cfg.stats, "stats", false, "Print stream parser statistics to stderr (with --simulate)")
	flags.BoolVar(&cfg.validate, "validate", false, "Reject invalid UTF-8 and binary input")
	flags.StringVarP(&cfg.outPath, "output", "o", "", "Output file instead of stdout (written atomically)")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Log parser decisions to stderr")
	flags.DurationVar(&cfg.timeout, "timeout", defaultTimeout, "Time limit for fetching and reading http(s) inputs (0 disables)")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mdit [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nInputs are files, file:// or http(s):// URLs. Without inputs, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	var log *zap.Logger
	if cfg.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	opts, err := buildOptions(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "options: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	reader, closeInputs, err := openInputs(ctx, http.DefaultClient, flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeInputs() }()

	var out bytes.Buffer
	var w io.Writer = os.Stdout
	if cfg.outPath != "" {
		w = &out
	}

	if err := run(cfg, opts, reader, w); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if cfg.outPath != "" {
		if err := writeOutput(cfg.outPath, out.Bytes()); err != nil {
			fmt.Fprintf(os.Stderr, "write output: %v\n", err)
			os.Exit(1)
		}
	}
}

func run(cfg cliConfig, opts []mdit.Option, r io.Reader, w io.Writer) error {
	switch {
	case cfg.simulate:
		var stats mdit.StreamStats
		err := mdit.StreamSimulate(mdit.StreamSimulateRequest{
			Reader:    r,
			Writer:    w,
			ChunkSize: cfg.simChunkSize,
			Delay:     cfg.simDelay,
			Options:   opts,
			Stats:     &stats,
		})
		if err != nil {
			return err
		}
		if cfg.stats {
			fmt.Fprintln(os.Stderr, formatStats(stats))
		}
		return nil
	case !cfg.dumpTokens && len(cfg.disable) == 0:
		return mdit.Render(mdit.RenderRequest{Reader: r, Writer: w, Options: opts, Validate: cfg.validate})
	}

	src, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read")
	}
	if cfg.validate {
		if err := mdit.ValidateInput(src); err != nil {
			return err
		}
	}
	p := mdit.New(opts...)
	if len(cfg.disable) > 0 {
		if err := p.Disable(cfg.disable, false); err != nil {
			return err
		}
	}
	env := mdit.NewEnv()
	tokens := p.Parse(string(src), env)
	if cfg.dumpTokens {
		return mdit.DumpTokens(w, tokens, resolveWidth(cfg.widthFlag))
	}
	return p.Renderer.RenderTo(w, tokens, env)
}

func buildOptions(cfg cliConfig, log *zap.Logger) ([]mdit.Option, error) {
	var opts []mdit.Option
	if cfg.configPath != "" {
		f, err := os.Open(expandPath(cfg.configPath))
		if err != nil {
			return nil, errors.Wrap(err, "open config")
		}
		loaded, err := mdit.LoadOptions(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", cfg.configPath)
		}
		opts = append(opts, mdit.WithOptions(loaded))
	}
	flagOpts := []struct {
		set bool
		opt mdit.Option
	}{
		{cfg.html, mdit.WithHTML(true)},
		{cfg.xhtml, mdit.WithXHTMLOut(true)},
		{cfg.breaks, mdit.WithBreaks(true)},
		{cfg.linkify, mdit.WithLinkify(true)},
		{cfg.typographer, mdit.WithTypographer(true)},
		{cfg.frontMatter, mdit.WithFrontMatter(true)},
		{cfg.taskLists, mdit.WithTaskLists(true)},
		{cfg.chunked, mdit.WithChunkedFallback(true)},
	}
	for _, fo := range flagOpts {
		if fo.set {
			opts = append(opts, fo.opt)
		}
	}
	if log != nil {
		opts = append(opts, mdit.WithLogger(log))
	}
	return opts, nil
}

func formatStats(s mdit.StreamStats) string {
	return fmt.Sprintf("stream: %s parses (%s cached, %s appended, %s full, %s chunked), last mode %s",
		humanize.Comma(int64(s.Total)),
		humanize.Comma(int64(s.CacheHits)),
		humanize.Comma(int64(s.AppendHits)),
		humanize.Comma(int64(s.FullParses)),
		humanize.Comma(int64(s.ChunkedParses)),
		s.LastMode)
}

func writeOutput(path string, data []byte) error {
	clean := expandPath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	if err := renameio.WriteFile(clean, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", clean)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", clean, humanize.Bytes(uint64(len(data))))
	return nil
}

// resolveWidth picks the token dump width from the flag, then the
// terminal, then $COLUMNS.
func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}
