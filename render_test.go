package mdit

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func optionsFromArgs(d *datadriven.TestData) []Option {
	var opts []Option
	flags := map[string]Option{
		"html":        WithHTML(true),
		"xhtml":       WithXHTMLOut(true),
		"breaks":      WithBreaks(true),
		"linkify":     WithLinkify(true),
		"typographer": WithTypographer(true),
		"tasks":       WithTaskLists(true),
		"frontmatter": WithFrontMatter(true),
	}
	for _, arg := range d.CmdArgs {
		if opt, ok := flags[arg.Key]; ok {
			opts = append(opts, opt)
		}
	}
	return opts
}

// TestDataDriven runs the files under testdata/datadriven. Commands:
//
//	render [html] [xhtml] [breaks] [linkify] [typographer] [tasks] [frontmatter]
//	dump [width=N]
//	stream chunk=N
//	chunks chars=N lines=N
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata/datadriven", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			src := d.Input + "\n"
			switch d.Cmd {
			case "render":
				p := New(optionsFromArgs(d)...)
				tokens := p.Parse(src, nil)
				if err := ValidateTokens(tokens); err != nil {
					d.Fatalf(t, "unbalanced tokens: %v", err)
				}
				return p.Renderer.Render(tokens, nil)

			case "dump":
				width := 80
				if d.HasArg("width") {
					d.ScanArgs(t, "width", &width)
				}
				var out bytes.Buffer
				if err := DumpTokens(&out, New(optionsFromArgs(d)...).Parse(src, nil), width); err != nil {
					d.Fatalf(t, "dump: %v", err)
				}
				return out.String()

			case "stream":
				var chunk int
				d.ScanArgs(t, "chunk", &chunk)
				var out bytes.Buffer
				if err := StreamSimulate(StreamSimulateRequest{
					Reader:    strings.NewReader(src),
					Writer:    &out,
					ChunkSize: chunk,
					Options:   optionsFromArgs(d),
				}); err != nil {
					d.Fatalf(t, "stream: %v", err)
				}
				return out.String()

			case "chunks":
				var chars, lines int
				d.ScanArgs(t, "chars", &chars)
				d.ScanArgs(t, "lines", &lines)
				var b strings.Builder
				for _, c := range SplitIntoChunks(src, ChunkOptions{MaxChunkChars: chars, MaxChunkLines: lines, FenceAware: true}) {
					b.WriteString(strconv.Quote(c))
					b.WriteByte('\n')
				}
				return b.String()

			default:
				d.Fatalf(t, "unknown command: %s", d.Cmd)
				return ""
			}
		})
	})
}

func TestRendererCustomRule(t *testing.T) {
	p := New()
	p.Renderer.Rules["code_inline"] = func(r *Renderer, tokens []*Token, idx int, env *Env) string {
		return "<kbd>" + escapeHTML(tokens[idx].Content) + "</kbd>"
	}
	require.Equal(t, "<p>press <kbd>Ctrl</kbd></p>\n", p.Render("press `Ctrl`\n", nil))
}

func TestRendererAttrs(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	tok := NewToken("link_open", "a", 1)
	tok.AttrSet("href", `/x?a=1&b="2"`)
	tok.AttrPush("class", "a")
	tok.AttrJoin("class", "b")
	require.Equal(t, ` href="/x?a=1&amp;b=&quot;2&quot;" class="a b"`, r.RenderAttrs(tok))
	require.Equal(t, `<a href="/x?a=1&amp;b=&quot;2&quot;" class="a b">`, r.RenderToken([]*Token{tok}, 0))
}

func TestRenderInlineAsText(t *testing.T) {
	p := New(WithHTML(true))
	tokens := p.Parse("![a *b* <i>c</i>\nd](/img)\n", nil)
	img := tokens[1].Children[0]
	require.Equal(t, "image", img.Type)
	require.Equal(t, "a b <i>c</i>\nd", p.Renderer.RenderInlineAsText(img.Children, nil))
}

func TestRenderToWriterError(t *testing.T) {
	p := New()
	tokens := p.Parse("# a\n\nb\n", nil)
	err := p.Renderer.RenderTo(failingWriter{}, tokens, nil)
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, bytes.ErrTooLarge
}

func TestTokenHelpers(t *testing.T) {
	tok := NewToken("paragraph_open", "p", 1)
	tok.Map = []int{1, 2}
	tok.Children = []*Token{{Type: "text", Content: "x"}}
	tok.AttrPush("id", "a")
	tok.AttrPush("id", "b")
	v, ok := tok.AttrGet("id")
	require.True(t, ok)
	require.Equal(t, "a", v)
	require.Equal(t, -1, tok.AttrIndex("missing"))

	clone := CloneTokens([]*Token{tok})[0]
	clone.Map[0] = 9
	clone.Attrs[0].Value = "z"
	clone.Children[0].Content = "y"
	require.Equal(t, 1, tok.Map[0])
	require.Equal(t, "a", tok.Attrs[0].Value)
	require.Equal(t, "x", tok.Children[0].Content)
}
