package mdit

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
)

type renderCase struct {
	name string
	src  string
	want string
}

func runRenderCases(t *testing.T, p *Parser, cases []renderCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := p.Parse(tc.src, nil)
			if err := ValidateTokens(tokens); err != nil {
				t.Fatalf("ValidateTokens: %v", err)
			}
			got := p.Renderer.Render(tokens, nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("render %q mismatch (-want +got):\n%s", tc.src, diff)
			}
		})
	}
}

func TestRenderBlocks(t *testing.T) {
	runRenderCases(t, New(), []renderCase{
		{"heading and paragraph", "# Hi\n\nHello *world*\n", "<h1>Hi</h1>\n<p>Hello <em>world</em></p>\n"},
		{"closing hashes", "## foo ##\n", "<h2>foo</h2>\n"},
		{"setext h1", "Title\n=====\n", "<h1>Title</h1>\n"},
		{"setext h2", "Sub\n---\n", "<h2>Sub</h2>\n"},
		{"thematic break", "***\n", "<hr>\n"},
		{"tight list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
		{"loose list", "- a\n\n- b\n", "<ul>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ul>\n"},
		{"nested list", "- a\n  - b\n", "<ul>\n<li>a\n<ul>\n<li>b</li>\n</ul>\n</li>\n</ul>\n"},
		{"ordered list", "1. one\n2. two\n", "<ol>\n<li>one</li>\n<li>two</li>\n</ol>\n"},
		{"ordered start", "3. three\n", "<ol start=\"3\">\n<li>three</li>\n</ol>\n"},
		{"blockquote", "> quote\n", "<blockquote>\n<p>quote</p>\n</blockquote>\n"},
		{"lazy blockquote", "> a\nb\n", "<blockquote>\n<p>a\nb</p>\n</blockquote>\n"},
		{"fence", "```go\nfmt.Println(\"<hi>\")\n```\n", "<pre><code class=\"language-go\">fmt.Println(&quot;&lt;hi&gt;&quot;)\n</code></pre>\n"},
		{"tilde fence", "~~~\na\n~~~\n", "<pre><code>a\n</code></pre>\n"},
		{"unclosed fence", "```\ncode\n", "<pre><code>code\n</code></pre>\n"},
		{"indented code", "    code\n", "<pre><code>code\n</code></pre>\n"},
		{"table", "| a | b |\n| :-: | --- |\n| 1 | 2 |\n",
			"<table>\n<thead>\n<tr>\n<th style=\"text-align:center\">a</th>\n<th>b</th>\n</tr>\n</thead>\n" +
				"<tbody>\n<tr>\n<td style=\"text-align:center\">1</td>\n<td>2</td>\n</tr>\n</tbody>\n</table>\n"},
		{"reference", "[Foo]\n\n[foo]: /url \"title\"\n", "<p><a href=\"/url\" title=\"title\">Foo</a></p>\n"},
		{"html disabled", "<div>x</div>\n", "<p>&lt;div&gt;x&lt;/div&gt;</p>\n"},
	})
}

func TestRenderHTMLEnabled(t *testing.T) {
	runRenderCases(t, New(WithHTML(true)), []renderCase{
		{"block", "<div>x</div>\n", "<div>x</div>\n"},
		{"inline", "a <b>c</b>\n", "<p>a <b>c</b></p>\n"},
		{"comment", "<!-- note -->\n", "<!-- note -->\n"},
	})
}

func TestRenderOptions(t *testing.T) {
	runRenderCases(t, New(WithBreaks(true)), []renderCase{
		{"breaks", "a\nb\n", "<p>a<br>\nb</p>\n"},
	})
	runRenderCases(t, New(WithXHTMLOut(true), WithBreaks(true)), []renderCase{
		{"xhtml image", "![a](b)\n", "<p><img src=\"b\" alt=\"a\" /></p>\n"},
		{"xhtml break", "a\nb\n", "<p>a<br />\nb</p>\n"},
		{"xhtml hr", "---\n", "<hr />\n"},
	})
	runRenderCases(t, New(WithLangPrefix("lang-")), []renderCase{
		{"prefix", "```js\nx\n```\n", "<pre><code class=\"lang-js\">x\n</code></pre>\n"},
	})
}

func TestRenderHighlight(t *testing.T) {
	var gotLang, gotAttrs string
	p := New(WithHighlight(func(code, lang, attrs string) string {
		gotLang, gotAttrs = lang, attrs
		if lang == "plain" {
			return ""
		}
		return "<pre class=\"hl\">" + strings.ToUpper(code) + "</pre>"
	}))
	got := p.Render("```go {linenos}\nx\n```\n", nil)
	if want := "<pre class=\"hl\">X\n</pre>\n"; got != want {
		t.Fatalf("highlighted fence = %q, want %q", got, want)
	}
	if gotLang != "go" || gotAttrs != "{linenos}" {
		t.Fatalf("highlight called with lang %q attrs %q", gotLang, gotAttrs)
	}
	got = p.Render("```plain\n<x>\n```\n", nil)
	if want := "<pre><code class=\"language-plain\">&lt;x&gt;\n</code></pre>\n"; got != want {
		t.Fatalf("fallback fence = %q, want %q", got, want)
	}
}

func TestParseLineMaps(t *testing.T) {
	tokens := New().Parse("# a\n\npara\ngraph\n\n- x\n", nil)
	maps := map[string][]int{}
	for _, tok := range tokens {
		if tok.Nesting == 1 {
			if _, ok := maps[tok.Type]; !ok {
				maps[tok.Type] = tok.Map
			}
		}
	}
	want := map[string][]int{
		"heading_open":     {0, 1},
		"paragraph_open":   {2, 4},
		"bullet_list_open": {5, 6},
		"list_item_open":   {5, 6},
	}
	if diff := cmp.Diff(want, maps); diff != "" {
		t.Fatalf("line maps mismatch (-want +got):\n%s", diff)
	}
}

func TestReferencesAreCaseInsensitiveAndFirstWins(t *testing.T) {
	env := NewEnv()
	src := "[ÄB]\n\n[äb]: /first\n[ÄB]: /second\n"
	got := New().Render(src, env)
	if want := "<p><a href=\"/first\">ÄB</a></p>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
	if len(env.References) != 1 {
		t.Fatalf("expected one reference, got %d", len(env.References))
	}
	ref, ok := env.reference(normalizeReference("äb"))
	if !ok || ref.Href != "/first" {
		t.Fatalf("reference = %+v, %v", ref, ok)
	}
}

func TestCallerReferencesAreUsed(t *testing.T) {
	env := NewEnv()
	env.defineReference(normalizeReference("home"), Reference{Href: "/home", Title: "Home"})
	got := New().Render("[home]\n", env)
	if want := "<p><a href=\"/home\" title=\"Home\">home</a></p>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestMaxNestingBoundsDepth(t *testing.T) {
	src := strings.Repeat("> ", 300) + "deep\n" + strings.Repeat("[", 300) + "x" + strings.Repeat("*a", 300) + "\n"
	p := New(WithMaxNesting(20))
	tokens := p.Parse(src, nil)
	if err := ValidateTokens(tokens); err != nil {
		t.Fatalf("ValidateTokens: %v", err)
	}
	for _, tok := range tokens {
		if tok.Level > 20 {
			t.Fatalf("token %s at level %d exceeds max nesting", tok.Type, tok.Level)
		}
	}
}

func TestNormalizeNewlinesAndNUL(t *testing.T) {
	got := New().Render("a\r\nb\rc\x00\n", nil)
	if want := "<p>a\nb\nc�</p>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestParseInline(t *testing.T) {
	p := New()
	tokens := p.ParseInline("a *b*\n\n# c", nil)
	if len(tokens) != 1 || tokens[0].Type != "inline" {
		t.Fatalf("expected a single inline token, got %d", len(tokens))
	}
	if got, want := p.RenderInline("a *b*", nil), "a <em>b</em>"; got != want {
		t.Fatalf("RenderInline = %q, want %q", got, want)
	}
}

func TestEnableDisable(t *testing.T) {
	p := New()
	if err := p.Disable([]string{"heading", "emphasis"}, false); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if got, want := p.Render("# *a*\n", nil), "<p># *a*</p>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
	if err := p.Enable([]string{"heading"}, false); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if got, want := p.Render("# *a*\n", nil), "<h1>*a*</h1>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
	err := p.Disable([]string{"nope"}, false)
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	if err := p.Disable([]string{"nope"}, true); err != nil {
		t.Fatalf("ignoreInvalid: %v", err)
	}
}

func TestReferenceLabelFolding(t *testing.T) {
	if normalizeReference("ẞ") != normalizeReference("ß") {
		t.Fatalf("capital sharp s should fold like ß: %q vs %q", normalizeReference("ẞ"), normalizeReference("ß"))
	}
	if got, want := normalizeReference("  Foo \n\t bar "), normalizeReference("foo bar"); got != want {
		t.Fatalf("whitespace not collapsed: %q vs %q", got, want)
	}
	got := New().Render("[Straẞe]\n\n[straße]: /street\n", nil)
	if want := "<p><a href=\"/street\">Straẞe</a></p>\n"; got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestTableAutocompleteCap(t *testing.T) {
	const columns = 1000
	var b strings.Builder
	b.WriteString("|" + strings.Repeat(" c |", columns) + "\n")
	b.WriteString("|" + strings.Repeat("---|", columns) + "\n")
	const rows = 100
	for i := 0; i < rows; i++ {
		b.WriteString("| x |\n")
	}
	tokens := New().Parse(b.String(), nil)
	if err := ValidateTokens(tokens); err != nil {
		t.Fatalf("unbalanced tokens: %v", err)
	}

	bodyRows := 0
	inBody := false
	var after *Token
	for i, tok := range tokens {
		switch tok.Type {
		case "tbody_open":
			inBody = true
		case "tbody_close":
			inBody = false
		case "tr_open":
			if inBody {
				bodyRows++
			}
		case "table_close":
			if i+1 < len(tokens) {
				after = tokens[i+1]
			}
		}
	}
	// Each short row adds columns-1 empty cells.
	wantRows := maxAutocompletedCells / (columns - 1)
	if bodyRows != wantRows {
		t.Fatalf("body rows = %d, want %d", bodyRows, wantRows)
	}
	if after == nil || after.Type != "paragraph_open" || after.Map[0] != 2+wantRows {
		t.Fatalf("rows past the cap should become a paragraph, got %+v", after)
	}
}

// renderWithin fails the test when rendering src takes longer than limit.
func renderWithin(t *testing.T, p *Parser, src string, limit time.Duration) string {
	t.Helper()
	done := make(chan string, 1)
	go func() { done <- p.Render(src, nil) }()
	select {
	case out := <-done:
		return out
	case <-time.After(limit):
		t.Fatalf("render of %d bytes did not finish within %s", len(src), limit)
		return ""
	}
}

func TestPathologicalInputsStayLinear(t *testing.T) {
	const limit = 10 * time.Second
	t.Run("unmatched underscores", func(t *testing.T) {
		src := strings.Repeat("_a _", 80000)
		got := renderWithin(t, New(), src, limit)
		if got != "<p>"+src+"</p>\n" {
			t.Fatalf("unexpected render of %d bytes", len(src))
		}
	})
	t.Run("escaped stars", func(t *testing.T) {
		src := strings.Repeat("\\*", 80000)
		got := renderWithin(t, New(), src, limit)
		if got != "<p>"+strings.Repeat("*", 80000)+"</p>\n" {
			t.Fatalf("unexpected render of %d bytes", len(src))
		}
	})
	t.Run("linkified runs", func(t *testing.T) {
		src := strings.Repeat("x.com *a* ", 16000)
		got := renderWithin(t, New(WithLinkify(true)), src, limit)
		if n := strings.Count(got, "<em>a</em>"); n != 16000 {
			t.Fatalf("emphasis count = %d", n)
		}
	})
}
