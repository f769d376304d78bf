package mdit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderInlineRules(t *testing.T) {
	runRenderCases(t, New(), []renderCase{
		{"strong and em", "**strong** and *em*\n", "<p><strong>strong</strong> and <em>em</em></p>\n"},
		{"nested", "*foo**bar**baz*\n", "<p><em>foo<strong>bar</strong>baz</em></p>\n"},
		{"rule of three", "*foo**bar*\n", "<p><em>foo**bar</em></p>\n"},
		{"triple", "***both***\n", "<p><em><strong>both</strong></em></p>\n"},
		{"intraword underscore", "snake_case_name\n", "<p>snake_case_name</p>\n"},
		{"unmatched", "*open\n", "<p>*open</p>\n"},
		{"code span", "`` foo ` bar ``\n", "<p><code>foo ` bar</code></p>\n"},
		{"code span escapes", "`<a>`\n", "<p><code>&lt;a&gt;</code></p>\n"},
		{"unclosed backticks", "``a`\n", "<p>``a`</p>\n"},
		{"link", "[a](/u \"t\")\n", "<p><a href=\"/u\" title=\"t\">a</a></p>\n"},
		{"link with space", "[a](</my url>)\n", "<p><a href=\"/my%20url\">a</a></p>\n"},
		{"image", "![alt *x*](/img.png \"t\")\n", "<p><img src=\"/img.png\" alt=\"alt x\" title=\"t\"></p>\n"},
		{"unsafe link", "[x](javascript:alert(1))\n", "<p>[x](javascript:alert(1))</p>\n"},
		{"autolink", "<https://example.com>\n", "<p><a href=\"https://example.com\">https://example.com</a></p>\n"},
		{"email autolink", "<foo@bar.example.com>\n", "<p><a href=\"mailto:foo@bar.example.com\">foo@bar.example.com</a></p>\n"},
		{"entities", "&amp; &copy; &#35; &#x22;\n", "<p>&amp; © # &quot;</p>\n"},
		{"unknown entity", "&nosuch;\n", "<p>&amp;nosuch;</p>\n"},
		{"escapes", "\\*not em\\*\n", "<p>*not em*</p>\n"},
		{"hard break spaces", "foo  \nbar\n", "<p>foo<br>\nbar</p>\n"},
		{"hard break backslash", "foo\\\nbar\n", "<p>foo<br>\nbar</p>\n"},
		{"soft break", "foo\nbar\n", "<p>foo\nbar</p>\n"},
	})
}

func TestInlineTokenShape(t *testing.T) {
	tokens := New().Parse("a *b* `c`\n", nil)
	if len(tokens) != 3 || tokens[1].Type != "inline" {
		t.Fatalf("unexpected block tokens: %d", len(tokens))
	}
	type shape struct {
		Type    string
		Content string
		Markup  string
		Level   int
	}
	var got []shape
	for _, c := range tokens[1].Children {
		got = append(got, shape{c.Type, c.Content, c.Markup, c.Level})
	}
	want := []shape{
		{"text", "a ", "", 0},
		{"em_open", "", "*", 0},
		{"text", "b", "", 1},
		{"em_close", "", "*", 0},
		{"text", " ", "", 0},
		{"code_inline", "c", "`", 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inline children mismatch (-want +got):\n%s", diff)
	}
}

func TestEscapeAndEntityTokens(t *testing.T) {
	tokens := New(WithLinkify(true)).Parse("\\* &amp;\n", nil)
	var kinds []string
	for _, c := range tokens[1].Children {
		if c.Type == "text_special" {
			kinds = append(kinds, c.Info)
		}
	}
	if len(kinds) != 0 {
		t.Fatalf("text_special tokens should be joined into text, got %v", kinds)
	}
	if got := tokens[1].Children[0].Content; got != "* &" {
		t.Fatalf("joined content = %q", got)
	}
}
