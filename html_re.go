package mdit

import (
	"regexp"
	"strings"
)

const (
	htmlAttrName     = `[a-zA-Z_:][a-zA-Z0-9:._-]*`
	htmlUnquoted     = "[^\"'=<>`\\x00-\\x20]+"
	htmlSingleQuoted = `'[^']*'`
	htmlDoubleQuoted = `"[^"]*"`
	htmlAttrValue    = `(?:` + htmlUnquoted + `|` + htmlSingleQuoted + `|` + htmlDoubleQuoted + `)`
	htmlAttribute    = `(?:\s+` + htmlAttrName + `(?:\s*=\s*` + htmlAttrValue + `)?)`
	htmlOpenTag      = `<[A-Za-z][A-Za-z0-9\-]*` + htmlAttribute + `*\s*/?>`
	htmlCloseTag     = `</[A-Za-z][A-Za-z0-9\-]*\s*>`
	htmlComment      = `<!---?>|<!--(?:[^-]|-[^-]|--[^>])*-->`
	htmlProcessing   = `<[?][\s\S]*?[?]>`
	htmlDeclaration  = `<![A-Za-z][^>]*>`
	htmlCDATA        = `<!\[CDATA\[[\s\S]*?\]\]>`
)

var (
	htmlTagRe          = regexp.MustCompile(`^(?:` + htmlOpenTag + `|` + htmlCloseTag + `|` + htmlComment + `|` + htmlProcessing + `|` + htmlDeclaration + `|` + htmlCDATA + `)`)
	htmlOpenCloseTagRe = regexp.MustCompile(`^(?:` + htmlOpenTag + `|` + htmlCloseTag + `)\s*$`)
)

var htmlBlockNames = []string{
	"address", "article", "aside", "base", "basefont", "blockquote", "body",
	"caption", "center", "col", "colgroup", "dd", "details", "dialog", "dir",
	"div", "dl", "dt", "fieldset", "figcaption", "figure", "footer", "form",
	"frame", "frameset", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header",
	"hr", "html", "iframe", "legend", "li", "link", "main", "menu", "menuitem",
	"nav", "noframes", "ol", "optgroup", "option", "p", "param", "search",
	"section", "summary", "table", "tbody", "td", "tfoot", "th", "thead",
	"title", "tr", "track", "ul",
}

// htmlSequence is one of the seven CommonMark HTML block start conditions.
// The trailing group of the open patterns stands in for a lookahead: the
// patterns are only used as tests, so consuming the boundary is harmless.
type htmlSequence struct {
	open *regexp.Regexp
	// close is nil when the block ends at a blank line.
	close *regexp.Regexp
	// canInterrupt reports whether the block may interrupt a paragraph.
	canInterrupt bool
}

var htmlSequences = []htmlSequence{
	{regexp.MustCompile(`(?i)^<(script|pre|style|textarea)(\s|>|$)`), regexp.MustCompile(`(?i)</(script|pre|style|textarea)>`), true},
	{regexp.MustCompile(`^<!--`), regexp.MustCompile(`-->`), true},
	{regexp.MustCompile(`^<\?`), regexp.MustCompile(`\?>`), true},
	{regexp.MustCompile(`^<![A-Za-z]`), regexp.MustCompile(`>`), true},
	{regexp.MustCompile(`^<!\[CDATA\[`), regexp.MustCompile(`\]\]>`), true},
	{regexp.MustCompile(`(?i)^</?(` + strings.Join(htmlBlockNames, "|") + `)(\s|/?>|$)`), nil, true},
	{htmlOpenCloseTagRe, nil, false},
}

func (seq htmlSequence) closes(line string) bool {
	if seq.close == nil {
		return line == ""
	}
	return seq.close.MatchString(line)
}
