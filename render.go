package mdit

import (
	"io"
	"strings"
)

// RenderRule renders the token at tokens[idx].
type RenderRule func(r *Renderer, tokens []*Token, idx int, env *Env) string

// Renderer turns a token stream into HTML. Rules maps token types to
// custom renderers; types without a rule go through RenderToken.
type Renderer struct {
	Rules map[string]RenderRule

	xhtmlOut   bool
	breaks     bool
	langPrefix string
	highlight  func(code, lang, attrs string) string
}

// NewRenderer returns a Renderer with the default rule set.
func NewRenderer(o Options) *Renderer {
	return &Renderer{
		Rules: map[string]RenderRule{
			"code_inline":  renderCodeInline,
			"code_block":   renderCodeBlock,
			"fence":        renderFence,
			"image":        renderImage,
			"hardbreak":    renderHardbreak,
			"softbreak":    renderSoftbreak,
			"text":         renderText,
			"html_block":   renderHTML,
			"html_inline":  renderHTML,
			"front_matter": renderNothing,
		},
		xhtmlOut:   o.XHTMLOut,
		breaks:     o.Breaks,
		langPrefix: o.LangPrefix,
		highlight:  o.Highlight,
	}
}

// Render returns the HTML for a block token stream.
func (r *Renderer) Render(tokens []*Token, env *Env) string {
	var b strings.Builder
	_ = r.RenderTo(&b, tokens, env)
	return b.String()
}

// RenderTo writes the HTML for a block token stream to w.
func (r *Renderer) RenderTo(w io.Writer, tokens []*Token, env *Env) error {
	return r.renderRange(w, tokens, 0, len(tokens), env)
}

// renderRange writes tokens[from:to] while still letting rules look at
// neighbours outside the range.
func (r *Renderer) renderRange(w io.Writer, tokens []*Token, from, to int, env *Env) error {
	for i := from; i < to; i++ {
		tok := tokens[i]
		var out string
		switch {
		case tok.Type == "inline":
			out = r.RenderInline(tok.Children, env)
		case r.Rules[tok.Type] != nil:
			out = r.Rules[tok.Type](r, tokens, i, env)
		default:
			out = r.RenderToken(tokens, i)
		}
		if out == "" {
			continue
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}

// RenderInline renders the children of an inline token.
func (r *Renderer) RenderInline(tokens []*Token, env *Env) string {
	var b strings.Builder
	for i, tok := range tokens {
		if rule := r.Rules[tok.Type]; rule != nil {
			b.WriteString(rule(r, tokens, i, env))
		} else {
			b.WriteString(r.RenderToken(tokens, i))
		}
	}
	return b.String()
}

// RenderInlineAsText flattens inline tokens to plain text, as used for
// image alt attributes.
func (r *Renderer) RenderInlineAsText(tokens []*Token, env *Env) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Type {
		case "text", "html_inline", "html_block":
			b.WriteString(tok.Content)
		case "image":
			b.WriteString(r.RenderInlineAsText(tok.Children, env))
		case "softbreak", "hardbreak":
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderAttrs renders token attributes with a leading space each.
func (r *Renderer) RenderAttrs(tok *Token) string {
	if len(tok.Attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range tok.Attrs {
		b.WriteByte(' ')
		b.WriteString(escapeHTML(a.Name))
		b.WriteString(`="`)
		b.WriteString(escapeHTML(a.Value))
		b.WriteByte('"')
	}
	return b.String()
}

// RenderToken renders a plain opening, closing or void tag.
func (r *Renderer) RenderToken(tokens []*Token, idx int) string {
	tok := tokens[idx]
	if tok.Hidden {
		return ""
	}
	var b strings.Builder
	// Tight list paragraphs are hidden, so the block after one still needs
	// its own line.
	if tok.Block && tok.Nesting != -1 && idx > 0 && tokens[idx-1].Hidden && tokens[idx-1].Type != "front_matter" {
		b.WriteByte('\n')
	}
	if tok.Nesting == -1 {
		b.WriteString("</")
	} else {
		b.WriteByte('<')
	}
	b.WriteString(tok.Tag)
	b.WriteString(r.RenderAttrs(tok))
	if tok.Nesting == 0 && r.xhtmlOut {
		b.WriteString(" /")
	}
	needLF := false
	if tok.Block {
		needLF = true
		if tok.Nesting == 1 && idx+1 < len(tokens) {
			next := tokens[idx+1]
			if next.Type == "inline" || next.Hidden {
				needLF = false
			} else if next.Nesting == -1 && next.Tag == tok.Tag {
				needLF = false
			}
		}
	}
	if needLF {
		b.WriteString(">\n")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func renderCodeInline(r *Renderer, tokens []*Token, idx int, _ *Env) string {
	tok := tokens[idx]
	return "<code" + r.RenderAttrs(tok) + ">" + escapeHTML(tok.Content) + "</code>"
}

func renderCodeBlock(r *Renderer, tokens []*Token, idx int, _ *Env) string {
	tok := tokens[idx]
	return "<pre" + r.RenderAttrs(tok) + "><code>" + escapeHTML(tok.Content) + "</code></pre>\n"
}

// splitFenceInfo returns the language name and the remaining attributes of
// a fence info string.
func splitFenceInfo(info string) (lang, attrs string) {
	i := strings.IndexAny(info, " \t\n\v\f\r")
	if i < 0 {
		return info, ""
	}
	return info[:i], strings.TrimLeft(info[i:], " \t\n\v\f\r")
}

func renderFence(r *Renderer, tokens []*Token, idx int, _ *Env) string {
	tok := tokens[idx]
	info := ""
	if tok.Info != "" {
		info = strings.TrimSpace(unescapeAll(tok.Info))
	}
	lang, langAttrs := "", ""
	if info != "" {
		lang, langAttrs = splitFenceInfo(info)
	}

	highlighted := ""
	if r.highlight != nil {
		highlighted = r.highlight(tok.Content, lang, langAttrs)
	}
	if highlighted == "" {
		highlighted = escapeHTML(tok.Content)
	}
	if strings.HasPrefix(highlighted, "<pre") {
		return highlighted + "\n"
	}

	if info == "" {
		return "<pre><code" + r.RenderAttrs(tok) + ">" + highlighted + "</code></pre>\n"
	}
	tmp := &Token{Attrs: append([]Attr(nil), tok.Attrs...)}
	tmp.AttrJoin("class", r.langPrefix+lang)
	return "<pre><code" + r.RenderAttrs(tmp) + ">" + highlighted + "</code></pre>\n"
}

func renderImage(r *Renderer, tokens []*Token, idx int, env *Env) string {
	tok := tokens[idx]
	tok.AttrSet("alt", r.RenderInlineAsText(tok.Children, env))
	return r.RenderToken(tokens, idx)
}

func (r *Renderer) lineBreak() string {
	if r.xhtmlOut {
		return "<br />\n"
	}
	return "<br>\n"
}

func renderHardbreak(r *Renderer, _ []*Token, _ int, _ *Env) string {
	return r.lineBreak()
}

func renderSoftbreak(r *Renderer, _ []*Token, _ int, _ *Env) string {
	if r.breaks {
		return r.lineBreak()
	}
	return "\n"
}

func renderText(_ *Renderer, tokens []*Token, idx int, _ *Env) string {
	return escapeHTML(tokens[idx].Content)
}

func renderHTML(_ *Renderer, tokens []*Token, idx int, _ *Env) string {
	return tokens[idx].Content
}

func renderNothing(_ *Renderer, _ []*Token, _ int, _ *Env) string {
	return ""
}
