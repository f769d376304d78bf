package mdit

import "strings"

var typographicReplacer = strings.NewReplacer(
	"...", "…",
	"---", "—",
	"--", "–",
)

// ruleReplacements substitutes ellipses and dashes in text outside of
// autolinks.
func ruleReplacements(s *StateCore) {
	if !s.Parser.opts.Typographer {
		return
	}
	for _, blockTok := range s.Tokens {
		if blockTok.Type != "inline" {
			continue
		}
		insideAutolink := 0
		for _, tok := range blockTok.Children {
			switch {
			case tok.Type == "link_open" && tok.Info == "auto":
				insideAutolink++
			case tok.Type == "link_close" && tok.Info == "auto":
				insideAutolink--
			case tok.Type == "text" && insideAutolink == 0:
				if strings.Contains(tok.Content, "..") || strings.Contains(tok.Content, "--") {
					tok.Content = typographicReplacer.Replace(tok.Content)
				}
			}
		}
	}
}

// quoteState tracks whether a double or single quote is currently open.
// It spans the whole document, so a quotation may open in one paragraph
// and close in a later one.
type quoteState struct {
	glyphs     [4]string
	doubleOpen bool
	singleOpen bool
}

func newQuoteState(quotes string) *quoteState {
	qs := &quoteState{}
	i := 0
	for _, r := range quotes {
		if i == len(qs.glyphs) {
			break
		}
		qs.glyphs[i] = string(r)
		i++
	}
	return qs
}

func (qs *quoteState) replace(text string) string {
	if !strings.ContainsAny(text, `"'`) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch ch {
		case '"':
			if qs.doubleOpen {
				b.WriteString(qs.glyphs[1])
			} else {
				b.WriteString(qs.glyphs[0])
			}
			qs.doubleOpen = !qs.doubleOpen
		case '\'':
			if qs.singleOpen {
				b.WriteString(qs.glyphs[3])
			} else {
				b.WriteString(qs.glyphs[2])
			}
			qs.singleOpen = !qs.singleOpen
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func ruleSmartquotes(s *StateCore) {
	if !s.Parser.opts.Typographer {
		return
	}
	qs := newQuoteState(s.Parser.opts.Quotes)
	for _, blockTok := range s.Tokens {
		if blockTok.Type != "inline" {
			continue
		}
		for _, tok := range blockTok.Children {
			if tok.Type == "text" {
				tok.Content = qs.replace(tok.Content)
			}
		}
	}
}
