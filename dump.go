package mdit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const minDumpWidth = 40

// DumpTokens writes an outline of tokens, one token per line, indented by
// level. Inline children follow their parent one step deeper. Lines are
// wrapped to width and quoted content is shortened to fit.
func DumpTokens(w io.Writer, tokens []*Token, width int) error {
	if width < minDumpWidth {
		width = minDumpWidth
	}
	return dumpTokens(w, tokens, width, 0)
}

func dumpTokens(w io.Writer, tokens []*Token, width, depth int) error {
	for _, tok := range tokens {
		pad := 2 * (depth + tok.Level)
		avail := max(width-pad, minDumpWidth/2)
		line := wordwrap.String(describeToken(tok, avail), avail)
		if _, err := io.WriteString(w, indent.String(line, uint(pad))+"\n"); err != nil {
			return err
		}
		if len(tok.Children) > 0 {
			if err := dumpTokens(w, tok.Children, width, depth+tok.Level+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeToken(tok *Token, width int) string {
	var b strings.Builder
	b.WriteString(tok.Type)
	if tok.Tag != "" {
		fmt.Fprintf(&b, " <%s>", tok.Tag)
	}
	if tok.Map != nil {
		fmt.Fprintf(&b, " [%d,%d)", tok.Map[0], tok.Map[1])
	}
	for _, a := range tok.Attrs {
		fmt.Fprintf(&b, " %s=%s", a.Name, strconv.Quote(a.Value))
	}
	if tok.Markup != "" {
		fmt.Fprintf(&b, " markup=%s", strconv.Quote(tok.Markup))
	}
	if tok.Info != "" {
		fmt.Fprintf(&b, " info=%s", strconv.Quote(tok.Info))
	}
	if tok.Hidden {
		b.WriteString(" hidden")
	}
	if tok.Content != "" && tok.Type != "inline" {
		b.WriteByte(' ')
		b.WriteString(truncateWithEllipsis(strconv.Quote(tok.Content), width/2))
	}
	return b.String()
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
