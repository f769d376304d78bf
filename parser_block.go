package mdit

import "github.com/cockroachdb/errors"

// BlockRule tries to recognise a block construct at startLine. In silent
// mode it only reports whether the construct would match, which is how
// terminator chains check whether a line interrupts the current block.
type BlockRule func(s *StateBlock, startLine, endLine int, silent bool) bool

// ParserBlock holds the block rule chain.
type ParserBlock struct {
	Ruler Ruler[BlockRule]
}

func newParserBlock() *ParserBlock {
	p := &ParserBlock{}
	p.Ruler.Push("table", ruleTable, "paragraph", "reference")
	p.Ruler.Push("code", ruleCode)
	p.Ruler.Push("fence", ruleFence, "paragraph", "reference", "blockquote", "list")
	p.Ruler.Push("blockquote", ruleBlockquote, "paragraph", "reference", "blockquote", "list")
	p.Ruler.Push("hr", ruleHr, "paragraph", "reference", "blockquote", "list")
	p.Ruler.Push("list", ruleList, "paragraph", "reference", "blockquote")
	p.Ruler.Push("reference", ruleReference)
	p.Ruler.Push("html_block", ruleHTMLBlock, "paragraph", "reference", "blockquote")
	p.Ruler.Push("heading", ruleHeading, "paragraph", "reference", "blockquote")
	p.Ruler.Push("lheading", ruleLHeading)
	p.Ruler.Push("paragraph", ruleParagraph)
	return p
}

// Tokenize runs the block rules over lines [startLine, endLine).
func (p *ParserBlock) Tokenize(s *StateBlock, startLine, endLine int) {
	rules := p.Ruler.GetRules("")
	maxNesting := s.Parser.opts.MaxNesting
	line := startLine
	hasEmptyLines := false

	for line < endLine {
		line = s.SkipEmptyLines(line)
		s.Line = line
		if line >= endLine {
			break
		}
		// Content dedented below the container belongs to a parent block.
		if s.SCount[line] < s.BlkIndent {
			break
		}
		// Past the nesting limit the rest of the range is skipped.
		if s.Level >= maxNesting {
			s.Line = endLine
			break
		}

		prevLine := s.Line
		matched := false
		for _, rule := range rules {
			if rule(s, line, endLine, false) {
				if prevLine >= s.Line {
					panic(errors.AssertionFailedf("block rule did not advance past line %d", prevLine))
				}
				matched = true
				break
			}
		}
		if !matched {
			panic(errors.AssertionFailedf("no block rule matched line %d; is the paragraph rule disabled?", line))
		}

		s.Tight = !hasEmptyLines
		line = s.Line

		// A trailing blank line makes the enclosing list loose.
		if line-1 < endLine && s.IsEmpty(line-1) {
			hasEmptyLines = true
		}
		if line < endLine && s.IsEmpty(line) {
			hasEmptyLines = true
			line++
			s.Line = line
		}
	}
}

// Parse tokenizes src into the block token stream.
func (p *ParserBlock) Parse(src string, parser *Parser, env *Env, tokens []*Token) []*Token {
	return p.parse(src, parser, env, tokens, false)
}

func (p *ParserBlock) parse(src string, parser *Parser, env *Env, tokens []*Token, fragment bool) []*Token {
	if src == "" {
		return tokens
	}
	s := newStateBlock(src, parser, env, tokens)
	s.fragment = fragment
	p.Tokenize(s, s.Line, s.LineMax)
	return s.Tokens
}
