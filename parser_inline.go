package mdit

import "github.com/cockroachdb/errors"

// InlineRule tries to consume a construct at s.Pos. Silent mode must not
// emit tokens; it is used by SkipToken while scanning link labels.
type InlineRule func(s *StateInline, silent bool) bool

// PostRule runs once over the inline tokens after tokenization.
type PostRule func(s *StateInline)

// ParserInline holds the inline rule chain and the post-processing chain.
type ParserInline struct {
	Ruler  Ruler[InlineRule]
	Ruler2 Ruler[PostRule]
}

func newParserInline() *ParserInline {
	p := &ParserInline{}
	p.Ruler.Push("text", ruleText)
	p.Ruler.Push("newline", ruleNewline)
	p.Ruler.Push("escape", ruleEscape)
	p.Ruler.Push("backticks", ruleBackticks)
	p.Ruler.Push("emphasis", ruleEmphasis)
	p.Ruler.Push("link", ruleLink)
	p.Ruler.Push("image", ruleImage)
	p.Ruler.Push("autolink", ruleAutolink)
	p.Ruler.Push("html_inline", ruleHTMLInline)
	p.Ruler.Push("entity", ruleEntity)

	p.Ruler2.Push("balance_pairs", ruleBalancePairs)
	p.Ruler2.Push("emphasis", ruleEmphasisPostProcess)
	p.Ruler2.Push("fragments_join", ruleFragmentsJoin)
	return p
}

// SkipToken advances s.Pos past the token at the current position without
// emitting anything. Results are memoised per start position.
func (p *ParserInline) SkipToken(s *StateInline) {
	pos := s.Pos
	if end, ok := s.cache[pos]; ok {
		s.Pos = end
		return
	}

	rules := p.Ruler.GetRules("")
	ok := false
	if s.Level < s.Parser.opts.MaxNesting {
		for _, rule := range rules {
			// Level is bumped only to bound recursion; no tokens exist yet.
			s.Level++
			ok = rule(s, true)
			s.Level--
			if ok {
				if pos >= s.Pos {
					panic(errors.AssertionFailedf("inline rule did not advance past %d", pos))
				}
				break
			}
		}
	} else {
		// Too deep: treat the rest of the content as opaque.
		s.Pos = s.PosMax
	}
	if !ok {
		s.Pos++
	}
	s.cache[pos] = s.Pos
}

// Tokenize runs the inline rules from s.Pos to s.PosMax.
func (p *ParserInline) Tokenize(s *StateInline) {
	rules := p.Ruler.GetRules("")
	end := s.PosMax
	maxNesting := s.Parser.opts.MaxNesting

	for s.Pos < end {
		prevPos := s.Pos
		ok := false
		if s.Level < maxNesting {
			for _, rule := range rules {
				if ok = rule(s, false); ok {
					if prevPos >= s.Pos {
						panic(errors.AssertionFailedf("inline rule did not advance past %d", prevPos))
					}
					break
				}
			}
		}
		if ok {
			if s.Pos >= end {
				break
			}
			continue
		}
		s.pending = append(s.pending, s.Src[s.Pos])
		s.Pos++
	}
	if len(s.pending) > 0 {
		s.PushPending()
	}
}

// Parse tokenizes src and runs the post-processing rules, appending the
// result to out.
func (p *ParserInline) Parse(src string, parser *Parser, env *Env, out []*Token) []*Token {
	s := newStateInline(src, parser, env, out)
	p.Tokenize(s)
	for _, rule := range p.Ruler2.GetRules("") {
		rule(s)
	}
	return s.Tokens
}
