package mdit

import "strings"

// CoreRule is one stage of the document pipeline.
type CoreRule func(s *StateCore)

// StateCore is the document-level state threaded through the core rules.
type StateCore struct {
	Src        string
	Env        *Env
	Tokens     []*Token
	InlineMode bool
	Parser     *Parser

	fragment bool
}

// ParserCore holds the ordered document pipeline.
type ParserCore struct {
	Ruler Ruler[CoreRule]
}

func newParserCore() *ParserCore {
	p := &ParserCore{}
	p.Ruler.Push("normalize", ruleNormalize)
	p.Ruler.Push("block", ruleBlock)
	p.Ruler.Push("inline", ruleInline)
	p.Ruler.Push("linkify", ruleLinkify)
	p.Ruler.Push("replacements", ruleReplacements)
	p.Ruler.Push("smartquotes", ruleSmartquotes)
	p.Ruler.Push("text_join", ruleTextJoin)
	return p
}

// Process runs every enabled core rule in order.
func (p *ParserCore) Process(s *StateCore) {
	for _, rule := range p.Ruler.GetRules("") {
		rule(s)
	}
}

var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "�")

func ruleNormalize(s *StateCore) {
	if strings.ContainsAny(s.Src, "\r\x00") {
		s.Src = newlineNormalizer.Replace(s.Src)
	}
}

func ruleBlock(s *StateCore) {
	if s.InlineMode {
		tok := NewToken("inline", "", 0)
		tok.Content = s.Src
		tok.Map = []int{0, 1}
		tok.Children = []*Token{}
		s.Tokens = append(s.Tokens, tok)
		return
	}
	s.Tokens = s.Parser.Block.parse(s.Src, s.Parser, s.Env, s.Tokens, s.fragment)
}

func ruleInline(s *StateCore) {
	for _, tok := range s.Tokens {
		if tok.Type == "inline" {
			tok.Children = s.Parser.Inline.Parse(tok.Content, s.Parser, s.Env, tok.Children)
		}
	}
}

// ruleTextJoin folds text_special tokens back into text and merges
// neighbours. It runs after the typographic rules so escaped characters
// are left alone by them.
func ruleTextJoin(s *StateCore) {
	for _, blockTok := range s.Tokens {
		if blockTok.Type != "inline" {
			continue
		}
		tokens := blockTok.Children
		for _, tok := range tokens {
			if tok.Type == "text_special" {
				tok.Type = "text"
			}
		}
		blockTok.Children = joinTextRuns(tokens)
	}
}

// joinTextRuns merges every run of adjacent text tokens into its last
// token, in place. Each run is concatenated once.
func joinTextRuns(tokens []*Token) []*Token {
	last := 0
	for curr := 0; curr < len(tokens); {
		end := curr + 1
		if tokens[curr].Type == "text" {
			for end < len(tokens) && tokens[end].Type == "text" {
				end++
			}
		}
		tok := tokens[end-1]
		if end-curr > 1 {
			var b strings.Builder
			n := 0
			for _, t := range tokens[curr:end] {
				n += len(t.Content)
			}
			b.Grow(n)
			for _, t := range tokens[curr:end] {
				b.WriteString(t.Content)
			}
			tok.Content = b.String()
		}
		tokens[last] = tok
		last++
		curr = end
	}
	return tokens[:last]
}
