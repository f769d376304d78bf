package mdit

// Delimiter is an emphasis marker waiting to be paired by the balancer.
type Delimiter struct {
	// Marker is '*' or '_'.
	Marker byte
	// Length is the length of the whole delimiter run, used by the rule of 3.
	Length int
	// Token is the index of the one-character text token for this marker.
	Token int
	// End is the index of the matching closer, or -1.
	End int
	// Open and Close report whether the marker can open or close emphasis.
	Open  bool
	Close bool
}

// delimScope owns the delimiters of one nesting level. Every opening inline
// token gets a fresh scope so that emphasis cannot pair across a link
// boundary.
type delimScope struct {
	delimiters []Delimiter
}

// StateInline is the cursor state of the inline tokenizer over one inline
// token's content.
type StateInline struct {
	Src    string
	Parser *Parser
	Env    *Env
	Tokens []*Token

	Pos    int
	PosMax int
	Level  int
	// LinkLevel counts open links; autolinking is suppressed inside links.
	LinkLevel int

	pending      []byte
	pendingLevel int

	scope      *delimScope
	prevScopes []*delimScope
	// tokenScopes is parallel to Tokens; only opening tokens own a scope.
	tokenScopes []*delimScope

	// cache maps a start position to where SkipToken ended.
	cache map[int]int
	// backticks maps a closer run length to the last position it was seen.
	backticks        map[int]int
	backticksScanned bool
}

func newStateInline(src string, p *Parser, env *Env, out []*Token) *StateInline {
	return &StateInline{
		Src:         src,
		Parser:      p,
		Env:         env,
		Tokens:      out,
		PosMax:      len(src),
		scope:       &delimScope{},
		tokenScopes: make([]*delimScope, len(out)),
		cache:       make(map[int]int),
		backticks:   make(map[int]int),
	}
}

// PushPending flushes the pending text into a text token.
func (s *StateInline) PushPending() *Token {
	tok := NewToken("text", "", 0)
	tok.Content = string(s.pending)
	tok.Level = s.pendingLevel
	s.Tokens = append(s.Tokens, tok)
	s.tokenScopes = append(s.tokenScopes, nil)
	s.pending = s.pending[:0]
	return tok
}

// Push appends a token, flushing pending text first and switching the
// delimiter scope on nesting changes.
func (s *StateInline) Push(typ, tag string, nesting int) *Token {
	if len(s.pending) > 0 {
		s.PushPending()
	}
	tok := NewToken(typ, tag, nesting)
	var scope *delimScope
	if nesting < 0 {
		s.Level--
		if n := len(s.prevScopes); n > 0 {
			s.scope = s.prevScopes[n-1]
			s.prevScopes = s.prevScopes[:n-1]
		}
	}
	tok.Level = s.Level
	if nesting > 0 {
		s.Level++
		s.prevScopes = append(s.prevScopes, s.scope)
		s.scope = &delimScope{}
		scope = s.scope
	}
	s.pendingLevel = s.Level
	s.Tokens = append(s.Tokens, tok)
	s.tokenScopes = append(s.tokenScopes, scope)
	return tok
}

// Delimiters returns the delimiters of the current scope.
func (s *StateInline) Delimiters() []Delimiter {
	return s.scope.delimiters
}

func (s *StateInline) pushDelimiter(d Delimiter) {
	s.scope.delimiters = append(s.scope.delimiters, d)
}

// scopes returns the root scope followed by every token-owned scope.
func (s *StateInline) scopes() []*delimScope {
	out := []*delimScope{s.rootScope()}
	for _, sc := range s.tokenScopes {
		if sc != nil {
			out = append(out, sc)
		}
	}
	return out
}

func (s *StateInline) rootScope() *delimScope {
	if len(s.prevScopes) > 0 {
		return s.prevScopes[0]
	}
	return s.scope
}

type delimRun struct {
	canOpen  bool
	canClose bool
	length   int
}

// scanDelims measures the delimiter run at start and classifies it as
// left- and/or right-flanking. Line edges count as whitespace.
func (s *StateInline) scanDelims(start int, canSplitWord bool) delimRun {
	max := s.PosMax
	marker := s.Src[start]
	lastChar := runeBefore(s.Src, start)

	pos := start
	for pos < max && s.Src[pos] == marker {
		pos++
	}
	count := pos - start
	nextChar := runeAt(s.Src, pos, max)

	isLastPunct := isPunctChar(lastChar)
	isNextPunct := isPunctChar(nextChar)
	isLastWhite := isWhiteSpace(lastChar)
	isNextWhite := isWhiteSpace(nextChar)

	leftFlanking := !isNextWhite && (!isNextPunct || isLastWhite || isLastPunct)
	rightFlanking := !isLastWhite && (!isLastPunct || isNextWhite || isNextPunct)

	return delimRun{
		canOpen:  leftFlanking && (canSplitWord || !rightFlanking || isLastPunct),
		canClose: rightFlanking && (canSplitWord || !leftFlanking || isNextPunct),
		length:   count,
	}
}
