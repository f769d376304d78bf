package mdit

// Attr is a single HTML attribute carried by a token. Order is preserved and
// duplicate names are allowed.
type Attr struct {
	Name  string
	Value string
}

// Token is one element of the flat token stream produced by Parser.Parse.
//
// Block-level structure is expressed through paired open (Nesting 1) and close
// (Nesting -1) tokens; inline content hangs off "inline" tokens as Children.
type Token struct {
	// Type is the token kind, e.g. "paragraph_open" or "text".
	Type string
	// Tag is the HTML tag name, e.g. "p".
	Tag string
	// Attrs are the HTML attributes in insertion order.
	Attrs []Attr
	// Map is nil or the [start, end) source line range.
	Map []int
	// Nesting is 1 for opening tags, 0 for self-contained tokens and -1 for
	// closing tags.
	Nesting int
	// Level is the nesting depth after this token's own delta.
	Level int
	// Children holds the inline tokens of an "inline" token.
	Children []*Token
	// Content holds text for text, code and html tokens.
	Content string
	// Markup is the source marker, e.g. "*" or "```".
	Markup string
	// Info is the fence info string, or an origin tag for autolinks,
	// entities and escapes.
	Info string
	// Meta is free-form data for plugins.
	Meta any
	// Block marks tokens emitted by the block tokenizer.
	Block bool
	// Hidden tokens are skipped by the renderer (tight list paragraphs).
	Hidden bool
}

// NewToken returns a token with the given type, tag and nesting.
func NewToken(typ, tag string, nesting int) *Token {
	return &Token{Type: typ, Tag: tag, Nesting: nesting}
}

// AttrIndex returns the index of the first attribute named name, or -1.
func (t *Token) AttrIndex(name string) int {
	for i, a := range t.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// AttrGet returns the value of the first attribute named name.
func (t *Token) AttrGet(name string) (string, bool) {
	if i := t.AttrIndex(name); i >= 0 {
		return t.Attrs[i].Value, true
	}
	return "", false
}

// AttrPush appends an attribute, allowing duplicates.
func (t *Token) AttrPush(name, value string) {
	t.Attrs = append(t.Attrs, Attr{Name: name, Value: value})
}

// AttrSet replaces the first attribute named name or appends it.
func (t *Token) AttrSet(name, value string) {
	if i := t.AttrIndex(name); i >= 0 {
		t.Attrs[i].Value = value
		return
	}
	t.AttrPush(name, value)
}

// AttrJoin appends value to an existing attribute separated by a space, or
// adds the attribute.
func (t *Token) AttrJoin(name, value string) {
	if i := t.AttrIndex(name); i >= 0 {
		t.Attrs[i].Value += " " + value
		return
	}
	t.AttrPush(name, value)
}

// Clone returns a deep copy of the token and its children.
func (t *Token) Clone() *Token {
	c := *t
	if t.Attrs != nil {
		c.Attrs = append([]Attr(nil), t.Attrs...)
	}
	if t.Map != nil {
		c.Map = []int{t.Map[0], t.Map[1]}
	}
	if t.Children != nil {
		c.Children = make([]*Token, len(t.Children))
		for i, child := range t.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// CloneTokens deep-copies a token slice.
func CloneTokens(tokens []*Token) []*Token {
	out := make([]*Token, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Clone()
	}
	return out
}

// Env carries per-parse side data shared between block and inline rules.
type Env struct {
	// References maps normalised labels to link reference definitions.
	References map[string]Reference
	// FrontMatter holds the decoded YAML front matter when enabled.
	FrontMatter map[string]any
}

// Reference is a link reference definition.
type Reference struct {
	Href  string
	Title string
	line  int
}

// NewEnv returns an empty Env.
func NewEnv() *Env {
	return &Env{}
}

func (e *Env) reference(label string) (Reference, bool) {
	if e == nil || e.References == nil {
		return Reference{}, false
	}
	ref, ok := e.References[label]
	return ref, ok
}

func (e *Env) defineReference(label string, ref Reference) bool {
	if e.References == nil {
		e.References = make(map[string]Reference)
	}
	if _, ok := e.References[label]; ok {
		return false
	}
	e.References[label] = ref
	return true
}
