package mdit

import "strings"

// StateBlock is the line-indexed state shared by block rules.
//
// Per-line arrays have one extra sentinel entry at the end of the source so
// rules can look one line ahead without bounds checks.
type StateBlock struct {
	Src    string
	Parser *Parser
	Env    *Env
	Tokens []*Token

	// BMarks are line begin offsets.
	BMarks []int
	// EMarks are line end offsets, excluding the newline.
	EMarks []int
	// TShift is the count of leading space and tab bytes per line.
	TShift []int
	// SCount is the leading indent per line with tabs expanded.
	SCount []int
	// BSCount is the virtual column where the line content starts inside a
	// blockquote or list item, used for tab expansion.
	BSCount []int

	// BlkIndent is the indent required by the current container.
	BlkIndent int
	Line      int
	LineMax   int
	Tight     bool
	// DDIndent is the indent of the current definition list item, or -1.
	DDIndent int
	// ListIndent is the indent of the current list item, or -1.
	ListIndent int
	// ParentType selects the terminator chain: root, list, blockquote or
	// paragraph.
	ParentType string
	Level      int

	// fragment is set when Src does not start at the document start.
	fragment bool
}

func newStateBlock(src string, p *Parser, env *Env, tokens []*Token) *StateBlock {
	s := &StateBlock{
		Src:        src,
		Parser:     p,
		Env:        env,
		Tokens:     tokens,
		Tight:      true,
		DDIndent:   -1,
		ListIndent: -1,
		ParentType: "root",
	}
	lines := strings.Count(src, "\n") + 2
	s.BMarks = make([]int, 0, lines)
	s.EMarks = make([]int, 0, lines)
	s.TShift = make([]int, 0, lines)
	s.SCount = make([]int, 0, lines)
	s.BSCount = make([]int, 0, lines)

	indentFound := false
	start, indent, offset := 0, 0, 0
	for pos, n := 0, len(src); pos < n; pos++ {
		ch := src[pos]
		if !indentFound {
			if isSpace(ch) {
				indent++
				if ch == '\t' {
					offset += 4 - offset%4
				} else {
					offset++
				}
				continue
			}
			indentFound = true
		}
		if ch == '\n' || pos == n-1 {
			if ch != '\n' {
				pos++
			}
			s.BMarks = append(s.BMarks, start)
			s.EMarks = append(s.EMarks, pos)
			s.TShift = append(s.TShift, indent)
			s.SCount = append(s.SCount, offset)
			s.BSCount = append(s.BSCount, 0)
			indentFound = false
			indent = 0
			offset = 0
			start = pos + 1
		}
	}
	s.BMarks = append(s.BMarks, len(src))
	s.EMarks = append(s.EMarks, len(src))
	s.TShift = append(s.TShift, 0)
	s.SCount = append(s.SCount, 0)
	s.BSCount = append(s.BSCount, 0)
	s.LineMax = len(s.BMarks) - 1
	return s
}

// Push appends a block token and maintains Level.
func (s *StateBlock) Push(typ, tag string, nesting int) *Token {
	tok := NewToken(typ, tag, nesting)
	tok.Block = true
	if nesting < 0 {
		s.Level--
	}
	tok.Level = s.Level
	if nesting > 0 {
		s.Level++
	}
	s.Tokens = append(s.Tokens, tok)
	return tok
}

// IsEmpty reports whether line holds only whitespace.
func (s *StateBlock) IsEmpty(line int) bool {
	return s.BMarks[line]+s.TShift[line] >= s.EMarks[line]
}

// SkipEmptyLines returns the first non-empty line at or after from.
func (s *StateBlock) SkipEmptyLines(from int) int {
	for ; from < s.LineMax; from++ {
		if s.BMarks[from]+s.TShift[from] < s.EMarks[from] {
			break
		}
	}
	return from
}

// SkipSpaces skips spaces and tabs from pos.
func (s *StateBlock) SkipSpaces(pos int) int {
	for ; pos < len(s.Src); pos++ {
		if !isSpace(s.Src[pos]) {
			break
		}
	}
	return pos
}

// SkipSpacesBack skips spaces and tabs backwards from pos, stopping at min.
func (s *StateBlock) SkipSpacesBack(pos, min int) int {
	if pos <= min {
		return pos
	}
	for pos > min {
		pos--
		if !isSpace(s.Src[pos]) {
			return pos + 1
		}
	}
	return pos
}

// SkipBytes skips repeated b from pos.
func (s *StateBlock) SkipBytes(pos int, b byte) int {
	for ; pos < len(s.Src); pos++ {
		if s.Src[pos] != b {
			break
		}
	}
	return pos
}

// SkipBytesBack skips repeated b backwards from pos, stopping at min.
func (s *StateBlock) SkipBytesBack(pos int, b byte, min int) int {
	if pos <= min {
		return pos
	}
	for pos > min {
		pos--
		if s.Src[pos] != b {
			return pos + 1
		}
	}
	return pos
}

// Lines returns lines [begin, end) with up to indent columns of leading
// whitespace removed.
func (s *StateBlock) Lines(begin, end, indent int, keepLastLF bool) string {
	if begin >= end {
		return ""
	}
	var b strings.Builder
	for line := begin; line < end; line++ {
		lineIndent := 0
		lineStart := s.BMarks[line]
		first := lineStart
		last := s.EMarks[line]
		if line+1 < end || keepLastLF {
			last++
		}
		if last > len(s.Src) {
			last = len(s.Src)
		}
		for first < last && lineIndent < indent {
			ch := s.Src[first]
			if isSpace(ch) {
				if ch == '\t' {
					lineIndent += 4 - (lineIndent+s.BSCount[line])%4
				} else {
					lineIndent++
				}
			} else if first-lineStart < s.TShift[line] {
				lineIndent++
			} else {
				break
			}
			first++
		}
		if lineIndent > indent {
			b.WriteString(strings.Repeat(" ", lineIndent-indent))
		}
		b.WriteString(s.Src[first:last])
	}
	return b.String()
}

func (s *StateBlock) lineText(line int) string {
	return s.Src[s.BMarks[line]+s.TShift[line] : s.EMarks[line]]
}
