package mdit

import "strings"

func ruleHr(s *StateBlock, startLine, _ int, silent bool) bool {
	max := s.EMarks[startLine]
	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	pos := s.BMarks[startLine] + s.TShift[startLine]
	if pos >= max {
		return false
	}
	marker := s.Src[pos]
	pos++
	if marker != '*' && marker != '-' && marker != '_' {
		return false
	}
	cnt := 1
	for pos < max {
		ch := s.Src[pos]
		pos++
		if ch != marker && !isSpace(ch) {
			return false
		}
		if ch == marker {
			cnt++
		}
	}
	if cnt < 3 {
		return false
	}
	if silent {
		return true
	}

	s.Line = startLine + 1
	tok := s.Push("hr", "hr", 0)
	tok.Map = []int{startLine, s.Line}
	tok.Markup = strings.Repeat(string(marker), cnt)
	return true
}

func ruleHeading(s *StateBlock, startLine, _ int, silent bool) bool {
	pos := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]
	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	if pos >= max || s.Src[pos] != '#' {
		return false
	}

	level := 1
	pos++
	for pos < max && s.Src[pos] == '#' && level <= 6 {
		level++
		pos++
	}
	if level > 6 || (pos < max && !isSpace(s.Src[pos])) {
		return false
	}
	if silent {
		return true
	}

	// Drop the optional closing sequence.
	max = s.SkipSpacesBack(max, pos)
	tmp := s.SkipBytesBack(max, '#', pos)
	if tmp > pos && isSpace(s.Src[tmp-1]) {
		max = tmp
	}

	s.Line = startLine + 1
	tag := headingTags[level]

	open := s.Push("heading_open", tag, 1)
	open.Markup = "######"[:level]
	open.Map = []int{startLine, s.Line}

	inline := s.Push("inline", "", 0)
	inline.Content = strings.TrimSpace(s.Src[pos:max])
	inline.Map = []int{startLine, s.Line}
	inline.Children = []*Token{}

	closeTok := s.Push("heading_close", tag, -1)
	closeTok.Markup = open.Markup
	return true
}

var headingTags = [...]string{"", "h1", "h2", "h3", "h4", "h5", "h6"}

func ruleLHeading(s *StateBlock, startLine, endLine int, _ bool) bool {
	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	terminators := s.Parser.Block.Ruler.GetRules("paragraph")
	oldParentType := s.ParentType
	s.ParentType = "paragraph"
	defer func() { s.ParentType = oldParentType }()

	level := 0
	var marker byte
	nextLine := startLine + 1
	for ; nextLine < endLine && !s.IsEmpty(nextLine); nextLine++ {
		// Over-indented lines are paragraph continuations.
		if s.SCount[nextLine]-s.BlkIndent > 3 {
			continue
		}
		if s.SCount[nextLine] >= s.BlkIndent {
			pos := s.BMarks[nextLine] + s.TShift[nextLine]
			max := s.EMarks[nextLine]
			if pos < max {
				marker = s.Src[pos]
				if marker == '-' || marker == '=' {
					pos = s.SkipBytes(pos, marker)
					pos = s.SkipSpaces(pos)
					if pos >= max {
						level = 2
						if marker == '=' {
							level = 1
						}
						break
					}
				}
			}
		}
		// Lazy quote continuation.
		if s.SCount[nextLine] < 0 {
			continue
		}
		terminate := false
		for _, rule := range terminators {
			if rule(s, nextLine, endLine, true) {
				terminate = true
				break
			}
		}
		if terminate {
			break
		}
	}
	if level == 0 {
		return false
	}

	content := strings.TrimSpace(s.Lines(startLine, nextLine, s.BlkIndent, false))
	s.Line = nextLine + 1
	tag := headingTags[level]

	open := s.Push("heading_open", tag, 1)
	open.Markup = string(marker)
	open.Map = []int{startLine, s.Line}

	inline := s.Push("inline", "", 0)
	inline.Content = content
	inline.Map = []int{startLine, s.Line - 1}
	inline.Children = []*Token{}

	closeTok := s.Push("heading_close", tag, -1)
	closeTok.Markup = string(marker)
	return true
}

func ruleParagraph(s *StateBlock, startLine, _ int, _ bool) bool {
	terminators := s.Parser.Block.Ruler.GetRules("paragraph")
	endLine := s.LineMax
	oldParentType := s.ParentType
	s.ParentType = "paragraph"

	nextLine := startLine + 1
	for ; nextLine < endLine && !s.IsEmpty(nextLine); nextLine++ {
		if s.SCount[nextLine]-s.BlkIndent > 3 {
			continue
		}
		if s.SCount[nextLine] < 0 {
			continue
		}
		terminate := false
		for _, rule := range terminators {
			if rule(s, nextLine, endLine, true) {
				terminate = true
				break
			}
		}
		if terminate {
			break
		}
	}

	content := strings.TrimSpace(s.Lines(startLine, nextLine, s.BlkIndent, false))
	s.Line = nextLine

	open := s.Push("paragraph_open", "p", 1)
	open.Map = []int{startLine, s.Line}

	inline := s.Push("inline", "", 0)
	inline.Content = content
	inline.Map = []int{startLine, s.Line}
	inline.Children = []*Token{}

	s.Push("paragraph_close", "p", -1)
	s.ParentType = oldParentType
	return true
}
