package mdit

import "strings"

func ruleCode(s *StateBlock, startLine, endLine int, _ bool) bool {
	if s.SCount[startLine]-s.BlkIndent < 4 {
		return false
	}
	nextLine := startLine + 1
	last := nextLine
	for nextLine < endLine {
		if s.IsEmpty(nextLine) {
			nextLine++
			continue
		}
		if s.SCount[nextLine]-s.BlkIndent >= 4 {
			nextLine++
			last = nextLine
			continue
		}
		break
	}
	s.Line = last

	tok := s.Push("code_block", "code", 0)
	tok.Content = s.Lines(startLine, last, 4+s.BlkIndent, false) + "\n"
	tok.Map = []int{startLine, s.Line}
	return true
}

func ruleFence(s *StateBlock, startLine, endLine int, silent bool) bool {
	pos := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]
	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	if pos+3 > max {
		return false
	}
	marker := s.Src[pos]
	if marker != '~' && marker != '`' {
		return false
	}
	mem := pos
	pos = s.SkipBytes(pos, marker)
	length := pos - mem
	if length < 3 {
		return false
	}
	markup := s.Src[mem:pos]
	params := s.Src[pos:max]
	if marker == '`' && strings.IndexByte(params, '`') >= 0 {
		return false
	}
	if silent {
		return true
	}

	nextLine := startLine
	haveEndMarker := false
	for {
		nextLine++
		if nextLine >= endLine {
			// Unclosed fences run to the end of the container.
			break
		}
		pos = s.BMarks[nextLine] + s.TShift[nextLine]
		mem = pos
		max = s.EMarks[nextLine]
		if pos < max && s.SCount[nextLine] < s.BlkIndent {
			// Non-empty line with negative indent closes the parent block.
			break
		}
		if pos >= len(s.Src) || s.Src[pos] != marker {
			continue
		}
		if s.SCount[nextLine]-s.BlkIndent >= 4 {
			continue
		}
		pos = s.SkipBytes(pos, marker)
		if pos-mem < length {
			continue
		}
		pos = s.SkipSpaces(pos)
		if pos < max {
			continue
		}
		haveEndMarker = true
		break
	}

	indent := s.SCount[startLine]
	s.Line = nextLine
	if haveEndMarker {
		s.Line++
	}
	tok := s.Push("fence", "code", 0)
	tok.Info = params
	tok.Content = s.Lines(startLine+1, nextLine, indent, true)
	tok.Markup = markup
	tok.Map = []int{startLine, s.Line}
	return true
}
