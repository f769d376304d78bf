package mdit

import "strings"

func ruleBackticks(s *StateInline, silent bool) bool {
	pos := s.Pos
	if s.Src[pos] != '`' {
		return false
	}
	start := pos
	pos++
	max := s.PosMax
	for pos < max && s.Src[pos] == '`' {
		pos++
	}
	marker := s.Src[start:pos]
	openerLength := len(marker)

	// A previous full scan proved there is no closer of this length ahead.
	if s.backticksScanned {
		if last, ok := s.backticks[openerLength]; !ok || last <= start {
			if !silent {
				s.pending = append(s.pending, marker...)
			}
			s.Pos += openerLength
			return true
		}
	}

	matchEnd := pos
	for {
		i := strings.IndexByte(s.Src[matchEnd:], '`')
		if i < 0 {
			break
		}
		matchStart := matchEnd + i
		matchEnd = matchStart + 1
		for matchEnd < max && s.Src[matchEnd] == '`' {
			matchEnd++
		}
		closerLength := matchEnd - matchStart
		if closerLength == openerLength {
			if !silent {
				tok := s.Push("code_inline", "code", 0)
				tok.Markup = marker
				tok.Content = stripCodeSpan(s.Src[pos:matchStart])
			}
			s.Pos = matchEnd
			return true
		}
		s.backticks[closerLength] = matchStart
	}

	s.backticksScanned = true
	if !silent {
		s.pending = append(s.pending, marker...)
	}
	s.Pos += openerLength
	return true
}

// stripCodeSpan turns line endings into spaces and strips one surrounding
// space when both ends have one and something remains in between.
func stripCodeSpan(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if len(content) >= 3 && content[0] == ' ' && content[len(content)-1] == ' ' {
		return content[1 : len(content)-1]
	}
	return content
}
