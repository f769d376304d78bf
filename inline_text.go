package mdit

import (
	"regexp"
	"unicode/utf8"
)

// isTerminatorChar reports bytes that may start an inline construct; runs
// of anything else are swallowed by the text rule in one step.
func isTerminatorChar(ch byte) bool {
	switch ch {
	case '\n', '!', '#', '$', '%', '&', '*', '+', '-', ':', '<', '=', '@',
		'[', '\\', ']', '^', '_', '`', '{', '}', '~':
		return true
	}
	return false
}

func ruleText(s *StateInline, silent bool) bool {
	pos := s.Pos
	for pos < s.PosMax && !isTerminatorChar(s.Src[pos]) {
		pos++
	}
	if pos == s.Pos {
		return false
	}
	if !silent {
		s.pending = append(s.pending, s.Src[s.Pos:pos]...)
	}
	s.Pos = pos
	return true
}

func ruleNewline(s *StateInline, silent bool) bool {
	pos := s.Pos
	if s.Src[pos] != '\n' {
		return false
	}
	pmax := len(s.pending) - 1
	max := s.PosMax

	if !silent {
		if pmax >= 0 && s.pending[pmax] == ' ' {
			if pmax >= 1 && s.pending[pmax-1] == ' ' {
				// Two or more trailing spaces make a hard break.
				ws := pmax - 1
				for ws >= 1 && s.pending[ws-1] == ' ' {
					ws--
				}
				s.pending = s.pending[:ws]
				s.Push("hardbreak", "br", 0)
			} else {
				s.pending = s.pending[:pmax]
				s.Push("softbreak", "br", 0)
			}
		} else {
			s.Push("softbreak", "br", 0)
		}
	}

	pos++
	for pos < max && isSpace(s.Src[pos]) {
		pos++
	}
	s.Pos = pos
	return true
}

func ruleEscape(s *StateInline, silent bool) bool {
	pos := s.Pos
	max := s.PosMax
	if s.Src[pos] != '\\' {
		return false
	}
	pos++
	if pos >= max {
		return false
	}

	ch := s.Src[pos]
	if ch == '\n' {
		if !silent {
			s.Push("hardbreak", "br", 0)
		}
		pos++
		for pos < max && isSpace(s.Src[pos]) {
			pos++
		}
		s.Pos = pos
		return true
	}

	_, size := utf8.DecodeRuneInString(s.Src[pos:max])
	escaped := s.Src[pos : pos+size]
	orig := "\\" + escaped
	if !silent {
		tok := s.Push("text_special", "", 0)
		if size == 1 && isMdASCIIPunct(ch) {
			tok.Content = escaped
		} else {
			tok.Content = orig
		}
		tok.Markup = orig
		tok.Info = "escape"
	}
	s.Pos = pos + size
	return true
}

var (
	digitalEntityInlineRe = regexp.MustCompile(`(?i)^&#(x[a-f0-9]{1,6}|[0-9]{1,7});`)
	namedEntityInlineRe   = regexp.MustCompile(`(?i)^&([a-z][a-z0-9]{1,31});`)
)

func ruleEntity(s *StateInline, silent bool) bool {
	pos := s.Pos
	max := s.PosMax
	if s.Src[pos] != '&' || pos+1 >= max {
		return false
	}

	if s.Src[pos+1] == '#' {
		if m := digitalEntityInlineRe.FindStringSubmatch(s.Src[pos:max]); m != nil {
			if !silent {
				tok := s.Push("text_special", "", 0)
				code, ok := decodeNumericEntity(m[1])
				if ok && isValidEntityCode(code) {
					tok.Content = fromCodePoint(code)
				} else {
					tok.Content = "�"
				}
				tok.Markup = m[0]
				tok.Info = "entity"
			}
			s.Pos += len(m[0])
			return true
		}
		return false
	}

	if m := namedEntityInlineRe.FindString(s.Src[pos:max]); m != "" {
		if decoded, ok := decodeNamedEntity(m); ok {
			if !silent {
				tok := s.Push("text_special", "", 0)
				tok.Content = decoded
				tok.Markup = m
				tok.Info = "entity"
			}
			s.Pos += len(m)
			return true
		}
	}
	return false
}
