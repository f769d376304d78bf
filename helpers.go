package mdit

// linkResult is the outcome of a link destination or title scan.
type linkResult struct {
	ok  bool
	pos int
	str string
}

// titleState is the resumable state of a link title scan. A title in a
// reference definition may span lines, so the caller can feed the next line
// and continue from prev.
type titleState struct {
	linkResult
	canContinue bool
	marker      byte
}

// parseLinkLabel returns the position of the "]" closing the label that
// opens at start, or -1. With disableNested a nested link aborts the scan.
func parseLinkLabel(s *StateInline, start int, disableNested bool) int {
	max := s.PosMax
	oldPos := s.Pos
	s.Pos = start + 1
	level := 1
	found := false

	for s.Pos < max {
		marker := s.Src[s.Pos]
		if marker == ']' {
			level--
			if level == 0 {
				found = true
				break
			}
		}
		prevPos := s.Pos
		s.Parser.Inline.SkipToken(s)
		if marker == '[' {
			if prevPos == s.Pos-1 {
				// A bare "[" that no rule consumed.
				level++
			} else if disableNested {
				s.Pos = oldPos
				return -1
			}
		}
	}

	labelEnd := -1
	if found {
		labelEnd = s.Pos
	}
	s.Pos = oldPos
	return labelEnd
}

// parseLinkDestination scans "<...>" or a bare destination with balanced
// parentheses nested at most 32 deep.
func parseLinkDestination(str string, start, max int) linkResult {
	var res linkResult
	pos := start

	if pos < max && str[pos] == '<' {
		pos++
		for pos < max {
			switch code := str[pos]; {
			case code == '\n' || code == '<':
				return res
			case code == '>':
				res.pos = pos + 1
				res.str = unescapeAll(str[start+1 : pos])
				res.ok = true
				return res
			case code == '\\' && pos+1 < max:
				pos += 2
				continue
			}
			pos++
		}
		return res
	}

	level := 0
	for pos < max {
		code := str[pos]
		if code == ' ' {
			break
		}
		if code < 0x20 || code == 0x7F {
			break
		}
		if code == '\\' && pos+1 < max {
			if str[pos+1] == ' ' {
				break
			}
			pos += 2
			continue
		}
		if code == '(' {
			level++
			if level > 32 {
				return res
			}
		}
		if code == ')' {
			if level == 0 {
				break
			}
			level--
		}
		pos++
	}
	if start == pos || level != 0 {
		return res
	}
	res.str = unescapeAll(str[start:pos])
	res.pos = pos
	res.ok = true
	return res
}

// parseLinkTitle scans a '"', "'" or "(" delimited title. Passing a previous
// state continues an unterminated title on the following line.
func parseLinkTitle(str string, start, max int, prev *titleState) titleState {
	var st titleState
	pos := start

	if prev != nil {
		st.str = prev.str
		st.marker = prev.marker
	} else {
		if pos >= max {
			return st
		}
		marker := str[pos]
		if marker != '"' && marker != '\'' && marker != '(' {
			return st
		}
		start++
		pos++
		if marker == '(' {
			marker = ')'
		}
		st.marker = marker
	}

	for pos < max {
		code := str[pos]
		if code == st.marker {
			st.pos = pos + 1
			st.str += unescapeAll(str[start:pos])
			st.ok = true
			return st
		} else if code == '(' && st.marker == ')' {
			return st
		} else if code == '\\' && pos+1 < max {
			pos++
		}
		pos++
	}

	st.canContinue = true
	st.str += unescapeAll(str[start:pos])
	return st
}
