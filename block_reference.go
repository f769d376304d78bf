package mdit

func ruleReference(s *StateBlock, startLine, _ int, silent bool) bool {
	pos := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]
	nextLine := startLine + 1

	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	if pos >= max || s.Src[pos] != '[' {
		return false
	}

	// nextLineContent returns the following line when it can continue the
	// definition.
	nextLineContent := func(line int) (string, bool) {
		endLine := s.LineMax
		if line >= endLine || s.IsEmpty(line) {
			return "", false
		}
		isContinuation := s.SCount[line]-s.BlkIndent > 3 || s.SCount[line] < 0
		if !isContinuation {
			terminators := s.Parser.Block.Ruler.GetRules("reference")
			oldParentType := s.ParentType
			s.ParentType = "reference"
			terminate := false
			for _, rule := range terminators {
				if rule(s, line, endLine, true) {
					terminate = true
					break
				}
			}
			s.ParentType = oldParentType
			if terminate {
				return "", false
			}
		}
		from := s.BMarks[line] + s.TShift[line]
		to := min(s.EMarks[line]+1, len(s.Src))
		return s.Src[from:to], true
	}

	str := s.Src[pos:min(max+1, len(s.Src))]
	max = len(str)
	extend := func() {
		if content, ok := nextLineContent(nextLine); ok {
			str += content
			max = len(str)
			nextLine++
		}
	}

	labelEnd := -1
	for pos = 1; pos < max; pos++ {
		ch := str[pos]
		if ch == '[' {
			return false
		} else if ch == ']' {
			labelEnd = pos
			break
		} else if ch == '\n' {
			extend()
		} else if ch == '\\' {
			pos++
			if pos < max && str[pos] == '\n' {
				extend()
			}
		}
	}
	if labelEnd < 0 || labelEnd+1 >= max || str[labelEnd+1] != ':' {
		return false
	}

	for pos = labelEnd + 2; pos < max; pos++ {
		ch := str[pos]
		if ch == '\n' {
			extend()
		} else if !isSpace(ch) {
			break
		}
	}

	dest := parseLinkDestination(str, pos, max)
	if !dest.ok {
		return false
	}
	href := s.Parser.NormalizeLink(dest.str)
	if !s.Parser.ValidateLink(href) {
		return false
	}
	pos = dest.pos

	// Rollback point for a title that turns out to be invalid.
	destEndPos := pos
	destEndLineNo := nextLine

	start := pos
	for ; pos < max; pos++ {
		ch := str[pos]
		if ch == '\n' {
			extend()
		} else if !isSpace(ch) {
			break
		}
	}

	title := parseLinkTitle(str, pos, max, nil)
	for title.canContinue {
		content, ok := nextLineContent(nextLine)
		if !ok {
			break
		}
		str += content
		pos = max
		max = len(str)
		nextLine++
		prev := title
		title = parseLinkTitle(str, pos, max, &prev)
	}

	var titleStr string
	if pos < max && start != pos && title.ok {
		titleStr = title.str
		pos = title.pos
	} else {
		pos = destEndPos
		nextLine = destEndLineNo
	}

	for pos < max && isSpace(str[pos]) {
		pos++
	}
	if pos < max && str[pos] != '\n' && titleStr != "" {
		// Garbage after the title; the definition may still hold without it.
		titleStr = ""
		pos = destEndPos
		nextLine = destEndLineNo
		for pos < max && isSpace(str[pos]) {
			pos++
		}
	}
	if pos < max && str[pos] != '\n' {
		return false
	}

	label := normalizeReference(str[1:labelEnd])
	if label == "" {
		return false
	}
	if silent {
		return true
	}

	if s.Env.References == nil {
		s.Env.References = make(map[string]Reference)
	}
	s.Env.defineReference(label, Reference{Href: href, Title: titleStr, line: startLine})
	s.Line = nextLine
	return true
}
