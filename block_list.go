package mdit

import "strconv"

// skipBulletListMarker returns the position after a "-", "+" or "*" marker,
// or -1.
func skipBulletListMarker(s *StateBlock, startLine int) int {
	max := s.EMarks[startLine]
	pos := s.BMarks[startLine] + s.TShift[startLine]
	if pos >= max {
		return -1
	}
	marker := s.Src[pos]
	pos++
	if marker != '*' && marker != '-' && marker != '+' {
		return -1
	}
	if pos < max && !isSpace(s.Src[pos]) {
		return -1
	}
	return pos
}

// skipOrderedListMarker returns the position after a "1." or "1)" marker
// of at most nine digits, or -1.
func skipOrderedListMarker(s *StateBlock, startLine int) int {
	start := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]
	pos := start
	if pos+1 >= max {
		return -1
	}
	ch := s.Src[pos]
	pos++
	if !isDigit(ch) {
		return -1
	}
	for {
		if pos >= max {
			return -1
		}
		ch = s.Src[pos]
		pos++
		if isDigit(ch) {
			if pos-start >= 10 {
				return -1
			}
			continue
		}
		if ch == ')' || ch == '.' {
			break
		}
		return -1
	}
	if pos < max && !isSpace(s.Src[pos]) {
		return -1
	}
	return pos
}

func markTightParagraphs(s *StateBlock, idx int) {
	level := s.Level + 2
	for i, n := idx+2, len(s.Tokens)-2; i < n; i++ {
		if s.Tokens[i].Level == level && s.Tokens[i].Type == "paragraph_open" {
			s.Tokens[i+2].Hidden = true
			s.Tokens[i].Hidden = true
			i += 2
		}
	}
}

func ruleList(s *StateBlock, startLine, endLine int, silent bool) bool {
	nextLine := startLine
	tight := true

	if s.SCount[nextLine]-s.BlkIndent >= 4 {
		return false
	}
	// A marker indented 4+ past the enclosing item's content is not a new
	// item of that list.
	if s.ListIndent >= 0 && s.SCount[nextLine]-s.ListIndent >= 4 && s.SCount[nextLine] < s.BlkIndent {
		return false
	}

	isTerminatingParagraph := silent && s.ParentType == "paragraph" && s.SCount[nextLine] >= s.BlkIndent

	var isOrdered bool
	var markerValue, start int
	posAfterMarker := skipOrderedListMarker(s, nextLine)
	if posAfterMarker >= 0 {
		isOrdered = true
		start = s.BMarks[nextLine] + s.TShift[nextLine]
		markerValue, _ = strconv.Atoi(s.Src[start : posAfterMarker-1])
		// Only a list starting at 1 may interrupt a paragraph.
		if isTerminatingParagraph && markerValue != 1 {
			return false
		}
	} else if posAfterMarker = skipBulletListMarker(s, nextLine); posAfterMarker < 0 {
		return false
	}

	// An empty item cannot interrupt a paragraph.
	if isTerminatingParagraph && s.SkipSpaces(posAfterMarker) >= s.EMarks[nextLine] {
		return false
	}
	if silent {
		return true
	}

	markerChar := s.Src[posAfterMarker-1]
	markup := string(markerChar)
	listTokIdx := len(s.Tokens)

	var tok *Token
	if isOrdered {
		tok = s.Push("ordered_list_open", "ol", 1)
		if markerValue != 1 {
			tok.Attrs = []Attr{{Name: "start", Value: strconv.Itoa(markerValue)}}
		}
	} else {
		tok = s.Push("bullet_list_open", "ul", 1)
	}
	listLines := []int{nextLine, 0}
	tok.Map = listLines
	tok.Markup = markup

	prevEmptyEnd := false
	terminators := s.Parser.Block.Ruler.GetRules("list")
	oldParentType := s.ParentType
	s.ParentType = "list"

	for nextLine < endLine {
		pos := posAfterMarker
		max := s.EMarks[nextLine]
		initial := s.SCount[nextLine] + posAfterMarker - (s.BMarks[nextLine] + s.TShift[nextLine])
		offset := initial

		for pos < max {
			ch := s.Src[pos]
			if ch == '\t' {
				offset += 4 - (offset+s.BSCount[nextLine])%4
			} else if ch == ' ' {
				offset++
			} else {
				break
			}
			pos++
		}

		contentStart := pos
		indentAfterMarker := offset - initial
		if contentStart >= max {
			indentAfterMarker = 1
		}
		// Five or more spaces start an indented code block inside the item.
		if indentAfterMarker > 4 {
			indentAfterMarker = 1
		}
		indent := initial + indentAfterMarker

		tok = s.Push("list_item_open", "li", 1)
		tok.Markup = markup
		itemLines := []int{nextLine, 0}
		tok.Map = itemLines
		if isOrdered {
			tok.Info = s.Src[start : posAfterMarker-1]
		}

		oldTight := s.Tight
		oldTShift := s.TShift[nextLine]
		oldSCount := s.SCount[nextLine]
		oldListIndent := s.ListIndent
		s.ListIndent = s.BlkIndent
		s.BlkIndent = indent
		s.Tight = true
		s.TShift[nextLine] = contentStart - s.BMarks[nextLine]
		s.SCount[nextLine] = offset

		if contentStart >= max && s.IsEmpty(nextLine+1) {
			// An empty item followed by a blank line ends the list.
			s.Line = min(s.Line+2, endLine)
		} else {
			s.Parser.Block.Tokenize(s, nextLine, endLine)
		}

		if !s.Tight || prevEmptyEnd {
			tight = false
		}
		prevEmptyEnd = s.Line-nextLine > 1 && s.IsEmpty(s.Line-1)

		s.BlkIndent = s.ListIndent
		s.ListIndent = oldListIndent
		s.TShift[nextLine] = oldTShift
		s.SCount[nextLine] = oldSCount
		s.Tight = oldTight

		tok = s.Push("list_item_close", "li", -1)
		tok.Markup = markup

		nextLine = s.Line
		itemLines[1] = nextLine

		if nextLine >= endLine {
			break
		}
		if s.SCount[nextLine] < s.BlkIndent {
			break
		}
		if s.SCount[nextLine]-s.BlkIndent >= 4 {
			break
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

		if isOrdered {
			posAfterMarker = skipOrderedListMarker(s, nextLine)
			if posAfterMarker < 0 {
				break
			}
			start = s.BMarks[nextLine] + s.TShift[nextLine]
		} else {
			posAfterMarker = skipBulletListMarker(s, nextLine)
			if posAfterMarker < 0 {
				break
			}
		}
		if markerChar != s.Src[posAfterMarker-1] {
			break
		}
	}

	if isOrdered {
		tok = s.Push("ordered_list_close", "ol", -1)
	} else {
		tok = s.Push("bullet_list_close", "ul", -1)
	}
	tok.Markup = markup

	listLines[1] = nextLine
	s.Line = nextLine
	s.ParentType = oldParentType

	if tight {
		markTightParagraphs(s, listTokIdx)
	}
	return true
}
