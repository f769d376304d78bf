package mdit

func ruleBlockquote(s *StateBlock, startLine, endLine int, silent bool) bool {
	pos := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]
	oldLineMax := s.LineMax

	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	if pos >= max || s.Src[pos] != '>' {
		return false
	}
	if silent {
		return true
	}

	var oldBMarks, oldBSCount, oldSCount, oldTShift []int
	terminators := s.Parser.Block.Ruler.GetRules("blockquote")
	oldParentType := s.ParentType
	s.ParentType = "blockquote"
	lastLineEmpty := false

	nextLine := startLine
	for ; nextLine < endLine; nextLine++ {
		isOutdented := s.SCount[nextLine] < s.BlkIndent
		pos = s.BMarks[nextLine] + s.TShift[nextLine]
		max = s.EMarks[nextLine]
		if pos >= max {
			// An empty line outside the quote ends it.
			break
		}

		if s.Src[pos] == '>' && !isOutdented {
			pos++
			initial := s.SCount[nextLine] + 1
			spaceAfterMarker := false
			adjustTab := false
			if pos < len(s.Src) && s.Src[pos] == ' ' {
				pos++
				initial++
				spaceAfterMarker = true
			} else if pos < len(s.Src) && s.Src[pos] == '\t' {
				spaceAfterMarker = true
				if (s.BSCount[nextLine]+initial)%4 == 3 {
					pos++
					initial++
				} else {
					adjustTab = true
				}
			}

			offset := initial
			oldBMarks = append(oldBMarks, s.BMarks[nextLine])
			s.BMarks[nextLine] = pos
			for pos < max {
				ch := s.Src[pos]
				if !isSpace(ch) {
					break
				}
				if ch == '\t' {
					adj := 0
					if adjustTab {
						adj = 1
					}
					offset += 4 - (offset+s.BSCount[nextLine]+adj)%4
				} else {
					offset++
				}
				pos++
			}
			lastLineEmpty = pos >= max

			oldBSCount = append(oldBSCount, s.BSCount[nextLine])
			s.BSCount[nextLine] = s.SCount[nextLine] + 1
			if spaceAfterMarker {
				s.BSCount[nextLine]++
			}
			oldSCount = append(oldSCount, s.SCount[nextLine])
			s.SCount[nextLine] = offset - initial
			oldTShift = append(oldTShift, s.TShift[nextLine])
			s.TShift[nextLine] = pos - s.BMarks[nextLine]
			continue
		}

		if lastLineEmpty {
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
			// Stop paragraphs inside the quote from looking past nextLine.
			s.LineMax = nextLine
			if s.BlkIndent != 0 {
				oldBMarks = append(oldBMarks, s.BMarks[nextLine])
				oldBSCount = append(oldBSCount, s.BSCount[nextLine])
				oldTShift = append(oldTShift, s.TShift[nextLine])
				oldSCount = append(oldSCount, s.SCount[nextLine])
				s.SCount[nextLine] -= s.BlkIndent
			}
			break
		}

		oldBMarks = append(oldBMarks, s.BMarks[nextLine])
		oldBSCount = append(oldBSCount, s.BSCount[nextLine])
		oldTShift = append(oldTShift, s.TShift[nextLine])
		oldSCount = append(oldSCount, s.SCount[nextLine])
		// Lazy continuation line.
		s.SCount[nextLine] = -1
	}

	oldIndent := s.BlkIndent
	s.BlkIndent = 0

	open := s.Push("blockquote_open", "blockquote", 1)
	open.Markup = ">"
	lines := []int{startLine, 0}
	open.Map = lines

	s.Parser.Block.Tokenize(s, startLine, nextLine)

	closeTok := s.Push("blockquote_close", "blockquote", -1)
	closeTok.Markup = ">"

	s.LineMax = oldLineMax
	s.ParentType = oldParentType
	lines[1] = s.Line

	for i := range oldTShift {
		s.BMarks[i+startLine] = oldBMarks[i]
		s.TShift[i+startLine] = oldTShift[i]
		s.SCount[i+startLine] = oldSCount[i]
		s.BSCount[i+startLine] = oldBSCount[i]
	}
	s.BlkIndent = oldIndent
	return true
}
