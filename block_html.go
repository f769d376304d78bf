package mdit

func ruleHTMLBlock(s *StateBlock, startLine, endLine int, silent bool) bool {
	pos := s.BMarks[startLine] + s.TShift[startLine]
	max := s.EMarks[startLine]

	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	if !s.Parser.opts.HTML {
		return false
	}
	if pos >= max || s.Src[pos] != '<' {
		return false
	}

	lineText := s.Src[pos:max]
	i := 0
	for ; i < len(htmlSequences); i++ {
		if htmlSequences[i].open.MatchString(lineText) {
			break
		}
	}
	if i == len(htmlSequences) {
		return false
	}
	seq := htmlSequences[i]
	if silent {
		return seq.canInterrupt
	}

	nextLine := startLine + 1
	if !seq.closes(lineText) {
		for ; nextLine < endLine; nextLine++ {
			if s.SCount[nextLine] < s.BlkIndent {
				break
			}
			pos = s.BMarks[nextLine] + s.TShift[nextLine]
			max = s.EMarks[nextLine]
			lineText = s.Src[pos:max]
			if seq.closes(lineText) {
				if lineText != "" {
					nextLine++
				}
				break
			}
		}
	}

	s.Line = nextLine
	tok := s.Push("html_block", "", 0)
	tok.Map = []int{startLine, nextLine}
	tok.Content = s.Lines(startLine, nextLine, s.BlkIndent, true)
	return true
}
