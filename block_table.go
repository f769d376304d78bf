package mdit

import (
	"regexp"
	"strings"
)

// maxAutocompletedCells bounds the empty cells added to short body rows so
// a wide header cannot blow up the output.
const maxAutocompletedCells = 0x10000

var tableAlignRe = regexp.MustCompile(`^:?-+:?$`)

// escapedSplit splits a table row on unescaped pipes; "\|" becomes "|".
func escapedSplit(str string) []string {
	var result []string
	var current strings.Builder
	isEscaped := false
	lastPos := 0
	for pos := 0; pos < len(str); pos++ {
		ch := str[pos]
		if ch == '|' {
			if !isEscaped {
				current.WriteString(str[lastPos:pos])
				result = append(result, current.String())
				current.Reset()
				lastPos = pos + 1
			} else {
				current.WriteString(str[lastPos : pos-1])
				lastPos = pos
			}
		}
		isEscaped = ch == '\\'
	}
	current.WriteString(str[lastPos:])
	return append(result, current.String())
}

func trimEmptyEdgeCells(columns []string) []string {
	if len(columns) > 0 && columns[0] == "" {
		columns = columns[1:]
	}
	if len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}
	return columns
}

func isTableDelimiterByte(ch byte) bool {
	return ch == '|' || ch == '-' || ch == ':'
}

func ruleTable(s *StateBlock, startLine, endLine int, silent bool) bool {
	if startLine+2 > endLine {
		return false
	}
	nextLine := startLine + 1
	if s.SCount[nextLine] < s.BlkIndent {
		return false
	}
	if s.SCount[nextLine]-s.BlkIndent >= 4 {
		return false
	}

	// The delimiter row may only hold "|", "-", ":" and whitespace, and
	// must not look like a list item.
	pos := s.BMarks[nextLine] + s.TShift[nextLine]
	if pos >= s.EMarks[nextLine] {
		return false
	}
	firstCh := s.Src[pos]
	pos++
	if !isTableDelimiterByte(firstCh) {
		return false
	}
	if pos >= s.EMarks[nextLine] {
		return false
	}
	secondCh := s.Src[pos]
	pos++
	if !isTableDelimiterByte(secondCh) && !isSpace(secondCh) {
		return false
	}
	if firstCh == '-' && isSpace(secondCh) {
		return false
	}
	for ; pos < s.EMarks[nextLine]; pos++ {
		ch := s.Src[pos]
		if !isTableDelimiterByte(ch) && !isSpace(ch) {
			return false
		}
	}

	columns := strings.Split(s.lineText(nextLine), "|")
	var aligns []string
	for i, col := range columns {
		t := strings.TrimSpace(col)
		if t == "" {
			// Empty edge cells are allowed, empty inner cells are not.
			if i == 0 || i == len(columns)-1 {
				continue
			}
			return false
		}
		if !tableAlignRe.MatchString(t) {
			return false
		}
		switch {
		case t[len(t)-1] == ':' && t[0] == ':':
			aligns = append(aligns, "center")
		case t[len(t)-1] == ':':
			aligns = append(aligns, "right")
		case t[0] == ':':
			aligns = append(aligns, "left")
		default:
			aligns = append(aligns, "")
		}
	}

	lineText := strings.TrimSpace(s.lineText(startLine))
	if strings.IndexByte(lineText, '|') < 0 {
		return false
	}
	if s.SCount[startLine]-s.BlkIndent >= 4 {
		return false
	}
	columns = trimEmptyEdgeCells(escapedSplit(lineText))
	columnCount := len(columns)
	if columnCount == 0 || columnCount != len(aligns) {
		return false
	}
	if silent {
		return true
	}

	oldParentType := s.ParentType
	s.ParentType = "table"
	terminators := s.Parser.Block.Ruler.GetRules("blockquote")

	tableOpen := s.Push("table_open", "table", 1)
	tableLines := []int{startLine, 0}
	tableOpen.Map = tableLines

	s.Push("thead_open", "thead", 1).Map = []int{startLine, startLine + 1}
	s.Push("tr_open", "tr", 1).Map = []int{startLine, startLine + 1}
	for i, col := range columns {
		th := s.Push("th_open", "th", 1)
		if aligns[i] != "" {
			th.Attrs = []Attr{{Name: "style", Value: "text-align:" + aligns[i]}}
		}
		inline := s.Push("inline", "", 0)
		inline.Content = strings.TrimSpace(col)
		inline.Children = []*Token{}
		s.Push("th_close", "th", -1)
	}
	s.Push("tr_close", "tr", -1)
	s.Push("thead_close", "thead", -1)

	var tbodyLines []int
	autocompletedCells := 0
	for nextLine = startLine + 2; nextLine < endLine; nextLine++ {
		if s.SCount[nextLine] < s.BlkIndent {
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
		lineText = strings.TrimSpace(s.lineText(nextLine))
		if lineText == "" {
			break
		}
		if s.SCount[nextLine]-s.BlkIndent >= 4 {
			break
		}
		columns = trimEmptyEdgeCells(escapedSplit(lineText))

		// May go negative when rows are wider than the header.
		autocompletedCells += columnCount - len(columns)
		if autocompletedCells > maxAutocompletedCells {
			break
		}

		if nextLine == startLine+2 {
			tbodyLines = []int{startLine + 2, 0}
			s.Push("tbody_open", "tbody", 1).Map = tbodyLines
		}
		s.Push("tr_open", "tr", 1).Map = []int{nextLine, nextLine + 1}
		for i := 0; i < columnCount; i++ {
			td := s.Push("td_open", "td", 1)
			if aligns[i] != "" {
				td.Attrs = []Attr{{Name: "style", Value: "text-align:" + aligns[i]}}
			}
			inline := s.Push("inline", "", 0)
			if i < len(columns) {
				inline.Content = strings.TrimSpace(columns[i])
			}
			inline.Children = []*Token{}
			s.Push("td_close", "td", -1)
		}
		s.Push("tr_close", "tr", -1)
	}

	if tbodyLines != nil {
		s.Push("tbody_close", "tbody", -1)
		tbodyLines[1] = nextLine
	}
	s.Push("table_close", "table", -1)
	tableLines[1] = nextLine

	s.ParentType = oldParentType
	s.Line = nextLine
	return true
}
