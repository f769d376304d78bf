package mdit

// ruleEmphasis emits one text token per "*" or "_" of a run and records a
// delimiter for each; pairing happens after tokenization.
func ruleEmphasis(s *StateInline, silent bool) bool {
	start := s.Pos
	marker := s.Src[start]
	if silent {
		return false
	}
	if marker != '_' && marker != '*' {
		return false
	}

	run := s.scanDelims(s.Pos, marker == '*')
	for i := 0; i < run.length; i++ {
		tok := s.Push("text", "", 0)
		tok.Content = string(marker)
		s.pushDelimiter(Delimiter{
			Marker: marker,
			Length: run.length,
			Token:  len(s.Tokens) - 1,
			End:    -1,
			Open:   run.canOpen,
			Close:  run.canClose,
		})
	}
	s.Pos += run.length
	return true
}

// processDelimiters pairs closers with the nearest compatible opener.
//
// openersBottom remembers, per marker, closer length mod 3 and whether the
// closer can also open, the lowest index a failed search reached, so later
// closers of the same class stop there. jumps lets the backward scan hop
// over runs that are already matched. Both keep the pass linear on inputs
// like "*_*_*_...".
func processDelimiters(delims []Delimiter) {
	if len(delims) == 0 {
		return
	}
	openersBottom := make(map[byte]*[6]int)
	headerIdx := 0
	lastTokenIdx := -2
	jumps := make([]int, len(delims))

	for closerIdx := range delims {
		closer := &delims[closerIdx]

		// Adjacent markers of the same kind form one run.
		if delims[headerIdx].Marker != closer.Marker || lastTokenIdx != closer.Token-1 {
			headerIdx = closerIdx
		}
		lastTokenIdx = closer.Token

		if !closer.Close {
			continue
		}

		bottom, ok := openersBottom[closer.Marker]
		if !ok {
			bottom = &[6]int{-1, -1, -1, -1, -1, -1}
			openersBottom[closer.Marker] = bottom
		}
		bucket := closer.Length % 3
		if closer.Open {
			bucket += 3
		}
		minOpenerIdx := bottom[bucket]

		openerIdx := headerIdx - jumps[headerIdx] - 1
		newMinOpenerIdx := openerIdx

		for ; openerIdx > minOpenerIdx; openerIdx -= jumps[openerIdx] + 1 {
			opener := &delims[openerIdx]
			if opener.Marker != closer.Marker {
				continue
			}
			if !opener.Open || opener.End >= 0 {
				continue
			}

			// Rule of 3: if either side can both open and close, the run
			// lengths must not sum to a multiple of 3 unless both are.
			if opener.Close || closer.Open {
				if (opener.Length+closer.Length)%3 == 0 &&
					(opener.Length%3 != 0 || closer.Length%3 != 0) {
					continue
				}
			}

			lastJump := 0
			if openerIdx > 0 && !delims[openerIdx-1].Open {
				lastJump = jumps[openerIdx-1] + 1
			}
			jumps[closerIdx] = closerIdx - openerIdx + lastJump
			jumps[openerIdx] = lastJump

			closer.Open = false
			opener.End = closerIdx
			opener.Close = false
			newMinOpenerIdx = -1
			lastTokenIdx = -2
			break
		}

		if newMinOpenerIdx != -1 {
			bottom[bucket] = newMinOpenerIdx
		}
	}
}

func ruleBalancePairs(s *StateInline) {
	for _, scope := range s.scopes() {
		processDelimiters(scope.delimiters)
	}
}

func emphasisPostProcess(s *StateInline, delims []Delimiter) {
	for i := len(delims) - 1; i >= 0; i-- {
		startDelim := delims[i]
		if startDelim.Marker != '_' && startDelim.Marker != '*' {
			continue
		}
		if startDelim.End == -1 {
			continue
		}
		endDelim := delims[startDelim.End]

		// Two adjacent nested pairs of the same marker collapse into strong.
		isStrong := i > 0 &&
			delims[i-1].End == startDelim.End+1 &&
			delims[i-1].Marker == startDelim.Marker &&
			delims[i-1].Token == startDelim.Token-1 &&
			delims[startDelim.End+1].Token == endDelim.Token+1

		ch := string(startDelim.Marker)
		typ, tag, markup := "em", "em", ch
		if isStrong {
			typ, tag, markup = "strong", "strong", ch+ch
		}

		open := s.Tokens[startDelim.Token]
		open.Type = typ + "_open"
		open.Tag = tag
		open.Nesting = 1
		open.Markup = markup
		open.Content = ""

		closeTok := s.Tokens[endDelim.Token]
		closeTok.Type = typ + "_close"
		closeTok.Tag = tag
		closeTok.Nesting = -1
		closeTok.Markup = markup
		closeTok.Content = ""

		if isStrong {
			s.Tokens[delims[i-1].Token].Content = ""
			s.Tokens[delims[startDelim.End+1].Token].Content = ""
			i--
		}
	}
}

func ruleEmphasisPostProcess(s *StateInline) {
	for _, scope := range s.scopes() {
		emphasisPostProcess(s, scope.delimiters)
	}
}

// ruleFragmentsJoin merges adjacent text tokens left over from unmatched
// delimiters and recomputes levels.
func ruleFragmentsJoin(s *StateInline) {
	level := 0
	for _, tok := range s.Tokens {
		if tok.Nesting < 0 {
			level--
		}
		tok.Level = level
		if tok.Nesting > 0 {
			level++
		}
	}
	s.Tokens = joinTextRuns(s.Tokens)
}
