package mdit

import "regexp"

func skipLinkSpace(src string, pos, max int) int {
	for ; pos < max; pos++ {
		if code := src[pos]; !isSpace(code) && code != '\n' {
			break
		}
	}
	return pos
}

// linkTarget is the resolved destination of a link or image.
type linkTarget struct {
	href  string
	title string
	pos   int
}

// parseInlineTarget parses `(dest "title")` starting at the "(" at pos. On
// failure the returned pos is where scanning stopped.
func parseInlineTarget(s *StateInline, pos int) (linkTarget, bool) {
	var t linkTarget
	max := s.PosMax
	pos = skipLinkSpace(s.Src, pos+1, max)
	if pos >= max {
		return t, false
	}

	dest := parseLinkDestination(s.Src, pos, s.PosMax)
	if dest.ok {
		t.href = s.Parser.NormalizeLink(dest.str)
		if s.Parser.ValidateLink(t.href) {
			pos = dest.pos
		} else {
			t.href = ""
		}
	}

	start := pos
	pos = skipLinkSpace(s.Src, pos, max)
	title := parseLinkTitle(s.Src, pos, s.PosMax, nil)
	if pos < max && start != pos && title.ok {
		t.title = title.str
		pos = skipLinkSpace(s.Src, title.pos, max)
	}

	if pos >= max || s.Src[pos] != ')' {
		t.pos = pos
		return t, false
	}
	t.pos = pos + 1
	return t, true
}

// parseReferenceTarget resolves "[label]", "[]" or a shortcut reference
// following the label that ended at labelEnd.
func parseReferenceTarget(s *StateInline, labelStart, labelEnd, pos int) (linkTarget, bool) {
	var t linkTarget
	if s.Env == nil || s.Env.References == nil {
		return t, false
	}
	max := s.PosMax
	label := ""
	if pos < max && s.Src[pos] == '[' {
		start := pos + 1
		pos = parseLinkLabel(s, pos, false)
		if pos >= 0 {
			label = s.Src[start:pos]
			pos++
		} else {
			pos = labelEnd + 1
		}
	} else {
		pos = labelEnd + 1
	}
	// Collapsed "[]" and shortcut references use the link text as label.
	if label == "" {
		label = s.Src[labelStart:labelEnd]
	}
	ref, ok := s.Env.reference(normalizeReference(label))
	if !ok {
		return t, false
	}
	t.href = ref.Href
	t.title = ref.Title
	t.pos = pos
	return t, true
}

func ruleLink(s *StateInline, silent bool) bool {
	if s.Src[s.Pos] != '[' {
		return false
	}
	oldPos := s.Pos
	max := s.PosMax
	labelStart := s.Pos + 1
	labelEnd := parseLinkLabel(s, s.Pos, true)
	if labelEnd < 0 {
		return false
	}

	pos := labelEnd + 1
	var target linkTarget
	parseReference := true
	if pos < max && s.Src[pos] == '(' {
		// Nothing after "(": no inline link and no reference form either.
		if skipLinkSpace(s.Src, pos+1, max) >= max {
			return false
		}
		var ok bool
		target, ok = parseInlineTarget(s, pos)
		parseReference = !ok
		pos = target.pos
		if !ok {
			pos++
		}
	}

	if parseReference {
		ref, ok := parseReferenceTarget(s, labelStart, labelEnd, pos)
		if !ok {
			s.Pos = oldPos
			return false
		}
		target = ref
		pos = ref.pos
	}

	if !silent {
		s.Pos = labelStart
		s.PosMax = labelEnd

		open := s.Push("link_open", "a", 1)
		open.Attrs = []Attr{{Name: "href", Value: target.href}}
		if target.title != "" {
			open.AttrPush("title", target.title)
		}

		s.LinkLevel++
		s.Parser.Inline.Tokenize(s)
		s.LinkLevel--

		s.Push("link_close", "a", -1)
	}

	s.Pos = pos
	s.PosMax = max
	return true
}

func ruleImage(s *StateInline, silent bool) bool {
	oldPos := s.Pos
	max := s.PosMax
	if s.Src[s.Pos] != '!' {
		return false
	}
	if s.Pos+1 >= len(s.Src) || s.Src[s.Pos+1] != '[' {
		return false
	}
	labelStart := s.Pos + 2
	labelEnd := parseLinkLabel(s, s.Pos+1, false)
	if labelEnd < 0 {
		return false
	}

	pos := labelEnd + 1
	var target linkTarget
	if pos < max && s.Src[pos] == '(' {
		var ok bool
		target, ok = parseInlineTarget(s, pos)
		if !ok {
			s.Pos = oldPos
			return false
		}
	} else {
		var ok bool
		target, ok = parseReferenceTarget(s, labelStart, labelEnd, pos)
		if !ok {
			s.Pos = oldPos
			return false
		}
	}

	if !silent {
		content := s.Src[labelStart:labelEnd]
		children := s.Parser.Inline.Parse(content, s.Parser, s.Env, nil)

		tok := s.Push("image", "img", 0)
		tok.Attrs = []Attr{{Name: "src", Value: target.href}, {Name: "alt", Value: ""}}
		tok.Children = children
		tok.Content = content
		if target.title != "" {
			tok.AttrPush("title", target.title)
		}
	}

	s.Pos = target.pos
	s.PosMax = max
	return true
}

var (
	emailRe    = regexp.MustCompile("^([a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)$")
	autolinkRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]{1,31}):([^<>\x00-\x20]*)$`)
)

func ruleAutolink(s *StateInline, silent bool) bool {
	pos := s.Pos
	if s.Src[pos] != '<' {
		return false
	}
	start := s.Pos
	max := s.PosMax
	for {
		pos++
		if pos >= max {
			return false
		}
		ch := s.Src[pos]
		if ch == '<' {
			return false
		}
		if ch == '>' {
			break
		}
	}
	url := s.Src[start+1 : pos]

	var fullURL string
	switch {
	case autolinkRe.MatchString(url):
		fullURL = s.Parser.NormalizeLink(url)
	case emailRe.MatchString(url):
		fullURL = s.Parser.NormalizeLink("mailto:" + url)
	default:
		return false
	}
	if !s.Parser.ValidateLink(fullURL) {
		return false
	}

	if !silent {
		open := s.Push("link_open", "a", 1)
		open.Attrs = []Attr{{Name: "href", Value: fullURL}}
		open.Markup = "autolink"
		open.Info = "auto"

		text := s.Push("text", "", 0)
		text.Content = s.Parser.NormalizeLinkText(url)

		closeTok := s.Push("link_close", "a", -1)
		closeTok.Markup = "autolink"
		closeTok.Info = "auto"
	}
	s.Pos += len(url) + 2
	return true
}

var (
	linkOpenRe  = regexp.MustCompile(`(?i)^<a[>\s]`)
	linkCloseRe = regexp.MustCompile(`(?i)^</a\s*>`)
)

func ruleHTMLInline(s *StateInline, silent bool) bool {
	if !s.Parser.opts.HTML {
		return false
	}
	max := s.PosMax
	pos := s.Pos
	if s.Src[pos] != '<' || pos+2 >= max {
		return false
	}
	ch := s.Src[pos+1]
	if ch != '!' && ch != '?' && ch != '/' && !isLetter(ch) {
		return false
	}

	match := htmlTagRe.FindString(s.Src[pos:])
	if match == "" {
		return false
	}
	if !silent {
		tok := s.Push("html_inline", "", 0)
		tok.Content = match
		if linkOpenRe.MatchString(match) {
			s.LinkLevel++
		}
		if linkCloseRe.MatchString(match) {
			s.LinkLevel--
		}
	}
	s.Pos += len(match)
	return true
}
