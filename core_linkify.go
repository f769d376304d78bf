package mdit

import (
	"strings"

	"gitlab.com/golang-commonmark/linkify"
)

// linkifyPretest cheaply rules out text with no possible URL or address.
func linkifyPretest(s string) bool {
	return strings.ContainsAny(s, ".:@")
}

func ruleLinkify(s *StateCore) {
	if !s.Parser.opts.Linkify {
		return
	}
	for _, blockTok := range s.Tokens {
		if blockTok.Type != "inline" || !linkifyPretest(blockTok.Content) {
			continue
		}
		tokens := blockTok.Children
		htmlLinkLevel := 0
		var replace map[int][]*Token

		for i := len(tokens) - 1; i >= 0; i-- {
			cur := tokens[i]

			if cur.Type == "link_close" {
				i--
				for i > 0 && tokens[i].Level != cur.Level && tokens[i].Type != "link_open" {
					i--
				}
				continue
			}
			if cur.Type == "html_inline" {
				if linkOpenRe.MatchString(cur.Content) && htmlLinkLevel > 0 {
					htmlLinkLevel--
				}
				if linkCloseRe.MatchString(cur.Content) {
					htmlLinkLevel++
				}
			}
			if htmlLinkLevel > 0 || cur.Type != "text" || !linkifyPretest(cur.Content) {
				continue
			}

			links := linkify.Links(cur.Content)
			if len(links) == 0 {
				continue
			}
			// "http\://x" must not turn into a link starting after the escape.
			if links[0].Start == 0 && i > 0 && tokens[i-1].Type == "text_special" {
				links = links[1:]
			}
			if nodes, ok := s.linkifyNodes(cur, links); ok {
				if replace == nil {
					replace = make(map[int][]*Token)
				}
				replace[i] = nodes
			}
		}
		if replace != nil {
			blockTok.Children = spliceTokens(tokens, replace)
		}
	}
}

func (s *StateCore) linkifyNodes(cur *Token, links []linkify.Link) ([]*Token, bool) {
	text := cur.Content
	level := cur.Level
	lastPos := 0
	var nodes []*Token
	for _, link := range links {
		urlText := text[link.Start:link.End]
		isMail := strings.HasPrefix(link.Scheme, "mailto")

		url := urlText
		switch {
		case link.Scheme == "":
			url = "http://" + url
		case isMail && !strings.HasPrefix(strings.ToLower(url), "mailto:"):
			url = "mailto:" + url
		}
		fullURL := s.Parser.NormalizeLink(url)
		if !s.Parser.ValidateLink(fullURL) {
			continue
		}

		switch {
		case link.Scheme == "":
			urlText = strings.TrimPrefix(s.Parser.NormalizeLinkText("http://"+urlText), "http://")
		case isMail && !strings.HasPrefix(strings.ToLower(urlText), "mailto:"):
			urlText = strings.TrimPrefix(s.Parser.NormalizeLinkText("mailto:"+urlText), "mailto:")
		default:
			urlText = s.Parser.NormalizeLinkText(urlText)
		}

		if link.Start > lastPos {
			t := NewToken("text", "", 0)
			t.Content = text[lastPos:link.Start]
			t.Level = level
			nodes = append(nodes, t)
		}

		open := NewToken("link_open", "a", 1)
		open.Attrs = []Attr{{Name: "href", Value: fullURL}}
		open.Level = level
		open.Markup = "linkify"
		open.Info = "auto"
		nodes = append(nodes, open)

		t := NewToken("text", "", 0)
		t.Content = urlText
		t.Level = level + 1
		nodes = append(nodes, t)

		closeTok := NewToken("link_close", "a", -1)
		closeTok.Level = level
		closeTok.Markup = "linkify"
		closeTok.Info = "auto"
		nodes = append(nodes, closeTok)

		lastPos = link.End
	}
	if nodes == nil {
		return nil, false
	}
	if lastPos < len(text) {
		t := NewToken("text", "", 0)
		t.Content = text[lastPos:]
		t.Level = level
		nodes = append(nodes, t)
	}
	return nodes, true
}

// spliceTokens returns tokens with every index in replace swapped for its
// nodes, built in a single pass.
func spliceTokens(tokens []*Token, replace map[int][]*Token) []*Token {
	n := len(tokens)
	for _, nodes := range replace {
		n += len(nodes) - 1
	}
	out := make([]*Token, 0, n)
	for i, tok := range tokens {
		if nodes, ok := replace[i]; ok {
			out = append(out, nodes...)
			continue
		}
		out = append(out, tok)
	}
	return out
}
