package mdit

import (
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ruleFrontMatter consumes a metadata block at the very start of a
// document. "---" and ";;;" blocks are YAML (JSON is a subset), "+++"
// blocks are TOML. An unclosed block is left to the other rules.
func ruleFrontMatter(s *StateBlock, startLine, endLine int, silent bool) bool {
	if startLine != 0 || s.fragment || s.Level != 0 || startLine+1 >= endLine {
		return false
	}
	delim, ok := parseOpeningFrontMatterDelimiter(s.Src[s.BMarks[0]:s.EMarks[0]])
	if !ok {
		return false
	}
	if !frontMatterMetadataLikely(s.Src[s.BMarks[1]:s.EMarks[1]]) {
		return false
	}
	closeLine, found := findClosingFrontMatterDelimiter(s, 1, endLine, delim)
	if !found {
		return false
	}
	if silent {
		return true
	}

	body := s.Lines(1, closeLine, 0, true)
	tok := s.Push("front_matter", "", 0)
	tok.Hidden = true
	tok.Markup = delim
	tok.Content = body
	tok.Map = []int{startLine, closeLine + 1}

	meta, err := decodeFrontMatter(delim, body)
	if err != nil {
		s.Parser.log.Debug("front matter not decoded", zap.String("delimiter", delim), zap.Error(err))
	} else {
		tok.Meta = meta
		if s.Env != nil {
			s.Env.FrontMatter = meta
		}
	}
	s.Line = closeLine + 1
	return true
}

// frontMatterPending reports whether src opens with a front matter
// delimiter that tokens, parsed from a prefix of src, did not close yet.
func frontMatterPending(src string, tokens []*Token) bool {
	if len(tokens) > 0 && tokens[0].Type == "front_matter" {
		return false
	}
	line := src
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		line = src[:i]
	}
	_, ok := parseOpeningFrontMatterDelimiter(line)
	return ok
}

func decodeFrontMatter(delim, body string) (map[string]any, error) {
	meta := map[string]any{}
	if delim == "+++" {
		if _, err := toml.Decode(body, &meta); err != nil {
			return nil, err
		}
		return meta, nil
	}
	if err := yaml.Unmarshal([]byte(body), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func parseOpeningFrontMatterDelimiter(line string) (string, bool) {
	switch strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF")) {
	case "---":
		return "---", true
	case "+++":
		return "+++", true
	case ";;;":
		return ";;;", true
	default:
		return "", false
	}
}

func frontMatterMetadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.ContainsAny(trimmed, ":=")
}

func findClosingFrontMatterDelimiter(s *StateBlock, from, endLine int, delim string) (int, bool) {
	for line := from; line < endLine; line++ {
		if strings.TrimSpace(s.Src[s.BMarks[line]:s.EMarks[line]]) == delim {
			return line, true
		}
	}
	return 0, false
}
