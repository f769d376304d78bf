package mdit

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	if !strings.ContainsAny(s, `&<>"`) {
		return s
	}
	return htmlEscaper.Replace(s)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// isWhiteSpace reports Unicode Zs and ASCII whitespace.
func isWhiteSpace(r rune) bool {
	if r >= 0x2000 && r <= 0x200A {
		return true
	}
	switch r {
	case 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x20, 0xA0, 0x1680, 0x202F, 0x205F, 0x3000:
		return true
	}
	return false
}

func isMdASCIIPunct(b byte) bool {
	switch b {
	case '!', '"', '#', '$', '%', '&', '\'', '(', ')', '*', '+', ',', '-', '.', '/',
		':', ';', '<', '=', '>', '?', '@', '[', '\\', ']', '^', '_', '`', '{', '|', '}', '~':
		return true
	}
	return false
}

// isPunctChar reports Unicode punctuation or symbol runes.
func isPunctChar(r rune) bool {
	if r < utf8.RuneSelf {
		return isMdASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isValidEntityCode(c int) bool {
	switch {
	case c >= 0xD800 && c <= 0xDFFF:
		return false
	case c >= 0xFDD0 && c <= 0xFDEF:
		return false
	case c&0xFFFF == 0xFFFF || c&0xFFFF == 0xFFFE:
		return false
	case c >= 0x00 && c <= 0x08:
		return false
	case c == 0x0B:
		return false
	case c >= 0x0E && c <= 0x1F:
		return false
	case c >= 0x7F && c <= 0x9F:
		return false
	case c > 0x10FFFF:
		return false
	}
	return true
}

func fromCodePoint(c int) string {
	return string(rune(c))
}

// decodeNamedEntity decodes a complete "&name;" reference. The standard
// library also accepts legacy names without the trailing semicolon as a
// prefix match, so anything that does not consume the whole reference is
// rejected.
func decodeNamedEntity(s string) (string, bool) {
	if s == "&semi;" {
		return ";", true
	}
	d := html.UnescapeString(s)
	if d == s || strings.HasSuffix(d, ";") {
		return "", false
	}
	return d, true
}

func decodeNumericEntity(name string) (int, bool) {
	var code int64
	var err error
	if len(name) > 1 && (name[0] == 'x' || name[0] == 'X') {
		code, err = strconv.ParseInt(name[1:], 16, 64)
	} else {
		code, err = strconv.ParseInt(name, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return int(code), true
}

var unescapeAllRe = regexp.MustCompile("(?i)\\\\([!\"#$%&'()*+,\\-./:;<=>?@\\[\\\\\\]^_`{|}~])|&([a-z#][a-z0-9]{1,31});")

var digitalEntityRe = regexp.MustCompile(`(?i)^#(x[a-f0-9]{1,6}|[0-9]{1,7})$`)

func replaceEntityPattern(match, name string) string {
	if name[0] == '#' && digitalEntityRe.MatchString(name) {
		if code, ok := decodeNumericEntity(name[1:]); ok && isValidEntityCode(code) {
			return fromCodePoint(code)
		}
		return match
	}
	if d, ok := decodeNamedEntity(match); ok {
		return d
	}
	return match
}

// unescapeAll resolves backslash escapes and entity references.
func unescapeAll(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	return unescapeAllRe.ReplaceAllStringFunc(s, func(m string) string {
		if m[0] == '\\' {
			return m[1:]
		}
		return replaceEntityPattern(m, m[1:len(m)-1])
	})
}

// normalizeReference folds a link label for case-insensitive lookup.
func normalizeReference(s string) string {
	s = strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	s = strings.ReplaceAll(s, "ẞ", "ß")
	return cases.Fold().String(s)
}

func isLetter(b byte) bool {
	lc := b | 0x20
	return lc >= 'a' && lc <= 'z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// runeBefore returns the rune ending at pos, or ' ' at the start of s.
func runeBefore(s string, pos int) rune {
	if pos <= 0 {
		return ' '
	}
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return r
}

// runeAt returns the rune starting at pos, or ' ' at the end of s.
func runeAt(s string, pos, max int) rune {
	if pos >= max {
		return ' '
	}
	r, _ := utf8.DecodeRuneInString(s[pos:max])
	return r
}
