package mdit

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidUTF8 reports invalid UTF-8 input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
	// ErrUnbalancedTokens reports a token stream whose open and close
	// tokens do not pair up.
	ErrUnbalancedTokens = errors.New("unbalanced token stream")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput reports ErrInvalidUTF8 or ErrBinaryInput for source that
// Render would reject with Validate set.
func ValidateInput(src []byte) error {
	f := inputFilter{strict: true}
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		src = src[size:]
		if _, _, err := f.next(r, size); err != nil {
			return err
		}
	}
	return nil
}

// inputFilter cleans Markdown source one rune at a time. CR and CRLF fold
// to LF and NUL becomes U+FFFD, as the normalize rule would do later. In
// strict mode invalid UTF-8, NUL and a high share of control characters
// are errors; otherwise invalid bytes and control characters are dropped.
type inputFilter struct {
	strict  bool
	total   int
	control int
	afterCR bool
}

// next returns the rune to keep for r, or false when r is dropped.
func (f *inputFilter) next(r rune, size int) (rune, bool, error) {
	afterCR := f.afterCR
	f.afterCR = false
	if r == utf8.RuneError && size == 1 {
		if f.strict {
			return 0, false, ErrInvalidUTF8
		}
		return 0, false, nil
	}
	f.total += size
	switch {
	case r == '\r':
		f.afterCR = true
		return '\n', true, nil
	case r == '\n':
		return r, !afterCR, nil
	case r == 0:
		if f.strict {
			return 0, false, ErrBinaryInput
		}
		return utf8.RuneError, true, nil
	case isControlRune(r):
		if !f.strict {
			return 0, false, nil
		}
		f.control++
		if f.total >= minBinarySample && f.control*100 >= f.total*maxControlPct {
			return 0, false, ErrBinaryInput
		}
	}
	return r, true, nil
}

// filter appends what survives of src to dst. The bytes of a rune cut off
// at the end of src are returned for the next call.
func (f *inputFilter) filter(dst, src []byte) ([]byte, []byte, error) {
	for len(src) > 0 && utf8.FullRune(src) {
		r, size := utf8.DecodeRune(src)
		src = src[size:]
		kept, ok, err := f.next(r, size)
		if err != nil {
			return dst, nil, err
		}
		if ok {
			dst = utf8.AppendRune(dst, kept)
		}
	}
	return dst, src, nil
}

func isControlRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return false
	}
	return r < 0x20 || r == 0x7F
}

// ValidateTokens checks that every opening token is closed by a matching
// closing token at the same level, in block streams and in the children of
// each inline token.
func ValidateTokens(tokens []*Token) error {
	if err := validateNesting(tokens); err != nil {
		return err
	}
	for i, tok := range tokens {
		if tok.Type != "inline" {
			continue
		}
		if err := validateNesting(tok.Children); err != nil {
			return errors.Wrapf(err, "inline token %d", i)
		}
	}
	return nil
}

func validateNesting(tokens []*Token) error {
	var stack []*Token
	level := 0
	if len(tokens) > 0 {
		level = tokens[0].Level
	}
	base := level
	for i, tok := range tokens {
		switch tok.Nesting {
		case 1:
			if tok.Level != level {
				return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s): level %d, want %d", i, tok.Type, tok.Level, level)
			}
			stack = append(stack, tok)
			level++
		case -1:
			if len(stack) == 0 {
				return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s): no open token", i, tok.Type)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			level--
			if !closesToken(open, tok) {
				return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s) closes %s", i, tok.Type, open.Type)
			}
			if tok.Level != level {
				return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s): level %d, want %d", i, tok.Type, tok.Level, level)
			}
		case 0:
			if tok.Level != level {
				return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s): level %d, want %d", i, tok.Type, tok.Level, level)
			}
		default:
			return errors.Wrapf(ErrUnbalancedTokens, "token %d (%s): nesting %d", i, tok.Type, tok.Nesting)
		}
	}
	if len(stack) > 0 {
		return errors.Wrapf(ErrUnbalancedTokens, "%d unclosed, last %s", len(stack), stack[len(stack)-1].Type)
	}
	if level != base {
		return errors.Wrapf(ErrUnbalancedTokens, "ends at level %d", level)
	}
	return nil
}

func closesToken(open, closeTok *Token) bool {
	return open.Tag == closeTok.Tag &&
		strings.TrimSuffix(open.Type, "_open") == strings.TrimSuffix(closeTok.Type, "_close")
}
