// Package linkutil normalises and validates link destinations.
package linkutil

import (
	"regexp"
	"strings"

	"gitlab.com/golang-commonmark/mdurl"
	"gitlab.com/golang-commonmark/puny"
)

var (
	badProtoRe = regexp.MustCompile(`^(vbscript|javascript|file|data):`)
	goodDataRe = regexp.MustCompile(`^data:image/(gif|png|jpeg|webp);`)
)

func recodeHost(u *mdurl.URL) bool {
	if u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "", "http", "https", "mailto":
		return true
	}
	return false
}

// NormalizeLink percent-encodes a destination and punycodes its host.
func NormalizeLink(raw string) string {
	u, err := mdurl.Parse(raw)
	if err != nil {
		return mdurl.Encode(raw)
	}
	if recodeHost(u) {
		u.Host = puny.ToASCII(u.Host)
	}
	u.Scheme = u.RawScheme
	return mdurl.Encode(u.String())
}

// NormalizeLinkText decodes a destination for display.
func NormalizeLinkText(raw string) string {
	u, err := mdurl.Parse(raw)
	if err != nil {
		return raw
	}
	if recodeHost(u) {
		u.Host = puny.ToUnicode(u.Host)
	}
	u.Scheme = u.RawScheme
	return mdurl.Decode(u.String())
}

// ValidateLink rejects script-capable schemes. data: URLs are only allowed
// for common raster image types.
func ValidateLink(url string) bool {
	str := strings.ToLower(strings.TrimSpace(url))
	if badProtoRe.MatchString(str) {
		return goodDataRe.MatchString(str)
	}
	return true
}
