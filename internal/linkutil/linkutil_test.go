package linkutil

import "testing"

func TestValidateLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"/relative/path", true},
		{"javascript:alert(1)", false},
		{"  JavaScript:alert(1)", false},
		{"vbscript:msgbox", false},
		{"file:///etc/passwd", false},
		{"data:text/html;base64,PHNjcmlwdD4=", false},
		{"data:image/png;base64,iVBORw0KGgo=", true},
		{"data:image/svg+xml;base64,PHN2Zz4=", false},
	}
	for _, tc := range tests {
		if got := ValidateLink(tc.url); got != tc.want {
			t.Fatalf("ValidateLink(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestNormalizeLinkEncodesSpaces(t *testing.T) {
	got := NormalizeLink("/a b")
	if got != "/a%20b" {
		t.Fatalf("unexpected normalised link: %q", got)
	}
}

func TestNormalizeLinkKeepsEscapes(t *testing.T) {
	got := NormalizeLink("/a%20b")
	if got != "/a%20b" {
		t.Fatalf("unexpected normalised link: %q", got)
	}
}
