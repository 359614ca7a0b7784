package markup

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScripts(t *testing.T) {
	got := Sanitize(`<p>hello<script>alert(1)</script></p>`)
	if got != "<p>hello</p>" {
		t.Errorf("Sanitize = %q, want %q", got, "<p>hello</p>")
	}
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	got := Sanitize(`<img src="7" onclick="steal()" width="100">`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "width") {
		t.Errorf("Sanitize kept a disallowed attribute: %q", got)
	}
	if !strings.Contains(got, `src="7"`) {
		t.Errorf("Sanitize dropped the src attribute: %q", got)
	}
}

func TestSanitizeKeepsFormatting(t *testing.T) {
	input := `<p><strong>bold</strong> and <em>italic</em> in a <ul><li>list</li></ul></p>`
	got := Sanitize(input)
	for _, tag := range []string{"<strong>", "<em>", "<ul>", "<li>"} {
		if !strings.Contains(got, tag) {
			t.Errorf("Sanitize dropped %s: %q", tag, got)
		}
	}
}

func TestSanitizeDropsUnknownElementsKeepsText(t *testing.T) {
	got := Sanitize(`<div>text survives</div><style>p{}</style>`)
	if !strings.Contains(got, "text survives") {
		t.Errorf("Sanitize dropped element text: %q", got)
	}
	if strings.Contains(got, "<div") || strings.Contains(got, "<style") {
		t.Errorf("Sanitize kept a disallowed element: %q", got)
	}
}

func TestSanitizeForcesNoFollow(t *testing.T) {
	got := Sanitize(`<a href="http://example.com">link</a>`)
	if !strings.Contains(got, `rel="nofollow"`) {
		t.Errorf("Sanitize did not add rel=nofollow: %q", got)
	}
}

// src values in all three reference forms must survive sanitization byte for
// byte, or the codec downstream misclassifies them.
func TestSanitizePreservesReferenceForms(t *testing.T) {
	srcs := []string{
		"data:image/png;base64,QUJ+/wE=",
		"data:image/jpeg;charset=utf-8;base64,AAA",
		"1234",
		"http://localhost:8080/api/images/7",
	}
	for _, src := range srcs {
		got := Sanitize(`<img src="` + src + `">`)
		if !strings.Contains(got, `src="`+src+`"`) {
			t.Errorf("Sanitize corrupted src %q: %q", src, got)
		}
	}
}

// All three forms together in one fragment: none of the img elements may be
// dropped, or a round-trip through sanitization would orphan every blob.
func TestSanitizeKeepsMixedReferenceFragment(t *testing.T) {
	got := Sanitize(`<img src="data:image/png;base64,AAA"><img src="7"><img src="http://x/api/images/7">`)
	for _, src := range []string{
		`src="data:image/png;base64,AAA"`,
		`src="7"`,
		`src="http://x/api/images/7"`,
	} {
		if !strings.Contains(got, src) {
			t.Errorf("Sanitize dropped %s: %q", src, got)
		}
	}
	if strings.Count(got, "<img") != 3 {
		t.Errorf("Sanitize did not keep all img elements: %q", got)
	}
}

func TestSanitizeMalformedInput(t *testing.T) {
	// Must not panic and must still neutralize the markup.
	got := Sanitize(`<p><b>unclosed <img src="1" <script>bad`)
	if strings.Contains(got, "<script") {
		t.Errorf("Sanitize kept script in malformed input: %q", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}
