package main

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "You wake up.", "You wake up."},
		{"line break", "First line.<br>Second line.", "First line.\nSecond line."},
		{"self closing break", "One<br/>Two", "One\nTwo"},
		{"paragraphs", "<p>Morning.</p><p>Bob waves.</p>", "Morning.\n\nBob waves."},
		{"emphasis kept as text", "It is <em>very</em> <strong>quiet</strong>.", "It is very quiet."},
		{"unknown tags dropped", `<span class="x">Hi</span> <script>there</script>`, "Hi there"},
		{"entities", "Fish &amp; chips", "Fish & chips"},
		{"source newlines collapse", "A long\n   sentence.", "A long sentence."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plainText(tt.in); got != tt.want {
				t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderMarkupKeepsText(t *testing.T) {
	out := renderMarkup("<p>It is <em>very</em> quiet.</p><p>Too <b>quiet</b>.</p>")
	for _, word := range []string{"It is", "very", "quiet.", "Too", "quiet"} {
		if !strings.Contains(out, word) {
			t.Errorf("rendered markup %q lost %q", out, word)
		}
	}
	if !strings.Contains(out, "\n\n") {
		t.Errorf("expected a paragraph break in %q", out)
	}
}
