package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

var (
	emphasisStyle = lipgloss.NewStyle().Italic(true)
	strongStyle   = lipgloss.NewStyle().Bold(true)
)

// renderMarkup turns a scene description into terminal text. Only p, br,
// em/i and strong/b are honoured; any other tag is dropped and its text kept.
func renderMarkup(markup string) string {
	return walkMarkup(markup, true)
}

// plainText is renderMarkup without styling, for the clipboard.
func plainText(markup string) string {
	return walkMarkup(markup, false)
}

func walkMarkup(markup string, styled bool) string {
	var (
		out    strings.Builder
		em     int
		strong int
	)
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidyLines(out.String())

		case html.TextToken:
			text := collapseSpace(string(z.Text()))
			if text == "" {
				continue
			}
			if styled {
				style := lipgloss.NewStyle()
				if em > 0 {
					style = style.Inherit(emphasisStyle)
				}
				if strong > 0 {
					style = style.Inherit(strongStyle)
				}
				if em > 0 || strong > 0 {
					text = style.Render(text)
				}
			}
			out.WriteString(text)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br":
				out.WriteString("\n")
			case "p":
				out.WriteString("\n\n")
			case "em", "i":
				if tt == html.StartTagToken {
					em++
				}
			case "strong", "b":
				if tt == html.StartTagToken {
					strong++
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p":
				out.WriteString("\n\n")
			case "em", "i":
				if em > 0 {
					em--
				}
			case "strong", "b":
				if strong > 0 {
					strong--
				}
			}
		}
	}
}

// collapseSpace folds runs of whitespace, including newlines in the source
// markup, into single spaces.
func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	joined := strings.Join(fields, " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		joined = " " + joined
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' {
		joined += " "
	}
	return joined
}

// tidyLines trims each line and keeps at most one blank line in a row.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
