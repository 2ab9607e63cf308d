package engine

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HumanizeSourceID derives a heading from a source id for sources that do
// not declare one: "chapter1/day_one.json" becomes "Day One".
func HumanizeSourceID(sourceID string) string {
	base := path.Base(strings.TrimSpace(sourceID))
	base = strings.TrimSuffix(base, path.Ext(base))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	if len(words) == 0 {
		return "Untitled"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
