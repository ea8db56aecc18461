package embed

import "strings"

// Normalize builds the canonical text representation of a snippet used for
// embedding: title, description, language and code joined by newlines, in
// that order. A missing description stays as an empty line so the layout is
// stable. Identical inputs always produce identical output.
func Normalize(title, description, language, code string) string {
	return strings.Join([]string{title, description, language, code}, "\n")
}
