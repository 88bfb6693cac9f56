package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToUpper(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// EqualNames reports whether two portal names are the same record name,
// ignoring case and whitespace shape. The portal is inconsistent about
// both.
func EqualNames(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
