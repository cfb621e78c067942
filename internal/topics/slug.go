package topics

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes, drops combining marks and recomposes, so accented
// titles slug the same as their ASCII spelling.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a stable lowercase identifier from a branch title:
// "CRISP-ML(Q)" -> "crisp-ml-q".
func Slugify(title string) string {
	clean, _, err := transform.String(stripMarks, title)
	if err != nil {
		clean = title
	}
	clean = strings.ToLower(clean)

	var b strings.Builder
	dash := false
	for _, r := range clean {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
