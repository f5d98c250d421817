package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Slugify lowercases s, strips accents and other non-ASCII letters, drops
// punctuation and joins words with single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = b.Len() > 0
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}

// ComboSlug is the stable identifier of a map and mode pair.
func ComboSlug(mapName, modeName string) string {
	return Slugify(mapName) + "--" + Slugify(modeName)
}
