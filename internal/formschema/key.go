package formschema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DeriveKey turns a field label into its storage key: diacritics are
// stripped, the first word is lower-cased, later words are capitalised and
// the words are joined. Question and exclamation marks are removed.
//
//	DeriveKey("Jaké je Vaše příjmení?") == "jakeJeVasePrijmeni"
func DeriveKey(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	plain, _, err := transform.String(t, label)
	if err != nil {
		plain = label
	}

	var sb strings.Builder
	for i, w := range strings.Fields(plain) {
		if i == 0 {
			sb.WriteString(strings.ToLower(w))
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(strings.ToLower(w[size:]))
	}
	return strings.NewReplacer("?", "", "!", "").Replace(sb.String())
}
