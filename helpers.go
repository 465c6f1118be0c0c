package docent

import (
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Slugify converts a name to a lowercase, hyphen-separated slug. Letters and
// digits from any script are kept, so Korean file names survive.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// formatBytes renders n in the notation middleware.BodyLimit parses.
func formatBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + "M"
	}
	return strconv.FormatInt(n, 10) + "B"
}

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o700)
}
