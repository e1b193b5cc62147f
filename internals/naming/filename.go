package naming

import (
	"fmt"
	"strings"
)

const maxSlugLen = 50

// Slugify turns arbitrary text into a filesystem-safe slug.
// Output uses only [a-z0-9-], never has a leading/trailing '-', and is
// truncated to 50 characters. Non-ASCII characters are treated as separators.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		isAZ := r >= 'a' && r <= 'z'
		is09 := r >= '0' && r <= '9'
		if isAZ || is09 {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if prevDash {
			continue
		}
		b.WriteByte('-')
		prevDash = true
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.Trim(out[:maxSlugLen], "-")
	}
	return out
}

// ResultFilename builds "{NN}_{slug}.{ext}" from a zero-based task index.
// The prefix is 1-based and zero-padded to width 2, so lexicographic order
// matches task order for plans of up to 99 tasks, and prefixes alone make
// filenames unique even when titles collide.
func ResultFilename(index int, title string, ext string) string {
	return fmt.Sprintf("%02d_%s.%s", index+1, Slugify(title), ext)
}

// MetaFilename builds the metadata filename paired with ResultFilename.
func MetaFilename(index int, title string) string {
	return fmt.Sprintf("%02d_%s_meta.json", index+1, Slugify(title))
}
