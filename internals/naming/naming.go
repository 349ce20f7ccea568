package naming

import "strings"

// Slug turns the first line of s into a lowercase stem made of [a-z0-9-],
// without leading or trailing dashes. Non-ASCII characters act as
// separators.
func Slug(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			b.WriteByte('-')
			prevDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// FileName builds "<slug(title)><ext>". A title already ending in ext keeps
// a single extension; fallback is used when the title has no usable
// characters.
func FileName(title, fallback, ext string) string {
	if ext != "" && strings.HasSuffix(strings.ToLower(title), strings.ToLower(ext)) {
		title = title[:len(title)-len(ext)]
	}
	stem := Slug(title)
	if stem == "" {
		stem = Slug(fallback)
	}
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}
