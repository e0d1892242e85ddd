package relay

import "unicode/utf8"

// Truncate limits s to max code points. Text over the limit is cut to the
// first cut code points with " ..." appended. Cutting happens on code
// point boundaries, never inside a multi-byte sequence.
func Truncate(s string, max, cut int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:cut]) + " ..."
}

// AppendLink appends "\n" + prefix + "/" + id to s if the result stays
// within max code points; otherwise s is returned unchanged. An empty
// prefix disables the link suffix.
func AppendLink(s, prefix, id string, max int) string {
	if prefix == "" {
		return s
	}
	link := prefix + "/" + id
	if utf8.RuneCountInString(s)+utf8.RuneCountInString(link)+1 > max {
		return s
	}
	return s + "\n" + link
}
