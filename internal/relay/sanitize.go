package relay

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/blacktop/tootrelay/internal/logutil"
)

// breakReplacer turns paragraph boundaries into blank lines and all break
// tag variants into single newlines before the remaining markup is
// stripped. The paragraph marker keeps the closing tag so the stripper
// still sees well-formed HTML.
var breakReplacer = strings.NewReplacer(
	"</p><p>", "\n\n</p><p>",
	"<br />", "\n",
	"<br/>", "\n",
	"<br>", "\n",
)

// Sanitizer converts source HTML content into the canonical plain text
// shared by every destination adapter.
type Sanitizer struct {
	replace map[string]string
	needles []string
}

// NewSanitizer returns a sanitizer applying the given literal replacement
// map after markup stripping. The map may be nil. Pairs are applied in
// sorted key order so that chained replacements are deterministic.
func NewSanitizer(replace map[string]string) *Sanitizer {
	needles := make([]string, 0, len(replace))
	for needle, value := range replace {
		if needle == "" || value == "" {
			continue
		}
		needles = append(needles, needle)
	}
	sort.Strings(needles)
	return &Sanitizer{replace: replace, needles: needles}
}

// Sanitize strips markup, normalizes line breaks, and applies the literal
// replacement map. Replacements are case-sensitive and sequential, so a
// later pair operates on the output of earlier ones.
func (s *Sanitizer) Sanitize(content string) string {
	text := stripHTML(breakReplacer.Replace(content))
	for _, needle := range s.needles {
		text = strings.ReplaceAll(text, needle, s.replace[needle])
	}
	return text
}

func stripHTML(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		logutil.Debugf("sanitize: html parse failed: %v", err)
		return content
	}
	doc.Find("script,style").Remove()
	return doc.Text()
}
