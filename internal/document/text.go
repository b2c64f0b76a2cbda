package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripControls drops control and format runes other than newline and tab.
var stripControls = runes.Remove(runes.Predicate(func(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}))

// pdfText prepares arbitrary text for the PDF core fonts, which draw
// Windows-1252 bytes. Runes outside that code page become '?'.
func pdfText(s string) string {
	clean, _, err := transform.String(transform.Chain(stripControls, norm.NFC), s)
	if err != nil {
		clean = s
	}

	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		if r < 0x80 {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
