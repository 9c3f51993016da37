package format

import (
	"strconv"
	"strings"
)

var superscriptDigits = map[rune]string{
	'0': "⁰",
	'1': "¹",
	'2': "²",
	'3': "³",
	'4': "⁴",
	'5': "⁵",
	'6': "⁶",
	'7': "⁷",
	'8': "⁸",
	'9': "⁹",
	'-': "⁻",
}

// Superscript renders n digit by digit with Unicode superscript glyphs.
func Superscript(n int) string {
	return SuperscriptDigits(strconv.Itoa(n))
}

// SuperscriptDigits maps every digit of s to its superscript glyph. Other
// runes are copied unchanged.
func SuperscriptDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if sup, ok := superscriptDigits[r]; ok {
			b.WriteString(sup)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
