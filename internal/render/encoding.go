package render

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// glyphSubstitutes maps glyphs the core fonts lack onto an equivalent they have
var glyphSubstitutes = strings.NewReplacer("●", "•")

// UnsupportedRuneError reports a character the core fonts cannot draw
type UnsupportedRuneError struct {
	Rune rune
	Font string
}

func (e *UnsupportedRuneError) Error() string {
	return fmt.Sprintf("font %s has no glyph for %q (%U)", e.Font, e.Rune, e.Rune)
}

// encodeCP1252 converts s to the single-byte encoding of the core fonts
func encodeCP1252(s, font string) (string, error) {
	s = glyphSubstitutes.Replace(s)
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return "", &UnsupportedRuneError{Rune: r, Font: font}
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// approxCP1252 encodes s for measuring, putting '?' in place of characters
// with no cp1252 byte
func approxCP1252(s string) []byte {
	s = glyphSubstitutes.Replace(s)
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// widthRunes maps s rune for rune onto code points 0-255 carrying the cp1252
// byte of each character, the form fpdf's splitter indexes the core-font
// width tables with
func widthRunes(s string) []rune {
	b := approxCP1252(s)
	out := make([]rune, len(b))
	for i, c := range b {
		out[i] = rune(c)
	}
	return out
}

// rejoin maps lines split from the widthRunes form of text back onto the
// original characters. The splitter drops the break character after a line;
// when that character is not a real space it is kept at the end of the line.
func rejoin(text string, lines []string) []string {
	orig := []rune(text)
	mapped := widthRunes(text)

	out := make([]string, 0, len(lines))
	pos := 0
	for _, line := range lines {
		n := len([]rune(line))
		if pos+n > len(orig) {
			n = len(orig) - pos
		}
		s := string(orig[pos : pos+n])
		pos += n
		if pos < len(orig) && unicode.IsSpace(mapped[pos]) {
			if !unicode.IsSpace(orig[pos]) {
				s += string(orig[pos])
			}
			pos++
		}
		out = append(out, s)
	}
	return out
}
