package textenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// sampleSize is how much of the file head is examined for encoding
// detection.
const sampleSize = 4096

// accentedLetters are the Lithuanian letters that distinguish a correctly
// decoded file from a misdecoded one. ASCII-only input scores zero under
// every candidate and falls through to UTF-8.
const accentedLetters = "ąčęėįšųūžĄČĘĖĮŠŲŪŽ"

// Candidate order matters: ties resolve to the earliest entry, so UTF-8
// goes first and the never-failing Latin-1 fallback last.
var candidates = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8},
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{"utf-32le", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	{"windows-1257", charmap.Windows1257},
	{"iso-8859-1", charmap.ISO8859_1},
}

// DetectEncoding scores the sample under each candidate encoding and
// returns the name of the best-scoring one. Scoring rewards expected
// accented letters and penalizes replacement characters and literal
// question marks, which are the typical residue of a wrong decode.
func DetectEncoding(sample []byte) string {
	best := candidates[0].name
	bestScore := scoreDecoded(decode(candidates[0].enc, sample))
	for _, c := range candidates[1:] {
		if s := scoreDecoded(decode(c.enc, sample)); s > bestScore {
			best, bestScore = c.name, s
		}
	}
	return best
}

func decode(enc encoding.Encoding, sample []byte) string {
	out, err := enc.NewDecoder().Bytes(sample)
	if err != nil {
		// A candidate that cannot decode at all is maximally penalized
		// by an all-replacement result.
		return strings.Repeat(string(utf8.RuneError), len(sample))
	}
	return string(out)
}

func scoreDecoded(s string) int {
	score := 0
	for _, r := range s {
		switch {
		case strings.ContainsRune(accentedLetters, r):
			score += 5
		case r == utf8.RuneError:
			score -= 20
		case r == '?':
			score -= 2
		}
	}
	return score
}
