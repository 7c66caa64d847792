// Package textenc infers the character encoding and field delimiter of a
// raw delimited-text file that carries no declared metadata. Detection is
// heuristic: it always produces a usable format, falling back to UTF-8 and
// comma when the file gives no signal.
package textenc

import (
	"fmt"
	"os"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// Format is the detected shape of an input file. Computed once per file,
// immutable afterwards.
type Format struct {
	Encoding  string `json:"encoding"`
	Delimiter string `json:"delimiter"`
}

// DefaultFormat is used when a file yields no detection signal at all.
var DefaultFormat = Format{Encoding: "utf-8", Delimiter: ","}

// DetectFormat infers the encoding and delimiter of the file at path.
// The only error condition is an unreadable file; detection itself never
// fails.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	sample := make([]byte, sampleSize)
	n, err := f.Read(sample)
	if err != nil && n == 0 {
		// Empty file: nothing to detect.
		return DefaultFormat, nil
	}
	enc := DetectEncoding(sample[:n])

	delim, err := DetectDelimiter(path, enc)
	if err != nil {
		return Format{}, err
	}
	return Format{Encoding: enc, Delimiter: delim}, nil
}

// Decoder resolves a detected encoding name to a decoder. Common names go
// through the WHATWG index; UTF-32 variants are not in that index and are
// resolved from the local candidate table.
func Decoder(name string) (*encoding.Decoder, error) {
	if e, _ := charset.Lookup(name); e != nil {
		return e.NewDecoder(), nil
	}
	for _, c := range candidates {
		if c.name == name {
			return c.enc.NewDecoder(), nil
		}
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}
