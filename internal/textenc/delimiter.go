package textenc

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// delimiterCandidates in preference order. Ties resolve to the earliest
// entry.
var delimiterCandidates = []string{",", ";", "\t", "|"}

// maxSampleLines bounds how many non-blank lines are examined for
// delimiter detection.
const maxSampleLines = 20

// DetectDelimiter infers the field delimiter of the file at path, reading
// it under the given encoding. A candidate qualifies only if every sampled
// line splits into the same field count greater than one; among qualifiers
// the one with the most separator occurrences wins. With no qualifier the
// comma default is returned.
func DetectDelimiter(path, encodingName string) (string, error) {
	lines, err := sampleLines(path, encodingName)
	if err != nil {
		return "", err
	}

	best := ""
	bestOccurrences := -1
	for _, cand := range delimiterCandidates {
		fields, occurrences, uniform := splitStats(lines, cand)
		if !uniform || fields < 2 {
			continue
		}
		if occurrences > bestOccurrences {
			best, bestOccurrences = cand, occurrences
		}
	}
	if best == "" {
		return DefaultFormat.Delimiter, nil
	}
	return best, nil
}

// splitStats splits every line on cand and reports the common field count,
// total separator occurrences, and whether the count was uniform.
func splitStats(lines []string, cand string) (fields, occurrences int, uniform bool) {
	if len(lines) == 0 {
		return 0, 0, false
	}
	fields = len(strings.Split(lines[0], cand))
	for _, line := range lines {
		n := strings.Count(line, cand)
		if n+1 != fields {
			return 0, 0, false
		}
		occurrences += n
	}
	return fields, occurrences, true
}

func sampleLines(path, encodingName string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec, err := Decoder(encodingName)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(dec.Reader(f))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < maxSampleLines {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return lines, nil
}
