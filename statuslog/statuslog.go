// Package statuslog reads the semi-structured status output of collaborators.
// Output format drift of those tools should only ever need fixing here.
package statuslog

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// ResultsMarker starts the self-reported statistics of the gap-filler log.
const ResultsMarker = "Results"

// maxLine bounds a single status line. Progress bars redrawn without a
// newline can get long.
const maxLine = 16 << 20

// newScanner returns a line scanner that treats \n, \r\n and a lone \r as
// line ends.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	sc.Split(scanLines)
	return sc
}

func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	}
	// A \r at the end of the buffer may be the first half of \r\n.
	return 0, nil, nil
}

// ReadCount returns the number of reads reported by the converter on its
// status stream: the digit-only tokens of the last non-blank line, summed.
// An empty stream counts as zero reads.
func ReadCount(r io.Reader) (int, error) {
	var last string
	sc := newScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return lo.Sum(DigitTokens(last)), nil
}

// DigitTokens returns the whitespace separated tokens of line made only of
// decimal digits.
func DigitTokens(line string) []int {
	var nums []int
	for _, tok := range strings.Fields(line) {
		if !isDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// ResultsSection returns the line starting with ResultsMarker and every line
// after it, trailing whitespace removed. It returns nil when the marker never
// appears.
func ResultsSection(r io.Reader) ([]string, error) {
	var lines []string
	found := false
	sc := newScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !found && strings.HasPrefix(line, ResultsMarker) {
			found = true
		}
		if found {
			lines = append(lines, strings.TrimRightFunc(line, unicode.IsSpace))
		}
	}
	return lines, sc.Err()
}
