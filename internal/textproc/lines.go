package textproc

import (
	"regexp"
	"strings"
)

var (
	// Runs of spaces are kept intact: column splitting downstream relies
	// on 2+ space runs as delimiters.
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// Line is a single trimmed, non-empty segment of the document, retaining
// its original order index. Lines are immutable once produced.
type Line struct {
	Index int
	Text  string
}

// Normalize collapses noisy whitespace and strips common OCR artifacts.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, "  ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SplitLines normalizes the raw text and splits it into ordered, trimmed,
// non-blank lines. Indexes are assigned after blank lines are dropped, so
// they address positions in the returned slice.
func SplitLines(raw string) []Line {
	var out []Line
	for _, seg := range strings.Split(Normalize(raw), "\n") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		out = append(out, Line{Index: len(out), Text: seg})
	}
	return out
}

// Texts returns just the text of each line, in order.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Text
	}
	return out
}
