package extract

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses layout whitespace left by pdftotext.
// Keeps line breaks; more than two newlines become a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
