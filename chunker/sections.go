package chunker

import (
	"regexp"
	"sort"
	"strings"
)

// section marks a detected heading at a byte offset in the source text.
type section struct {
	start int
	label string
}

var headingPatterns = []*regexp.Regexp{
	// Numbered headings: "3. Scope", "3.1.4 Data handling"
	regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`),
	// Titled headings: "Chapter 4", "Section 12.1", "ARTICLE IX", "Annex B"
	regexp.MustCompile(`(?i)^(chapter|section|part|article|appendix|annex|schedule)\s+([0-9]+(\.[0-9]+)*|[ivxlcdm]+|[a-z])\b`),
	// All-caps headers ending with a colon: "DEFINITIONS:"
	regexp.MustCompile(`^[A-Z][A-Z0-9 \-]{2,}:`),
}

// detectSections scans the text line by line and records every heading match.
// Offsets point at the start of the heading line, so they are always valid
// cut points.
func detectSections(text string) []section {
	var sections []section
	offset := 0
	for offset < len(text) {
		lineEnd := len(text)
		if nl := strings.IndexByte(text[offset:], '\n'); nl >= 0 {
			lineEnd = offset + nl
		}
		trimmed := strings.TrimSpace(text[offset:lineEnd])
		if trimmed != "" && isHeading(trimmed) {
			sections = append(sections, section{start: offset, label: headingLabel(trimmed)})
		}
		if lineEnd == len(text) {
			break
		}
		offset = lineEnd + 1
	}
	return sections
}

func isHeading(line string) bool {
	for _, p := range headingPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// headingLabel caps a heading line at 80 runes. Heading lines are usually
// short; the cap keeps pathological matches from bloating chunk metadata.
func headingLabel(line string) string {
	runes := []rune(line)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return line
}

// enclosingSection returns the label of the last section starting at or
// before pos, and whether a section starts exactly at pos.
func enclosingSection(sections []section, pos int) (string, bool) {
	i := sort.Search(len(sections), func(i int) bool {
		return sections[i].start > pos
	})
	if i == 0 {
		return "", false
	}
	sec := sections[i-1]
	return sec.label, sec.start == pos
}

// sectionCut returns the largest section start in (lower, upper], or -1 when
// no section boundary falls inside that window.
func sectionCut(sections []section, lower, upper int) int {
	i := sort.Search(len(sections), func(i int) bool {
		return sections[i].start > upper
	})
	if i == 0 {
		return -1
	}
	if s := sections[i-1].start; s > lower {
		return s
	}
	return -1
}
