package wikitext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean converts raw wikitext into plain prose: markup is stripped, the
// result is NFC-normalised and runs of blank lines collapse to a single
// blank line. The result is trimmed and may be empty.
func Clean(raw string) string {
	text := StripCode(Parse(raw))
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(CollapseBlankLines(text))
}

// CollapseBlankLines keeps a line when it has content or when the line kept
// before it had content, so paragraphs stay separated by exactly one blank
// line. Trailing spaces are dropped from every line.
func CollapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	prevHasContent := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		hasContent := strings.TrimSpace(line) != ""
		if !hasContent {
			if !prevHasContent {
				continue
			}
			line = ""
		}
		kept = append(kept, line)
		prevHasContent = hasContent
	}

	return strings.Join(kept, "\n")
}
