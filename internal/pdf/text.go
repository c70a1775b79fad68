package pdf

import (
	"regexp"
	"strings"
)

var (
	// Words split by line-break hyphenation: "serv-\nices" -> "services".
	hyphenBreak = regexp.MustCompile(`([A-Za-z])[-\x{2010}\x{2011}\x{00AD}]\s*\n\s*([A-Za-z])`)
	listStart   = regexp.MustCompile(`^([-*]|\d+[.)])\s`)
	lineEnd     = regexp.MustCompile(`[.!?:;)]$`)
)

// normalizeText cleans common PDF extraction artifacts while preserving
// paragraph boundaries: it merges hyphenated line breaks, joins single
// newlines inside paragraphs, keeps blank-line breaks and list items on
// their own lines, and compresses runs of blank lines.
func normalizeText(text string) string {
	if text == "" {
		return ""
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = hyphenBreak.ReplaceAllString(normalized, "$1$2")

	var rebuilt []string
	for _, line := range strings.Split(normalized, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			rebuilt = append(rebuilt, "")
			continue
		}
		if len(rebuilt) == 0 || rebuilt[len(rebuilt)-1] == "" {
			rebuilt = append(rebuilt, stripped)
			continue
		}

		prev := rebuilt[len(rebuilt)-1]
		switch {
		case listStart.MatchString(stripped):
			rebuilt = append(rebuilt, stripped)
		case !lineEnd.MatchString(prev):
			rebuilt[len(rebuilt)-1] = prev + " " + stripped
		default:
			rebuilt = append(rebuilt, stripped)
		}
	}

	var compact []string
	for _, line := range rebuilt {
		if line == "" && len(compact) > 0 && compact[len(compact)-1] == "" {
			continue
		}
		compact = append(compact, line)
	}

	return strings.TrimSpace(strings.Join(compact, "\n"))
}

// collapseSpaces reduces all whitespace runs to single spaces, for the plain
// text form of a chapter.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
