package report

import (
	"regexp"
	"strings"
)

var (
	labelPrefixRe = regexp.MustCompile(`^\*\*[^*]+\*\*\s*:\s*`)
	bracketRe     = regexp.MustCompile(`\[[^\]]*\]`)
	cueLabelRe    = regexp.MustCompile(`(?i)^(primary|transition|confidence)\s+cue\s*:\s*`)
)

// stripEmphasis removes Markdown bold markers.
func stripEmphasis(s string) string {
	return strings.ReplaceAll(s, "**", "")
}

// stripBullet removes a leading "- " list marker and surrounding whitespace.
func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	return s
}

// stripLabelPrefix removes a leading "**label**:" prefix.
func stripLabelPrefix(s string) string {
	return strings.TrimSpace(labelPrefixRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// stripQuotes removes surrounding straight and typographic quote characters.
func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'“”‘’`)
}

// stripBrackets removes every [bracketed] span.
func stripBrackets(s string) string {
	return bracketRe.ReplaceAllString(s, "")
}

// stripPunct trims Markdown heading/list punctuation from both ends.
func stripPunct(s string) string {
	return strings.Trim(s, " \t#*:-–—.")
}

// cleanDetail normalises one body line for a details list: list marker and
// bold-label prefix removed. Returns "" for lines that should be dropped.
func cleanDetail(line string) string {
	s := stripLabelPrefix(stripBullet(line))
	if s == "" || strings.HasPrefix(s, "#") {
		return ""
	}
	return s
}

// CueText strips the quoting and the "Primary/Transition/Confidence Cue:"
// label from a raw mental-cue bullet. Parsing keeps bullets verbatim; this
// is for presentation layers that want only the cue words.
func CueText(s string) string {
	s = stripQuotes(stripEmphasis(stripBullet(s)))
	s = cueLabelRe.ReplaceAllString(s, "")
	return stripQuotes(s)
}
