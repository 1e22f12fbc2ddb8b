package engine

import "regexp"

// Patterns applied to input text before synthesis.
var (
	strippedCharsPattern = regexp.MustCompile(`[\*\r\n]`)
	quotedSpanPattern    = regexp.MustCompile(`"\s?(.*?)\s?"`)
)

// CleanText normalizes input text for synthesis: asterisks and line breaks
// are stripped, and every double-quoted span is rewritten as a
// single-quoted one.
func CleanText(text string) string {
	text = strippedCharsPattern.ReplaceAllString(text, "")

	return quotedSpanPattern.ReplaceAllString(text, "'$1'")
}
