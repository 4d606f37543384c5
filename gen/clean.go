package gen

import (
	"regexp"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("```[\\w]*\n?")
	declRe  = regexp.MustCompile(`(?m)^(const|function|class)\s+(\w+)`)
)

// RemoveCodeFormatting strips markdown code fences. Safe to apply
// repeatedly and on partial output.
func RemoveCodeFormatting(text string) string {
	return fenceRe.ReplaceAllString(text, "")
}

// CleanCodeText normalizes a full code response: fences are removed and,
// when the model forgot the export, the first top-level declaration is
// promoted to the default export.
func CleanCodeText(text string) string {
	text = RemoveCodeFormatting(text)

	if !strings.Contains(text, "export default") {
		if loc := declRe.FindStringIndex(text); loc != nil {
			text = text[:loc[0]] + "export default " + text[loc[0]:]
		}
	}
	return strings.TrimSpace(text)
}
