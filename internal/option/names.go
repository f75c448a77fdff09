package option

import (
	"strings"
	"unicode"
)

// FlagName turns a parameter name into a dash-separated flag name.
// Underscores become dashes and camelCase humps are split:
// "some_option" -> "some-option", "dryRun" -> "dry-run", "HTTPPort" -> "http-port".
func FlagName(name string) string {
	runes := []rune(strings.ReplaceAll(name, "_", "-"))
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '-' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// TaskName turns a function-style name into a CLI session name.
func TaskName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
