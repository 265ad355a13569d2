package arena

import (
	"strings"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/solved"
)

// UserCodePlaceholder marks where a driver template takes the user's code.
const UserCodePlaceholder = "{{USER_CODE}}"

// languageEntry finds the map value whose key names the language.
// Keys compare case-insensitively and "cpp" matches "C++".
func languageEntry(m map[string]string, language string) (string, bool) {
	want := solved.NormalizeLanguage(language)
	for k, v := range m {
		if solved.NormalizeLanguage(k) == want {
			return v, true
		}
	}
	return "", false
}

// StarterCode returns the template code shown when a language is picked.
func StarterCode(p model.Problem, language string) string {
	if code, ok := languageEntry(p.StarterCode, language); ok {
		return code
	}
	return "// No starter code for " + language
}

// DriverTemplate returns the driver template for the language, if any.
func DriverTemplate(p model.Problem, language string) (string, bool) {
	tpl, ok := languageEntry(p.DriverCode, language)
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", false
	}
	return tpl, true
}

// WrapDriver embeds code into a driver template. Templates without the
// placeholder get the code in front of them.
func WrapDriver(template, code string) string {
	if strings.Contains(template, UserCodePlaceholder) {
		return strings.ReplaceAll(template, UserCodePlaceholder, code)
	}
	return code + "\n\n" + template
}
