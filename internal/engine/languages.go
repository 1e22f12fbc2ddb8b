package engine

import "strings"

// supportedLanguages is the fixed table of language codes the synthesis
// model supports, mapped to display names.
var supportedLanguages = map[string]string{
	"ar":    "Arabic",
	"pt":    "Brazilian Portuguese",
	"zh-cn": "Chinese",
	"cs":    "Czech",
	"nl":    "Dutch",
	"en":    "English",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
	"pl":    "Polish",
	"ru":    "Russian",
	"es":    "Spanish",
	"tr":    "Turkish",
	"ja":    "Japanese",
	"ko":    "Korean",
	"hu":    "Hungarian",
	"hi":    "Hindi",
}

// Languages returns the supported language codes mapped to display names.
func Languages() map[string]string {
	languages := make(map[string]string, len(supportedLanguages))
	for code, name := range supportedLanguages {
		languages[code] = name
	}

	return languages
}

// IsLanguageSupported reports whether a language code is in the supported
// table. Codes are matched case-insensitively.
func IsLanguageSupported(code string) bool {
	_, ok := supportedLanguages[strings.ToLower(code)]

	return ok
}
