package judge

import "sort"

// languageIDs maps canonical language names to execution-service language ids.
// Lookups are exact-match and case-sensitive.
var languageIDs = map[string]int{
	"c":          50,
	"c++":        54,
	"csharp":     51,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"kotlin":     78,
	"python":     71,
	"ruby":       72,
	"rust":       73,
	"typescript": 74,
}

var languageAliases = map[string]string{
	"cpp":    "c++",
	"golang": "go",
	"js":     "javascript",
	"py":     "python",
	"ts":     "typescript",
	"cs":     "csharp",
}

// NormalizeLanguage rewrites known aliases such as "cpp" to their canonical name.
func NormalizeLanguage(language string) string {
	if canonical, ok := languageAliases[language]; ok {
		return canonical
	}
	return language
}

// LanguageID resolves a canonical language name to its execution-service id.
func LanguageID(language string) (int, bool) {
	id, ok := languageIDs[language]
	return id, ok
}

// SupportedLanguages lists every canonical language name.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageIDs))
	for name := range languageIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
