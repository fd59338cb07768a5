package service

import "strings"

// Language is the wire enum for a document language.
type Language int32

// Wire language values.
const (
	LanguageUnspecified Language = 0
	LanguageC           Language = 1
	LanguageCPP         Language = 4
	LanguageCSharp      Language = 5
	LanguageCSS         Language = 6
	LanguageGo          Language = 9
	LanguageHTML        Language = 12
	LanguageJava        Language = 13
	LanguageJavaScript  Language = 14
	LanguageJSON        Language = 15
	LanguageKotlin      Language = 17
	LanguageMarkdown    Language = 19
	LanguagePHP         Language = 22
	LanguagePlainText   Language = 23
	LanguagePython      Language = 24
	LanguageRuby        Language = 27
	LanguageRust        Language = 28
	LanguageSQL         Language = 30
	LanguageSwift       Language = 31
	LanguageTypeScript  Language = 33
	LanguageTSX         Language = 34
	LanguageYAML        Language = 35
	LanguageShell       Language = 36
	LanguageTOML        Language = 41
)

var editorLanguages = map[string]Language{
	"c":               LanguageC,
	"cpp":             LanguageCPP,
	"csharp":          LanguageCSharp,
	"css":             LanguageCSS,
	"go":              LanguageGo,
	"html":            LanguageHTML,
	"java":            LanguageJava,
	"javascript":      LanguageJavaScript,
	"javascriptreact": LanguageJavaScript,
	"json":            LanguageJSON,
	"kotlin":          LanguageKotlin,
	"markdown":        LanguageMarkdown,
	"php":             LanguagePHP,
	"plaintext":       LanguagePlainText,
	"python":          LanguagePython,
	"ruby":            LanguageRuby,
	"rust":            LanguageRust,
	"sql":             LanguageSQL,
	"swift":           LanguageSwift,
	"typescript":      LanguageTypeScript,
	"typescriptreact": LanguageTSX,
	"yaml":            LanguageYAML,
	"shellscript":     LanguageShell,
	"toml":            LanguageTOML,
}

// LanguageFor maps an editor language identifier to the wire enum.
func LanguageFor(editorLanguage string) Language {
	return editorLanguages[strings.ToLower(editorLanguage)]
}
