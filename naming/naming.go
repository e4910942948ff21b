// Package naming formats model names for the different generated targets.
//
// All functions accept any of the common spellings of a name ("my-name",
// "my_name", "myName", "MyName", "my name") and are deterministic:
//
//	naming.Param("MyName")   // my-name
//	naming.Camel("my-name")  // myName
//	naming.Pascal("my-name") // MyName
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits a name into lower-case words.
// Separators are '-', '_', '.', '/' and whitespace. Case transitions also
// start a new word, keeping acronyms together: "HTTPServer" is [http server].
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '.' || r == '/' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Param returns the dash separated form, e.g. "my-name".
// This is the canonical form of attribute, resource and operation names.
func Param(s string) string {
	return strings.Join(Words(s), "-")
}

// Snake returns the underscore separated form, e.g. "my_name".
func Snake(s string) string {
	return strings.Join(Words(s), "_")
}

// Constant returns the upper-case underscore form, e.g. "MY_NAME".
func Constant(s string) string {
	return strings.ToUpper(Snake(s))
}

// Pascal returns the form used for type names, e.g. "MyName".
func Pascal(s string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// Camel returns the form used for fields and functions, e.g. "myName".
func Camel(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	return words[0] + Pascal(strings.Join(words[1:], "-"))
}

var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"mouse":  "mice",
	"datum":  "data",
	"index":  "indices",
}

// Plural pluralizes the last word of a name and returns the param form.
// Only the common English rules are covered; callers that need anything else
// should set an explicit plural name.
func Plural(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	last := words[len(words)-1]
	words[len(words)-1] = pluralWord(last)
	return strings.Join(words, "-")
}

func pluralWord(w string) string {
	if p, ok := irregularPlurals[w]; ok {
		return p
	}
	switch {
	case strings.HasSuffix(w, "s"), strings.HasSuffix(w, "x"), strings.HasSuffix(w, "z"),
		strings.HasSuffix(w, "ch"), strings.HasSuffix(w, "sh"):
		return w + "es"
	case strings.HasSuffix(w, "y") && len(w) > 1 && !isVowel(rune(w[len(w)-2])):
		return w[:len(w)-1] + "ies"
	}
	return w + "s"
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}
