package encoding

import "golang.org/x/text/language"

// ParseLanguage interprets a /Lang text string (a BCP 47 tag such as
// "en-US") via golang.org/x/text/language, returning language.Und for
// anything that doesn't parse, per
// other_examples/seehuhn-go-pdf__catalog.go's ExtractCatalog handling
// of the Lang field.
func ParseLanguage(s string) language.Tag {
	if s == "" {
		return language.Und
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und
	}
	return tag
}
