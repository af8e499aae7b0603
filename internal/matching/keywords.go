package matching

import (
	"strings"
	"unicode"
)

const maxKeywords = 12

// stopWords are common Portuguese and English words that carry no search value
// for the datasets this tool targets.
var stopWords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "para": {}, "com": {},
	"em": {}, "na": {}, "no": {}, "nas": {}, "nos": {}, "por": {}, "sobre": {},
	"entre": {}, "desde": {}, "durante": {}, "que": {}, "como": {}, "quando": {},
	"onde": {}, "uma": {}, "este": {}, "esta": {}, "pelo": {}, "pela": {},
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"through": {}, "during": {}, "before": {}, "after": {}, "about": {},
	"their": {}, "this": {}, "that": {}, "are": {}, "will": {}, "must": {},
	"may": {}, "can": {}, "which": {}, "who": {}, "whose": {}, "has": {},
	"have": {}, "been": {}, "its": {}, "all": {}, "any": {}, "not": {},
	"program": {}, "programa": {}, "apoio": {}, "support": {},
}

// keywordTerms derives candidate-search terms from an incentive's text. The
// result is a pre-filter only; an empty result means the caller should fall
// back to the full company set.
func keywordTerms(texts ...string) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0, maxKeywords)

	for _, text := range texts {
		for _, word := range splitWords(text) {
			if len(terms) == maxKeywords {
				return terms
			}
			word = strings.ToLower(word)
			if len([]rune(word)) < 4 {
				continue
			}
			if _, ok := stopWords[word]; ok {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			terms = append(terms, word)
		}
	}

	return terms
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
