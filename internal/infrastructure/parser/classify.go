package parser

import (
	"strings"
	"unicode/utf8"

	"SelfEarnBot/internal/domain"
)

var categoryHints = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryArticle, []string{"article", "blog", "post", "write"}},
	{domain.CategoryCode, []string{"code", "script", "program", "develop"}},
	{domain.CategorySEO, []string{"seo", "description", "meta"}},
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "from": {},
}

// Classify guesses the content category from free text, defaulting to article.
func Classify(title, description string) domain.Category {
	text := strings.ToLower(title + " " + description)
	for _, hint := range categoryHints {
		for _, w := range hint.words {
			if strings.Contains(text, w) {
				return hint.category
			}
		}
	}
	return domain.CategoryArticle
}

// ExtractKeywords returns up to limit distinct words longer than three
// characters that are not stop words.
func ExtractKeywords(text string, limit int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
