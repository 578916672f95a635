package generator

import (
	"fmt"
	"strconv"
	"strings"

	"SelfEarnBot/internal/domain"
)

// ArticleWriter writes blog posts and SEO copy.
type ArticleWriter struct{}

// Prompt asks for a toned piece of roughly the requested length.
func (ArticleWriter) Prompt(p domain.GenerationParams) (string, int) {
	words := p.WordCount
	if words <= 0 {
		words = 800
	}
	tone := p.Tone
	if tone == "" {
		tone = "professional"
	}
	topic := p.Title
	if topic == "" {
		topic = "General Topic"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s article about: %s\n\n", tone, topic)
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "- Length: approximately %d words\n", words)
	sb.WriteString("- Include relevant examples and insights\n")
	sb.WriteString("- Make it engaging and informative\n")
	if kws := firstN(p.Keywords, 5); len(kws) > 0 {
		fmt.Fprintf(&sb, "- Include these keywords naturally: %s\n", strings.Join(kws, ", "))
	}
	sb.WriteString("\nArticle:")

	return sb.String(), min(words*2, 2000)
}

// Shape keeps the text as is and scores it.
func (ArticleWriter) Shape(text string, p domain.GenerationParams) Draft {
	text = strings.TrimSpace(text)
	return Draft{
		Body:    text,
		Quality: ArticleQuality(text, p.WordCount, p.Keywords),
		Metadata: map[string]string{
			"word_count":        strconv.Itoa(len(strings.Fields(text))),
			"keywords_included": strconv.Itoa(countKeywords(text, p.Keywords)),
		},
	}
}

// ArticleQuality starts at 0.5 and rewards reaching 70% of the target
// length, keyword coverage and a body over 100 words.
func ArticleQuality(text string, targetWords int, keywords []string) float64 {
	if targetWords <= 0 {
		targetWords = 800
	}
	score := 0.5
	words := len(strings.Fields(text))
	if float64(words)/float64(targetWords) >= 0.7 {
		score += 0.2
	}
	if len(keywords) > 0 {
		score += 0.2 * float64(countKeywords(text, keywords)) / float64(len(keywords))
	}
	if words > 100 {
		score += 0.1
	}
	return min(score, 1.0)
}

func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
