package generator

import (
	"fmt"
	"strconv"
	"strings"

	"SelfEarnBot/internal/domain"
)

// CodeWriter writes scripts and snippets.
type CodeWriter struct{}

var commentMarkers = map[string]string{
	"python":     "#",
	"ruby":       "#",
	"bash":       "#",
	"javascript": "//",
	"typescript": "//",
	"java":       "//",
	"go":         "//",
	"c":          "//",
	"cpp":        "//",
}

var structureKeywords = []string{"def ", "func ", "function ", "class "}

// Prompt asks for commented code in a fenced block.
func (CodeWriter) Prompt(p domain.GenerationParams) (string, int) {
	lang := language(p)
	what := p.Title
	if what == "" {
		what = p.Description
	}
	if what == "" {
		what = "Code script"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s script that: %s\n\n", lang, what)
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Use clean, well-commented code\n")
	fmt.Fprintf(&sb, "- Follow %s best practices\n", lang)
	sb.WriteString("- Include error handling where appropriate\n")
	if kws := firstN(p.Keywords, 3); len(kws) > 0 {
		fmt.Fprintf(&sb, "- Use these concepts/libraries if relevant: %s\n", strings.Join(kws, ", "))
	}
	fmt.Fprintf(&sb, "\nProvide only the %s code with comments:\n\n```%s\n", lang, lang)

	return sb.String(), 1500
}

// Shape strips markdown fences and scores the code.
func (CodeWriter) Shape(text string, p domain.GenerationParams) Draft {
	lang := language(p)
	code := ExtractCode(text)
	return Draft{
		Body:    code,
		Quality: CodeQuality(code, lang),
		Metadata: map[string]string{
			"language":      lang,
			"lines_of_code": strconv.Itoa(len(strings.Split(code, "\n"))),
		},
	}
}

// ExtractCode returns the contents of fenced blocks, or text unchanged when
// it has none.
func ExtractCode(text string) string {
	var lines []string
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inBlock = !inBlock
			continue
		}
		if inBlock {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CodeQuality starts at 0.5 and rewards more than ten lines, comments and
// named structure.
func CodeQuality(code, lang string) float64 {
	score := 0.5
	if len(strings.Split(code, "\n")) > 10 {
		score += 0.2
	}
	marker, ok := commentMarkers[lang]
	if !ok {
		marker = "#"
	}
	if strings.Contains(code, marker) {
		score += 0.2
	}
	for _, kw := range structureKeywords {
		if strings.Contains(code, kw) {
			score += 0.1
			break
		}
	}
	return min(score, 1.0)
}

func language(p domain.GenerationParams) string {
	lang := strings.ToLower(strings.TrimSpace(p.Language))
	if lang == "" {
		return "python"
	}
	return lang
}
