package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"SelfEarnBot/internal/ports"
)

// OfflineBackend answers prompts locally without calling any API. It keeps
// dry runs and demos working when no key is configured.
type OfflineBackend struct {
	model      string
	pricePer1K float64
}

var _ ports.CompletionBackend = (*OfflineBackend)(nil)

// NewOfflineBackend labels its output with model and meters it at pricePer1K.
func NewOfflineBackend(model string, pricePer1K float64) *OfflineBackend {
	return &OfflineBackend{model: model, pricePer1K: pricePer1K}
}

var (
	topicPattern    = regexp.MustCompile(`(?m)(?:about|that): (.+)$`)
	keywordsPattern = regexp.MustCompile(`(?m)(?:keywords naturally|libraries if relevant): (.+)$`)
	lengthPattern   = regexp.MustCompile(`approximately (\d+) words`)
	languagePattern = regexp.MustCompile("```(\\w+)\\s*$")
)

// Complete renders a templated answer shaped like the prompt asks for.
func (b *OfflineBackend) Complete(ctx context.Context, prompt string, maxTokens int) (ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return ports.Completion{}, err
	}

	topic := firstGroup(topicPattern, prompt, "the requested topic")
	keywords := strings.Split(firstGroup(keywordsPattern, prompt, ""), ", ")

	var text string
	if lang := firstGroup(languagePattern, prompt, ""); lang != "" {
		text = offlineCode(lang, topic, keywords)
	} else {
		words := 300
		fmt.Sscanf(firstGroup(lengthPattern, prompt, "300"), "%d", &words)
		text = offlineProse(topic, keywords, words)
	}

	completion := len(strings.Fields(text)) * 4 / 3
	if maxTokens > 0 && completion > maxTokens {
		completion = maxTokens
	}
	tokens := len(strings.Fields(prompt)) + completion
	return ports.Completion{
		Text:       text,
		Model:      b.model,
		TokensUsed: tokens,
		Cost:       float64(tokens) / 1000 * b.pricePer1K,
	}, nil
}

func offlineProse(topic string, keywords []string, words int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", topic)
	sentence := fmt.Sprintf("This section explains %s with practical examples and concrete steps.", topic)
	for _, kw := range keywords {
		if kw != "" {
			sentence += " It covers " + kw + "."
		}
	}
	for n := 0; n < words; {
		sb.WriteString(sentence)
		sb.WriteString("\n")
		n += len(strings.Fields(sentence))
	}
	return sb.String()
}

func offlineCode(lang, topic string, keywords []string) string {
	comment := "#"
	switch lang {
	case "javascript", "java", "c", "cpp", "go", "typescript":
		comment = "//"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "```%s\n", lang)
	fmt.Fprintf(&sb, "%s %s\n", comment, topic)
	for _, kw := range keywords {
		if kw != "" {
			fmt.Fprintf(&sb, "%s uses %s\n", comment, kw)
		}
	}
	if comment == "#" {
		sb.WriteString("def main():\n")
		sb.WriteString("    items = []\n")
		sb.WriteString("    for i in range(10):\n")
		sb.WriteString("        items.append(i * 2)\n")
		sb.WriteString("    # report the result\n")
		sb.WriteString("    print(items)\n")
		sb.WriteString("    return items\n")
		sb.WriteString("\n\nif __name__ == \"__main__\":\n")
		sb.WriteString("    main()\n")
	} else {
		sb.WriteString("function main() {\n")
		sb.WriteString("  const items = [];\n")
		sb.WriteString("  for (let i = 0; i < 10; i++) {\n")
		sb.WriteString("    items.push(i * 2);\n")
		sb.WriteString("  }\n")
		sb.WriteString("  // report the result\n")
		sb.WriteString("  console.log(items);\n")
		sb.WriteString("  return items;\n")
		sb.WriteString("}\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

func firstGroup(re *regexp.Regexp, s, def string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return def
	}
	return strings.TrimSpace(m[1])
}
