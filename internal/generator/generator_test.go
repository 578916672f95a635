package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

type stubBackend struct {
	text    string
	err     error
	prompts []string
}

func (b *stubBackend) Complete(_ context.Context, prompt string, _ int) (ports.Completion, error) {
	b.prompts = append(b.prompts, prompt)
	if b.err != nil {
		return ports.Completion{}, b.err
	}
	return ports.Completion{Text: b.text, Model: "stub-1", TokensUsed: 1000, Cost: 0.0015}, nil
}

type stubAssessor struct {
	quality float64
	err     error
}

func (a stubAssessor) Assess(context.Context, domain.Category, string, string) (float64, error) {
	return a.quality, a.err
}

func articlePlan(provider string) domain.ExecutionPlan {
	return domain.ExecutionPlan{
		Category: domain.CategoryArticle,
		Provider: provider,
		Params: domain.GenerationParams{
			Title:     "AI in healthcare",
			WordCount: 150,
			Tone:      "professional",
			Keywords:  []string{"AI", "healthcare"},
		},
	}
}

func TestGenerateArticle(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("AI changes healthcare every day. ", 30)
	backend := &stubBackend{text: body}
	svc := NewService(map[string]ports.CompletionBackend{"mistral": backend}, nil, nil)

	got, err := svc.Generate(context.Background(), articlePlan("mistral"))
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "AI in healthcare", got.Title)
	assert.Equal(t, "mistral", got.Provider)
	assert.Equal(t, 1000, got.TokensUsed)
	assert.InDelta(t, 0.0015, got.Cost, 1e-12)
	assert.InDelta(t, 1.0, got.QualityScore, 1e-9)
	assert.Equal(t, "stub-1", got.Metadata["model"])
	assert.Equal(t, "2", got.Metadata["keywords_included"])

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "approximately 150 words")
	assert.Contains(t, backend.prompts[0], "AI, healthcare")
}

func TestGenerateFailuresAreTyped(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		backends map[string]ports.CompletionBackend
		plan     domain.ExecutionPlan
		sentinel error
	}{
		"unknown provider": {
			backends: map[string]ports.CompletionBackend{},
			plan:     articlePlan("openai"),
			sentinel: domain.ErrNoBackend,
		},
		"backend error": {
			backends: map[string]ports.CompletionBackend{"mistral": &stubBackend{err: errors.New("timeout")}},
			plan:     articlePlan("mistral"),
		},
		"empty answer": {
			backends: map[string]ports.CompletionBackend{"mistral": &stubBackend{text: "   "}},
			plan:     articlePlan("mistral"),
		},
		"unknown category": {
			backends: map[string]ports.CompletionBackend{"mistral": &stubBackend{text: "x"}},
			plan:     domain.ExecutionPlan{Category: domain.CategoryImage, Provider: "mistral"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := NewService(tc.backends, nil, nil).Generate(context.Background(), tc.plan)
			require.Error(t, err)

			var ge *domain.GenerationError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, tc.plan.Provider, ge.Provider)
			assert.Empty(t, got.Body, "no partial content")
			if tc.sentinel != nil {
				assert.ErrorIs(t, err, tc.sentinel)
			}
		})
	}
}

func TestGenerateUsesAssessor(t *testing.T) {
	t.Parallel()

	backends := map[string]ports.CompletionBackend{"mistral": &stubBackend{text: "short text"}}

	got, err := NewService(backends, stubAssessor{quality: 0.93}, nil).Generate(context.Background(), articlePlan("mistral"))
	require.NoError(t, err)
	assert.Equal(t, 0.93, got.QualityScore)

	got, err = NewService(backends, stubAssessor{err: errors.New("down")}, nil).Generate(context.Background(), articlePlan("mistral"))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.QualityScore, 1e-9, "heuristic score survives an assessor outage")
}

func TestArticleQuality(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, ArticleQuality("tiny", 800, nil), 1e-9)
	long := strings.Repeat("word ", 600)
	assert.InDelta(t, 0.8, ArticleQuality(long, 800, nil), 1e-9)
	assert.InDelta(t, 0.9, ArticleQuality(long+" seo", 800, []string{"seo", "missing"}), 1e-9)
}

func TestCodeShapeAndQuality(t *testing.T) {
	t.Parallel()

	answer := "Here you go:\n```python\n# sum numbers\ndef total(xs):\n    return sum(xs)\n```\nEnjoy"
	draft := CodeWriter{}.Shape(answer, domain.GenerationParams{Language: "Python"})

	assert.Equal(t, "# sum numbers\ndef total(xs):\n    return sum(xs)", draft.Body)
	assert.InDelta(t, 0.8, draft.Quality, 1e-9)
	assert.Equal(t, "python", draft.Metadata["language"])

	assert.Equal(t, "plain", ExtractCode("  plain  "))

	long := strings.Repeat("x = 1\n", 12) + "// note\nfunc main() {}"
	assert.InDelta(t, 1.0, CodeQuality(long, "go"), 1e-9)
}

func TestCodePrompt(t *testing.T) {
	t.Parallel()

	prompt, maxTokens := CodeWriter{}.Prompt(domain.GenerationParams{Title: "Parse CSV", Keywords: []string{"csv", "pandas", "io", "extra"}})
	assert.Equal(t, 1500, maxTokens)
	assert.Contains(t, prompt, "Write a python script that: Parse CSV")
	assert.Contains(t, prompt, "csv, pandas, io\n")
	assert.True(t, strings.HasSuffix(prompt, "```python\n"))
}
