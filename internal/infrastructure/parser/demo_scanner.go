package parser

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/scanner"
)

type demoFeed struct {
	items []domain.Opportunity
	// pick draws how many items the feed yields this scan.
	pick func(r *rand.Rand) int
}

var demoFeeds = []demoFeed{
	{
		items: []domain.Opportunity{
			{
				Source:           "rss_demo",
				SourceURL:        "https://example.com/content-needed",
				Title:            "Need article about AI trends in 2025",
				Description:      "Looking for a comprehensive article discussing the latest AI trends, including LLMs, computer vision, and automation.",
				Category:         domain.CategoryArticle,
				EstimatedRevenue: 25,
				Requirements:     domain.Requirements{WordCount: 1000, Keywords: []string{"AI", "trends", "machine learning", "automation"}},
			},
			{
				Source:           "rss_demo",
				SourceURL:        "https://example.com/seo-content",
				Title:            "SEO product descriptions needed",
				Description:      "Need SEO-optimized product descriptions for tech gadgets.",
				Category:         domain.CategorySEO,
				EstimatedRevenue: 15,
				Requirements:     domain.Requirements{WordCount: 300, Keywords: []string{"tech", "gadgets", "innovative"}},
			},
			{
				Source:           "rss_demo",
				SourceURL:        "https://example.com/code-help",
				Title:            "Python script for data processing",
				Description:      "Need a simple Python script to process CSV files and generate reports.",
				Category:         domain.CategoryCode,
				EstimatedRevenue: 40,
				Requirements:     domain.Requirements{Language: "python", Keywords: []string{"data processing", "CSV", "reports"}},
			},
		},
		pick: func(r *rand.Rand) int { return 1 + r.IntN(2) },
	},
	{
		items: []domain.Opportunity{
			{
				Source:           "freelance_demo",
				SourceURL:        "https://freelance.example.com/job/12345",
				Title:            "Write 5 blog posts about technology",
				Description:      "Looking for writer to create 5 engaging blog posts about latest tech trends. Each post should be 800-1000 words.",
				Category:         domain.CategoryArticle,
				EstimatedRevenue: 75,
				Requirements:     domain.Requirements{Quantity: 5, WordCount: 900, Platform: "fiverr"},
			},
			{
				Source:           "freelance_demo",
				SourceURL:        "https://freelance.example.com/job/67890",
				Title:            "Create SEO content for e-commerce site",
				Description:      "Need 20 product descriptions optimized for SEO. Each 200-300 words.",
				Category:         domain.CategorySEO,
				EstimatedRevenue: 60,
				Requirements:     domain.Requirements{Quantity: 20, WordCount: 250, Platform: "upwork"},
			},
			{
				Source:           "freelance_demo",
				SourceURL:        "https://freelance.example.com/job/11111",
				Title:            "Python automation scripts needed",
				Description:      "Looking for developer to create 3 Python automation scripts for data processing.",
				Category:         domain.CategoryCode,
				EstimatedRevenue: 150,
				Requirements:     domain.Requirements{Quantity: 3, Language: "python", Platform: "freelancer"},
			},
		},
		pick: func(r *rand.Rand) int {
			if r.Float64() < 0.3 {
				return 1
			}
			return 0
		},
	},
	{
		items: []domain.Opportunity{
			marketDemo("Write about AI Safety and Ethics", "AI safety is trending on Medium. Articles on this topic get high engagement.", "medium", 20, "AI safety", "ethics", "responsible AI", "alignment"),
			marketDemo("Tutorial on Modern Web Development", "Dev.to readers are interested in modern web dev tutorials with React/Vue.", "devto", 15, "web development", "React", "Vue", "frontend"),
			marketDemo("Python Data Science Tutorial", "Data science tutorials perform well. Focus on practical examples.", "hashnode", 18, "python", "data science", "pandas", "machine learning"),
			marketDemo("DevOps Best Practices Guide", "DevOps content is in demand. Cover CI/CD, Docker, Kubernetes.", "devto", 25, "devops", "CI/CD", "docker", "kubernetes"),
		},
		pick: func(r *rand.Rand) int { return r.IntN(3) },
	},
}

func marketDemo(title, desc, platform string, revenue float64, keywords ...string) domain.Opportunity {
	return domain.Opportunity{
		Source:           "content_market_demo",
		SourceURL:        "https://" + platform + ".example.com/trending",
		Title:            title,
		Description:      desc,
		Category:         domain.CategoryArticle,
		EstimatedRevenue: revenue,
		Requirements: domain.Requirements{
			Platform:  platform,
			Keywords:  keywords,
			WordCount: marketWordCount,
			Format:    "tutorial",
		},
	}
}

// DemoScanner serves a built-in catalog so the bot can run offline. With
// option mode=all every item is returned; otherwise each feed yields a
// random handful.
type DemoScanner struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewDemoScanner seeds the sampler.
func NewDemoScanner(seed uint64) *DemoScanner {
	return &DemoScanner{rnd: rand.New(rand.NewPCG(seed, seed+1)), now: time.Now}
}

// Name identifies the strategy inside the registry.
func (d *DemoScanner) Name() string {
	return "demo"
}

// Scan returns fresh copies of catalog items with new identities.
func (d *DemoScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := req.Option("mode", "sample") == "all"

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	var out []domain.Opportunity
	for _, feed := range demoFeeds {
		items := feed.items
		if !all {
			n := feed.pick(d.rnd)
			idx := d.rnd.Perm(len(items))[:min(n, len(items))]
			picked := make([]domain.Opportunity, 0, len(idx))
			for _, i := range idx {
				picked = append(picked, items[i])
			}
			items = picked
		}
		for _, item := range items {
			opp := item
			opp.ID = uuid.NewString()
			opp.Status = domain.StatusDiscovered
			opp.CreatedAt = now
			opp.Requirements.Keywords = append([]string(nil), item.Requirements.Keywords...)
			out = append(out, opp)
		}
	}
	return out, nil
}
