package parser

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/scanner"
)

const (
	rssSource       = "rss"
	rssItemsPerFeed = 10
)

// RevenueRange is the expected payout window for a category.
type RevenueRange struct {
	Min float64
	Max float64
}

// RSSScanner turns RSS and Atom feed items into opportunities.
type RSSScanner struct {
	client  *http.Client
	revenue map[domain.Category]RevenueRange
	now     func() time.Time
}

// NewRSSScanner estimates revenue at the midpoint of the category range.
func NewRSSScanner(client *http.Client, revenue map[domain.Category]RevenueRange) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, revenue: revenue, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan reads up to ten items from every configured feed. A feed that cannot
// be fetched fails the whole source; the caller skips it.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Opportunity, error) {
	if len(req.URLs) == 0 {
		return nil, fmt.Errorf("no feed urls provided for source %s", req.SourceName)
	}

	var out []domain.Opportunity
	for _, feedURL := range req.URLs {
		feed, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feedURL, err)
		}
		for i, item := range feed.Items {
			if i == rssItemsPerFeed {
				break
			}
			out = append(out, s.toOpportunity(item, feedURL))
		}
	}
	return out, nil
}

func (s *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SelfEarnBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func (s *RSSScanner) toOpportunity(item *gofeed.Item, feedURL string) domain.Opportunity {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}
	link := item.Link
	if link == "" {
		link = feedURL
	}
	category := Classify(title, item.Description)

	return domain.Opportunity{
		ID:               uuid.NewString(),
		Source:           rssSource,
		SourceURL:        link,
		Title:            title,
		Description:      truncate(item.Description, 500),
		Category:         category,
		EstimatedRevenue: s.estimateRevenue(category),
		Requirements: domain.Requirements{
			Keywords: ExtractKeywords(title+" "+item.Description, 10),
		},
		Status:    domain.StatusDiscovered,
		CreatedAt: s.now().UTC(),
	}
}

func (s *RSSScanner) estimateRevenue(category domain.Category) float64 {
	r, ok := s.revenue[category]
	if !ok {
		r = RevenueRange{Min: 5, Max: 20}
	}
	return math.Round((r.Min+r.Max)/2*100) / 100
}
