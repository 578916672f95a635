package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/scanner"
)

const (
	marketSource      = "content_market"
	marketWordCount   = 1200
	defaultMarketRev  = 15.0
	defaultMarketPage = 20
)

// MarketScanner scrapes trending-topic listings from content marketplaces.
type MarketScanner struct {
	client   *http.Client
	pageSize int
	now      func() time.Time
}

// NewMarketScanner wires an HTTP client; pageSize defaults to 20.
func NewMarketScanner(client *http.Client) *MarketScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &MarketScanner{client: client, pageSize: defaultMarketPage, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (m *MarketScanner) Name() string {
	return "market"
}

// Scan walks each listing URL page by page until a short page or the
// "maxPages" option (default 1) is reached.
func (m *MarketScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Opportunity, error) {
	if len(req.URLs) == 0 {
		return nil, fmt.Errorf("no listing urls provided for source %s", req.SourceName)
	}

	maxPages, err := strconv.Atoi(req.Option("maxPages", "1"))
	if err != nil || maxPages < 1 {
		maxPages = 1
	}

	results := make([]domain.Opportunity, 0)
	seen := map[string]struct{}{}

	for _, listing := range req.URLs {
		for page := 1; page <= maxPages; page++ {
			pageURL, err := buildPageURL(listing, page, m.pageSize)
			if err != nil {
				return nil, err
			}

			doc, err := m.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", listing, err)
			}

			topics := m.extractTopics(doc, listing)
			for _, opp := range topics {
				if _, ok := seen[opp.SourceURL]; ok {
					continue
				}
				seen[opp.SourceURL] = struct{}{}
				results = append(results, opp)
			}

			if len(topics) < m.pageSize {
				break
			}
		}
	}

	return results, nil
}

func (m *MarketScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SelfEarnBot/1.0")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (m *MarketScanner) extractTopics(doc *goquery.Document, listing string) []domain.Opportunity {
	var collected []domain.Opportunity
	doc.Find(".topic").Each(func(i int, sel *goquery.Selection) {
		if opp, ok := parseTopic(sel, listing, m.now().UTC()); ok {
			collected = append(collected, opp)
		}
	})
	return collected
}

func parseTopic(sel *goquery.Selection, listing string, now time.Time) (domain.Opportunity, bool) {
	titleSel := sel.Find(".title").First()
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return domain.Opportunity{}, false
	}

	link := listing
	if href, ok := titleSel.Attr("href"); ok && href != "" {
		link = resolveLink(listing, href)
	}

	summary := strings.TrimSpace(sel.Find(".summary").First().Text())

	var keywords []string
	for _, kw := range strings.Split(sel.Find(".keywords").First().Text(), ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		keywords = ExtractKeywords(title+" "+summary, 10)
	}

	revenue := defaultMarketRev
	if raw, ok := sel.Attr("data-revenue"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v >= 0 {
			revenue = v
		}
	}
	platform, _ := sel.Attr("data-platform")

	return domain.Opportunity{
		ID:               uuid.NewString(),
		Source:           marketSource,
		SourceURL:        link,
		Title:            title,
		Description:      truncate(summary, 500),
		Category:         domain.CategoryArticle,
		EstimatedRevenue: revenue,
		Requirements: domain.Requirements{
			WordCount: marketWordCount,
			Platform:  strings.TrimSpace(platform),
			Format:    "tutorial",
			Keywords:  keywords,
		},
		Status:    domain.StatusDiscovered,
		CreatedAt: now,
	}, true
}

func resolveLink(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	resolved := b.ResolveReference(ref)
	resolved.RawQuery = ref.RawQuery
	return resolved.String()
}

func buildPageURL(base string, page, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
