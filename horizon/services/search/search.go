// horizon/services/search/search.go
package search

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"horizon/horizon/utils/types"
)

var httpURL = regexp.MustCompile(`^https?://`)

// Client queries the DuckDuckGo HTML endpoint. No API key, no JS: the
// results page is parsed directly.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}, logger: logger}
}

// Search returns up to maxResults structured results for query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	params := url.Values{}
	params.Add("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	doc.Find(".result__body").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		titleSel := s.Find(".result__title a")
		snippetSel := s.Find(".result__snippet")
		if titleSel.Length() == 0 || snippetSel.Length() == 0 {
			return true
		}

		href, exists := titleSel.Attr("href")
		if !exists {
			return true
		}

		// DuckDuckGo wraps targets in a redirect; the real URL sits in uddg.
		actualURL := href
		if parsed, perr := url.Parse(href); perr == nil {
			if uddg := parsed.Query().Get("uddg"); uddg != "" {
				actualURL = uddg
			}
		}
		if !httpURL.MatchString(actualURL) {
			return true
		}

		results = append(results, types.SearchResult{
			URL:     actualURL,
			Title:   strings.TrimSpace(titleSel.Text()),
			Snippet: strings.TrimSpace(snippetSel.Text()),
		})
		return true
	})

	c.logger.Info("web search done",
		zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}
