package browser

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// extractMatches parses the rendered page and returns structured data for
// every element matching the selector. Each match carries its visible text,
// raw HTML, a markdown rendition, and value/href attributes when present.
func extractMatches(html, selector, baseURL string) (map[string]interface{}, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	domain := strings.TrimPrefix(baseURL, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	converter := md.NewConverter(domain, true, nil)

	matches := make([]map[string]interface{}, 0)
	document.FindMatcher(matcher).Each(func(_ int, selection *goquery.Selection) {
		match := map[string]interface{}{
			"text": strings.TrimSpace(selection.Text()),
		}
		if outer, err := goquery.OuterHtml(selection); err == nil {
			match["html"] = outer
			if markdown, err := converter.ConvertString(outer); err == nil {
				match["markdown"] = strings.TrimSpace(markdown)
			}
		}
		if value, ok := selection.Attr("value"); ok {
			match["value"] = value
		}
		if href, ok := selection.Attr("href"); ok {
			match["href"] = href
		}
		matches = append(matches, match)
	})

	return map[string]interface{}{
		"selector": selector,
		"count":    len(matches),
		"matches":  matches,
	}, nil
}
