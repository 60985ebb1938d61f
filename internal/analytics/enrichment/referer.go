package enrichment

import (
	"net/url"
	"strings"
)

// RefererClassifier buckets referer URLs into traffic sources.
type RefererClassifier struct {
	searchEngines []string
	socialMedia   []string
}

func NewRefererClassifier() *RefererClassifier {
	return &RefererClassifier{
		searchEngines: []string{
			"google.com",
			"bing.com",
			"yahoo.com",
			"duckduckgo.com",
			"baidu.com",
			"yandex.ru",
			"ecosia.org",
		},
		socialMedia: []string{
			"facebook.com",
			"twitter.com",
			"x.com",
			"instagram.com",
			"linkedin.com",
			"pinterest.com",
			"reddit.com",
			"tiktok.com",
			"youtube.com",
			"threads.net",
		},
	}
}

// ClassifySource returns "Search", "Social", "Direct" or "Referral".
// A missing or unparseable referer counts as a direct visit, matching how
// the sentinel referer value behaves.
func (r *RefererClassifier) ClassifySource(refererStr string) string {
	if refererStr == "" || refererStr == "unknown" {
		return "Direct"
	}

	parsed, err := url.Parse(refererStr)
	if err != nil || parsed.Hostname() == "" {
		return "Direct"
	}

	hostname := strings.ToLower(parsed.Hostname())
	hostname = strings.TrimPrefix(hostname, "www.")

	for _, domain := range r.searchEngines {
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return "Search"
		}
	}

	for _, domain := range r.socialMedia {
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return "Social"
		}
	}

	return "Referral"
}
