package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobhound/jobhound/internal/job"
)

// BoardHTMLConfig describes a generic careers page scraped with CSS
// selectors. Title and Link are resolved relative to the page URL.
type BoardHTMLConfig struct {
	URL              string `mapstructure:"url"`
	Company          string `mapstructure:"company"`
	ItemSelector     string `mapstructure:"item_selector"`
	TitleSelector    string `mapstructure:"title_selector"`
	LinkSelector     string `mapstructure:"link_selector"`
	LocationSelector string `mapstructure:"location_selector"`
}

type boardHTMLSource struct {
	cfg    *BoardHTMLConfig
	client *http.Client
}

func NewBoardHTML(cfg *BoardHTMLConfig) Source {
	return &boardHTMLSource{
		cfg:    cfg,
		client: newHTTPClient(),
	}
}

func (s *boardHTMLSource) Name() string { return "boardhtml" }

func (s *boardHTMLSource) Fetch(ctx context.Context) ([]*job.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.cfg.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, err
	}

	var postings []*job.Posting
	doc.Find(s.cfg.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find(s.cfg.TitleSelector).First().Text())
		if title == "" {
			return
		}

		link := item.Find(s.cfg.LinkSelector).First()
		href, _ := link.Attr("href")
		if href == "" && item.Is("a") {
			href, _ = item.Attr("href")
		}

		absURL := href
		if parsed, err := url.Parse(href); err == nil {
			absURL = base.ResolveReference(parsed).String()
		}

		location := ""
		if s.cfg.LocationSelector != "" {
			location = strings.TrimSpace(item.Find(s.cfg.LocationSelector).First().Text())
		}

		postings = append(postings, &job.Posting{
			Title:    title,
			Company:  s.cfg.Company,
			Location: location,
			URL:      absURL,
		})
	})

	return postings, nil
}
