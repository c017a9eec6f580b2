// Package source fetches raw postings from the configured external feeds.
// Adapters share no state; a failing or slow adapter yields an empty result
// and never aborts the cycle.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobhound/jobhound/internal/job"
)

const defaultUserAgent = "jobhound/1.0"

// Source is one posting feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*job.Posting, error)
}

// CompanyInfo supplies the gate metadata the feeds themselves rarely carry.
type CompanyInfo struct {
	Size  int    `mapstructure:"size"`
	Stage string `mapstructure:"stage"`
}

// Config selects and configures the enabled adapters.
type Config struct {
	Greenhouse *GreenhouseConfig `mapstructure:"greenhouse"`
	RemoteFeed *RemoteFeedConfig `mapstructure:"remote-feed"`
	BoardHTML  *BoardHTMLConfig  `mapstructure:"board-html"`

	// Companies maps a company name to its size and funding stage,
	// applied to every fetched posting.
	Companies map[string]CompanyInfo `mapstructure:"companies"`

	// FetchTimeout is the per-adapter deadline.
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`
}

// Build returns the enabled adapters in a stable order.
func Build(cfg *Config) []Source {
	var sources []Source
	if cfg == nil {
		return sources
	}

	if cfg.Greenhouse != nil && len(cfg.Greenhouse.Boards) > 0 {
		sources = append(sources, NewGreenhouse(cfg.Greenhouse))
	}
	if cfg.RemoteFeed != nil && cfg.RemoteFeed.URL != "" {
		sources = append(sources, NewRemoteFeed(cfg.RemoteFeed))
	}
	if cfg.BoardHTML != nil && cfg.BoardHTML.URL != "" {
		sources = append(sources, NewBoardHTML(cfg.BoardHTML))
	}

	return sources
}

// Enrich applies the configured company metadata to the postings.
func Enrich(postings []*job.Posting, companies map[string]CompanyInfo) {
	if len(companies) == 0 {
		return
	}

	index := make(map[string]CompanyInfo, len(companies))
	for name, info := range companies {
		index[strings.ToLower(strings.TrimSpace(name))] = info
	}

	for _, p := range postings {
		info, ok := index[strings.ToLower(strings.TrimSpace(p.Company))]
		if !ok {
			continue
		}
		if p.CompanySize == 0 {
			p.CompanySize = info.Size
		}
		if p.FundingStage == "" {
			p.FundingStage = info.Stage
		}
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// getJSON performs a GET request and decodes the JSON body into target.
func getJSON(ctx context.Context, client *http.Client, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}
