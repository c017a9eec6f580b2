package source

import (
	"context"
	"net/http"

	"github.com/jobhound/jobhound/internal/job"
)

type RemoteFeedConfig struct {
	URL string `mapstructure:"url"`
}

type remoteFeedSource struct {
	cfg    *RemoteFeedConfig
	client *http.Client
}

// NewRemoteFeed creates an adapter for remoteok-style JSON feeds. The feed is
// a flat array where the first element may be a legal notice instead of a job.
func NewRemoteFeed(cfg *RemoteFeedConfig) Source {
	return &remoteFeedSource{
		cfg:    cfg,
		client: newHTTPClient(),
	}
}

func (s *remoteFeedSource) Name() string { return "remotefeed" }

type remoteFeedJob struct {
	Legal       string   `json:"legal"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	SalaryMin   int      `json:"salary_min"`
	URL         string   `json:"url"`
}

func (s *remoteFeedSource) Fetch(ctx context.Context) ([]*job.Posting, error) {
	var feed []remoteFeedJob
	if err := getJSON(ctx, s.client, s.cfg.URL, &feed); err != nil {
		return nil, err
	}

	var postings []*job.Posting
	for _, fj := range feed {
		if fj.Legal != "" || fj.Position == "" {
			continue
		}

		salary := fj.SalaryMin
		if salary == 0 {
			salary = ExtractSalary(fj.Description)
		}

		location := fj.Location
		if location == "" {
			location = "Remote"
		}

		postings = append(postings, &job.Posting{
			Title:        fj.Position,
			Company:      fj.Company,
			Location:     location,
			Remote:       true,
			Description:  fj.Description,
			Requirements: fj.Tags,
			URL:          fj.URL,
			SalaryMin:    salary,
		})
	}

	return postings, nil
}
