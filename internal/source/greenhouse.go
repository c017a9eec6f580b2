package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jobhound/jobhound/internal/job"
)

const greenhouseAPIURL = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseBoard is one company board on the Greenhouse job board API.
type GreenhouseBoard struct {
	Token   string `mapstructure:"token"`
	Company string `mapstructure:"company"`
}

type GreenhouseConfig struct {
	Boards []GreenhouseBoard `mapstructure:"boards"`
}

type greenhouseSource struct {
	cfg    *GreenhouseConfig
	client *http.Client
	apiURL string
}

// NewGreenhouse creates the Greenhouse boards adapter.
func NewGreenhouse(cfg *GreenhouseConfig) Source {
	return &greenhouseSource{
		cfg:    cfg,
		client: newHTTPClient(),
		apiURL: greenhouseAPIURL,
	}
}

func (s *greenhouseSource) Name() string { return "greenhouse" }

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// Fetch pulls every configured board. A single failing board fails the whole
// adapter; the orchestrator already treats adapter failures as non-fatal.
func (s *greenhouseSource) Fetch(ctx context.Context) ([]*job.Posting, error) {
	var postings []*job.Posting

	for _, board := range s.cfg.Boards {
		url := fmt.Sprintf("%s/%s/jobs?content=true", s.apiURL, board.Token)

		var response greenhouseResponse
		if err := getJSON(ctx, s.client, url, &response); err != nil {
			return nil, fmt.Errorf("board %s: %w", board.Token, err)
		}

		company := board.Company
		if company == "" {
			company = board.Token
		}

		for _, gj := range response.Jobs {
			postings = append(postings, &job.Posting{
				Title:       gj.Title,
				Company:     company,
				Location:    gj.Location.Name,
				Description: gj.Content,
				URL:         gj.AbsoluteURL,
				SalaryMin:   ExtractSalary(gj.Content),
			})
		}
	}

	return postings, nil
}
