// Package gate implements the hard pass/fail eligibility filter applied
// before any scoring. A posting that fails the gate is discarded permanently.
package gate

import (
	"fmt"
	"strings"

	"github.com/jobhound/jobhound/internal/job"
)

// Rules holds the eligibility criteria. All criteria must hold for a posting
// to pass.
type Rules struct {
	MinCompanySize int      `mapstructure:"min-company-size"`
	MaxCompanySize int      `mapstructure:"max-company-size"`
	AllowedStages  []string `mapstructure:"allowed-stages"`
	TitleKeywords  []string `mapstructure:"title-keywords"`

	// RemoteSalaryFloor applies to remote postings; RegionSalaryFloors keys
	// are matched as substrings of the posting location. Postings without a
	// salary figure fail automatically.
	RemoteSalaryFloor  int            `mapstructure:"remote-salary-floor"`
	RegionSalaryFloors map[string]int `mapstructure:"region-salary-floors"`
	DefaultSalaryFloor int            `mapstructure:"default-salary-floor"`
}

// DefaultRules returns the tuned eligibility rules.
func DefaultRules() Rules {
	return Rules{
		MinCompanySize:    2,
		MaxCompanySize:    200,
		AllowedStages:     []string{"pre-seed", "seed", "series-a"},
		TitleKeywords:     []string{"founding", "engineer", "developer", "swe", "full stack", "fullstack", "backend", "platform"},
		RemoteSalaryFloor: 60000,
		RegionSalaryFloors: map[string]int{
			"berlin": 65000,
			"london": 70000,
		},
		DefaultSalaryFloor: 65000,
	}
}

// Result reports the gate outcome with the first failed criterion.
type Result struct {
	Passed bool
	Reason string
}

// Evaluate applies the rules to a single posting. Pure: no state is touched,
// callers register failures in the seen-job store themselves.
func (r Rules) Evaluate(p *job.Posting) Result {
	if p.CompanySize > 0 {
		if p.CompanySize < r.MinCompanySize || (r.MaxCompanySize > 0 && p.CompanySize > r.MaxCompanySize) {
			return failed("company size %d outside [%d, %d]", p.CompanySize, r.MinCompanySize, r.MaxCompanySize)
		}
	}

	if len(r.AllowedStages) > 0 && p.FundingStage != "" {
		if !containsFold(r.AllowedStages, p.FundingStage) {
			return failed("funding stage %q not in allow-list", p.FundingStage)
		}
	}

	if len(r.TitleKeywords) > 0 {
		title := strings.ToLower(p.Title)
		matched := false
		for _, kw := range r.TitleKeywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return failed("title %q matches no required keyword", p.Title)
		}
	}

	floor := r.salaryFloor(p)
	if p.SalaryMin <= 0 {
		return failed("no salary figure (floor %d)", floor)
	}
	if p.SalaryMin < floor {
		return failed("salary %d below floor %d", p.SalaryMin, floor)
	}

	return Result{Passed: true}
}

func (r Rules) salaryFloor(p *job.Posting) int {
	if p.Remote {
		return r.RemoteSalaryFloor
	}

	location := strings.ToLower(p.Location)
	for region, floor := range r.RegionSalaryFloors {
		if strings.Contains(location, strings.ToLower(region)) {
			return floor
		}
	}

	return r.DefaultSalaryFloor
}

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}

func failed(format string, args ...any) Result {
	return Result{Passed: false, Reason: fmt.Sprintf(format, args...)}
}
