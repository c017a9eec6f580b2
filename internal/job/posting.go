package job

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Posting is a normalized job posting. It is immutable once fetched; the only
// field promoted beyond the current cycle is the identity.
type Posting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location,omitempty"`
	Remote       bool      `json:"remote,omitempty"`
	Description  string    `json:"description,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	URL          string    `json:"url,omitempty"`
	CompanySize  int       `json:"company_size,omitempty"`
	FundingStage string    `json:"funding_stage,omitempty"`
	SalaryMin    int       `json:"salary_min,omitempty"`
	Source       string    `json:"source,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at,omitempty"`
}

// Identity derives the dedup key from a normalized company+title pair. Two
// postings with the same key are the same entity regardless of source.
func Identity(company, title string) string {
	return normalize(company) + "|" + normalize(title)
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Normalize fills the derived fields and validates the required ones. Unknown
// source-specific fields never reach this type.
func Normalize(p *Posting, source string, now time.Time) error {
	if p == nil {
		return errors.New("posting is nil")
	}

	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)
	if p.Title == "" || p.Company == "" {
		return fmt.Errorf("posting requires title and company, got title=%q company=%q", p.Title, p.Company)
	}

	p.ID = Identity(p.Company, p.Title)
	p.Source = source
	if p.DiscoveredAt.IsZero() {
		p.DiscoveredAt = now
	}

	if !p.Remote && strings.Contains(strings.ToLower(p.Location), "remote") {
		p.Remote = true
	}

	return nil
}

// Text returns the searchable text of the posting in lower case.
func (p *Posting) Text() string {
	parts := []string{p.Title, p.Description}
	parts = append(parts, p.Requirements...)
	return strings.ToLower(strings.Join(parts, "\n"))
}

// Postings is an ordered posting list preserving discovery order.
type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) Append(items ...*Posting) {
	p.Items = append(p.Items, items...)
}

// Dedupe removes postings sharing an identity, keeping the first-seen one.
// Returns the ids of the removed duplicates (one entry per removed posting).
func (p *Postings) Dedupe() []string {
	seen := make(map[string]bool, len(p.Items))
	kept := make([]*Posting, 0, len(p.Items))
	var removed []string

	for _, posting := range p.Items {
		if seen[posting.ID] {
			removed = append(removed, posting.ID)
			continue
		}
		seen[posting.ID] = true
		kept = append(kept, posting)
	}

	p.Items = kept
	return removed
}

// Exclude removes postings whose id is in ids, returning the removed ids.
func (p *Postings) Exclude(ids []string) []string {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := make([]*Posting, 0, len(p.Items))
	var removed []string
	for _, posting := range p.Items {
		if drop[posting.ID] {
			removed = append(removed, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}

	p.Items = kept
	return removed
}

// SortByDiscovery restores discovery order after concurrent fetches land in
// arbitrary order. Postings sharing a timestamp keep their current order.
func (p *Postings) SortByDiscovery() {
	sort.SliceStable(p.Items, func(i, j int) bool {
		return p.Items[i].DiscoveredAt.Before(p.Items[j].DiscoveredAt)
	})
}
