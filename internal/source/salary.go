package source

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Matches "$120,000", "€85.000", "£70000".
	salaryFullRe = regexp.MustCompile(`[$€£]\s?(\d{2,3})[,.](\d{3})`)
	// Matches "120k", "$85K".
	salaryShortRe = regexp.MustCompile(`[$€£]?\s?(\d{2,3})\s?[kK]\b`)
)

// ExtractSalary pulls the lowest annual salary figure out of free text.
// Returns 0 when no figure is found; the gate treats that as an automatic
// fail, so adapters only call this when the feed has no structured field.
func ExtractSalary(text string) int {
	lowest := 0

	consider := func(v int) {
		// Figures below 10k are not annual salaries.
		if v < 10000 {
			return
		}
		if lowest == 0 || v < lowest {
			lowest = v
		}
	}

	for _, match := range salaryFullRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(match[1] + match[2])
		if err != nil {
			continue
		}
		consider(v)
	}

	for _, match := range salaryShortRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(strings.TrimSpace(match[1]))
		if err != nil {
			continue
		}
		consider(v * 1000)
	}

	return lowest
}
