package source

import "testing"

func TestExtractSalary(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"dollar full", "We pay $120,000 plus equity.", 120000},
		{"euro dotted", "Gehalt: €85.000 pro Jahr.", 85000},
		{"short form", "Comp range 90k-120k depending on level.", 90000},
		{"dollar short", "Base from $75K.", 75000},
		{"range picks lowest", "Between $110,000 and $140,000.", 110000},
		{"nothing", "Competitive salary and great snacks.", 0},
		{"too small", "Sign-on bonus of $5,000.", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractSalary(tc.text); got != tc.want {
				t.Errorf("ExtractSalary(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}
