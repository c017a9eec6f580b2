package scoring

// Dimension is one independent keyword-matched scoring category. Keywords are
// tiered: a high match awards the full weight, medium and low matches award a
// fraction of it. Only the best tier counts per dimension.
type Dimension struct {
	Name   string   `mapstructure:"name"`
	Weight float64  `mapstructure:"weight"`
	High   []string `mapstructure:"high"`
	Medium []string `mapstructure:"medium"`
	Low    []string `mapstructure:"low"`
}

// Bias holds the labeled post-blend adjustments. The wrong-role veto runs
// first and can sink an otherwise-good score.
type Bias struct {
	WrongRoleKeywords []string `mapstructure:"wrong-role-keywords"`
	WrongRolePenalty  float64  `mapstructure:"wrong-role-penalty"`

	SmallCompanyMax   int     `mapstructure:"small-company-max"`
	SmallCompanyBonus float64 `mapstructure:"small-company-bonus"`

	RemoteBonus float64 `mapstructure:"remote-bonus"`

	EarlyStages     []string `mapstructure:"early-stages"`
	EarlyStageBonus float64  `mapstructure:"early-stage-bonus"`
}

// Config carries every scoring tunable. The point values are empirically
// tuned constants; they are configuration, not derived logic.
type Config struct {
	Base       float64     `mapstructure:"base"`
	Dimensions []Dimension `mapstructure:"dimensions"`

	SkillMatchPoints float64 `mapstructure:"skill-match-points"`
	SkillMatchCap    float64 `mapstructure:"skill-match-cap"`

	// DeepAnalysisMin gates the phase-2 call: postings scoring below it
	// keep the heuristic score alone, bounding provider cost.
	DeepAnalysisMin float64 `mapstructure:"deep-analysis-min"`
	// StrongHeuristic switches the blend to favor phase 1 so provider noise
	// cannot discard a clear keyword match.
	StrongHeuristic float64 `mapstructure:"strong-heuristic"`

	Bias Bias `mapstructure:"bias"`

	MediumTierFactor float64 `mapstructure:"medium-tier-factor"`
	LowTierFactor    float64 `mapstructure:"low-tier-factor"`
}

// DefaultConfig returns the tuned scoring table.
func DefaultConfig() Config {
	return Config{
		Base: 25,
		Dimensions: []Dimension{
			{
				Name:   "product_ownership",
				Weight: 14,
				High:   []string{"own the product", "product ownership", "end to end", "0 to 1", "zero to one"},
				Medium: []string{"ship features", "product minded", "product-minded", "customer facing"},
				Low:    []string{"product"},
			},
			{
				Name:   "autonomy",
				Weight: 12,
				High:   []string{"first engineer", "founding engineer", "wear many hats", "high autonomy"},
				Medium: []string{"self-directed", "independent", "small team", "ownership"},
				Low:    []string{"autonomy"},
			},
			{
				Name:   "infrastructure",
				Weight: 12,
				High:   []string{"kubernetes", "terraform", "infrastructure as code", "aws", "gcp"},
				Medium: []string{"docker", "ci/cd", "cloud", "devops"},
				Low:    []string{"linux"},
			},
			{
				Name:   "business_exposure",
				Weight: 10,
				High:   []string{"talk to customers", "customer discovery", "work with founders"},
				Medium: []string{"cross-functional", "stakeholders", "business impact"},
				Low:    []string{"business"},
			},
			{
				Name:   "locale_fit",
				Weight: 8,
				High:   []string{"remote first", "remote-first", "fully remote", "async"},
				Medium: []string{"remote", "flexible hours", "distributed team"},
				Low:    []string{"hybrid"},
			},
			{
				Name:   "bonus_domain",
				Weight: 9,
				High:   []string{"developer tools", "devtools", "open source", "platform engineering"},
				Medium: []string{"api", "sdk", "tooling"},
				Low:    []string{"saas"},
			},
		},
		SkillMatchPoints: 1.5,
		SkillMatchCap:    9,
		DeepAnalysisMin:  45,
		StrongHeuristic:  65,
		Bias: Bias{
			WrongRoleKeywords: []string{"payroll", "accountant", "recruiter", "sales representative", "marketing manager", "support specialist"},
			WrongRolePenalty:  40,
			SmallCompanyMax:   30,
			SmallCompanyBonus: 3,
			RemoteBonus:       2,
			EarlyStages:       []string{"pre-seed", "seed"},
			EarlyStageBonus:   2,
		},
		MediumTierFactor: 0.6,
		LowTierFactor:    0.3,
	}
}
