// Package profile holds the long-lived candidate profile. The profile is
// read-only during a cycle and owned by the orchestrator.
package profile

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jobhound/jobhound/internal/errs"
)

// Profile describes the candidate the pipeline works for. There is no safe
// default: a missing or invalid profile refuses startup.
type Profile struct {
	Name         string   `mapstructure:"name" validate:"required"`
	Email        string   `mapstructure:"email" validate:"required,email"`
	Summary      string   `mapstructure:"summary" validate:"required"`
	Skills       []string `mapstructure:"skills" validate:"required,min=1"`
	TargetTitles []string `mapstructure:"target-titles" validate:"required,min=1"`
	SalaryFloor  int      `mapstructure:"salary-floor" validate:"gte=0"`
	Location     string   `mapstructure:"location"`
	RemoteOnly   bool     `mapstructure:"remote-only"`
	ResumeFile   string   `mapstructure:"resume-file"`
}

// Validate checks the profile and tags failures as fatal profile errors.
func (p *Profile) Validate() error {
	if p == nil {
		return errs.E(errs.KindProfile, "validate", fmt.Errorf("profile section is missing"))
	}

	if err := validator.New().Struct(p); err != nil {
		return errs.E(errs.KindProfile, "validate", err)
	}

	return nil
}
