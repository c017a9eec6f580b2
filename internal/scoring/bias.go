package scoring

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/job"
)

// applyBias runs the labeled adjustment pass on top of the blended score.
// Purely additive/subtractive; every adjustment is appended to the reason
// list and logged so the final score stays auditable. The wrong-role check
// runs first and can veto an otherwise-good score.
func (e *Engine) applyBias(p *job.Posting, score float64, scored *Scored) float64 {
	bias := e.cfg.Bias

	apply := func(label string, delta float64) {
		score = clamp(score + delta)
		reason := fmt.Sprintf("%s (%+.0f)", label, delta)
		scored.Reasons = append(scored.Reasons, reason)
		e.logger.Info("bias adjustment",
			zap.String("posting_id", p.ID),
			zap.String("label", label),
			zap.Float64("delta", delta),
			zap.Float64("score", score),
		)
	}

	if bias.WrongRolePenalty > 0 {
		title := strings.ToLower(p.Title)
		text := p.Text()
		for _, kw := range bias.WrongRoleKeywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) || strings.Contains(text, kw) {
				apply("wrong-role: "+kw, -bias.WrongRolePenalty)
				break
			}
		}
	}

	if bias.SmallCompanyBonus > 0 && p.CompanySize > 0 && p.CompanySize <= bias.SmallCompanyMax {
		apply("small company", bias.SmallCompanyBonus)
	}

	if bias.RemoteBonus > 0 && p.Remote {
		apply("remote", bias.RemoteBonus)
	}

	if bias.EarlyStageBonus > 0 && containsAny(strings.ToLower(p.FundingStage), lower(bias.EarlyStages)) {
		apply("early stage", bias.EarlyStageBonus)
	}

	return score
}

func lower(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	return out
}
