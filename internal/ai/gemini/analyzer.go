package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/job"
	"github.com/jobhound/jobhound/internal/logger"
	"github.com/jobhound/jobhound/internal/profile"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// cachedContentGenerator is implemented by generators that can park the
// profile payload in a provider-side cache instead of resending it with
// every per-posting prompt.
type cachedContentGenerator interface {
	contentGenerator
	EnsureProfileCache(ctx context.Context, payload string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
}

// cachedProfileMarker stands in for the profile body when the payload rides
// in the provider-side cache.
const cachedProfileMarker = "(candidate profile provided via cached content)"

// Analyzer asks Gemini for an independent 0-100 posting assessment.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed analyze_prompt.md
var analyzePromptTemplate string

//go:embed generate_prompt.md
var generatePromptTemplate string

const defaultMaxLogLength = 200

func NewAnalyzer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	model := ""
	if m, ok := generator.(interface{ Model() string }); ok {
		model = m.Model()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", model),
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, posting *job.Posting, prof *profile.Profile) (*ai.Estimate, error) {
	if posting == nil {
		return nil, fmt.Errorf("posting is required")
	}
	if prof == nil {
		return nil, fmt.Errorf("profile is required")
	}

	profileJSON, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	postingJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal posting payload: %w", err)
	}

	a.logger.Debug("gemini analyze request",
		zap.String("posting_id", posting.ID),
		zap.Int("posting_payload_length", utf8.RuneCountInString(string(postingJSON))),
		zap.String("posting_preview", logger.TruncateForLog(string(postingJSON), a.maxLogLen)),
	)

	raw, err := a.send(ctx, analyzePromptTemplate, string(profileJSON), string(postingJSON))
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analyze response",
		zap.String("posting_id", posting.ID),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	estimate, err := parseEstimate(raw)
	if err != nil {
		return nil, err
	}

	estimate.Raw = raw
	return estimate, nil
}

// Generate drafts outreach or application copy. Drafts are not tied to a
// posting: a nil posting produces a general-purpose message for warm
// contacts and follow-ups.
func (a *Analyzer) Generate(ctx context.Context, kind ai.Kind, posting *job.Posting, prof *profile.Profile) (string, error) {
	if prof == nil {
		return "", fmt.Errorf("profile is required")
	}

	postingJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal posting payload: %w", err)
	}

	profileJSON, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	template := strings.ReplaceAll(generatePromptTemplate, "{{KIND}}", describeKind(kind))

	text, err := a.send(ctx, template, string(profileJSON), string(postingJSON))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// send routes the prompt through the profile cache when the generator
// supports one; the payload is uploaded once per content hash. A cache
// failure falls back to inlining the profile.
func (a *Analyzer) send(ctx context.Context, template, profileJSON, postingJSON string) (string, error) {
	if c, ok := a.generator.(cachedContentGenerator); ok {
		cacheName, err := c.EnsureProfileCache(ctx, profileJSON)
		if err != nil {
			a.logger.Debug("profile cache unavailable, inlining profile", zap.Error(err))
		} else {
			return c.GenerateContentWithCache(ctx, buildPrompt(template, cachedProfileMarker, postingJSON), cacheName)
		}
	}
	return a.generator.GenerateContent(ctx, buildPrompt(template, profileJSON, postingJSON))
}

func describeKind(kind ai.Kind) string {
	switch kind {
	case ai.KindCoverLetter:
		return "a short cover letter for the application"
	case ai.KindOutreach:
		return "a concise cold outreach email to the founder"
	case ai.KindFollowUp:
		return "a polite follow-up on a previous message"
	default:
		return "a short professional message"
	}
}

func buildPrompt(template, profileJSON, postingJSON string) string {
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nPosting:\n{{POSTING_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", postingJSON)
	return prompt
}

func parseEstimate(raw string) (*ai.Estimate, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}
	score = math.Min(100, math.Max(0, score))

	return &ai.Estimate{
		Score:   score,
		Reasons: coerceStrings(data["reasons"]),
		Message: coerceString(data["message"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}
