package prompts

import (
	"fmt"
	"strings"

	"github.com/kevinluu/screenline/internal/domain"
)

// ScoringSystemPrompt defines the role and rules for CV evaluation.
const ScoringSystemPrompt = `You are a senior technical recruiter evaluating a candidate's CV against a specific job opening. You score candidates rigorously and consistently so that results are comparable across candidates. You always answer with a single JSON object and nothing else: no markdown, no explanation, no code fences.`

// scoringUserTemplate embeds the job context, the axis weights, and the CV
// text. The oracle must return every key listed in the output schema.
const scoringUserTemplate = `Evaluate the following candidate for the job described below.

## Job Context
Title: %s
Description: %s
Requirements: %s
Required skills: %s
Experience level: %s

## Evaluation Axes and Weights
Score each axis from 0 to 100. The overall score is the weighted combination:
- Technical fit: weight %.2f
- Experience fit: weight %.2f
- Language fit: weight %.2f
- Culture fit: weight %.2f

## CV Text
---
%s
---

## Output
Respond with exactly one JSON object matching this schema, with all score fields numeric in [0,100]:
{
  "score_overall": 0,
  "score_tech": 0,
  "score_experience": 0,
  "score_language": 0,
  "score_culture_fit": 0,
  "strengths": ["..."],
  "weaknesses": ["..."],
  "matched_skills": ["..."],
  "missing_skills": ["..."],
  "summary": "2-3 sentence assessment",
  "notes_for_interviewer": ["..."],
  "recommended_questions": ["..."]
}`

// AxisWeights is the relative importance of the four evaluation axes.
// Weights must sum to 1.0.
type AxisWeights struct {
	Tech       float64
	Experience float64
	Language   float64
	Culture    float64
}

// Sum returns the total of all four weights.
func (w AxisWeights) Sum() float64 {
	return w.Tech + w.Experience + w.Language + w.Culture
}

// DefaultWeights is the 40/30/20/10 split.
var DefaultWeights = AxisWeights{Tech: 0.40, Experience: 0.30, Language: 0.20, Culture: 0.10}

// BuildScoringPrompt renders the user prompt for one candidate evaluation.
// Empty job fields render as "not specified" so a missing job never blocks
// scoring.
func BuildScoringPrompt(job domain.JobContext, weights AxisWeights, cvText string) string {
	return fmt.Sprintf(scoringUserTemplate,
		orUnspecified(job.Title),
		orUnspecified(job.Description),
		orUnspecified(job.Requirements),
		orUnspecified(strings.Join(job.SkillsRequired, ", ")),
		orUnspecified(job.ExperienceLevel),
		weights.Tech, weights.Experience, weights.Language, weights.Culture,
		cvText,
	)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}
