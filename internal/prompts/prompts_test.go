package prompts

import (
	"math"
	"strings"
	"testing"

	"github.com/kevinluu/screenline/internal/domain"
)

func TestBuildScoringPrompt(t *testing.T) {
	job := domain.JobContext{
		Title:           "Backend Engineer",
		Description:     "Build and operate recruitment services.",
		Requirements:    "3+ years backend development",
		SkillsRequired:  []string{"Go", "PostgreSQL", "Redis"},
		ExperienceLevel: "mid",
	}
	cvText := "Jane Nguyen. 5 years of experience with Go and PostgreSQL."

	prompt := BuildScoringPrompt(job, DefaultWeights, cvText)

	for _, want := range []string{
		"Title: Backend Engineer",
		"Requirements: 3+ years backend development",
		"Required skills: Go, PostgreSQL, Redis",
		"Experience level: mid",
		"weight 0.40",
		"weight 0.30",
		"weight 0.20",
		"weight 0.10",
		cvText,
		`"score_overall"`,
		`"recommended_questions"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildScoringPromptEmptyJob(t *testing.T) {
	prompt := BuildScoringPrompt(domain.JobContext{}, DefaultWeights, "some cv text")

	if !strings.Contains(prompt, "Title: not specified") {
		t.Error("empty title not rendered as unspecified")
	}
	if !strings.Contains(prompt, "Required skills: not specified") {
		t.Error("empty skills not rendered as unspecified")
	}
	if !strings.Contains(prompt, "some cv text") {
		t.Error("cv text missing from prompt")
	}
}

func TestAxisWeightsSum(t *testing.T) {
	if got := DefaultWeights.Sum(); math.Abs(got-1.0) > 0.001 {
		t.Errorf("DefaultWeights.Sum() = %v, want 1.0", got)
	}
	custom := AxisWeights{Tech: 0.5, Experience: 0.25, Language: 0.125, Culture: 0.125}
	if got := custom.Sum(); got != 1.0 {
		t.Errorf("Sum() = %v, want 1.0", got)
	}
}
