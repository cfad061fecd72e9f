package scoring

import (
	"strings"
	"testing"
)

func TestDecide(t *testing.T) {
	testCases := []struct {
		name    string
		overall float64
		tech    float64
		missing []string
		want    Outcome
	}{
		{
			name:    "high overall and tech passes",
			overall: 85,
			tech:    70,
			missing: []string{"k1", "k2", "k3", "k4", "k5"},
			want:    OutcomePassed,
		},
		{
			name:    "exact pass thresholds",
			overall: 70,
			tech:    65,
			want:    OutcomePassed,
		},
		{
			name:    "tech below gate blocks pass",
			overall: 95,
			tech:    64,
			missing: []string{"k1", "k2", "k3", "k4"},
			want:    OutcomeBorderline,
		},
		{
			name:    "borderline by overall",
			overall: 55,
			tech:    40,
			missing: []string{"k1", "k2", "k3", "k4"},
			want:    OutcomeBorderline,
		},
		{
			name:    "borderline by tech",
			overall: 45,
			tech:    50,
			missing: []string{"k1", "k2", "k3", "k4"},
			want:    OutcomeBorderline,
		},
		{
			name:    "borderline by few missing skills",
			overall: 20,
			tech:    10,
			missing: []string{"k1", "k2", "k3"},
			want:    OutcomeBorderline,
		},
		{
			name:    "low scores and many gaps rejected",
			overall: 40,
			tech:    30,
			missing: []string{"k1", "k2", "k3", "k4"},
			want:    OutcomeRejected,
		},
		{
			name:    "zero scores with no missing list is borderline",
			overall: 0,
			tech:    0,
			want:    OutcomeBorderline,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Result{
				ScoreOverall:  tc.overall,
				ScoreTech:     tc.tech,
				MissingSkills: tc.missing,
			}
			got := Decide(r, DefaultRules)
			if got != tc.want {
				t.Errorf("Decide() = %q, want %q", got, tc.want)
			}

			// Same inputs must give the same outcome.
			if again := Decide(r, DefaultRules); again != got {
				t.Errorf("Decide() not deterministic: first=%q, second=%q", got, again)
			}
		})
	}
}

func TestDecideCustomRules(t *testing.T) {
	rules := Rules{
		PassOverall:          90,
		PassTech:             90,
		BorderlineOverall:    80,
		BorderlineTech:       80,
		BorderlineMaxMissing: 0,
	}

	r := &Result{ScoreOverall: 85, ScoreTech: 85, MissingSkills: []string{"k1"}}
	if got := Decide(r, rules); got != OutcomeBorderline {
		t.Errorf("Decide() = %q, want %q", got, OutcomeBorderline)
	}

	r = &Result{ScoreOverall: 70, ScoreTech: 70, MissingSkills: []string{"k1"}}
	if got := Decide(r, rules); got != OutcomeRejected {
		t.Errorf("Decide() = %q, want %q", got, OutcomeRejected)
	}
}

func TestFeedbackMessage(t *testing.T) {
	r := &Result{
		Summary:       "Solid junior profile with room to grow.",
		Strengths:     []string{"clear communication", "testing discipline"},
		MissingSkills: []string{"Kubernetes", "Go", "PostgreSQL"},
	}

	msg := FeedbackMessage(r)

	for _, want := range []string{
		"Solid junior profile",
		"clear communication and testing discipline",
		"Kubernetes, Go and PostgreSQL",
		"apply again",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("FeedbackMessage() missing %q in %q", want, msg)
		}
	}
}

func TestFeedbackMessageEmptyResult(t *testing.T) {
	msg := FeedbackMessage(&Result{})
	if msg == "" {
		t.Fatal("FeedbackMessage() returned empty string for empty result")
	}
	if !strings.Contains(msg, "Thank you") {
		t.Errorf("FeedbackMessage() = %q, want fallback opener", msg)
	}
}
