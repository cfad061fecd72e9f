package scoring

import (
	"fmt"
	"strings"

	"github.com/kevinluu/screenline/internal/domain"
)

// Outcome is the screening bucket a candidate lands in.
type Outcome string

const (
	OutcomePassed     Outcome = "passed"
	OutcomeBorderline Outcome = "borderline"
	OutcomeRejected   Outcome = "rejected"
)

// Status maps an outcome to the candidate status it becomes.
func (o Outcome) Status() domain.CandidateStatus {
	switch o {
	case OutcomePassed:
		return domain.StatusScreeningPassed
	case OutcomeBorderline:
		return domain.StatusBorderline
	default:
		return domain.StatusRejected
	}
}

// Rules holds the screening thresholds.
type Rules struct {
	PassOverall          float64
	PassTech             float64
	BorderlineOverall    float64
	BorderlineTech       float64
	BorderlineMaxMissing int
}

// DefaultRules is the reference threshold configuration.
var DefaultRules = Rules{
	PassOverall:          70,
	PassTech:             65,
	BorderlineOverall:    50,
	BorderlineTech:       50,
	BorderlineMaxMissing: 3,
}

// Decide maps a scoring result to an outcome. First matching rule wins:
// technical competence is a hard gate for a full pass, and borderline is a
// wide catch-all routed to human review instead of automatic rejection.
// Pure function of its inputs.
func Decide(r *Result, rules Rules) Outcome {
	if r.ScoreOverall >= rules.PassOverall && r.ScoreTech >= rules.PassTech {
		return OutcomePassed
	}
	if r.ScoreOverall >= rules.BorderlineOverall ||
		r.ScoreTech >= rules.BorderlineTech ||
		len(r.MissingSkills) <= rules.BorderlineMaxMissing {
		return OutcomeBorderline
	}
	return OutcomeRejected
}

// FeedbackMessage builds the human-readable rejection feedback sent to the
// candidate, combining the summary, strengths, and skill gaps.
func FeedbackMessage(r *Result) string {
	var b strings.Builder

	if r.Summary != "" {
		b.WriteString(r.Summary)
	} else {
		b.WriteString("Thank you for taking the time to apply.")
	}

	if len(r.Strengths) > 0 {
		b.WriteString(fmt.Sprintf(" We were impressed by your %s.", joinNatural(r.Strengths)))
	}
	if len(r.MissingSkills) > 0 {
		b.WriteString(fmt.Sprintf(" For this particular role we were looking for stronger experience with %s.", joinNatural(r.MissingSkills)))
	}
	b.WriteString(" We encourage you to apply again as new positions open up.")

	return b.String()
}

// joinNatural renders a list as "a, b and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
