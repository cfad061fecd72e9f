package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the scoring oracle.
var (
	ErrOracleUnavailable       = errors.New("scoring oracle unavailable")
	ErrOracleMalformedResponse = errors.New("scoring oracle returned malformed response")
)

// Result is the structured evaluation returned by the oracle. All score
// fields are in [0,100].
type Result struct {
	ScoreOverall    float64 `json:"score_overall"`
	ScoreTech       float64 `json:"score_tech"`
	ScoreExperience float64 `json:"score_experience"`
	ScoreLanguage   float64 `json:"score_language"`
	ScoreCultureFit float64 `json:"score_culture_fit"`

	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`

	Summary              string   `json:"summary"`
	NotesForInterviewer  []string `json:"notes_for_interviewer,omitempty"`
	RecommendedQuestions []string `json:"recommended_questions,omitempty"`
}

// wireResult uses pointers for the score fields so a missing field can be
// told apart from a legitimate zero.
type wireResult struct {
	ScoreOverall    *float64 `json:"score_overall"`
	ScoreTech       *float64 `json:"score_tech"`
	ScoreExperience *float64 `json:"score_experience"`
	ScoreLanguage   *float64 `json:"score_language"`
	ScoreCultureFit *float64 `json:"score_culture_fit"`

	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`

	Summary              string   `json:"summary"`
	NotesForInterviewer  []string `json:"notes_for_interviewer"`
	RecommendedQuestions []string `json:"recommended_questions"`
}

// ParseResult turns the oracle's raw completion text into a validated Result.
// The text may wrap the JSON in markdown fences or surrounding commentary.
// A response failing structural validation is an oracle failure, not a valid
// low score.
func ParseResult(raw string) (*Result, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrOracleMalformedResponse)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleMalformedResponse, err)
	}

	scores := map[string]*float64{
		"score_overall":     wire.ScoreOverall,
		"score_tech":        wire.ScoreTech,
		"score_experience":  wire.ScoreExperience,
		"score_language":    wire.ScoreLanguage,
		"score_culture_fit": wire.ScoreCultureFit,
	}
	for field, v := range scores {
		if v == nil {
			return nil, fmt.Errorf("%w: missing %s", ErrOracleMalformedResponse, field)
		}
		if *v < 0 || *v > 100 {
			return nil, fmt.Errorf("%w: %s=%v out of range [0,100]", ErrOracleMalformedResponse, field, *v)
		}
	}

	return &Result{
		ScoreOverall:         *wire.ScoreOverall,
		ScoreTech:            *wire.ScoreTech,
		ScoreExperience:      *wire.ScoreExperience,
		ScoreLanguage:        *wire.ScoreLanguage,
		ScoreCultureFit:      *wire.ScoreCultureFit,
		Strengths:            wire.Strengths,
		Weaknesses:           wire.Weaknesses,
		MatchedSkills:        wire.MatchedSkills,
		MissingSkills:        wire.MissingSkills,
		Summary:              wire.Summary,
		NotesForInterviewer:  wire.NotesForInterviewer,
		RecommendedQuestions: wire.RecommendedQuestions,
	}, nil
}

// extractJSON strips markdown code fences, then isolates the first balanced
// {...} span so commentary around the object is tolerated.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
