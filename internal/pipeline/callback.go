package pipeline

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/logger"
)

// CallbackPayload is the decision summary posted to the external workflow
// orchestrator after an analysis completes.
type CallbackPayload struct {
	CandidateID          string                 `json:"candidateId"`
	Status               domain.CandidateStatus `json:"status"`
	Scores               domain.ScoreBreakdown  `json:"scores"`
	MatchedSkills        []string               `json:"matched_skills"`
	MissingSkills        []string               `json:"missing_skills"`
	Summary              string                 `json:"summary"`
	NotesForInterviewer  []string               `json:"notes_for_interviewer,omitempty"`
	RecommendedQuestions []string               `json:"recommended_questions,omitempty"`
}

// CallbackClient posts the outward workflow callback. Delivery is
// fire-and-forget: failures are logged and never fail the task.
type CallbackClient struct {
	client *resty.Client
	url    string
}

// NewCallbackClient creates a CallbackClient. An empty URL disables the
// callback entirely.
func NewCallbackClient(url string) *CallbackClient {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	return &CallbackClient{client: client, url: url}
}

// Send posts the payload to the workflow callback URL.
func (c *CallbackClient) Send(ctx context.Context, payload *CallbackPayload) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "callback")

	if c.url == "" {
		return
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		log.WithError(err).Warn("Workflow callback failed")
		return
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.WithField("status_code", resp.StatusCode()).Warn("Workflow callback rejected")
		return
	}

	log.Info("Workflow callback sent")
}
