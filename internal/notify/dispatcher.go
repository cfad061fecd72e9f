package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/logger"
)

// Config holds the delivery channel settings. Empty webhook URLs disable
// the corresponding channel.
type Config struct {
	EmailWebhookURL string
	EmailFrom       string
	SlackWebhookURL string
	TeamsWebhookURL string
	FrontendURL     string
	SchedulingLink  string
}

// Dispatcher delivers candidate-facing and recruiter-facing messages.
// Every send is best-effort: failures are logged and never propagated, so
// a dead webhook can not fail an analysis task.
type Dispatcher struct {
	client *resty.Client
	cfg    Config
}

// NewDispatcher creates a Dispatcher with a shared HTTP client.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = "noreply@recruitment.com"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}

	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &Dispatcher{client: client, cfg: cfg}
}

type emailPayload struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	From    string `json:"from"`
}

// SendEmail posts an email payload to the email webhook. Returns whether
// delivery was accepted; failure details go to the log only.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, html string) bool {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "notify")

	if d.cfg.EmailWebhookURL == "" {
		log.Warn("Email webhook URL not configured")
		return false
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(emailPayload{
			Type:    "email",
			To:      to,
			Subject: subject,
			HTML:    html,
			From:    d.cfg.EmailFrom,
		}).
		Post(d.cfg.EmailWebhookURL)
	if err != nil {
		log.WithError(err).WithField("to", to).Error("Failed to send email")
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.WithFields(logger.Fields{"to": to, "status_code": resp.StatusCode()}).Error("Email webhook rejected request")
		return false
	}

	log.WithFields(logger.Fields{"to": to, "subject": subject}).Info("Email sent")
	return true
}

type slackMessage struct {
	Text   string        `json:"text"`
	Blocks []interface{} `json:"blocks,omitempty"`
}

func (d *Dispatcher) sendSlack(ctx context.Context, msg slackMessage) bool {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "notify")

	if d.cfg.SlackWebhookURL == "" {
		log.Warn("Slack webhook URL not configured")
		return false
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(d.cfg.SlackWebhookURL)
	if err != nil {
		log.WithError(err).Error("Failed to send Slack notification")
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.WithField("status_code", resp.StatusCode()).Error("Slack webhook rejected request")
		return false
	}

	log.Info("Slack notification sent")
	return true
}

type teamsCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	Summary    string        `json:"summary"`
	ThemeColor string        `json:"themeColor"`
	Title      string        `json:"title"`
	Text       string        `json:"text"`
	Sections   []interface{} `json:"sections,omitempty"`
}

func (d *Dispatcher) sendTeams(ctx context.Context, title, text string, sections []interface{}) bool {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "notify")

	if d.cfg.TeamsWebhookURL == "" {
		log.Warn("Teams webhook URL not configured")
		return false
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(teamsCard{
			Type:       "MessageCard",
			Context:    "https://schema.org/extensions",
			Summary:    title,
			ThemeColor: "0078D4",
			Title:      title,
			Text:       text,
			Sections:   sections,
		}).
		Post(d.cfg.TeamsWebhookURL)
	if err != nil {
		log.WithError(err).Error("Failed to send Teams notification")
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.WithField("status_code", resp.StatusCode()).Error("Teams webhook rejected request")
		return false
	}

	log.Info("Teams notification sent")
	return true
}

// SendInterviewInvitation emails the candidate that screening passed, with a
// scheduling link when one is configured.
func (d *Dispatcher) SendInterviewInvitation(ctx context.Context, candidateName, candidateEmail, jobTitle string) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "notify")

	html, err := renderTemplate(invitationTmpl, invitationData{
		HeaderColor:    "#4CAF50",
		CandidateName:  candidateName,
		JobTitle:       jobTitle,
		SchedulingLink: d.cfg.SchedulingLink,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render invitation email")
		return
	}

	d.SendEmail(ctx, candidateEmail, "Interview invitation - "+jobTitle+" position", html)
}

// SendRejectionFeedback emails the candidate the screening outcome with the
// generated feedback and the skills that fell short.
func (d *Dispatcher) SendRejectionFeedback(ctx context.Context, candidateName, candidateEmail, jobTitle, feedback string, missingSkills []string) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "notify")

	html, err := renderTemplate(rejectionTmpl, rejectionData{
		HeaderColor:   "#2196F3",
		CandidateName: candidateName,
		JobTitle:      jobTitle,
		Feedback:      feedback,
		MissingSkills: missingSkills,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render rejection email")
		return
	}

	d.SendEmail(ctx, candidateEmail, "Application update - "+jobTitle+" position", html)
}

// NotifyRecruiter pushes a screening summary to every configured chat
// channel with a link to the candidate's detail page.
func (d *Dispatcher) NotifyRecruiter(ctx context.Context, candidateName, candidateID, jobTitle string, score float64, status domain.CandidateStatus) {
	emoji := "❌"
	switch status {
	case domain.StatusScreeningPassed:
		emoji = "✅"
	case domain.StatusBorderline:
		emoji = "⚠️"
	}

	detailURL := fmt.Sprintf("%s/candidates/%s", d.cfg.FrontendURL, candidateID)

	d.sendSlack(ctx, slackMessage{
		Text: fmt.Sprintf("%s New candidate: %s", emoji, candidateName),
		Blocks: []interface{}{
			map[string]interface{}{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*New candidate*\n*Name:* %s\n*Position:* %s\n*Score:* %.0f/100\n*Status:* %s",
						candidateName, jobTitle, score, status),
				},
			},
			map[string]interface{}{
				"type": "actions",
				"elements": []interface{}{
					map[string]interface{}{
						"type":  "button",
						"text":  map[string]interface{}{"type": "plain_text", "text": "View details"},
						"url":   detailURL,
						"style": "primary",
					},
				},
			},
		},
	})

	d.sendTeams(ctx,
		fmt.Sprintf("%s New candidate: %s", emoji, candidateName),
		fmt.Sprintf("**Position:** %s\n**Score:** %.0f/100\n**Status:** %s", jobTitle, score, status),
		[]interface{}{
			map[string]interface{}{
				"activityTitle":    candidateName,
				"activitySubtitle": jobTitle,
				"facts": []interface{}{
					map[string]string{"name": "AI score", "value": fmt.Sprintf("%.0f", score)},
					map[string]string{"name": "Status", "value": string(status)},
					map[string]string{"name": "Candidate ID", "value": candidateID},
				},
			},
		},
	)
}
