package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kevinluu/screenline/internal/domain"
)

func recorderServer(t *testing.T, bodies *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			*bodies = append(*bodies, body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendInterviewInvitation(t *testing.T) {
	var emails []map[string]interface{}
	srv := recorderServer(t, &emails)

	d := NewDispatcher(Config{
		EmailWebhookURL: srv.URL,
		EmailFrom:       "talent@screenline.dev",
		SchedulingLink:  "https://cal.example.com/interview",
	})

	d.SendInterviewInvitation(context.Background(), "Jane Nguyen", "jane@example.com", "Backend Engineer")

	if len(emails) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(emails))
	}
	body := emails[0]
	if body["to"] != "jane@example.com" {
		t.Errorf("to = %v", body["to"])
	}
	if body["from"] != "talent@screenline.dev" {
		t.Errorf("from = %v", body["from"])
	}
	if body["type"] != "email" {
		t.Errorf("type = %v", body["type"])
	}
	html, _ := body["html"].(string)
	for _, want := range []string{"Jane Nguyen", "Backend Engineer", "https://cal.example.com/interview"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestSendRejectionFeedback(t *testing.T) {
	var emails []map[string]interface{}
	srv := recorderServer(t, &emails)

	d := NewDispatcher(Config{EmailWebhookURL: srv.URL})
	d.SendRejectionFeedback(context.Background(), "Jane Nguyen", "jane@example.com", "Backend Engineer",
		"Strong fundamentals but missing cloud experience.", []string{"Kubernetes", "AWS"})

	if len(emails) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(emails))
	}
	html, _ := emails[0]["html"].(string)
	for _, want := range []string{"Kubernetes", "AWS", "missing cloud experience"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestNotifyRecruiterChannels(t *testing.T) {
	var slackMsgs, teamsMsgs []map[string]interface{}
	slackSrv := recorderServer(t, &slackMsgs)
	teamsSrv := recorderServer(t, &teamsMsgs)

	d := NewDispatcher(Config{
		SlackWebhookURL: slackSrv.URL,
		TeamsWebhookURL: teamsSrv.URL,
		FrontendURL:     "https://hire.example.com",
	})

	d.NotifyRecruiter(context.Background(), "Jane Nguyen", "cand-1", "Backend Engineer", 85, domain.StatusScreeningPassed)

	if len(slackMsgs) != 1 {
		t.Fatalf("slack messages = %d, want 1", len(slackMsgs))
	}
	raw, _ := json.Marshal(slackMsgs[0])
	if !strings.Contains(string(raw), "https://hire.example.com/candidates/cand-1") {
		t.Errorf("slack message missing detail link: %s", raw)
	}

	if len(teamsMsgs) != 1 {
		t.Fatalf("teams messages = %d, want 1", len(teamsMsgs))
	}
	if teamsMsgs[0]["@type"] != "MessageCard" {
		t.Errorf("teams @type = %v", teamsMsgs[0]["@type"])
	}
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	d := NewDispatcher(Config{
		EmailWebhookURL: failing.URL,
		SlackWebhookURL: failing.URL,
		TeamsWebhookURL: failing.URL,
	})

	// None of these may panic or propagate an error.
	ctx := context.Background()
	if ok := d.SendEmail(ctx, "jane@example.com", "subject", "<p>body</p>"); ok {
		t.Error("SendEmail() reported success against a failing webhook")
	}
	d.SendInterviewInvitation(ctx, "Jane", "jane@example.com", "Backend Engineer")
	d.SendRejectionFeedback(ctx, "Jane", "jane@example.com", "Backend Engineer", "feedback", nil)
	d.NotifyRecruiter(ctx, "Jane", "cand-1", "Backend Engineer", 40, domain.StatusRejected)
}

func TestDispatcherUnconfiguredChannels(t *testing.T) {
	d := NewDispatcher(Config{})

	ctx := context.Background()
	if ok := d.SendEmail(ctx, "jane@example.com", "subject", "<p>body</p>"); ok {
		t.Error("SendEmail() reported success without a webhook configured")
	}
	d.NotifyRecruiter(ctx, "Jane", "cand-1", "Backend Engineer", 85, domain.StatusScreeningPassed)
}
