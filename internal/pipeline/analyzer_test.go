package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinluu/screenline/internal/config"
	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/extract"
	"github.com/kevinluu/screenline/internal/notify"
	"github.com/kevinluu/screenline/internal/prompts"
	"github.com/kevinluu/screenline/internal/repository"
	"github.com/kevinluu/screenline/internal/scoring"
	"github.com/kevinluu/screenline/internal/storage"
)

type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrStorageUnavailable, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) SignedUploadURL(ctx context.Context, key string, ttl time.Duration) (*storage.SignedUpload, error) {
	return &storage.SignedUpload{UploadURL: "http://blob.test/" + key, Key: key, ExpiresIn: ttl}, nil
}

func (f *fakeStorage) GetURL(key string) string           { return "http://blob.test/" + key }
func (f *fakeStorage) KeyFromURL(pathOrURL string) string { return pathOrURL }

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

type fakeOracle struct {
	result *scoring.Result
	err    error
}

func (f *fakeOracle) Score(ctx context.Context, cvText string, job domain.JobContext, weights *prompts.AxisWeights) (*scoring.Result, error) {
	return f.result, f.err
}

type progressRecorder struct {
	mu          sync.Mutex
	checkpoints []string
	values      []int
}

func (p *progressRecorder) SetProgress(ctx context.Context, taskID string, progress int, checkpoint string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkpoints = append(p.checkpoints, checkpoint)
	p.values = append(p.values, progress)
	return nil
}

// webhookRecorder captures every request body posted to it.
type webhookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
	srv    *httptest.Server
}

func newWebhookRecorder(t *testing.T) *webhookRecorder {
	t.Helper()
	rec := &webhookRecorder{}
	rec.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			rec.mu.Lock()
			rec.bodies = append(rec.bodies, body)
			rec.mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(rec.srv.Close)
	return rec
}

func (r *webhookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func (r *webhookRecorder) body(i int) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[i]
}

func buildCVDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	require.NoError(t, err)
	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type analyzerFixture struct {
	analyzer   *Analyzer
	candidates *repository.CandidateRepository
	progress   *progressRecorder
	email      *webhookRecorder
	slack      *webhookRecorder
	callback   *webhookRecorder
}

func newAnalyzerFixture(t *testing.T, oracle Oracle) *analyzerFixture {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        t.TempDir() + "/screenline_test.db",
		AutoMigrate: true,
	})
	require.NoError(t, err)

	candidateRepo := repository.NewCandidateRepository(db)
	jobRepo := repository.NewJobRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	require.NoError(t, candidateRepo.Create(context.Background(), &domain.Candidate{
		ID:       "cand-1",
		FullName: "Jane Nguyen",
		Email:    "jane@example.com",
		JobID:    "job-1",
		CVPath:   "cvs/cand-1.docx",
		Status:   domain.StatusPending,
	}))
	require.NoError(t, db.Create(&domain.JobPosting{
		ID:             "job-1",
		Title:          "Backend Engineer",
		SkillsRequired: domain.StringArray{"Go", "PostgreSQL"},
	}).Error)

	store := &fakeStorage{objects: map[string][]byte{
		"cvs/cand-1.docx": buildCVDocx(t, "Go developer with 5 years of experience. jane@example.com"),
	}}

	email := newWebhookRecorder(t)
	slack := newWebhookRecorder(t)
	callback := newWebhookRecorder(t)

	analyzer := NewAnalyzer(AnalyzerDeps{
		Storage:    store,
		Extractor:  extract.NewExtractor(nil),
		Candidates: candidateRepo,
		Jobs:       jobRepo,
		Activity:   activityRepo,
		Oracle:     oracle,
		Dispatcher: notify.NewDispatcher(notify.Config{
			EmailWebhookURL: email.srv.URL,
			SlackWebhookURL: slack.srv.URL,
		}),
		Callback: NewCallbackClient(callback.srv.URL),
	})

	return &analyzerFixture{
		analyzer:   analyzer,
		candidates: candidateRepo,
		progress:   &progressRecorder{},
		email:      email,
		slack:      slack,
		callback:   callback,
	}
}

func testTask() domain.AnalysisTask {
	return domain.AnalysisTask{
		TaskID:      "task-1",
		CandidateID: "cand-1",
		CVPath:      "cvs/cand-1.docx",
		JobID:       "job-1",
		Attempt:     1,
	}
}

func TestAnalyzePassed(t *testing.T) {
	fix := newAnalyzerFixture(t, &fakeOracle{result: &scoring.Result{
		ScoreOverall:    85,
		ScoreTech:       70,
		ScoreExperience: 80,
		ScoreLanguage:   90,
		ScoreCultureFit: 75,
		MatchedSkills:   []string{"Go"},
		Summary:         "Strong backend candidate.",
	}})

	err := fix.analyzer.Analyze(context.Background(), testTask(), fix.progress)
	require.NoError(t, err)

	candidate, err := fix.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScreeningPassed, candidate.Status)
	assert.Equal(t, 85.0, candidate.AIScore)
	assert.Contains(t, candidate.CVText, "Go developer")
	assert.Equal(t, "Strong backend candidate.", candidate.Notes)

	require.Len(t, candidate.StatusHistory, 1)
	assert.Equal(t, domain.StatusScreeningPassed, candidate.StatusHistory[0].Status)
	assert.Contains(t, candidate.StatusHistory[0].Reason, "Strong backend candidate.")

	// Interview invitation plus recruiter chat notification plus callback.
	require.Equal(t, 1, fix.email.count())
	assert.Equal(t, "jane@example.com", fix.email.body(0)["to"])
	assert.Contains(t, fix.email.body(0)["subject"], "Interview invitation")
	assert.Equal(t, 1, fix.slack.count())

	require.Equal(t, 1, fix.callback.count())
	assert.Equal(t, "screening-passed", fix.callback.body(0)["status"])
	assert.Equal(t, "cand-1", fix.callback.body(0)["candidateId"])

	assert.Equal(t, []string{
		"extraction done", "context fetched", "scoring done",
		"decision made", "persistence done", "notifications done",
	}, fix.progress.checkpoints)
	for i := 1; i < len(fix.progress.values); i++ {
		assert.GreaterOrEqual(t, fix.progress.values[i], fix.progress.values[i-1])
	}
}

func TestAnalyzeRejected(t *testing.T) {
	fix := newAnalyzerFixture(t, &fakeOracle{result: &scoring.Result{
		ScoreOverall:  40,
		ScoreTech:     30,
		MissingSkills: []string{"k1", "k2", "k3", "k4"},
		Summary:       "Large skill gaps for this role.",
	}})

	err := fix.analyzer.Analyze(context.Background(), testTask(), fix.progress)
	require.NoError(t, err)

	candidate, err := fix.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, candidate.Status)

	require.Equal(t, 1, fix.email.count())
	assert.Contains(t, fix.email.body(0)["subject"], "Application update")
	assert.Contains(t, fix.email.body(0)["html"], "k1")
	assert.Equal(t, 1, fix.slack.count())
	assert.Equal(t, 1, fix.callback.count())
	assert.Equal(t, "rejected", fix.callback.body(0)["status"])
}

func TestAnalyzeBorderline(t *testing.T) {
	fix := newAnalyzerFixture(t, &fakeOracle{result: &scoring.Result{
		ScoreOverall:  55,
		ScoreTech:     40,
		MissingSkills: []string{"k1", "k2", "k3", "k4"},
		Summary:       "Mixed signals, needs a human look.",
	}})

	err := fix.analyzer.Analyze(context.Background(), testTask(), fix.progress)
	require.NoError(t, err)

	candidate, err := fix.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBorderline, candidate.Status)

	// No candidate-facing email for an ambiguous outcome; the recruiter is
	// still notified and the callback still fires.
	assert.Equal(t, 0, fix.email.count())
	assert.Equal(t, 1, fix.slack.count())
	require.Equal(t, 1, fix.callback.count())
	assert.Equal(t, "borderline", fix.callback.body(0)["status"])
}

func TestAnalyzeOracleFailure(t *testing.T) {
	fix := newAnalyzerFixture(t, &fakeOracle{err: scoring.ErrOracleUnavailable})

	err := fix.analyzer.Analyze(context.Background(), testTask(), fix.progress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scoring.ErrOracleUnavailable))

	var pErr *PipelineError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "scoring", pErr.Step)

	candidate, getErr := fix.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusProcessingFailed, candidate.Status)
	assert.Contains(t, candidate.Notes, "Analysis failed:")

	// The failure branch writes status and notes only.
	assert.Empty(t, candidate.StatusHistory)

	assert.Equal(t, 0, fix.email.count())
	assert.Equal(t, 0, fix.slack.count())
	assert.Equal(t, 0, fix.callback.count())
}

func TestAnalyzeMissingCV(t *testing.T) {
	fix := newAnalyzerFixture(t, &fakeOracle{result: &scoring.Result{ScoreOverall: 85, ScoreTech: 70}})

	task := testTask()
	task.CVPath = "cvs/does-not-exist.docx"

	err := fix.analyzer.Analyze(context.Background(), task, fix.progress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrStorageUnavailable))

	candidate, getErr := fix.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusProcessingFailed, candidate.Status)
}
