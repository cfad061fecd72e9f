package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/extract"
	"github.com/kevinluu/screenline/internal/logger"
	"github.com/kevinluu/screenline/internal/notify"
	"github.com/kevinluu/screenline/internal/prompts"
	"github.com/kevinluu/screenline/internal/repository"
	"github.com/kevinluu/screenline/internal/scoring"
	"github.com/kevinluu/screenline/internal/storage"
)

// PipelineError wraps a step failure surfaced to the queue layer.
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ProgressReporter records pipeline checkpoints for a task. Reporting is
// observability only; errors are logged, not propagated.
type ProgressReporter interface {
	SetProgress(ctx context.Context, taskID string, progress int, checkpoint string) error
}

// Oracle abstracts the scoring service so tests can stub it.
type Oracle interface {
	Score(ctx context.Context, cvText string, job domain.JobContext, weights *prompts.AxisWeights) (*scoring.Result, error)
}

// Analyzer runs the full analysis workflow for one task: download and
// extract the CV, fetch job context, score, decide, persist, notify, and
// fire the outward callback.
type Analyzer struct {
	storage    storage.ObjectStorage
	extractor  *extract.Extractor
	candidates *repository.CandidateRepository
	jobs       *repository.JobRepository
	activity   *repository.ActivityLogRepository
	oracle     Oracle
	dispatcher *notify.Dispatcher
	callback   *CallbackClient

	rules   scoring.Rules
	weights prompts.AxisWeights
}

// AnalyzerDeps bundles the collaborators an Analyzer needs.
type AnalyzerDeps struct {
	Storage    storage.ObjectStorage
	Extractor  *extract.Extractor
	Candidates *repository.CandidateRepository
	Jobs       *repository.JobRepository
	Activity   *repository.ActivityLogRepository
	Oracle     Oracle
	Dispatcher *notify.Dispatcher
	Callback   *CallbackClient
	Rules      scoring.Rules
	Weights    prompts.AxisWeights
}

// NewAnalyzer creates an Analyzer. Zero rules or weights select the defaults.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	rules := deps.Rules
	if rules == (scoring.Rules{}) {
		rules = scoring.DefaultRules
	}
	weights := deps.Weights
	if weights == (prompts.AxisWeights{}) {
		weights = prompts.DefaultWeights
	}
	return &Analyzer{
		storage:    deps.Storage,
		extractor:  deps.Extractor,
		candidates: deps.Candidates,
		jobs:       deps.Jobs,
		activity:   deps.Activity,
		oracle:     deps.Oracle,
		dispatcher: deps.Dispatcher,
		callback:   deps.Callback,
		rules:      rules,
		weights:    weights,
	}
}

// Pipeline checkpoints reported after each completed phase.
const (
	progressExtracted     = 25
	progressContextLoaded = 30
	progressScored        = 70
	progressDecided       = 80
	progressPersisted     = 90
	progressNotified      = 95
)

// Analyze executes the ordered workflow for one task. On any unrecovered
// error the candidate is marked processing-failed (best-effort) and the
// error is returned so the queue layer applies its retry policy.
func (a *Analyzer) Analyze(ctx context.Context, task domain.AnalysisTask, progress ProgressReporter) error {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "pipeline")
	log.Info("Starting candidate analysis")

	result, err := a.run(ctx, task, progress, log)
	if err != nil {
		// Best-effort failure write; the task error wins over a store error.
		if markErr := a.candidates.MarkProcessingFailed(ctx, task.CandidateID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record processing failure")
		}
		log.WithError(err).Error("Candidate analysis failed")
		return err
	}

	log.WithFields(logger.Fields{
		logger.FieldStatus: string(result.status),
		logger.FieldScore:  result.scoring.ScoreOverall,
	}).Info("Candidate analysis completed")
	return nil
}

type analysisOutcome struct {
	status  domain.CandidateStatus
	scoring *scoring.Result
}

func (a *Analyzer) run(ctx context.Context, task domain.AnalysisTask, progress ProgressReporter, log *logger.Logger) (*analysisOutcome, error) {
	// Phase 1: download and extract the CV.
	key := a.storage.KeyFromURL(task.CVPath)
	data, err := storage.DownloadBytes(ctx, a.storage, key)
	if err != nil {
		return nil, &PipelineError{Step: "download", Err: err}
	}

	doc, err := a.extractor.Extract(data, extract.FormatFromPath(key))
	if err != nil {
		return nil, &PipelineError{Step: "extract", Err: err}
	}
	a.report(ctx, progress, task.TaskID, progressExtracted, "extraction done")

	// Phase 2: job context. A missing job downgrades to an empty context.
	jobCtx, err := a.jobs.GetContext(ctx, task.JobID)
	if err != nil {
		return nil, &PipelineError{Step: "job context", Err: err}
	}
	a.report(ctx, progress, task.TaskID, progressContextLoaded, "context fetched")

	// Phase 3: scoring oracle.
	result, err := a.oracle.Score(ctx, doc.Text, jobCtx, &a.weights)
	if err != nil {
		return nil, &PipelineError{Step: "scoring", Err: err}
	}
	a.report(ctx, progress, task.TaskID, progressScored, "scoring done")

	// Phase 4: decision.
	outcome := scoring.Decide(result, a.rules)
	status := outcome.Status()
	log.WithFields(logger.Fields{
		logger.FieldStatus: string(status),
		logger.FieldScore:  result.ScoreOverall,
	}).Info("Decision made")
	a.report(ctx, progress, task.TaskID, progressDecided, "decision made")

	// Phase 5: persistence, history, activity.
	scores := domain.ScoreBreakdown{
		Overall:    result.ScoreOverall,
		Tech:       result.ScoreTech,
		Experience: result.ScoreExperience,
		Language:   result.ScoreLanguage,
		CultureFit: result.ScoreCultureFit,
	}
	if err := a.candidates.UpdateAnalysis(ctx, task.CandidateID, &repository.AnalysisUpdate{
		Status:     status,
		AIScore:    result.ScoreOverall,
		Scores:     scores,
		AIAnalysis: toJSONMap(result),
		CVText:     doc.Text,
		CVEntities: toJSONMap(doc.Entities),
		Notes:      result.Summary,
	}); err != nil {
		return nil, &PipelineError{Step: "persistence", Err: err}
	}

	if err := a.candidates.AppendStatusHistory(ctx, task.CandidateID, status, "AI analysis: "+result.Summary); err != nil {
		return nil, &PipelineError{Step: "status history", Err: err}
	}

	if err := a.activity.Record(ctx, task.CandidateID, "ai_screening_completed",
		fmt.Sprintf("AI status: %s, Score: %.0f/100", status, result.ScoreOverall),
		domain.JSONMap{
			"scores":         scores,
			"status":         status,
			"matched_skills": result.MatchedSkills,
			"missing_skills": result.MissingSkills,
		}); err != nil {
		// The screening result is already durable; a lost audit row is
		// not worth a retry of the whole task.
		log.WithError(err).Warn("Failed to record activity")
	}
	a.report(ctx, progress, task.TaskID, progressPersisted, "persistence done")

	// Phase 6: notifications. Best-effort by construction.
	a.notifyByStatus(ctx, task, status, result, jobCtx, log)
	a.report(ctx, progress, task.TaskID, progressNotified, "notifications done")

	// Phase 7: outward callback, fire-and-forget.
	a.callback.Send(ctx, &CallbackPayload{
		CandidateID:          task.CandidateID,
		Status:               status,
		Scores:               scores,
		MatchedSkills:        result.MatchedSkills,
		MissingSkills:        result.MissingSkills,
		Summary:              result.Summary,
		NotesForInterviewer:  result.NotesForInterviewer,
		RecommendedQuestions: result.RecommendedQuestions,
	})

	return &analysisOutcome{status: status, scoring: result}, nil
}

// notifyByStatus routes the outcome to the right channels. The recruiter is
// always notified; the candidate is only emailed for an unambiguous outcome,
// borderline cases wait for a human decision.
func (a *Analyzer) notifyByStatus(ctx context.Context, task domain.AnalysisTask, status domain.CandidateStatus, result *scoring.Result, jobCtx domain.JobContext, log *logger.Logger) {
	name, email, err := a.candidates.GetContact(ctx, task.CandidateID)
	if err != nil {
		log.WithError(err).Warn("Failed to load candidate contact, skipping notifications")
		return
	}

	jobTitle := jobCtx.Title
	if jobTitle == "" {
		jobTitle = "Unknown Position"
	}

	a.dispatcher.NotifyRecruiter(ctx, name, task.CandidateID, jobTitle, result.ScoreOverall, status)

	switch status {
	case domain.StatusScreeningPassed:
		a.dispatcher.SendInterviewInvitation(ctx, name, email, jobTitle)
	case domain.StatusRejected:
		a.dispatcher.SendRejectionFeedback(ctx, name, email, jobTitle, scoring.FeedbackMessage(result), result.MissingSkills)
	}
}

func (a *Analyzer) report(ctx context.Context, progress ProgressReporter, taskID string, pct int, checkpoint string) {
	if progress == nil {
		return
	}
	if err := progress.SetProgress(ctx, taskID, pct, checkpoint); err != nil {
		logger.FromContext(ctx).WithError(err).Debug("Failed to report progress")
	}
}

// toJSONMap round-trips a struct through JSON into the persisted map form.
func toJSONMap(v interface{}) domain.JSONMap {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m domain.JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
