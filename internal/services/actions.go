package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

// ActionRequest describes one one-shot action call. Inputs feeds the
// input-based actions, Text feeds spam analysis and thread summaries.
type ActionRequest struct {
	Action models.ActionType
	Inputs models.EmailInputs
	Text   string
}

// ActionRunner runs one-shot actions and keeps their status slots current.
// Every call is independent; a failure only touches its own result.
type ActionRunner struct {
	composer *Composer
	tracker  StatusTracker
}

func NewActionRunner(composer *Composer, tracker StatusTracker) *ActionRunner {
	return &ActionRunner{composer: composer, tracker: tracker}
}

func (r *ActionRunner) Validate(req *ActionRequest) error {
	switch req.Action {
	case models.ActionSubject, models.ActionCta, models.ActionAbTest, models.ActionPersonalization:
		if fields := req.Inputs.Validate(); fields != nil {
			return &ValidationError{Fields: fields}
		}
	case models.ActionSpam, models.ActionSummary:
		if strings.TrimSpace(req.Text) == "" {
			return &ValidationError{Fields: map[string]string{"text": "Text is required"}}
		}
	default:
		return &ValidationError{Fields: map[string]string{"action": fmt.Sprintf("%q is not a one-shot action", req.Action)}}
	}
	return nil
}

// Run validates req, executes it against the provider, and returns the result.
// Provider failures never surface as errors; they become the action's apology.
func (r *ActionRunner) Run(ctx context.Context, sessionID uuid.UUID, req ActionRequest) (models.ActionResult, error) {
	if err := r.Validate(&req); err != nil {
		return models.ActionResult{}, err
	}

	if err := r.tracker.Begin(ctx, sessionID, req.Action); err != nil {
		slog.Warn("failed to record action start", "session", sessionID, "action", string(req.Action), "error", err)
	}

	result := r.execute(ctx, req)

	// The result is already decided; record it even if the request was cancelled.
	if err := r.tracker.Finish(context.WithoutCancel(ctx), sessionID, req.Action, result.Error); err != nil {
		slog.Warn("failed to record action result", "session", sessionID, "action", string(req.Action), "error", err)
	}

	return result, nil
}

func (r *ActionRunner) execute(ctx context.Context, req ActionRequest) models.ActionResult {
	result := models.ActionResult{Action: req.Action}

	var (
		text string
		err  error
	)

	switch req.Action {
	case models.ActionSubject:
		list := r.composer.SubjectLines(ctx, req.Inputs)
		result.Items, result.Error = list.Items, list.Error
		return result
	case models.ActionCta:
		list := r.composer.CTAs(ctx, req.Inputs)
		result.Items, result.Error = list.Items, list.Error
		return result
	case models.ActionAbTest:
		text, err = r.composer.AbTestSuggestion(ctx, req.Inputs)
	case models.ActionPersonalization:
		text, err = r.composer.PersonalizationIdeas(ctx, req.Inputs)
	case models.ActionSpam:
		text, err = r.composer.AnalyzeSpam(ctx, req.Text)
	case models.ActionSummary:
		text, err = r.composer.SummarizeThread(ctx, req.Text)
	}

	if err != nil {
		slog.Error("action failed", "action", string(req.Action), "error", err)
		result.Error = Apology(req.Action)
		return result
	}

	result.Text = text
	return result
}

// Status returns the status slot of every action for the session.
func (r *ActionRunner) Status(ctx context.Context, sessionID uuid.UUID) ([]models.ActionStatus, error) {
	return r.tracker.Snapshot(ctx, sessionID)
}

// Tracker exposes the tracker so stream operations can share the Body slot.
func (r *ActionRunner) Tracker() StatusTracker {
	return r.tracker
}
