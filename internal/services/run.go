package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"roomspark-backend/internal/events"
	"roomspark-backend/internal/models"
	"roomspark-backend/internal/prompts"
)

type State string

const (
	StateCreated     State = "created"
	StateUploading   State = "uploading"
	StateGenerating  State = "generating"
	StateDiscovering State = "discovering"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
)

var transitions = map[State]State{
	StateCreated:     StateUploading,
	StateUploading:   StateGenerating,
	StateGenerating:  StateDiscovering,
	StateDiscovering: StateComplete,
}

// Run is the record of one end-to-end transformation. It lives only for the
// duration of RunTransformation.
type Run struct {
	ProjectID uuid.UUID
	UserID    string
	Style     string
	State     State
	Upload    *UploadResult
	Generated *GenerationResult
	Products  []models.Product
	Err       *Error
}

func (r *Run) advance(to State) error {
	if r.State == StateComplete || r.State == StateFailed {
		return fmt.Errorf("run is terminal in state %s", r.State)
	}
	if to != StateFailed && transitions[r.State] != to {
		return fmt.Errorf("invalid transition %s -> %s", r.State, to)
	}
	r.State = to
	return nil
}

// RunTransformation uploads raw, restyles it and discovers products in one
// call. A nil projectID creates a project named after the style. The
// returned Run is populated as far as the pipeline got; its Err is also
// returned when the run failed.
func (o *Orchestrator) RunTransformation(ctx context.Context, userID string, projectID uuid.UUID, raw []byte, style string) (*Run, error) {
	// ProjectID stays nil until ownership is settled so a rejected caller
	// never publishes into someone else's project.
	run := &Run{UserID: userID, Style: style, State: StateCreated}

	if userID == "" {
		return run, o.fail(ctx, run, unauthorized(nil))
	}
	if len(raw) == 0 {
		return run, o.fail(ctx, run, newError(KindValidation, "image is required", nil))
	}

	if projectID == uuid.Nil {
		project, err := o.CreateProject(ctx, userID, projectName(style))
		if err != nil {
			return run, o.fail(ctx, run, AsError(err))
		}
		run.ProjectID = project.ID
	} else {
		if _, err := o.authorizeProject(ctx, userID, projectID); err != nil {
			return run, o.fail(ctx, run, AsError(err))
		}
		run.ProjectID = projectID
	}
	o.publish(ctx, run)

	o.move(ctx, run, StateUploading)
	upload, err := o.upload(ctx, userID, run.ProjectID, raw)
	if err != nil {
		return run, o.fail(ctx, run, AsError(err))
	}
	run.Upload = upload

	o.move(ctx, run, StateGenerating)
	generated, err := o.generate(ctx, userID, run.ProjectID, upload.ImageURL, style)
	if err != nil {
		return run, o.fail(ctx, run, AsError(err))
	}
	run.Generated = generated

	o.move(ctx, run, StateDiscovering)
	found, err := o.discover(ctx, userID, run.ProjectID, generated.ImageURL)
	if err != nil {
		return run, o.fail(ctx, run, AsError(err))
	}
	run.Products = found

	o.move(ctx, run, StateComplete)
	o.log.Info().
		Str("project_id", run.ProjectID.String()).
		Str("user_id", userID).
		Int("products", len(found)).
		Msg("transformation complete")
	return run, nil
}

func (o *Orchestrator) move(ctx context.Context, run *Run, to State) {
	if err := run.advance(to); err != nil {
		o.log.Error().Err(err).Str("project_id", run.ProjectID.String()).Msg("pipeline state error")
		return
	}
	o.publish(ctx, run)
}

func (o *Orchestrator) fail(ctx context.Context, run *Run, err *Error) *Error {
	from := run.State
	_ = run.advance(StateFailed)
	run.Err = err
	o.log.Error().
		Err(err).
		Str("project_id", run.ProjectID.String()).
		Str("user_id", run.UserID).
		Str("from", string(from)).
		Str("kind", string(err.Kind)).
		Msg("transformation failed")
	o.publish(ctx, run)
	return err
}

func (o *Orchestrator) publish(ctx context.Context, run *Run) {
	if run.ProjectID == uuid.Nil {
		return
	}
	event := events.Event{
		ProjectID: run.ProjectID,
		UserID:    run.UserID,
		State:     string(run.State),
		At:        time.Now().UTC(),
	}
	if run.Err != nil {
		event.Error = run.Err.Message
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.log.Warn().Err(err).Str("project_id", run.ProjectID.String()).Str("state", event.State).Msg("failed to publish pipeline event")
	}
}

func projectName(style string) string {
	s := prompts.ParseStyle(style)
	if s == prompts.StyleGeneric {
		return "Room redesign"
	}
	return fmt.Sprintf("%s room", s.Title())
}
