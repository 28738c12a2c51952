package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/privhq/dsarkit/internal/clarify"
	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/mirror"
	"github.com/privhq/dsarkit/internal/packager"
	"github.com/privhq/dsarkit/internal/sources"
	"github.com/privhq/dsarkit/internal/store"
)

// Engine owns the run records for their lifetime. All mutation goes through
// the store's per-run lock, so concurrent external calls against the same
// request are serialized and gated steps fire at most once.
type Engine struct {
	store     store.RunStore
	ids       IDGenerator
	providers []sources.Provider
	packager  packager.Packager
	mirror    mirror.Notifier
	txns      sources.TransactionSource
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides request ID generation (tests).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithProviders sets the artifact source providers, consulted in order.
func WithProviders(providers ...sources.Provider) Option {
	return func(e *Engine) { e.providers = providers }
}

// WithPackager sets the archive packager used by finalize_delivery.
func WithPackager(p packager.Packager) Option {
	return func(e *Engine) { e.packager = p }
}

// WithMirror sets the one-way step-trace sink.
func WithMirror(m mirror.Notifier) Option {
	return func(e *Engine) { e.mirror = m }
}

// WithTransactionSource sets the transaction history supplier consulted by
// evaluate_legal_basis.
func WithTransactionSource(t sources.TransactionSource) Option {
	return func(e *Engine) { e.txns = t }
}

// WithNow injects the clock (tests).
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine over the given run store.
func New(st store.RunStore, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		ids:    UUIDv7Generator{},
		mirror: mirror.Nop{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitRequest carries everything known at request submission.
type SubmitRequest struct {
	SubjectEmail string
	RequestTypes []dsar.RequestType
	Policy       dsar.Policy
	Upload       *dsar.UploadMeta
}

// Submit creates a new run record in state created.
// Identity confidence is precomputed from the upload metadata; the
// verify_identity step compares it against the policy threshold.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*dsar.Run, error) {
	types := req.RequestTypes
	if len(types) == 0 {
		types = []dsar.RequestType{dsar.RequestAccess}
	}
	conf := uploadConfidence(req.SubjectEmail, req.Upload)

	run := &dsar.Run{
		RequestID:    e.ids.Generate(),
		SubjectEmail: req.SubjectEmail,
		RequestTypes: types,
		State:        dsar.StateCreated,
		Policy:       req.Policy,
		Identity: dsar.Identity{
			PrecomputedConfidence: &conf,
			Upload:                req.Upload,
		},
	}
	if err := e.store.Create(ctx, run); err != nil {
		return nil, err
	}
	e.logger.Info("run submitted",
		"request_id", run.RequestID,
		"subject", run.SubjectEmail,
		"types", types,
	)
	return run, nil
}

// uploadConfidence is the identity-document heuristic: no upload (or an
// empty one) scores 0.10; a filename carrying the subject's mailbox name
// scores 0.95; a generic ID document hint scores 0.60.
func uploadConfidence(subjectEmail string, upload *dsar.UploadMeta) float64 {
	if upload == nil || upload.Size == 0 {
		return 0.10
	}
	name := strings.ToLower(upload.Filename)
	if local, _, ok := strings.Cut(subjectEmail, "@"); ok && local != "" &&
		strings.Contains(name, strings.ToLower(local)) {
		return 0.95
	}
	return 0.60
}

// Advance performs the next transition for the run and returns its result.
// When the next step needs a human decision that is not recorded yet, the
// result carries the pending Clarification and no audit entry is appended.
func (e *Engine) Advance(ctx context.Context, requestID string) (*StepResult, error) {
	var result *StepResult
	run, err := e.store.Update(ctx, requestID, func(run *dsar.Run) error {
		if run.Terminal() {
			return &StepError{
				Code:      CodeRunComplete,
				Message:   "run is complete and read-only",
				RequestID: requestID,
			}
		}
		result = e.step(ctx, run)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logStep(run, result)
	e.mirror.StepCompleted(ctx, mirror.Snapshot{
		RequestID: run.RequestID,
		Step:      result.Step,
		State:     run.State,
		Success:   result.Success,
		Reason:    result.Err,
		AuditLen:  len(run.AuditLog),
	})
	return result, nil
}

// SubmitDecision records a human decision for the currently pending
// clarification. The decision must match the pending kind; anything else is
// rejected with CodeDecisionNotPending and no audit entry.
func (e *Engine) SubmitDecision(ctx context.Context, requestID string, d clarify.Decision) (*dsar.Run, error) {
	return e.store.Update(ctx, requestID, func(run *dsar.Run) error {
		switch d.Kind {
		case clarify.KindIdentity:
			if run.State != dsar.StateIdentityPending {
				return e.notPending(run, d)
			}
			run.Approvals.Identity = &dsar.ApprovalDecision{Decision: d.Decision, Notes: d.Notes}
			if d.Approved() {
				run.Identity.Status = dsar.IdentityVerified
				run.State = dsar.StateIdentityVerified
			}
			run.Append("identity_decision", map[string]any{"decision": d.Decision})

		case clarify.KindCompliance:
			if run.State != dsar.StateAwaitingCompliance {
				return e.notPending(run, d)
			}
			run.Approvals.Compliance = &dsar.ApprovalDecision{
				Decision:      d.Decision,
				Justification: d.Justification,
			}
			run.Approvals.SelectedProposals = d.SelectedProposals
			run.Append("compliance_decision", map[string]any{
				"decision":      d.Decision,
				"selected":      len(d.SelectedProposals),
				"justification": d.Justification != "",
			})

		case clarify.KindLegal:
			if run.State != dsar.StateAwaitingLegal {
				return e.notPending(run, d)
			}
			run.Approvals.Legal = &dsar.ApprovalDecision{Decision: d.Decision, Notes: d.Notes}
			run.Append("legal_decision", map[string]any{"decision": d.Decision})

		default:
			return e.notPending(run, d)
		}
		return nil
	})
}

func (e *Engine) notPending(run *dsar.Run, d clarify.Decision) error {
	return &StepError{
		Code:      CodeDecisionNotPending,
		Message:   "no pending " + string(d.Kind) + " clarification in state " + string(run.State),
		RequestID: run.RequestID,
	}
}

// OverrideIdentityConfidence replaces the precomputed identity confidence
// before verification runs. Used by fixtures that bypass the upload
// heuristic; only valid while the run is still in state created.
func (e *Engine) OverrideIdentityConfidence(ctx context.Context, requestID string, confidence float64) (*dsar.Run, error) {
	return e.store.Update(ctx, requestID, func(run *dsar.Run) error {
		if run.State != dsar.StateCreated {
			return &StepError{
				Code:      CodeRunComplete,
				Message:   "identity confidence can only be set before verification",
				RequestID: requestID,
			}
		}
		c := confidence
		run.Identity.PrecomputedConfidence = &c
		return nil
	})
}

// SetLegalHold toggles the legal hold flag with an audit entry.
func (e *Engine) SetLegalHold(ctx context.Context, requestID string, hold bool) (*dsar.Run, error) {
	return e.store.Update(ctx, requestID, func(run *dsar.Run) error {
		run.Legal.Hold = hold
		run.Append("legal_hold_set", map[string]any{"hold": hold})
		return nil
	})
}

// Run returns a read-only copy of the run record.
func (e *Engine) Run(ctx context.Context, requestID string) (*dsar.Run, error) {
	return e.store.Get(ctx, requestID)
}

func (e *Engine) logStep(run *dsar.Run, result *StepResult) {
	if result.Success {
		e.logger.Info("step completed",
			"request_id", run.RequestID,
			"step", result.Step,
			"state", run.State,
		)
		return
	}
	e.logger.Warn("step did not complete",
		"request_id", run.RequestID,
		"step", result.Step,
		"state", run.State,
		"reason", result.Err,
	)
}
