// Package harness provides a conformance testing framework for the DSAR
// workflow engine.
//
// A scenario is one complete run: the harness submits the request against a
// fresh in-memory store, advances the engine until it completes, pauses or
// blocks, answers clarifications from the scenario's decision script, and
// evaluates assertions over the trace and the final run record. Fixed
// request IDs and a frozen clock make traces reproducible, so they can also
// be compared against golden files.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/clarify"
	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/engine"
	"github.com/privhq/dsarkit/internal/packager"
	"github.com/privhq/dsarkit/internal/sources"
	"github.com/privhq/dsarkit/internal/store"
	"github.com/privhq/dsarkit/internal/testutil"
)

// FixedRequestID is the request ID every scenario run uses, so golden
// traces do not vary between executions.
const FixedRequestID = "req-00000000-0000-0000-0000-000000000001"

// defaultNow is the frozen clock used when a scenario does not set one.
const defaultNow = "2026-01-02T00:00:00Z"

// maxSteps bounds the advance loop so a scenario that never terminates
// fails instead of hanging.
const maxSteps = 50

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory SQLite store for isolation,
// a frozen clock, a fixed request ID generator and an in-memory package
// destination.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer func() { _ = st.Close() }()

	now, err := scenarioClock(scenario)
	if err != nil {
		return nil, err
	}

	eng := engine.New(st,
		engine.WithIDGenerator(engine.NewFixedGenerator(FixedRequestID)),
		engine.WithNow(now.Now),
		engine.WithProviders(scenarioProviders(scenario)...),
		engine.WithTransactionSource(sources.StaticTransactions(scenario.Transactions)),
		engine.WithPackager(packager.NewZip(afs.New(), "mem://localhost/dsarkit-harness/"+scenario.Name)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	result := NewResult()

	run, err := submit(ctx, eng, scenario)
	if err != nil {
		return nil, err
	}

	if err := drive(ctx, eng, scenario, run.RequestID, result); err != nil {
		return nil, err
	}

	final, err := eng.Run(ctx, run.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final run: %w", err)
	}
	result.Run = final

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func scenarioClock(scenario *Scenario) (*testutil.FrozenClock, error) {
	raw := scenario.Now
	if raw == "" {
		raw = defaultNow
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario now %q: %w", raw, err)
	}
	return testutil.NewFrozenClock(t), nil
}

// scenarioProviders groups the artifact fixtures into one static provider
// per source, preserving first-seen source order. The first provider also
// seeds the legal hold flag when the scenario asks for it.
func scenarioProviders(scenario *Scenario) []sources.Provider {
	grouped := make(map[string][]dsar.Artifact)
	var order []string
	for _, fixture := range scenario.Artifacts {
		if _, seen := grouped[fixture.Source]; !seen {
			order = append(order, fixture.Source)
		}
		grouped[fixture.Source] = append(grouped[fixture.Source], dsar.Artifact{
			Source:  fixture.Source,
			ID:      fixture.ID,
			Type:    fixture.Type,
			Content: fixture.Content,
		})
	}
	if len(order) == 0 {
		order = []string{"static"}
	}

	providers := make([]sources.Provider, 0, len(order))
	for i, name := range order {
		p := &sources.Static{SourceName: name, Items: grouped[name]}
		if i == 0 && scenario.LegalHold {
			hold := true
			p.Identity = sources.Enrichment{LegalHold: &hold}
		}
		providers = append(providers, p)
	}
	return providers
}

func submit(ctx context.Context, eng *engine.Engine, scenario *Scenario) (*dsar.Run, error) {
	types := make([]dsar.RequestType, 0, len(scenario.RequestTypes))
	for _, t := range scenario.RequestTypes {
		types = append(types, dsar.RequestType(t))
	}

	var upload *dsar.UploadMeta
	if scenario.Upload != nil {
		upload = &dsar.UploadMeta{Filename: scenario.Upload.Filename, Size: scenario.Upload.Size}
	}

	pol := scenario.Policy
	pol.ApplyDefaults()

	run, err := eng.Submit(ctx, engine.SubmitRequest{
		SubjectEmail: scenario.SubjectEmail,
		RequestTypes: types,
		Policy:       pol,
		Upload:       upload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit request: %w", err)
	}

	if scenario.IdentityConfidence != nil {
		run, err = overrideConfidence(ctx, eng, run.RequestID, *scenario.IdentityConfidence)
		if err != nil {
			return nil, err
		}
	}
	return run, nil
}

func overrideConfidence(ctx context.Context, eng *engine.Engine, requestID string, confidence float64) (*dsar.Run, error) {
	run, err := eng.OverrideIdentityConfidence(ctx, requestID, confidence)
	if err != nil {
		return nil, fmt.Errorf("failed to override identity confidence: %w", err)
	}
	return run, nil
}

// drive advances the run until it terminates, pauses with no scripted
// decision left, or blocks twice on the same reason.
func drive(ctx context.Context, eng *engine.Engine, scenario *Scenario, requestID string, result *Result) error {
	decisions := scenario.Decisions
	lastReason := ""

	for i := 0; i < maxSteps; i++ {
		stepResult, err := eng.Advance(ctx, requestID)
		if err != nil {
			if engine.IsRunComplete(err) {
				return nil
			}
			return fmt.Errorf("advance failed: %w", err)
		}

		clarification := ""
		if stepResult.Clarification != nil {
			clarification = stepResult.Clarification.Type
		}
		result.AddStepTrace(stepResult.Step, stepResult.State,
			stepResult.Err == "", stepResult.Err, clarification)

		switch {
		case stepResult.Err != "":
			// Blocked. Stop once the same denial repeats; the first
			// occurrence may be lifted by a scripted decision.
			if stepResult.Err == lastReason {
				return nil
			}
			lastReason = stepResult.Err

		case stepResult.Clarification != nil:
			if len(decisions) == 0 {
				return nil
			}
			step := decisions[0]
			decisions = decisions[1:]
			run, err := eng.SubmitDecision(ctx, requestID, clarify.Decision{
				Kind:              clarify.Kind(step.Kind),
				Decision:          step.Decision,
				Justification:     step.Justification,
				Notes:             step.Notes,
				SelectedProposals: step.SelectedProposals,
			})
			if err != nil {
				return fmt.Errorf("decision %s/%s rejected: %w", step.Kind, step.Decision, err)
			}
			result.AddDecisionTrace(step.Kind, step.Decision, run.State)

			// A denied decision leaves the run paused; without another
			// scripted decision the scenario is over.
			if step.Decision != "approved" && len(decisions) == 0 {
				return nil
			}
		}
	}
	return fmt.Errorf("scenario %s did not settle within %d steps", scenario.Name, maxSteps)
}
