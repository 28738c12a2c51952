// Package engine drives the DSAR workflow: a sequential state machine over
// the run record. An external caller invokes one transition at a time; the
// engine never blocks internally. Steps that need a human decision return a
// typed Clarification and leave the run in its pending state until the
// decision is submitted and the engine is invoked again.
//
// Every step invocation appends exactly one audit entry. Guardrail denials
// are not errors: they are recorded, the run keeps its pending state, and
// the same transition is re-evaluated on the next invocation.
package engine
