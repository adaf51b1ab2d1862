// Package orchestrator owns the form state and the outcome of the latest
// prediction submission. Field edits, reference list loads and prediction
// responses all funnel through one Orchestrator, which serialises them behind
// a mutex and drops responses that a newer city change or submission has
// superseded. Presentation code reads immutable Snapshots and never touches
// transport errors directly.
package orchestrator
