// Package mirror exposes the public types describing a mirror run: the
// actions the engine decides on, the outcome of applying each one, and the
// accumulated run report with its summary counts.
package mirror

import "sync"

// ActionKind identifies the kind of reconciliation action.
type ActionKind string

const (
	ActionCreateFolder ActionKind = "create-folder"
	ActionCreateFile   ActionKind = "create-file"
	ActionUpdateFile   ActionKind = "update-file"
	ActionSkip         ActionKind = "skip"
)

// SkipReason explains why an entry produced a Skip action.
type SkipReason string

const (
	SkipUnchanged       SkipReason = "unchanged"
	SkipUnsupportedType SkipReason = "unsupported-type"
	SkipKindMismatch    SkipReason = "kind-mismatch"
	SkipHidden          SkipReason = "hidden"
	SkipUnreadable      SkipReason = "unreadable"
)

// Action is one planned reconciliation step for a single entry.
// Path is slash-separated and relative to the local root / backup root.
type Action struct {
	Kind   ActionKind
	Path   string
	Reason SkipReason // set for ActionSkip only
}

// Outcome records what happened when an Action was applied.
type Outcome struct {
	// RemoteID is the identifier assigned by the remote service, or the
	// synthetic placeholder in dry-run mode.
	RemoteID string

	// Simulated is true when the action was recorded in dry-run mode and
	// no mutation call was made.
	Simulated bool

	// Err is set when the action failed after exhausting retries.
	Err error
}

// Record pairs an Action with its Outcome.
type Record struct {
	Action  Action
	Outcome Outcome
}

// RunReport accumulates (Action, Outcome) pairs in the order they complete.
// Append is safe for concurrent use so that sibling-file uploads within a
// folder may run in parallel.
type RunReport struct {
	mu      sync.Mutex
	records []Record
}

// Append adds a record to the report.
func (r *RunReport) Append(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of the accumulated records.
func (r *RunReport) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *RunReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Summary holds the end-of-run counts.
type Summary struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Summarize computes the summary counts from the accumulated records.
// A record with a non-nil Outcome.Err counts as failed regardless of kind.
func (r *RunReport) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, rec := range r.records {
		if rec.Outcome.Err != nil {
			s.Failed++
			continue
		}
		switch rec.Action.Kind {
		case ActionCreateFolder, ActionCreateFile:
			s.Created++
		case ActionUpdateFile:
			s.Updated++
		case ActionSkip:
			s.Skipped++
		}
	}
	return s
}
