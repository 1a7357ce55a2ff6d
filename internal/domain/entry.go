package domain

import "strings"

// TimeEntry is a finalized work interval. Entries are created by finishing
// an active session (or directly for manual edits) and are immutable except
// through explicit field-level patches.
//
// Timestamps are milliseconds since the Unix epoch, matching the wire
// format consumed by clients.
type TimeEntry struct {
	ID                string   `json:"id"`
	Client            string   `json:"client"`
	Skills            []string `json:"skills"`
	Tasks             string   `json:"tasks"`
	Start             int64    `json:"start"`
	End               int64    `json:"end"`
	PauseMs           int64    `json:"pauseMs"`
	AcknowledgedBreak bool     `json:"acknowledgedBreak"`
}

// GrossMs returns the full interval length.
func (e *TimeEntry) GrossMs() int64 {
	return e.End - e.Start
}

// NetMs returns the interval length minus accumulated pause time.
func (e *TimeEntry) NetMs() int64 {
	return e.End - e.Start - e.PauseMs
}

// TaskLines splits the newline-delimited tasks field into individual
// non-empty task notes.
func (e *TimeEntry) TaskLines() []string {
	var lines []string
	for _, l := range strings.Split(e.Tasks, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Validate checks the creation invariants. A zero start is a legal instant
// (field presence is checked at the API boundary); only ordering and sign
// are enforced here.
func (e *TimeEntry) Validate() error {
	if e.End <= e.Start {
		return &ValidationError{Field: "end", Msg: "end must be after start"}
	}
	if e.PauseMs < 0 {
		return &ValidationError{Field: "pauseMs", Msg: "pause must not be negative"}
	}
	return nil
}

// EntryPatch is a shallow field-level patch for a stored entry. Nil fields
// are left unchanged on the target.
type EntryPatch struct {
	Client            *string   `json:"client,omitempty"`
	Skills            *[]string `json:"skills,omitempty"`
	Tasks             *string   `json:"tasks,omitempty"`
	Start             *int64    `json:"start,omitempty"`
	End               *int64    `json:"end,omitempty"`
	PauseMs           *int64    `json:"pauseMs,omitempty"`
	AcknowledgedBreak *bool     `json:"acknowledgedBreak,omitempty"`
}

// Validate rejects a patch that would move end at or before start. Only
// checked when both bounds are supplied; single-sided edits are validated
// against the stored entry by the caller.
func (p *EntryPatch) Validate() error {
	if p.Start != nil && p.End != nil && *p.End <= *p.Start {
		return &ValidationError{Field: "end", Msg: "end must be after start"}
	}
	return nil
}

// Apply merges the patch into the entry, replacing only supplied fields.
func (p *EntryPatch) Apply(e *TimeEntry) {
	if p.Client != nil {
		e.Client = *p.Client
	}
	if p.Skills != nil {
		e.Skills = *p.Skills
	}
	if p.Tasks != nil {
		e.Tasks = *p.Tasks
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.PauseMs != nil {
		e.PauseMs = *p.PauseMs
	}
	if p.AcknowledgedBreak != nil {
		e.AcknowledgedBreak = *p.AcknowledgedBreak
	}
}
