package domain

import "strings"

// ActiveSession is the single in-progress work interval. At most one
// exists per storage backend; every operation except start requires one.
//
// PauseStartedAt is non-nil exactly while the session is paused. Pause
// accounting is lazy: accumulated pause time is folded into PauseMs at the
// moment of resume or finish, so the backend never needs a clock tick.
type ActiveSession struct {
	ID                string   `json:"id"`
	Start             int64    `json:"start"`
	PauseMs           int64    `json:"pauseMs"`
	PauseStartedAt    *int64   `json:"pauseStartedAt"`
	AcknowledgedBreak bool     `json:"acknowledgedBreak"`
	Client            string   `json:"client"`
	Tasks             string   `json:"tasks"`
	Skills            []string `json:"skills"`
}

// Paused reports whether the session is currently paused.
func (a *ActiveSession) Paused() bool {
	return a.PauseStartedAt != nil
}

// EffectivePauseMs returns accumulated pause time including the currently
// open pause interval, evaluated at nowMs.
func (a *ActiveSession) EffectivePauseMs(nowMs int64) int64 {
	total := a.PauseMs
	if a.PauseStartedAt != nil {
		total += nowMs - *a.PauseStartedAt
	}
	return total
}

// AppendTask appends one trimmed task line to the newline-delimited tasks
// field. Empty lines are dropped.
func (a *ActiveSession) AppendTask(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if a.Tasks == "" {
		a.Tasks = line
		return
	}
	a.Tasks += "\n" + line
}

// SessionPatch is a partial update for an active session. Nil fields are
// left unchanged. AddTask appends one line to the tasks field instead of
// replacing it; it composes with a simultaneous Tasks replacement by
// applying the replacement first.
type SessionPatch struct {
	Client            *string   `json:"client,omitempty"`
	Tasks             *string   `json:"tasks,omitempty"`
	AddTask           string    `json:"addTask,omitempty"`
	Skills            *[]string `json:"skills,omitempty"`
	AcknowledgedBreak *bool     `json:"acknowledgedBreak,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p *SessionPatch) Empty() bool {
	return p.Client == nil && p.Tasks == nil && p.AddTask == "" &&
		p.Skills == nil && p.AcknowledgedBreak == nil
}

// Apply merges the patch into the session.
func (p *SessionPatch) Apply(a *ActiveSession) {
	if p.Client != nil {
		a.Client = *p.Client
	}
	if p.Tasks != nil {
		a.Tasks = *p.Tasks
	}
	if p.AddTask != "" {
		a.AppendTask(p.AddTask)
	}
	if p.Skills != nil {
		a.Skills = *p.Skills
	}
	if p.AcknowledgedBreak != nil {
		a.AcknowledgedBreak = *p.AcknowledgedBreak
	}
}
