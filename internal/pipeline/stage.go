package pipeline

import (
	"errors"
	"fmt"
)

// Stage is a step of the per-request translation state machine.
type Stage int

const (
	// StageReceived - request accepted, nothing checked yet.
	StageReceived Stage = iota
	// StageInputValidated - text present, trimmed and within the length cap.
	StageInputValidated
	// StageInputFiltered - the input matched a filter. Terminal.
	StageInputFiltered
	// StageCacheChecked - cache consulted, no usable entry.
	StageCacheChecked
	// StageCacheHit - a filter-passing cached translation was served. Terminal.
	StageCacheHit
	// StageTranslationRequested - the upstream translator was called.
	StageTranslationRequested
	// StageOutputFiltered - the translation has been run through the filters.
	StageOutputFiltered
	// StageEmpty - the translation matched a filter and was discarded. Terminal.
	StageEmpty
	// StageCacheWritten - the translation was cached.
	StageCacheWritten
	// StageHistoryPersisting - history writes were scheduled.
	StageHistoryPersisting
	// StageReturned - the translation was returned. Terminal.
	StageReturned
	// StageFailed - validation or upstream error. Terminal.
	StageFailed
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "RECEIVED"
	case StageInputValidated:
		return "INPUT_VALIDATED"
	case StageInputFiltered:
		return "INPUT_FILTERED"
	case StageCacheChecked:
		return "CACHE_CHECKED"
	case StageCacheHit:
		return "CACHE_HIT"
	case StageTranslationRequested:
		return "TRANSLATION_REQUESTED"
	case StageOutputFiltered:
		return "OUTPUT_FILTERED"
	case StageEmpty:
		return "EMPTY"
	case StageCacheWritten:
		return "CACHE_WRITTEN"
	case StageHistoryPersisting:
		return "HISTORY_PERSISTING"
	case StageReturned:
		return "RETURNED"
	case StageFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if no further transition is allowed.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageInputFiltered, StageCacheHit, StageEmpty, StageReturned, StageFailed:
		return true
	default:
		return false
	}
}

// ErrIllegalTransition is returned when a request skips or repeats a stage.
var ErrIllegalTransition = errors.New("illegal stage transition")

var transitions = map[Stage][]Stage{
	StageReceived:             {StageInputValidated, StageFailed},
	StageInputValidated:       {StageInputFiltered, StageCacheChecked},
	StageCacheChecked:         {StageCacheHit, StageTranslationRequested},
	StageTranslationRequested: {StageOutputFiltered, StageFailed},
	StageOutputFiltered:       {StageEmpty, StageCacheWritten},
	StageCacheWritten:         {StageHistoryPersisting},
	StageHistoryPersisting:    {StageReturned},
}

// Lifecycle tracks the stages one request walks through. It is owned by a
// single request goroutine.
//
// Stage transitions:
//
//	RECEIVED → INPUT_VALIDATED → (INPUT_FILTERED) | CACHE_CHECKED
//	CACHE_CHECKED → (CACHE_HIT) | TRANSLATION_REQUESTED → OUTPUT_FILTERED
//	OUTPUT_FILTERED → (EMPTY) | CACHE_WRITTEN → HISTORY_PERSISTING → (RETURNED)
//	RECEIVED, TRANSLATION_REQUESTED → (FAILED)
type Lifecycle struct {
	stage Stage
	path  []Stage
}

// NewLifecycle creates a lifecycle in StageReceived.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{stage: StageReceived, path: []Stage{StageReceived}}
}

// Stage returns the current stage.
func (l *Lifecycle) Stage() Stage {
	return l.stage
}

// Path returns every stage visited so far, in order.
func (l *Lifecycle) Path() []Stage {
	out := make([]Stage, len(l.path))
	copy(out, l.path)
	return out
}

// Advance moves to next if the transition is allowed.
func (l *Lifecycle) Advance(next Stage) error {
	for _, allowed := range transitions[l.stage] {
		if allowed == next {
			l.stage = next
			l.path = append(l.path, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrIllegalTransition, l.stage, next)
}
