package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/metrics"
)

// StageName identifies a unit of work within a run.
type StageName string

const (
	StageResolveVersion StageName = "resolve_version"
	StageGenerate       StageName = "generate"
	StagePostProcess    StageName = "post_process"
	StageVerify         StageName = "verify"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is the error a failed run returns: the stage that failed and why.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage StageName, err error) *StageError {
	kind := StageErrorFatal
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		kind = StageErrorCanceled
	}
	if _, ok := errors.AsClassified(err); !ok && kind == StageErrorFatal {
		err = errors.WrapError(err, errors.CategoryInternal, "unclassified stage failure").Fatal().Build()
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

func (k StageErrorKind) result() metrics.ResultLabel {
	if k == StageErrorCanceled {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}

// stage pairs a name with the state it runs in and its work.
type stage struct {
	name  StageName
	state State
	fn    func(ctx context.Context, r *run) error
}
