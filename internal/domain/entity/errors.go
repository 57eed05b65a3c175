package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindConnectFailed    ErrorKind = "ConnectFailed"
	KindPageCreateFailed ErrorKind = "PageCreateFailed"
	KindControlNotFound  ErrorKind = "ControlNotFound"
	KindControlTimeout   ErrorKind = "ControlTimeout"
	KindTimeout          ErrorKind = "Timeout"
	KindPayloadMalformed ErrorKind = "PayloadMalformed"
	KindUnknown          ErrorKind = "Unknown"
)

// Stage names the suspension point or phase an error originated from.
type Stage string

const (
	StageConnect  Stage = "connect"
	StagePage     Stage = "page"
	StageNavigate Stage = "navigate"
	StageControl  Stage = "control"
	StageUpload   Stage = "upload"
	StageNetwork  Stage = "network"
	StageUI       Stage = "ui"
	StagePayload  Stage = "payload"
)

// JoinStages builds a composite stage such as "network+ui".
func JoinStages(stages ...Stage) Stage {
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		if s != "" {
			parts = append(parts, string(s))
		}
	}
	return Stage(strings.Join(parts, "+"))
}

// WorkflowError is the only error type that leaves the orchestrator.
type WorkflowError struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

var (
	ErrConnectFailed    = &WorkflowError{Kind: KindConnectFailed}
	ErrPageCreateFailed = &WorkflowError{Kind: KindPageCreateFailed}
	ErrControlNotFound  = &WorkflowError{Kind: KindControlNotFound}
	ErrControlTimeout   = &WorkflowError{Kind: KindControlTimeout}
	ErrTimeout          = &WorkflowError{Kind: KindTimeout}
	ErrTimeoutNetwork   = &WorkflowError{Kind: KindTimeout, Stage: StageNetwork}
	ErrTimeoutUI        = &WorkflowError{Kind: KindTimeout, Stage: StageUI}
	ErrPayloadMalformed = &WorkflowError{Kind: KindPayloadMalformed}
	ErrUnknown          = &WorkflowError{Kind: KindUnknown}
)

func NewError(kind ErrorKind, stage Stage, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Stage: stage, Err: err}
}

func (e *WorkflowError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Stage != "" {
		fmt.Fprintf(&sb, "(%s)", e.Stage)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is matches on kind, and on stage when the target names one.
func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}

// ContextError maps a context failure at the given stage onto the taxonomy:
// an expired deadline is a Timeout, a cancellation is Unknown.
func ContextError(stage Stage, err error) *WorkflowError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, stage, err)
	}
	return NewError(KindUnknown, stage, err)
}

// AsWorkflowError returns err as a *WorkflowError, classifying foreign errors
// as Unknown at the given stage.
func AsWorkflowError(err error, stage Stage) *WorkflowError {
	if err == nil {
		return nil
	}
	var we *WorkflowError
	if errors.As(err, &we) {
		return we
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ContextError(stage, err)
	}
	return NewError(KindUnknown, stage, err)
}

func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}
