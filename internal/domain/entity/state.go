package entity

type WorkflowState string

const (
	StateIdle              WorkflowState = "idle"
	StateConnecting        WorkflowState = "connecting"
	StateNavigatingIn      WorkflowState = "navigating_in"
	StateAwaitingNavResult WorkflowState = "awaiting_nav_result"
	StateInstallingMatcher WorkflowState = "installing_matcher"
	StateUploading         WorkflowState = "uploading"
	StateRacingCompletion  WorkflowState = "racing_completion"
	StateSucceeded         WorkflowState = "succeeded"
	StateFailed            WorkflowState = "failed"
	StateClosing           WorkflowState = "closing"
	StateDone              WorkflowState = "done"
)

func (s WorkflowState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateDone
}
