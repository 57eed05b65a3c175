package output

import (
	"time"

	"snapsearch/internal/domain/entity"
)

type MetricsPort interface {
	WorkflowStarted()
	WorkflowFinished(kind entity.ErrorKind, elapsed time.Duration)
	StateEntered(state entity.WorkflowState)
}
