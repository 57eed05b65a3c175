package input

import (
	"context"

	"snapsearch/internal/domain/entity"
)

// ImageSearcher runs one visual-search workflow. It never returns without
// having released every resource it acquired.
type ImageSearcher interface {
	Search(ctx context.Context, req entity.UploadRequest) entity.WorkflowResult
}
