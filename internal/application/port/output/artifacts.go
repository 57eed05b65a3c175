package output

import "snapsearch/internal/domain/entity"

// ArtifactStore persists diagnostics and owns temporary upload files.
type ArtifactStore interface {
	SaveScreenshot(name string, shot *entity.Screenshot) (string, error)
	SaveDOM(name string, html string) (string, error)
	CreateTemp(name string, data []byte) (string, error)
	Remove(path string) error
}
