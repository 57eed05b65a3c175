package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/infrastructure/htmlclean"
)

var _ output.ArtifactStore = (*DiskStore)(nil)

var ErrBadName = errors.New("artifact name must be a plain file name")

// DiskStore writes diagnostics under one directory and temporary uploads
// under another.
type DiskStore struct {
	diagnosticsDir string
	tempDir        string
	clean          *htmlclean.Options
}

func NewDiskStore(diagnosticsDir, tempDir string) (*DiskStore, error) {
	if err := os.MkdirAll(diagnosticsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &DiskStore{diagnosticsDir: diagnosticsDir, tempDir: tempDir, clean: &htmlclean.DefaultOptions}, nil
}

func (s *DiskStore) SaveScreenshot(name string, shot *entity.Screenshot) (string, error) {
	if shot == nil || len(shot.Data) == 0 {
		return "", errors.New("empty screenshot")
	}
	return s.write(s.diagnosticsDir, name, shot.Data)
}

// SaveDOM stores a cleaned copy of html.
func (s *DiskStore) SaveDOM(name string, html string) (string, error) {
	return s.write(s.diagnosticsDir, name, []byte(htmlclean.Clean(html, s.clean)))
}

// CreateTemp writes data to a fresh file whose name ends with name, so the
// upload keeps its extension.
func (s *DiskStore) CreateTemp(name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(s.tempDir, "snapsearch-*-"+name)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Remove deletes path. A file that is already gone is not an error.
func (s *DiskStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) write(dir, name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}
