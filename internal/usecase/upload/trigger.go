package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
)

type Mode string

const (
	// ModeBytes hands the image to the page directly, no filesystem involved.
	ModeBytes Mode = "bytes"
	// ModeTempFile writes the image to a local file and points the control at
	// it. Only usable when the browser shares the orchestrator's filesystem.
	ModeTempFile Mode = "tempfile"
)

type Config struct {
	Selector       string
	ControlTimeout time.Duration
	Mode           Mode
}

// ArtifactTracker records files that must be removed when the session ends.
type ArtifactTracker interface {
	Track(path string)
}

type Ack struct {
	Filename string
	MIMEType string
	Bytes    int
	Mode     Mode
}

type Trigger struct {
	cfg    Config
	store  output.ArtifactStore
	logger output.LoggerPort
}

func New(cfg Config, store output.ArtifactStore, logger output.LoggerPort) *Trigger {
	if cfg.Mode == "" {
		cfg.Mode = ModeBytes
	}
	return &Trigger{cfg: cfg, store: store, logger: logger}
}

func (t *Trigger) Selector() string {
	return t.cfg.Selector
}

// Submit waits for the upload control and delivers the image into it. The
// control either receives the whole file or nothing.
func (t *Trigger) Submit(ctx context.Context, page output.BrowserPage, req entity.UploadRequest, tracker ArtifactTracker) (Ack, error) {
	if err := t.waitControl(ctx, page); err != nil {
		return Ack{}, err
	}

	file := req.File()
	deliverCtx, cancel := context.WithTimeout(ctx, t.cfg.ControlTimeout)
	defer cancel()

	var err error
	switch t.cfg.Mode {
	case ModeTempFile:
		err = t.submitTempFile(deliverCtx, page, file, tracker)
	default:
		err = page.InjectFile(deliverCtx, t.cfg.Selector, file)
	}
	if err != nil {
		return Ack{}, t.classify(ctx, entity.StageUpload, err)
	}

	t.logger.Info("Image submitted", "filename", file.Name, "mime", file.MIMEType, "bytes", len(file.Data), "mode", t.cfg.Mode)
	return Ack{Filename: file.Name, MIMEType: file.MIMEType, Bytes: len(file.Data), Mode: t.cfg.Mode}, nil
}

func (t *Trigger) waitControl(ctx context.Context, page output.BrowserPage) error {
	waitCtx, cancel := context.WithTimeout(ctx, t.cfg.ControlTimeout)
	defer cancel()

	t.logger.Debug("Waiting for upload control", "selector", t.cfg.Selector, "timeout", t.cfg.ControlTimeout)
	if err := page.WaitElement(waitCtx, t.cfg.Selector); err != nil {
		t.logger.Warn("Upload control not available", "selector", t.cfg.Selector, "error", err)
		return t.classify(ctx, entity.StageControl, err)
	}
	return nil
}

func (t *Trigger) submitTempFile(ctx context.Context, page output.BrowserPage, file entity.UploadFile, tracker ArtifactTracker) error {
	path, err := t.store.CreateTemp(file.Name, file.Data)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if tracker != nil {
		tracker.Track(path)
	}
	t.logger.Debug("Image written to temp file", "path", path)
	return page.SetFiles(ctx, t.cfg.Selector, []string{path})
}

// classify maps control and injection failures. Our own deadline is
// ControlTimeout while waiting for the control and Timeout{upload} while
// delivering into it; caller cancellation keeps its context meaning.
func (t *Trigger) classify(parent context.Context, stage entity.Stage, err error) error {
	if perr := parent.Err(); perr != nil {
		return entity.ContextError(stage, perr)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) && stage == entity.StageUpload:
		return entity.NewError(entity.KindTimeout, entity.StageUpload, err)
	case errors.Is(err, context.DeadlineExceeded):
		return entity.NewError(entity.KindControlTimeout, entity.StageControl, err)
	case errors.Is(err, output.ErrElementNotFound), errors.Is(err, output.ErrNotFileInput):
		return entity.NewError(entity.KindControlNotFound, entity.StageControl, err)
	case stage == entity.StageControl:
		return entity.NewError(entity.KindControlNotFound, entity.StageControl, err)
	default:
		return entity.AsWorkflowError(err, stage)
	}
}
