package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"snapsearch/internal/application/port/output"
)

// Checkpoint labels.
const (
	NavSuccess     = "nav-success"
	NavTimeout     = "nav-timeout"
	ControlMissing = "control-missing"
	ResultsLoaded  = "results-loaded"
	ResultsFailed  = "results-failed"
)

type Config struct {
	Enabled bool
	DOM     bool
	Timeout time.Duration
}

// Capturer takes best-effort snapshots of a page. One Capturer serves one
// workflow run; its sequence number orders the snapshots of that run only.
type Capturer struct {
	cfg    Config
	store  output.ArtifactStore
	logger output.LoggerPort
	now    func() time.Time
	seq    atomic.Int64
}

func NewCapturer(cfg Config, store output.ArtifactStore, logger output.LoggerPort) *Capturer {
	return &Capturer{cfg: cfg, store: store, logger: logger, now: time.Now}
}

func (c *Capturer) Seq() int64 {
	return c.seq.Load()
}

// Capture never fails the caller. It runs on its own short deadline that
// survives cancellation of ctx, so failure snapshots still get taken.
func (c *Capturer) Capture(ctx context.Context, page output.BrowserPage, label string) {
	if !c.cfg.Enabled || page == nil || c.store == nil {
		return
	}
	seq := c.seq.Add(1)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Diagnostic capture panicked", "label", label, "seq", seq, "panic", r)
		}
	}()

	capCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	base := fmt.Sprintf("screenshot-%d-%d-%s", c.now().UnixMilli(), seq, sanitize(label))

	shot, err := page.Screenshot(capCtx)
	if err != nil {
		c.logger.Warn("Diagnostic screenshot failed", "label", label, "seq", seq, "error", err)
	} else if path, err := c.store.SaveScreenshot(base+".jpg", shot); err != nil {
		c.logger.Warn("Could not save screenshot", "label", label, "seq", seq, "error", err)
	} else {
		c.logger.Info("Screenshot saved", "label", label, "seq", seq, "path", path)
	}

	if !c.cfg.DOM {
		return
	}
	html, err := page.HTML(capCtx)
	if err != nil {
		c.logger.Warn("Diagnostic DOM dump failed", "label", label, "seq", seq, "error", err)
		return
	}
	if path, err := c.store.SaveDOM(base+".html", html); err != nil {
		c.logger.Warn("Could not save DOM", "label", label, "seq", seq, "error", err)
	} else {
		c.logger.Debug("DOM saved", "label", label, "seq", seq, "path", path)
	}
}

// maxControls caps the inventory logged for a missing upload control.
const maxControls = 20

// Inventory logs the page's candidate upload controls so a wrong selector can
// be corrected without a DOM dump. Pages that cannot list controls are skipped.
func (c *Capturer) Inventory(ctx context.Context, page output.BrowserPage, selector string) {
	inspector, ok := page.(output.ControlInspector)
	if !c.cfg.Enabled || !ok {
		return
	}

	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	controls, err := inspector.Controls(invCtx, maxControls)
	if err != nil && len(controls) == 0 {
		c.logger.Warn("Control inventory failed", "selector", selector, "error", err)
		return
	}

	candidates := make([]string, 0, len(controls))
	for _, ctl := range controls {
		candidates = append(candidates, ctl.Type+" "+ctl.Selector)
	}
	c.logger.Warn("Upload control unavailable", "selector", selector, "candidates", candidates)
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, label)
}
