package diagnostics

import (
	"context"
	"errors"
	"testing"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/infrastructure/logger"
	"snapsearch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newCapturer(cfg Config, store *testutil.FakeStore) (*Capturer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCapturer(cfg, store, logger.NewFromZap(zap.New(core)))
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c, logs
}

func TestCapture_NamesAndSequence(t *testing.T) {
	store := testutil.NewFakeStore()
	c, _ := newCapturer(Config{Enabled: true, DOM: true, Timeout: time.Second}, store)
	page := testutil.NewFakePage()
	page.HTMLContent = "<html></html>"

	c.Capture(context.Background(), page, NavSuccess)
	c.Capture(context.Background(), page, "Results Loaded")

	assert.Equal(t, int64(2), c.Seq())
	assert.Equal(t, []string{
		"screenshot-1700000000000-1-nav-success.jpg",
		"screenshot-1700000000000-1-nav-success.html",
		"screenshot-1700000000000-2-results-loaded.jpg",
		"screenshot-1700000000000-2-results-loaded.html",
	}, store.Saved())
}

func TestCapture_CountersArePerCapturer(t *testing.T) {
	store := testutil.NewFakeStore()
	page := testutil.NewFakePage()
	a, _ := newCapturer(Config{Enabled: true, Timeout: time.Second}, store)
	b, _ := newCapturer(Config{Enabled: true, Timeout: time.Second}, store)

	a.Capture(context.Background(), page, NavSuccess)
	a.Capture(context.Background(), page, ResultsLoaded)
	b.Capture(context.Background(), page, NavSuccess)

	assert.Equal(t, int64(2), a.Seq())
	assert.Equal(t, int64(1), b.Seq())
}

func TestCapture_FailuresAreLoggedOnly(t *testing.T) {
	store := testutil.NewFakeStore()
	c, logs := newCapturer(Config{Enabled: true, Timeout: time.Second}, store)
	page := testutil.NewFakePage()
	page.ScreenshotErr = errors.New("target closed")

	assert.NotPanics(t, func() { c.Capture(context.Background(), page, ResultsFailed) })
	assert.Empty(t, store.Saved())
	assert.Equal(t, 1, logs.FilterMessage("Diagnostic screenshot failed").Len())
}

func TestCapture_SurvivesCanceledContext(t *testing.T) {
	store := testutil.NewFakeStore()
	c, _ := newCapturer(Config{Enabled: true, Timeout: time.Second}, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.Capture(ctx, testutil.NewFakePage(), ResultsFailed)
	assert.Len(t, store.Saved(), 1)
}

type panicPage struct{ *testutil.FakePage }

func (panicPage) Screenshot(context.Context) (*entity.Screenshot, error) { panic("boom") }

func TestCapture_RecoversPanic(t *testing.T) {
	c, logs := newCapturer(Config{Enabled: true, Timeout: time.Second}, testutil.NewFakeStore())

	require.NotPanics(t, func() { c.Capture(context.Background(), panicPage{testutil.NewFakePage()}, NavTimeout) })
	assert.Equal(t, 1, logs.FilterMessage("Diagnostic capture panicked").Len())
}

func TestCapture_Disabled(t *testing.T) {
	store := testutil.NewFakeStore()
	c, _ := newCapturer(Config{Enabled: false, Timeout: time.Second}, store)
	page := testutil.NewFakePage()

	c.Capture(context.Background(), page, NavSuccess)
	assert.Zero(t, page.Screenshots())
	assert.Zero(t, c.Seq())
}

func TestInventory_LogsCandidates(t *testing.T) {
	c, logs := newCapturer(Config{Enabled: true, Timeout: time.Second}, testutil.NewFakeStore())
	page := testutil.NewFakePage()
	page.ControlList = []entity.Control{
		{Type: "file", Selector: "#upload-input", Accept: "image/*"},
		{Type: "button", Selector: "#camera", Visible: true},
	}

	c.Inventory(context.Background(), page, "#file")

	entries := logs.FilterMessage("Upload control unavailable").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "#file", fields["selector"])
	assert.Equal(t, []interface{}{"file #upload-input", "button #camera"}, fields["candidates"])
}

type plainPage struct{ output.BrowserPage }

func TestInventory_SkipsPagesWithoutInspector(t *testing.T) {
	c, logs := newCapturer(Config{Enabled: true, Timeout: time.Second}, testutil.NewFakeStore())

	c.Inventory(context.Background(), plainPage{testutil.NewFakePage()}, "#file")
	assert.Zero(t, logs.Len())
}
