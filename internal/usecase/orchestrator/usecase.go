package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"snapsearch/internal/application/port/input"
	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/usecase/diagnostics"
	"snapsearch/internal/usecase/matcher"
	"snapsearch/internal/usecase/race"
	"snapsearch/internal/usecase/upload"
)

var _ input.ImageSearcher = (*UseCase)(nil)

var ErrNoEndpoint = errors.New("browser endpoint is not configured")

type Config struct {
	Endpoint          string
	Criterion         entity.MatchCriterion
	ConnectTimeout    time.Duration
	PageTimeout       time.Duration
	NavigationTimeout time.Duration
	CloseTimeout      time.Duration
	Diagnostics       diagnostics.Config
}

type UseCase struct {
	cfg     Config
	browser output.RemoteBrowser
	matcher *matcher.Matcher
	trigger *upload.Trigger
	race    *race.Race
	store   output.ArtifactStore
	metrics output.MetricsPort
	logger  output.LoggerPort
}

func New(
	cfg Config,
	browser output.RemoteBrowser,
	matcher *matcher.Matcher,
	trigger *upload.Trigger,
	race *race.Race,
	store output.ArtifactStore,
	metrics output.MetricsPort,
	logger output.LoggerPort,
) *UseCase {
	return &UseCase{
		cfg:     cfg,
		browser: browser,
		matcher: matcher,
		trigger: trigger,
		race:    race,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// run carries the per-invocation state. Nothing in it is shared between
// concurrent searches.
type run struct {
	id       string
	logger   output.LoggerPort
	capturer *diagnostics.Capturer
	metrics  output.MetricsPort
	state    entity.WorkflowState
	sess     *session
}

func (r *run) enter(state entity.WorkflowState) {
	r.logger.Debug("Workflow state", "from", r.state, "to", state)
	r.state = state
	r.metrics.StateEntered(state)
}

// Search runs one workflow. The session and every artifact are released
// before it returns, whatever the outcome.
func (uc *UseCase) Search(ctx context.Context, req entity.UploadRequest) (result entity.WorkflowResult) {
	log := uc.logger.WithField("run_id", req.ID())
	r := &run{
		id:       req.ID(),
		logger:   log,
		capturer: diagnostics.NewCapturer(uc.cfg.Diagnostics, uc.store, log),
		metrics:  uc.metrics,
		state:    entity.StateIdle,
	}

	start := time.Now()
	uc.metrics.WorkflowStarted()
	log.Info("Search started", "url", req.TargetURL(), "bytes", req.Size(), "mime", req.MIMEType(), "deadline", req.Deadline())

	defer func() {
		if p := recover(); p != nil {
			log.Error("Workflow panicked", "panic", p)
			result = entity.Failed(entity.NewError(entity.KindUnknown, "", fmt.Errorf("panic: %v", p)))
			r.enter(entity.StateFailed)
		}

		r.enter(entity.StateClosing)
		if r.sess != nil {
			_ = r.sess.Close(ctx)
		}
		r.enter(entity.StateDone)

		var kind entity.ErrorKind
		if result.Err != nil {
			kind = result.Err.Kind
		}
		uc.metrics.WorkflowFinished(kind, time.Since(start))
		log.Info("Search finished", "success", result.OK(), "error", kind, "elapsed", time.Since(start), "snapshots", r.capturer.Seq())
	}()

	payload, err := uc.execute(ctx, r, req)
	if err != nil {
		we := entity.AsWorkflowError(err, "")
		log.Error("Search failed", "kind", we.Kind, "stage", we.Stage, "error", we.Err)
		r.enter(entity.StateFailed)
		return entity.Failed(we)
	}
	r.enter(entity.StateSucceeded)
	return entity.Succeeded(payload)
}

func (uc *UseCase) execute(ctx context.Context, r *run, req entity.UploadRequest) (*entity.ImageSearchResults, error) {
	r.enter(entity.StateConnecting)
	if err := uc.connect(ctx, r); err != nil {
		return nil, err
	}
	page := r.sess.page

	r.enter(entity.StateNavigatingIn)
	navErr := uc.navigate(ctx, page, req.TargetURL())
	if navErr != nil && ctx.Err() != nil {
		return nil, entity.ContextError(entity.StageNavigate, ctx.Err())
	}
	r.enter(entity.StateAwaitingNavResult)
	if navErr != nil {
		r.logger.Warn("Navigation did not finish, continuing", "url", req.TargetURL(), "error", navErr)
		r.capturer.Capture(ctx, page, diagnostics.NavTimeout)
	} else {
		r.logger.Info("Navigation complete", "url", req.TargetURL())
		r.capturer.Capture(ctx, page, diagnostics.NavSuccess)
	}

	r.enter(entity.StateInstallingMatcher)
	future, err := uc.matcher.Watch(ctx, page, uc.cfg.Criterion, req.Deadline())
	if err != nil {
		return nil, err
	}
	defer func() {
		future.Stop()
		<-future.Done()
	}()

	r.enter(entity.StateUploading)
	if _, err := uc.trigger.Submit(ctx, page, req, r.sess); err != nil {
		if entity.KindOf(err) == entity.KindControlNotFound || entity.KindOf(err) == entity.KindControlTimeout {
			r.capturer.Capture(ctx, page, diagnostics.ControlMissing)
			r.capturer.Inventory(ctx, page, uc.trigger.Selector())
		}
		return nil, err
	}

	r.enter(entity.StateRacingCompletion)
	results, err := uc.race.AwaitResult(ctx, page, future, req.Deadline())
	if err != nil {
		r.capturer.Capture(ctx, page, diagnostics.ResultsFailed)
		return nil, err
	}
	r.capturer.Capture(ctx, page, diagnostics.ResultsLoaded)
	return results, nil
}

func (uc *UseCase) connect(ctx context.Context, r *run) error {
	if uc.cfg.Endpoint == "" {
		return entity.NewError(entity.KindConnectFailed, entity.StageConnect, ErrNoEndpoint)
	}

	connCtx, cancel := context.WithTimeout(ctx, uc.cfg.ConnectTimeout)
	defer cancel()

	r.logger.Info("Connecting to remote browser", "endpoint", redact(uc.cfg.Endpoint))
	handle, err := uc.browser.Acquire(connCtx, uc.cfg.Endpoint)
	if err != nil {
		return entity.NewError(entity.KindConnectFailed, entity.StageConnect, err)
	}
	r.sess = newSession(uc.cfg.Endpoint, handle, uc.store, r.logger, uc.cfg.CloseTimeout)

	pageCtx, cancelPage := context.WithTimeout(ctx, uc.cfg.PageTimeout)
	defer cancelPage()

	page, err := handle.OpenPage(pageCtx)
	if err != nil {
		return entity.NewError(entity.KindPageCreateFailed, entity.StagePage, err)
	}
	r.sess.page = page
	r.logger.Debug("Page created")
	return nil
}

func (uc *UseCase) navigate(ctx context.Context, page output.BrowserPage, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, uc.cfg.NavigationTimeout)
	defer cancel()
	return page.Navigate(navCtx, target)
}

// redact drops credentials embedded in an endpoint URL.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return endpoint
	}
	u.User = url.User("redacted")
	return u.String()
}
