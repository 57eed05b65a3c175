package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
)

var ErrNotJSON = errors.New("response body is not valid JSON")

// Matcher watches a page's network traffic for the exchange that carries the
// search payload.
type Matcher struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Matcher {
	return &Matcher{logger: logger}
}

// Future resolves once: with the body of the first matching exchange, or
// with the error that ended the watch.
type Future struct {
	done    chan struct{}
	cancel  context.CancelFunc
	payload json.RawMessage
	err     error
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result is only meaningful after Done is closed.
func (f *Future) Result() (json.RawMessage, error) {
	select {
	case <-f.done:
		return f.payload, f.err
	default:
		return nil, errors.New("matcher: result read before completion")
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-f.done:
		return f.payload, f.err
	case <-ctx.Done():
		return nil, entity.ContextError(entity.StageNetwork, ctx.Err())
	}
}

// Stop ends the watch. A future that already resolved keeps its result.
func (f *Future) Stop() {
	f.cancel()
}

// Watch subscribes to exchanges before returning, so any action taken after
// Watch returns is observed. The future fails with Timeout(network) when
// timeout elapses without a match.
func (m *Matcher) Watch(ctx context.Context, page output.BrowserPage, criterion entity.MatchCriterion, timeout time.Duration) (*Future, error) {
	if timeout <= 0 {
		return nil, entity.NewError(entity.KindUnknown, entity.StageNetwork, fmt.Errorf("invalid watch timeout %s", timeout))
	}

	watchCtx, cancel := context.WithTimeout(ctx, timeout)
	exchanges, err := page.Exchanges(watchCtx)
	if err != nil {
		cancel()
		return nil, entity.AsWorkflowError(err, entity.StageNetwork)
	}

	f := &Future{done: make(chan struct{}), cancel: cancel}
	m.logger.Debug("Response matcher installed", "urlContains", criterion.URLContains, "timeout", timeout)

	go func() {
		defer close(f.done)
		defer cancel()
		f.payload, f.err = m.await(watchCtx, exchanges, criterion)
	}()
	return f, nil
}

func (m *Matcher) await(ctx context.Context, exchanges <-chan entity.Exchange, criterion entity.MatchCriterion) (json.RawMessage, error) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Response matcher gave up", "error", ctx.Err())
			return nil, entity.ContextError(entity.StageNetwork, ctx.Err())

		case ex, ok := <-exchanges:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, entity.ContextError(entity.StageNetwork, err)
				}
				return nil, entity.NewError(entity.KindUnknown, entity.StageNetwork, errors.New("exchange stream closed"))
			}
			if !criterion.Matches(ex) {
				continue
			}
			m.logger.Info("Matched network response", "url", ex.URL, "status", ex.Status)
			return m.capture(ctx, ex)
		}
	}
}

func (m *Matcher) capture(ctx context.Context, ex entity.Exchange) (json.RawMessage, error) {
	if ex.Body == nil {
		return nil, entity.NewError(entity.KindUnknown, entity.StageNetwork, errors.New("matched exchange has no body"))
	}
	body, err := ex.Body(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, entity.ContextError(entity.StageNetwork, ctx.Err())
		}
		return nil, entity.NewError(entity.KindUnknown, entity.StageNetwork, fmt.Errorf("read response body: %w", err))
	}
	if !json.Valid(body) {
		m.logger.Warn("Matched response is not JSON", "url", ex.URL, "bytes", len(body))
		return nil, entity.NewError(entity.KindPayloadMalformed, entity.StageNetwork, ErrNotJSON)
	}
	return json.RawMessage(body), nil
}
