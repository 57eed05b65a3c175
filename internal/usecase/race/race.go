package race

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/domain/schema"

	"golang.org/x/sync/errgroup"
)

// NetworkSignal is the pending network match; the matcher's Future
// satisfies it.
type NetworkSignal interface {
	Wait(ctx context.Context) (json.RawMessage, error)
}

type Config struct {
	ResultsSelector string
	// UITimeout bounds the wait for the results region. The overall race is
	// still bounded by the deadline given to AwaitResult.
	UITimeout time.Duration
}

type Race struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Race {
	return &Race{cfg: cfg, logger: logger}
}

// AwaitResult succeeds only when both the network payload and the visible
// results region arrive. The payload is validated before it is returned.
func (r *Race) AwaitResult(ctx context.Context, page output.BrowserPage, network NetworkSignal, total time.Duration) (*entity.ImageSearchResults, error) {
	raceCtx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	var (
		netDone atomic.Bool
		uiDone  atomic.Bool
		payload json.RawMessage
	)

	g, gctx := errgroup.WithContext(raceCtx)
	g.Go(func() error {
		p, err := network.Wait(gctx)
		if err != nil {
			return err
		}
		payload = p
		netDone.Store(true)
		r.logger.Debug("Network signal received", "bytes", len(p))
		return nil
	})
	g.Go(func() error {
		uiCtx, uiCancel := context.WithTimeout(gctx, r.cfg.UITimeout)
		defer uiCancel()
		if err := page.WaitVisible(uiCtx, r.cfg.ResultsSelector); err != nil {
			if uiCtx.Err() != nil {
				return uiCtx.Err()
			}
			return entity.NewError(entity.KindUnknown, entity.StageUI, err)
		}
		uiDone.Store(true)
		r.logger.Debug("Results region visible", "selector", r.cfg.ResultsSelector)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, r.classify(ctx, err, netDone.Load(), uiDone.Load())
	}

	results, err := schema.DecodeImageSearchResults(payload)
	if err != nil {
		r.logger.Warn("Payload failed validation", "error", err)
		return nil, entity.NewError(entity.KindPayloadMalformed, entity.StagePayload, err)
	}
	r.logger.Info("Search results captured", "queryId", results.QueryID, "results", len(results.SearchResults))
	return results, nil
}

func (r *Race) classify(parent context.Context, err error, netDone, uiDone bool) error {
	if errors.Is(err, entity.ErrPayloadMalformed) {
		return err
	}
	if perr := parent.Err(); perr != nil && !errors.Is(perr, context.DeadlineExceeded) {
		return entity.ContextError(r.missing(netDone, uiDone), perr)
	}
	if isTimeout(err) {
		stage := r.missing(netDone, uiDone)
		r.logger.Warn("Completion race timed out", "missing", stage)
		return entity.NewError(entity.KindTimeout, stage, err)
	}
	return entity.AsWorkflowError(err, entity.StageNetwork)
}

func (r *Race) missing(netDone, uiDone bool) entity.Stage {
	var stages []entity.Stage
	if !netDone {
		stages = append(stages, entity.StageNetwork)
	}
	if !uiDone {
		stages = append(stages, entity.StageUI)
	}
	return entity.JoinStages(stages...)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		entity.KindOf(err) == entity.KindTimeout
}
