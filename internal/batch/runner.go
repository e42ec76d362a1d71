// Package batch drives extraction across the resolved targets with per-item
// failure isolation: one failing URL never aborts the run, and every started
// target yields exactly one outcome.
package batch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/digibook/digimonitor/internal/extract"
	"github.com/digibook/digimonitor/internal/model"
	"github.com/digibook/digimonitor/internal/platform"
	"github.com/digibook/digimonitor/internal/resilience"
)

// Config tunes a batch run.
type Config struct {
	// Retry is applied to transient extraction failures.
	Retry resilience.RetryConfig
	// Concurrency bounds in-flight targets. Values <= 1 mean sequential
	// processing, the baseline for a shared browser profile.
	Concurrency int
	// PageInterval spaces page loads to stay polite with the platforms.
	// Zero disables the limiter.
	PageInterval time.Duration
	// SkipURLCheck disables the platform/URL shape cross-check.
	SkipURLCheck bool
}

// Runner processes targets against a single extraction collaborator.
type Runner struct {
	extractor extract.Extractor
	cfg       Config
	limiter   *rate.Limiter
}

// NewRunner builds a runner for the given extractor.
func NewRunner(extractor extract.Extractor, cfg Config) *Runner {
	var limiter *rate.Limiter
	if cfg.PageInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.PageInterval), 1)
	}
	return &Runner{extractor: extractor, cfg: cfg, limiter: limiter}
}

// Run processes every target in input order and returns the report as its
// sole result. Cancellation stops new targets from starting; targets already
// in flight finish or time out, and the partial report is still returned.
func (r *Runner) Run(ctx context.Context, targets []model.Target) *model.Report {
	started := time.Now().UTC()

	concurrency := r.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.String("platform", r.extractor.Platform().String()),
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", concurrency),
	)

	// One slot per target; nil means the target was never started. Indexing
	// by input position keeps report order independent of completion order.
	slots := make([]*model.Outcome, len(targets))

	if concurrency == 1 {
		for i, t := range targets {
			if ctx.Err() != nil {
				break
			}
			outcome := r.process(ctx, t)
			slots[i] = &outcome
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, t := range targets {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				outcome := r.process(gctx, t)
				slots[i] = &outcome
				return nil
			})
		}
		_ = g.Wait()
	}

	cancelled := ctx.Err() != nil

	outcomes := make([]model.Outcome, 0, len(targets))
	for _, s := range slots {
		if s != nil {
			outcomes = append(outcomes, *s)
		}
	}

	report := model.NewReport(r.extractor.Platform(), outcomes, started, time.Now().UTC(), cancelled)
	zap.L().Info("batch complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total),
		zap.Bool("cancelled", report.Cancelled),
	)
	return report
}

// process produces exactly one outcome for t, applying retry policy to
// transient failures and recording permanent ones immediately.
func (r *Runner) process(ctx context.Context, t model.Target) model.Outcome {
	start := time.Now()
	log := zap.L().With(
		zap.String("platform", t.Platform.String()),
		zap.String("url", t.URL),
		zap.Int("index", t.Index),
	)

	if !r.cfg.SkipURLCheck && !platform.MatchesPlatform(t.URL, t.Platform) {
		log.Warn("url does not match selected platform")
		return model.Outcome{
			Target:   t,
			Failure:  model.FailurePermanent,
			Reason:   "url does not match platform " + t.Platform.String(),
			Attempts: 0,
			Duration: time.Since(start),
		}
	}

	retryCfg := r.cfg.Retry
	retryCfg.OnRetry = resilience.RetryLogger(t.Platform.String(), t.URL)

	attempts := 0
	payload, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*model.Payload, error) {
		attempts++
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, extract.Transient(err)
			}
		}
		return r.extractor.Extract(ctx, t)
	})

	if err != nil {
		class := extract.Classify(err)
		log.Error("extraction failed",
			zap.String("class", string(class)),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return model.Outcome{
			Target:   t,
			Failure:  class,
			Reason:   err.Error(),
			Attempts: attempts,
			Duration: time.Since(start),
		}
	}

	log.Info("extraction complete",
		zap.Int("fields", len(payload.Fields)),
		zap.Int("comments", len(payload.Comments)),
		zap.Int("attempts", attempts),
	)
	return model.Outcome{
		Target:   t,
		Payload:  payload,
		Attempts: attempts,
		Duration: time.Since(start),
	}
}
