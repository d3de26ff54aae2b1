package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// MinConcurrency and MaxConcurrency bound the number of workers started per
// queue (spec §4.3: "configurable, 10..50 default").
const (
	MinConcurrency     = 10
	MaxConcurrency     = 50
	DefaultConcurrency = 10
)

func clampConcurrency(n int) int {
	if n <= 0 {
		return DefaultConcurrency
	}
	if n < MinConcurrency {
		return MinConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// EngineResolver looks up the C2 engine a worker should drive for a queue.
// engine.Registry satisfies this structurally.
type EngineResolver interface {
	Get(name interfaces.EngineName) (interfaces.Engine, bool)
}

// RequestProcessor is everything downstream of a settled engine attempt:
// extraction, persistence, crawl-frontier discovery, and progress/job-state
// bookkeeping. The worker pool never touches any of it directly — it only
// drives the fetch attempt and hands off exactly once per request, win or
// lose. ec may be nil when engErr is non-nil; it is non-nil alongside an
// HTTP_ERROR when the adapter captured a best-effort body.
type RequestProcessor interface {
	Process(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error) error
}

// QueueSpec names one (kind, engine) queue a WorkerPool should service.
type QueueSpec struct {
	Kind   models.Kind
	Engine interfaces.EngineName
}

// WorkerPool drains one or more (kind × engine) Redis queues, running each
// request through C1 (proxy selection) and C2 (the engine adapter) before
// delegating to a RequestProcessor — generalized from the teacher's
// queue.WorkerPool, whose single handler-registry becomes per-queue engine
// dispatch here since requests are already partitioned by engine at enqueue
// time.
type WorkerPool struct {
	mgr       *Manager
	engines   EngineResolver
	proxy     interfaces.ProxyRouter
	cancels   interfaces.CancelBroadcaster
	processor RequestProcessor
	logger    arbor.ILogger

	concurrency int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool wires a pool against the given Manager; concurrency is
// clamped to [MinConcurrency, MaxConcurrency] (0 means DefaultConcurrency).
func NewWorkerPool(
	mgr *Manager,
	engines EngineResolver,
	proxy interfaces.ProxyRouter,
	cancels interfaces.CancelBroadcaster,
	processor RequestProcessor,
	logger arbor.ILogger,
	concurrency int,
) *WorkerPool {
	return &WorkerPool{
		mgr:         mgr,
		engines:     engines,
		proxy:       proxy,
		cancels:     cancels,
		processor:   processor,
		logger:      logger,
		concurrency: clampConcurrency(concurrency),
	}
}

// Start launches concurrency workers for each listed queue and returns
// immediately; call Stop to shut them all down.
func (wp *WorkerPool) Start(ctx context.Context, specs []QueueSpec) error {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	for _, spec := range specs {
		q, err := wp.mgr.Queue(wp.ctx, spec.Kind, spec.Engine)
		if err != nil {
			return err
		}
		engine, ok := wp.engines.Get(spec.Engine)
		if !ok {
			wp.logger.Warn().
				Str("kind", string(spec.Kind)).
				Str("engine", string(spec.Engine)).
				Msg("no engine available for queue, skipping")
			continue
		}

		for i := 0; i < wp.concurrency; i++ {
			wp.wg.Add(1)
			go wp.worker(spec, q, engine, i)
		}
	}

	wp.logger.Info().
		Int("queues", len(specs)).
		Int("concurrency_per_queue", wp.concurrency).
		Msg("worker pool started")
	return nil
}

// Stop cancels every worker and waits for them to drain their current
// delivery.
func (wp *WorkerPool) Stop() {
	if wp.cancel == nil {
		return
	}
	wp.logger.Info().Msg("stopping worker pool")
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info().Msg("worker pool stopped")
}

func (wp *WorkerPool) worker(spec QueueSpec, q interfaces.Queue, engine interfaces.Engine, workerID int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		delivery, err := q.Dequeue(wp.ctx)
		if err != nil {
			if wp.ctx.Err() != nil {
				return
			}
			wp.logger.Warn().
				Err(err).
				Str("kind", string(spec.Kind)).
				Str("engine", string(spec.Engine)).
				Int("worker_id", workerID).
				Msg("dequeue failed")
			continue
		}
		if delivery == nil {
			continue // poll timeout, nothing queued
		}

		wp.handle(spec, q, delivery, engine, workerID)
	}
}

func (wp *WorkerPool) handle(spec QueueSpec, q interfaces.Queue, delivery *interfaces.Delivery, engine interfaces.Engine, workerID int) {
	req := delivery.Request
	log := wp.logger.Info().
		Str("job_id", req.UserData.JobID).
		Str("url", req.URL).
		Int("attempt", req.Attempt).
		Int("worker_id", workerID)

	if cancelled, err := wp.cancels.IsCancelled(wp.ctx, req.UserData.JobID); err == nil && cancelled {
		log.Msg("request dropped, job cancelled")
		_ = delivery.Ack(wp.ctx)
		return
	}

	sel, err := wp.proxy.Select(wp.ctx, req.URL, req.UserData.Options.Proxy)
	if err != nil {
		wp.logger.Warn().Err(err).Str("url", req.URL).Msg("proxy selection failed, proceeding direct")
	}

	timeout := scrapeTimeout(req)
	ec, runErr := engine.Run(wp.ctx, req, sel, timeout)

	if runErr != nil {
		wp.proxy.Report(wp.ctx, req.URL, sel, classifyOutcome(runErr))
		if isRetryable(runErr) {
			wp.retryOrFail(spec, q, delivery, req, ec, runErr, workerID)
		} else {
			wp.logger.Warn().
				Err(runErr).
				Str("url", req.URL).
				Int("worker_id", workerID).
				Msg("non-retryable engine error, finalizing")
			wp.finalize(delivery, req, ec, runErr)
		}
		return
	}

	wp.proxy.Report(wp.ctx, req.URL, sel, interfaces.ProxyOutcomeSuccess)

	if err := wp.processor.Process(wp.ctx, req, ec, nil); err != nil {
		wp.logger.Error().Err(err).Str("job_id", req.UserData.JobID).Str("url", req.URL).Msg("request processing failed")
	}
	if err := delivery.Ack(wp.ctx); err != nil {
		wp.logger.Warn().Err(err).Msg("ack failed")
	}
}

// isRetryable reports whether an engine error is one the worker pool should
// redeliver rather than finalize immediately (spec §4.2/§7: only navigation
// timeouts and the transient proxy/tunnel/socks subkinds are retried; a
// deterministic HTTP_ERROR or BROWSER_ERROR is not).
func isRetryable(err error) bool {
	var engErr *interfaces.EngineError
	if !errors.As(err, &engErr) {
		return false
	}
	switch engErr.Kind {
	case interfaces.ErrNavigationTimeout:
		return true
	case interfaces.ErrProxyError:
		return engErr.ProxyKind.Retryable()
	default:
		return false
	}
}

// retryOrFail requeues req with backoff if it has attempts left, otherwise
// hands the terminal failure to the processor and drops it for good.
func (wp *WorkerPool) retryOrFail(spec QueueSpec, q interfaces.Queue, delivery *interfaces.Delivery, req *models.EngineRequest, ec *interfaces.EngineContext, runErr error, workerID int) {
	attempt := req.Attempt + 1

	if attempt < MaxAttempts {
		req.Attempt = attempt
		wp.logger.Warn().
			Err(runErr).
			Str("url", req.URL).
			Int("attempt", attempt).
			Int("worker_id", workerID).
			Msg("engine run failed, requeueing")
		if err := delivery.Nack(wp.ctx, backoffForAttempt(attempt)); err != nil {
			wp.logger.Error().Err(err).Msg("nack failed")
		}
		return
	}

	wp.logger.Error().
		Err(runErr).
		Str("url", req.URL).
		Int("attempts", attempt).
		Msg("engine run exhausted retries, giving up")
	wp.finalize(delivery, req, ec, runErr)
}

// finalize hands a settled (non-retryable, or retry-exhausted) failure to
// the processor — forwarding ec so a best-effort body the adapter captured
// alongside an HTTP_ERROR (spec §4.7) still reaches C7 extraction — and acks
// the delivery either way, since there is nothing left to retry.
func (wp *WorkerPool) finalize(delivery *interfaces.Delivery, req *models.EngineRequest, ec *interfaces.EngineContext, runErr error) {
	if err := wp.processor.Process(wp.ctx, req, ec, runErr); err != nil {
		wp.logger.Error().Err(err).Str("job_id", req.UserData.JobID).Msg("failure processing failed")
	}
	if err := delivery.Ack(wp.ctx); err != nil {
		wp.logger.Warn().Err(err).Msg("ack failed")
	}
}

func scrapeTimeout(req *models.EngineRequest) time.Duration {
	if req.UserData.Options.Timeout > 0 {
		return time.Duration(req.UserData.Options.Timeout) * time.Second
	}
	return 30 * time.Second
}

// classifyOutcome maps an engine error to the C1 outcome it should learn
// from: proxy-kind failures count as blocked (the proxy itself is suspect),
// everything else counts as a generic error.
func classifyOutcome(err error) interfaces.ProxyOutcome {
	var engErr *interfaces.EngineError
	if errors.As(err, &engErr) && engErr.Kind == interfaces.ErrProxyError {
		return interfaces.ProxyOutcomeBlocked
	}
	return interfaces.ProxyOutcomeError
}
