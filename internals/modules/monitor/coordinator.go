package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/internals/modules/notification"
	"endpoint-monitor/internals/modules/probe"
	"endpoint-monitor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

type EndpointStore interface {
	ListDue(ctx context.Context, q endpoint.DueQuery) ([]endpoint.Endpoint, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status endpoint.Status, checkedAt time.Time, responseTimeMs int64) (endpoint.Endpoint, error)
}

type ObservationStore interface {
	Append(ctx context.Context, cmd endpoint.AppendLogCmd) (endpoint.MonitorLog, error)
}

type Dispatcher interface {
	OnStatusChange(ctx context.Context, ep endpoint.Endpoint, newStatus endpoint.Status) (notification.Notification, error)
}

type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration, headers map[string]string) (probe.Outcome, error)
}

type Recorder interface {
	ObserveCheck(status string, elapsed time.Duration)
	CheckFailed(stage string)
	ObserveTick(selected int, d time.Duration, err error)
}

// Deps are the collaborators of a Coordinator. Cache and Metrics are optional.
type Deps struct {
	Endpoints    EndpointStore
	Observations ObservationStore
	Dispatcher   Dispatcher
	Prober       Prober
	Cache        endpoint.StatusCache
	Metrics      Recorder
}

type Options struct {
	Staleness          time.Duration
	BatchSize          int
	Concurrency        int
	HonorCheckInterval bool
}

// CheckResult is what one pass of the check pipeline produced. Notification
// is nil when the status did not change.
type CheckResult struct {
	Observation  endpoint.MonitorLog        `json:"observation"`
	Status       endpoint.Status            `json:"status"`
	Endpoint     endpoint.Endpoint          `json:"endpoint"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

type TickReport struct {
	Selected    int
	Checked     int
	Failed      int
	Transitions int
	Duration    time.Duration
}

// Coordinator selects due endpoints, probes them with bounded concurrency
// and persists every result.
type Coordinator struct {
	deps   Deps
	opts   Options
	logger *zerolog.Logger
	now    func() time.Time
}

func NewCoordinator(deps Deps, opts Options, logger *zerolog.Logger) *Coordinator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Coordinator{
		deps:   deps,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// RunTick checks every endpoint due at now and returns once all of them have
// settled. Only a failed selection is returned as an error; per-endpoint
// failures are logged and counted in the report.
func (c *Coordinator) RunTick(ctx context.Context, now time.Time) (TickReport, error) {
	const op = "service.monitor.run_tick"
	start := time.Now()

	eps, err := c.deps.Endpoints.ListDue(ctx, endpoint.DueQuery{
		Now:                now,
		Staleness:          c.opts.Staleness,
		Limit:              c.opts.BatchSize,
		HonorCheckInterval: c.opts.HonorCheckInterval,
	})
	if err != nil {
		c.observeTick(0, time.Since(start), err)
		c.logger.Error().Err(err).Msg("tick aborted: due endpoint selection failed")
		return TickReport{}, apperror.New(apperror.Dependency, op, err)
	}

	var (
		sem         = semaphore.NewWeighted(int64(c.opts.Concurrency))
		wg          sync.WaitGroup
		checked     atomic.Int64
		failed      atomic.Int64
		transitions atomic.Int64
	)

	for i, ep := range eps {
		if err := sem.Acquire(ctx, 1); err != nil {
			skipped := len(eps) - i
			failed.Add(int64(skipped))
			c.logger.Warn().Err(err).Int("skipped", skipped).Msg("tick interrupted before all endpoints were dispatched")
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					c.logger.Error().
						Str("endpoint_id", ep.ID.String()).
						Interface("panic", r).
						Msg("check pipeline panicked")
				}
			}()

			res, err := c.check(ctx, ep)
			if err != nil {
				failed.Add(1)
				c.logger.Error().
					Err(err).
					Str("endpoint_id", ep.ID.String()).
					Msg("endpoint check failed")
				return
			}
			checked.Add(1)
			if res.Notification != nil {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()

	report := TickReport{
		Selected:    len(eps),
		Checked:     int(checked.Load()),
		Failed:      int(failed.Load()),
		Transitions: int(transitions.Load()),
		Duration:    time.Since(start),
	}
	c.observeTick(report.Selected, report.Duration, nil)

	c.logger.Info().
		Int("selected", report.Selected).
		Int("checked", report.Checked).
		Int("failed", report.Failed).
		Int("transitions", report.Transitions).
		Dur("duration", report.Duration).
		Msg("tick completed")

	return report, nil
}

// CheckEndpointNow runs the check pipeline for ep synchronously and returns
// any persistence error to the caller.
func (c *Coordinator) CheckEndpointNow(ctx context.Context, ep endpoint.Endpoint) (CheckResult, error) {
	res, err := c.check(ctx, ep)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint_id", ep.ID.String()).Msg("manual check failed")
		return res, err
	}
	return res, nil
}

// check is the per-endpoint pipeline. ep.Status is the prior status read at
// selection and decides whether a notification is raised.
func (c *Coordinator) check(ctx context.Context, ep endpoint.Endpoint) (CheckResult, error) {
	const op = "service.monitor.check"

	// elapsed covers the whole probe call, request setup included
	started := time.Now()
	outcome, err := c.deps.Prober.Probe(ctx, ep.Url, ep.Timeout(), ep.Headers)
	elapsed := time.Since(started)
	if err != nil {
		outcome = probe.Failed(probe.ErrInvalidRequest, err.Error(), elapsed)
	}
	// a cancelled caller would otherwise be recorded as an outage
	if ctx.Err() != nil {
		return CheckResult{}, apperror.New(apperror.RequestTimeout, op, ctx.Err())
	}
	if outcome.Elapsed > elapsed {
		elapsed = outcome.Elapsed
	}

	elapsedMs := elapsed.Milliseconds()
	status := Classify(outcome, elapsedMs, int64(ep.TimeoutMs))
	checkedAt := c.now()

	obs, err := c.deps.Observations.Append(ctx, endpoint.AppendLogCmd{
		EndpointID:     ep.ID,
		Timestamp:      checkedAt,
		Success:        outcome.Success,
		StatusCode:     outcome.StatusCode,
		ResponseTimeMs: elapsedMs,
		ErrorMessage:   outcome.ErrorMessage,
		ErrorType:      outcome.ErrorType,
	})
	if err != nil {
		c.checkFailed("append_observation")
		return CheckResult{}, stageError(op, "append observation", err)
	}

	updated, err := c.deps.Endpoints.UpdateStatus(ctx, ep.ID, status, checkedAt, elapsedMs)
	if err != nil {
		c.checkFailed("update_status")
		return CheckResult{Observation: obs, Status: status}, stageError(op, "update status", err)
	}

	// the row is authoritative from here on; the snapshot follows it even
	// when the notification below fails
	c.storeSnapshot(ctx, obs, status)
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveCheck(string(status), elapsed)
	}

	res := CheckResult{
		Observation: obs,
		Status:      status,
		Endpoint:    updated,
	}

	if status != ep.Status {
		n, err := c.deps.Dispatcher.OnStatusChange(ctx, updated, status)
		if err != nil {
			c.checkFailed("notify")
			return res, stageError(op, fmt.Sprintf("notify %s -> %s", ep.Status, status), err)
		}
		res.Notification = &n
		c.logger.Info().
			Str("endpoint_id", ep.ID.String()).
			Str("from", string(ep.Status)).
			Str("to", string(status)).
			Msg("endpoint status changed")
	}

	return res, nil
}

// stageError keeps the store's error kind so callers map it the same way.
func stageError(op, stage string, err error) error {
	kind := apperror.Dependency
	var ae *apperror.Error
	if errors.As(err, &ae) {
		kind = ae.Kind
	}
	return apperror.New(kind, op, fmt.Errorf("%s: %w", stage, err))
}

// storeSnapshot refreshes the cached read model. Failures are logged only.
func (c *Coordinator) storeSnapshot(ctx context.Context, obs endpoint.MonitorLog, status endpoint.Status) {
	if c.deps.Cache == nil {
		return
	}
	err := c.deps.Cache.StoreStatus(ctx, endpoint.StatusSnapshot{
		EndpointID:     obs.EndpointID,
		Status:         status,
		Success:        obs.Success,
		StatusCode:     obs.StatusCode,
		ResponseTimeMs: obs.ResponseTimeMs,
		ErrorType:      obs.ErrorType,
		CheckedAt:      obs.Timestamp,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint_id", obs.EndpointID.String()).Msg("failed to cache status snapshot")
	}
}

func (c *Coordinator) checkFailed(stage string) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.CheckFailed(stage)
	}
}

func (c *Coordinator) observeTick(selected int, d time.Duration, err error) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveTick(selected, d, err)
	}
}
