// Package scheduler drives the station update cycle and owns the published state.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/models"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/metrics"
)

const (
	DefaultInterval   = 1800 * time.Second
	DefaultRetryDelay = 5 * time.Second
	DefaultMaxRetries = 1

	sinkTimeout = 10 * time.Second
	updateKey   = "update"
)

const (
	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerManual  = "manual"
)

var ErrStopped = errors.New("scheduler stopped")

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status is a point-in-time view of the update state machine.
type Status struct {
	Phase               Phase     `json:"phase"`
	LastResult          Phase     `json:"last_result,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	LastTrigger         string    `json:"last_trigger,omitempty"`
	LastAttempt         time.Time `json:"last_attempt"`
	LastSuccess         time.Time `json:"last_success"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type updater interface {
	Update(ctx context.Context) (models.State, error)
}

// Sink receives every state right after it has been published.
type Sink interface {
	Name() string
	Publish(ctx context.Context, state models.State) error
}

type Config struct {
	Interval   time.Duration
	RetryDelay time.Duration
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Scheduler runs update cycles on a cron interval or on demand.
// At most one cycle runs at a time; concurrent triggers join the running one.
type Scheduler struct {
	updater updater
	sinks   []Sink
	cfg     Config
	logger  zerolog.Logger
	m       *metrics.Metrics
	cron    *cron.Cron

	group singleflight.Group
	state atomic.Pointer[models.State]

	mu      sync.RWMutex
	status  Status
	stopped bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(
	u updater,
	cfg Config,
	logger zerolog.Logger,
	m *metrics.Metrics,
	sinks ...Sink,
) *Scheduler {
	logger = logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		updater: u,
		sinks:   sinks,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		m:       m,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		status:  Status{Phase: PhaseIdle},
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start runs the first update in the background and schedules the periodic job.
// Cancelling ctx has the same effect on running cycles as Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(TriggerCron) }); err != nil {
		s.logger.Error().Err(err).Str("spec", spec).Msg("failed to schedule update job")
		s.m.TechnicalErrors.WithLabelValues("cron_schedule_error", "critical").Inc()
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	context.AfterFunc(ctx, s.cancel)

	s.cron.Start()
	go s.runJob(TriggerStartup)

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("scheduler started")
	return nil
}

// Stop cancels running cycles and waits for them and the cron jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runJob(trigger string) {
	if err := s.Trigger(s.baseCtx, trigger); err != nil && !errors.Is(err, ErrStopped) {
		s.logger.Debug().Err(err).Str("trigger", trigger).Msg("update job finished with error")
	}
}

// Trigger runs an update cycle, or waits for the one already in flight.
// ctx only bounds the wait; the cycle itself keeps running if ctx ends first.
func (s *Scheduler) Trigger(ctx context.Context, trigger string) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer s.wg.Done()
		_, err, shared := s.group.Do(updateKey, func() (interface{}, error) {
			return nil, s.run(trigger)
		})
		if shared {
			s.logger.Debug().Str("trigger", trigger).Msg("trigger coalesced with running update")
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// run performs one cycle: the first attempt plus at most MaxRetries retries.
// On failure the published state is left untouched.
func (s *Scheduler) run(trigger string) error {
	ctx := s.baseCtx
	start := time.Now()

	var (
		state models.State
		err   error
	)
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn().
				Int("attempt", attempt+1).
				Dur("backoff", s.cfg.RetryDelay).
				Msg("retrying update after backoff")
			if werr := wait(ctx, s.cfg.RetryDelay); werr != nil {
				err = fmt.Errorf("retry aborted: %w", errors.Join(err, werr))
				break
			}
		}

		s.begin(trigger)
		state, err = s.updater.Update(ctx)
		s.m.RecordAttempt(err)
		if err == nil {
			break
		}

		s.fail(err)
		s.logger.Error().
			Err(err).
			Str("trigger", trigger).
			Int("attempt", attempt+1).
			Msg("update attempt failed, keeping last published state")

		if ctx.Err() != nil {
			break
		}
	}

	s.m.RecordUpdate(trigger, time.Since(start), err)
	if err != nil {
		s.finish()
		s.logger.Warn().
			Str("trigger", trigger).
			Dur("next_in", s.cfg.Interval).
			Msg("update cycle failed, waiting for next scheduled trigger")
		return err
	}

	s.publish(state)
	s.finish()
	s.deliver(state)

	s.logger.Info().
		Str("trigger", trigger).
		Str("condition", string(state.Snapshot.Condition)).
		Int("forecast_days", len(state.Forecast)).
		Dur("duration", time.Since(start)).
		Msg("state published")
	return nil
}

func (s *Scheduler) publish(state models.State) {
	st := state.Clone()
	s.state.Store(&st)

	s.mu.Lock()
	s.status.LastResult = PhaseSucceeded
	s.status.Phase = PhaseSucceeded
	s.status.LastError = ""
	s.status.LastSuccess = st.UpdatedAt
	s.status.ConsecutiveFailures = 0
	s.mu.Unlock()
}

func (s *Scheduler) deliver(state models.State) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(s.baseCtx, sinkTimeout)
		err := sink.Publish(ctx, state.Clone())
		cancel()

		s.m.RecordSink(sink.Name(), err)
		if err != nil {
			s.logger.Error().Err(err).Str("sink", sink.Name()).Msg("sink publish failed")
		}
	}
}

func (s *Scheduler) begin(trigger string) {
	s.mu.Lock()
	s.status.Phase = PhaseFetching
	s.status.LastTrigger = trigger
	s.status.LastAttempt = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) fail(err error) {
	s.mu.Lock()
	s.status.Phase = PhaseFailed
	s.status.LastResult = PhaseFailed
	s.status.LastError = err.Error()
	s.status.ConsecutiveFailures++
	s.mu.Unlock()
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.status.Phase = PhaseIdle
	s.mu.Unlock()
}

// Current returns a copy of the last published state.
func (s *Scheduler) Current() (models.State, bool) {
	p := s.state.Load()
	if p == nil {
		return models.State{}, false
	}
	return p.Clone(), true
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
