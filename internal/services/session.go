package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

// Uploader submits a file and resolves to the job the backend created.
type Uploader interface {
	Upload(ctx context.Context, name string, content []byte, onProgress ProgressFunc) (models.UploadJob, error)
}

type SessionConfig struct {
	Policy        PollPolicy
	AnalyzeDelay  time.Duration
	FeedbackDelay time.Duration
	Logger        *slog.Logger
	// OnState receives every new State. It runs under the session lock and
	// must not call back into the Session.
	OnState func(State)
}

// Session drives one upload through polling to a final view. It owns exactly
// one Poller and one ProgressSimulator; a new Run cancels the previous one.
type Session struct {
	uploader Uploader
	poller   *Poller
	sim      *ProgressSimulator
	policy   PollPolicy
	logger   *slog.Logger
	onState  func(State)

	mu    sync.Mutex
	state State
	gen   uint64
}

func NewSession(uploader Uploader, fetch FetchFunc, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		uploader: uploader,
		policy:   cfg.Policy,
		logger:   logger,
		onState:  cfg.OnState,
	}
	s.poller = NewPoller(fetch, cfg.Policy, logger)
	s.sim = NewProgressSimulator(cfg.AnalyzeDelay, cfg.FeedbackDelay, func(p Progress) {
		s.dispatchCurrent(Event{Kind: EventUploadProgress, Progress: p})
	})
	return s
}

// State returns the latest state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run uploads the file and polls until the analysis completes or fails,
// polling stops, ctx is cancelled or Cancel is called. It returns the final
// state; the error is non-nil unless the session reached PhaseDone.
func (s *Session) Run(ctx context.Context, name string, content []byte) (State, error) {
	gen := s.reset()
	log := s.logger.With("file", name)

	bar := s.sim.Begin()
	job, err := s.uploader.Upload(ctx, name, content, func(p int) {
		s.sim.Advance(bar, p)
	})
	if err != nil {
		s.sim.Abort(bar)
		s.dispatch(gen, Event{Kind: EventUploadFailed, Err: err})
		log.Warn("upload failed", "error", err)
		return s.State(), fmt.Errorf("upload %s: %w", name, err)
	}
	if job.File.Name == "" {
		job.File = models.FileMeta{Name: name, SizeBytes: int64(len(content))}
	}

	s.dispatch(gen, Event{Kind: EventJobCreated, Job: job})
	poll, st, ok := s.startPolling(ctx, gen, job.JobID)
	if !ok {
		// Replaced or cancelled while the upload was in flight.
		return st, ErrPollingStopped
	}
	s.sim.UploadComplete(bar)
	log = log.With("job_id", job.JobID)
	log.Info("polling for results")

	for r := range poll.Results() {
		if r.Fallback {
			s.dispatch(gen, Event{Kind: EventPollFailed, Err: r.Err})
			continue
		}
		done := s.policy.IsDone(r.Payload)
		failed := !done && s.policy.IsFailed(r.Payload)
		s.dispatch(gen, Event{Kind: EventPollTick, Payload: r.Payload, Done: done, Failed: failed})
		if done || failed {
			poll.Cancel()
		}
	}

	final, current := s.snapshot(gen)
	if !current {
		return final, ErrPollingStopped
	}
	switch final.Phase {
	case PhaseDone:
		log.Info("analysis complete", "score", final.View.Score.OverallScore, "ticks", final.Ticks)
		return final, nil
	case PhaseFailed:
		s.sim.Release(bar)
		log.Warn("analysis failed", "error", final.Err)
		return final, final.Err
	}

	s.sim.Release(bar)
	cause := ctx.Err()
	if cause == nil {
		cause = ErrPollingStopped
	}
	s.dispatch(gen, Event{Kind: EventCancelled, Err: cause})
	log.Warn("polling ended without a result", "error", cause)
	return s.State(), cause
}

// Cancel marks the current session cancelled and stops polling. A run that
// has not started polling yet sees the cancelled phase and never starts.
func (s *Session) Cancel() {
	s.dispatchCurrent(Event{Kind: EventCancelled})
	s.poller.Cancel()
	s.sim.Stop()
}

// Close releases the session's timers and polling.
func (s *Session) Close() {
	s.poller.Cancel()
	s.sim.Stop()
}

// snapshot also reports whether gen is still the latest run.
func (s *Session) snapshot(gen uint64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, gen == s.gen
}

// startPolling starts the poller only if gen is still the latest run and it
// is waiting for results. The check and the start happen under one lock, so
// a reset or Cancel either comes first and prevents the start, or comes after
// and cancels the poll it started.
func (s *Session) startPolling(ctx context.Context, gen uint64, jobID string) (*PollState, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state.Phase != PhasePolling {
		return nil, s.state, false
	}
	s.poller.Start(ctx, jobID)
	return s.poller.Current(), s.state, true
}

// reset retires the previous run. The bar is stopped first so that late
// progress from that run cannot reach the fresh state.
func (s *Session) reset() uint64 {
	s.sim.Stop()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = State{}
	s.publishLocked()
	s.mu.Unlock()

	s.poller.Cancel()
	return gen
}

func (s *Session) dispatchCurrent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ev)
}

// dispatch drops events from a run that has since been replaced.
func (s *Session) dispatch(gen uint64, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.applyLocked(ev)
}

func (s *Session) applyLocked(ev Event) {
	next := Reduce(s.state, ev)
	if next.Phase != s.state.Phase {
		s.logger.Debug("session transition", "event", ev.Kind, "from", s.state.Phase, "to", next.Phase)
	}
	s.state = next
	s.publishLocked()
}

func (s *Session) publishLocked() {
	if s.onState != nil {
		s.onState(s.state)
	}
}
