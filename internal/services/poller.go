package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultPollInterval = 2 * time.Second

// FetchFunc retrieves the current result document for a job.
type FetchFunc func(ctx context.Context, jobID string) (any, error)

// PollPolicy controls how long a job is polled.
type PollPolicy struct {
	Interval time.Duration
	// MaxAttempts caps the number of requests. 0 polls until cancelled.
	MaxAttempts uint
	// DoneStatuses are the payload "status" values that end polling.
	DoneStatuses []string
	// FailedStatuses end polling with the job reported as failed.
	FailedStatuses []string
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:       DefaultPollInterval,
		DoneStatuses:   []string{"completed", "done"},
		FailedStatuses: []string{"failed"},
	}
}

// IsDone reports whether payload carries a successful terminal status.
func (p PollPolicy) IsDone(payload any) bool {
	return statusIn(payload, p.DoneStatuses)
}

// IsFailed reports whether the backend gave up on the job.
func (p PollPolicy) IsFailed(payload any) bool {
	return statusIn(payload, p.FailedStatuses)
}

func statusIn(payload any, statuses []string) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	status, ok := m["status"].(string)
	if !ok {
		return false
	}
	for _, want := range statuses {
		if strings.EqualFold(status, want) {
			return true
		}
	}
	return false
}

// PollResult is one delivered tick. When Fallback is set the request failed
// and Payload is nil; the consumer keeps showing what it already has.
type PollResult struct {
	JobID    string
	Attempt  uint
	Payload  any
	Fallback bool
	Err      error
}

// PollState is a single polling session for one job. It goes inactive exactly
// once and never comes back.
type PollState struct {
	JobID string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	out    chan PollResult
	wg     sync.WaitGroup

	// sendMu serializes deliveries; mu guards the fields below it.
	sendMu        sync.Mutex
	lastDelivered uint

	mu       sync.Mutex
	active   bool
	attempts uint
}

func newPollState(ctx context.Context, jobID string) *PollState {
	ctx, cancel := context.WithCancel(ctx)
	return &PollState{
		JobID:  jobID,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		out:    make(chan PollResult),
		active: true,
	}
}

func (s *PollState) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Results is the stream Start returned for this session.
func (s *PollState) Results() <-chan PollResult {
	return s.out
}

func (s *PollState) Attempts() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Cancel is idempotent. Once it returns nothing more is delivered.
func (s *PollState) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
	// A delivery blocked on send sees done and releases sendMu.
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *PollState) nextAttempt() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return s.attempts
}

// deliver holds sendMu across the send so results go out one at a time and
// Cancel cannot return while a send is in progress.
func (s *PollState) deliver(r PollResult) bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if !s.Active() || r.Attempt < s.lastDelivered {
		return false
	}
	s.lastDelivered = r.Attempt

	select {
	case s.out <- r:
		return true
	case <-s.done:
		return false
	}
}

// Poller polls one job at a time. Starting a new job cancels the previous one.
type Poller struct {
	fetch  FetchFunc
	policy PollPolicy
	logger *slog.Logger

	mu    sync.Mutex
	state *PollState
}

func NewPoller(fetch FetchFunc, policy PollPolicy, logger *slog.Logger) *Poller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetch:  fetch,
		policy: policy,
		logger: logger,
	}
}

func (p *Poller) Policy() PollPolicy {
	return p.policy
}

// Start begins polling jobID. The first request goes out immediately, then
// one per interval whether or not earlier requests have answered. The
// returned channel is closed after the session ends and in-flight requests
// have drained.
func (p *Poller) Start(ctx context.Context, jobID string) <-chan PollResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil {
		p.state.Cancel()
	}
	st := newPollState(ctx, jobID)
	p.state = st

	go p.run(st)
	return st.out
}

// Cancel stops the current session, if any.
func (p *Poller) Cancel() {
	p.mu.Lock()
	st := p.state
	p.mu.Unlock()

	if st != nil {
		st.Cancel()
	}
}

// Active reports whether a session is currently polling.
func (p *Poller) Active() bool {
	p.mu.Lock()
	st := p.state
	p.mu.Unlock()

	return st != nil && st.Active()
}

// Current returns the session started last, or nil.
func (p *Poller) Current() *PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) run(st *PollState) {
	ticker := time.NewTicker(p.policy.Interval)
	defer ticker.Stop()

	defer func() {
		st.wg.Wait()
		st.Cancel()
		close(st.out)
		p.logger.Debug("polling stopped", "job_id", st.JobID, "attempts", st.Attempts())
	}()

	p.logger.Debug("polling started", "job_id", st.JobID, "interval", p.policy.Interval)

	if !p.issue(st) {
		return
	}
	for {
		select {
		case <-st.done:
			return
		case <-st.ctx.Done():
			return
		case <-ticker.C:
			if !p.issue(st) {
				return
			}
		}
	}
}

// issue sends one request and reports whether more may follow.
func (p *Poller) issue(st *PollState) bool {
	if !st.Active() {
		return false
	}
	attempt := st.nextAttempt()

	st.wg.Add(1)
	go func() {
		defer st.wg.Done()

		payload, err := p.safeFetch(st.ctx, st.JobID)
		r := PollResult{
			JobID:    st.JobID,
			Attempt:  attempt,
			Payload:  payload,
			Fallback: err != nil,
			Err:      err,
		}
		if err != nil {
			r.Payload = nil
			p.logger.Warn("poll failed", "job_id", st.JobID, "attempt", attempt, "error", err)
		}
		if !st.deliver(r) {
			p.logger.Debug("poll result dropped", "job_id", st.JobID, "attempt", attempt)
		}
	}()

	return p.policy.MaxAttempts == 0 || attempt < p.policy.MaxAttempts
}

func (p *Poller) safeFetch(ctx context.Context, jobID string) (payload any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			payload, err = nil, fmt.Errorf("poll fetch panicked: %v", rec)
		}
	}()
	return p.fetch(ctx, jobID)
}
