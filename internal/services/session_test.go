package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

type fakeUploader struct {
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, name string, content []byte, onProgress ProgressFunc) (models.UploadJob, error) {
	if f.err != nil {
		return models.UploadJob{}, f.err
	}
	for _, p := range []int{0, 50, 100} {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return models.UploadJob{JobID: "job-" + name, CreatedAt: time.Now()}, nil
}

// gatedUploader announces each upload on reached and holds it until the gate
// for that file name is closed, then reports completion.
type gatedUploader struct {
	reached chan string
	gates   map[string]chan struct{}
}

func newGatedUploader(names ...string) *gatedUploader {
	g := &gatedUploader{reached: make(chan string, len(names)), gates: map[string]chan struct{}{}}
	for _, name := range names {
		g.gates[name] = make(chan struct{})
	}
	return g
}

func (g *gatedUploader) Upload(ctx context.Context, name string, content []byte, onProgress ProgressFunc) (models.UploadJob, error) {
	g.reached <- name
	<-g.gates[name]
	onProgress(100)
	return models.UploadJob{JobID: "job-" + name, CreatedAt: time.Now()}, nil
}

func waitReached(t *testing.T, g *gatedUploader, want string) {
	t.Helper()
	select {
	case got := <-g.reached:
		require.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("upload of %s did not start", want)
	}
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func sessionConfig(log *stateLog) SessionConfig {
	policy := DefaultPollPolicy()
	policy.Interval = 10 * time.Millisecond
	return SessionConfig{
		Policy:        policy,
		AnalyzeDelay:  5 * time.Millisecond,
		FeedbackDelay: 5 * time.Millisecond,
		Logger:        quietLogger(),
		OnState:       log.record,
	}
}

func TestSession_RunToCompletion(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, jobID string) (any, error) {
		if calls.Add(1) < 3 {
			return map[string]any{"status": "processing", "jobId": jobID}, nil
		}
		return map[string]any{
			"status":        "completed",
			"jobId":         jobID,
			"overall_score": 82.0,
			"sections": map[string]any{
				"skills":    map[string]any{"score": 92.0, "items": []any{"Python"}},
				"education": "BS CS",
			},
		}, nil
	}
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, fetch, sessionConfig(log))
	defer s.Close()

	final, err := s.Run(context.Background(), "resume.txt", []byte("text"))

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, final.Phase)
	assert.Equal(t, "job-resume.txt", final.Job.JobID)
	assert.Equal(t, "resume.txt", final.Job.File.Name)
	assert.Equal(t, 82, final.View.Score.OverallScore)
	assert.Equal(t, "Strong", final.View.Rating)
	assert.Equal(t, uint(3), final.Ticks)
	assert.False(t, s.poller.Active())

	seen := map[Phase]bool{}
	last := 0
	for _, st := range log.snapshot() {
		seen[st.Phase] = true
		if st.Phase == PhaseUploading || st.Phase == PhasePolling {
			assert.GreaterOrEqual(t, st.Progress.Percent, last, "progress went backwards")
			last = st.Progress.Percent
		}
	}
	assert.True(t, seen[PhaseUploading])
	assert.True(t, seen[PhasePolling])
	assert.True(t, seen[PhaseDone])
}

func TestSession_UploadFailureAborts(t *testing.T) {
	cause := newConnectError("upload", errors.New("connection refused"))
	log := &stateLog{}
	s := NewSession(&fakeUploader{err: cause}, func(ctx context.Context, jobID string) (any, error) {
		t.Error("fetch must not be called after a failed upload")
		return nil, nil
	}, sessionConfig(log))
	defer s.Close()

	final, err := s.Run(context.Background(), "resume.txt", []byte("text"))

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Unreachable())
	assert.Equal(t, PhaseFailed, final.Phase)
	assert.Equal(t, 0, final.Progress.Percent)
	assert.Equal(t, 0, s.sim.Current().Percent)
}

func TestSession_PollFailuresKeepSessionAlive(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, jobID string) (any, error) {
		if calls.Add(1) <= 3 {
			return nil, errors.New("gateway timeout")
		}
		return map[string]any{"status": "completed", "fit_percentage": 64.0}, nil
	}
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, fetch, sessionConfig(log))
	defer s.Close()

	final, err := s.Run(context.Background(), "resume.txt", []byte("text"))

	require.NoError(t, err)
	assert.Equal(t, 64, final.View.Score.OverallScore)
	assert.False(t, final.Stale)

	var sawStale bool
	for _, st := range log.snapshot() {
		if st.Stale {
			sawStale = true
			assert.True(t, st.HasView, "a placeholder view is shown while failing")
		}
	}
	assert.True(t, sawStale)
}

func TestSession_MaxAttemptsEndsRun(t *testing.T) {
	log := &stateLog{}
	cfg := sessionConfig(log)
	cfg.Policy.MaxAttempts = 2
	s := NewSession(&fakeUploader{}, func(ctx context.Context, jobID string) (any, error) {
		return map[string]any{"status": "processing"}, nil
	}, cfg)
	defer s.Close()

	final, err := s.Run(context.Background(), "resume.txt", []byte("text"))

	assert.ErrorIs(t, err, ErrPollingStopped)
	assert.Equal(t, PhaseCancelled, final.Phase)
	assert.True(t, final.HasView, "last view is kept")
}

func TestSession_CancelWhilePolling(t *testing.T) {
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, func(ctx context.Context, jobID string) (any, error) {
		return map[string]any{"status": "processing"}, nil
	}, sessionConfig(log))
	defer s.Close()

	type outcome struct {
		state State
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		st, err := s.Run(context.Background(), "resume.txt", []byte("text"))
		done <- outcome{st, err}
	}()

	require.Eventually(t, func() bool { return s.State().Ticks >= 2 }, time.Second, 5*time.Millisecond)
	s.Cancel()

	select {
	case o := <-done:
		assert.Error(t, o.err)
		assert.Equal(t, PhaseCancelled, o.state.Phase)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Cancel")
	}
	ticks := s.State().Ticks
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, ticks, s.State().Ticks, "no ticks after cancel")
}

func TestSession_ContextCancellation(t *testing.T) {
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, func(ctx context.Context, jobID string) (any, error) {
		return map[string]any{"status": "queued"}, nil
	}, sessionConfig(log))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	final, err := s.Run(ctx, "resume.txt", []byte("text"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, PhaseCancelled, final.Phase)
}

func TestSession_NewRunReplacesPrevious(t *testing.T) {
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, func(ctx context.Context, jobID string) (any, error) {
		if jobID == "job-first.txt" {
			return map[string]any{"status": "processing"}, nil
		}
		return map[string]any{"status": "completed", "overall_score": 40.0}, nil
	}, sessionConfig(log))
	defer s.Close()

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "first.txt", []byte("text"))
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		st := s.State()
		return st.Job.JobID == "job-first.txt" && st.Ticks >= 1
	}, time.Second, 5*time.Millisecond)

	final, err := s.Run(context.Background(), "second.txt", []byte("text"))

	require.NoError(t, err)
	assert.Equal(t, "job-second.txt", final.Job.JobID)
	assert.Equal(t, 40, final.View.Score.OverallScore)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrPollingStopped)
	case <-time.After(time.Second):
		t.Fatal("first run did not stop")
	}
	assert.Equal(t, PhaseDone, s.State().Phase, "stale run must not overwrite the new state")
}

func TestSession_ReplacedUploadDoesNotMoveNewProgress(t *testing.T) {
	var firstFetches atomic.Int32
	uploader := newGatedUploader("first.txt", "second.txt")
	s := NewSession(uploader, func(ctx context.Context, jobID string) (any, error) {
		if jobID == "job-first.txt" {
			firstFetches.Add(1)
		}
		return map[string]any{"status": "completed", "overall_score": 40.0}, nil
	}, sessionConfig(&stateLog{}))
	defer s.Close()

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "first.txt", []byte("text"))
		firstErr <- err
	}()
	waitReached(t, uploader, "first.txt")

	type outcome struct {
		state State
		err   error
	}
	second := make(chan outcome, 1)
	go func() {
		st, err := s.Run(context.Background(), "second.txt", []byte("text"))
		second <- outcome{st, err}
	}()
	waitReached(t, uploader, "second.txt")
	require.Equal(t, 20, s.State().Progress.Percent)

	// The first upload finishes and reports 100% after being replaced.
	close(uploader.gates["first.txt"])
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrPollingStopped)
	case <-time.After(time.Second):
		t.Fatal("first run did not stop")
	}

	assert.Equal(t, Progress{Percent: 20, Label: LabelUploading}, s.State().Progress)
	assert.Equal(t, 20, s.sim.Current().Percent)
	assert.Equal(t, PhaseUploading, s.State().Phase)
	assert.Zero(t, firstFetches.Load(), "the replaced job is never polled")

	close(uploader.gates["second.txt"])
	select {
	case o := <-second:
		require.NoError(t, o.err)
		assert.Equal(t, "job-second.txt", o.state.Job.JobID)
		assert.Equal(t, PhaseDone, o.state.Phase)
	case <-time.After(time.Second):
		t.Fatal("second run did not finish")
	}
}

func TestSession_CancelDuringUploadNeverPolls(t *testing.T) {
	var fetches atomic.Int32
	uploader := newGatedUploader("resume.txt")
	s := NewSession(uploader, func(ctx context.Context, jobID string) (any, error) {
		fetches.Add(1)
		return map[string]any{"status": "processing"}, nil
	}, sessionConfig(&stateLog{}))
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "resume.txt", []byte("text"))
		done <- err
	}()
	waitReached(t, uploader, "resume.txt")

	s.Cancel()
	close(uploader.gates["resume.txt"])

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrPollingStopped)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Cancel")
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, PhaseCancelled, s.State().Phase)
	assert.Zero(t, fetches.Load())
	assert.Nil(t, s.poller.Current(), "no poll was started")
}

func TestSession_FailedJobEndsRun(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, jobID string) (any, error) {
		if calls.Add(1) == 1 {
			return map[string]any{"status": "processing", "jobId": jobID}, nil
		}
		return map[string]any{
			"status": "failed",
			"jobId":  jobID,
			"error":  "Failed to extract text: no text content found",
		}, nil
	}
	log := &stateLog{}
	s := NewSession(&fakeUploader{}, fetch, sessionConfig(log))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	final, err := s.Run(ctx, "resume.txt", []byte("text"))

	require.ErrorIs(t, err, ErrJobFailed)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "no text content found")
	assert.Equal(t, PhaseFailed, final.Phase)
	assert.Equal(t, uint(2), final.Ticks)
	assert.False(t, s.poller.Active())

	requests := calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, requests, calls.Load(), "polling stopped after the failure")
	assert.Equal(t, PhaseFailed, s.State().Phase)
}
