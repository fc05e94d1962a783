package services

import (
	"errors"
	"fmt"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/report"
)

var (
	ErrPollingStopped = errors.New("polling stopped before the analysis completed")
	ErrJobFailed      = errors.New("analysis failed")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhasePolling
	PhaseDone
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseUploading:
		return "uploading"
	case PhasePolling:
		return "polling"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Terminal phases accept no further events.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

type EventKind int

const (
	EventUploadProgress EventKind = iota
	EventUploadFailed
	EventJobCreated
	EventPollTick
	EventPollFailed
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventUploadProgress:
		return "uploadProgress"
	case EventUploadFailed:
		return "uploadFailed"
	case EventJobCreated:
		return "jobCreated"
	case EventPollTick:
		return "pollTick"
	case EventPollFailed:
		return "pollFailed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is an input to Reduce. Only the fields relevant to Kind are read.
type Event struct {
	Kind     EventKind
	Progress Progress
	Job      models.UploadJob
	Payload  any
	// Done marks a poll tick whose payload carries a terminal status.
	Done bool
	// Failed marks a poll tick reporting that the backend gave up on the job.
	Failed bool
	Err    error
}

// State is everything a renderer needs at one point in a session.
type State struct {
	Phase    Phase
	Progress Progress
	Job      models.UploadJob
	View     models.ViewModel
	HasView  bool
	// Stale is set while the view is being kept after a failed poll.
	Stale bool
	// KnownGood holds the last available version of each section.
	KnownGood map[string]models.NormalizedSection
	Ticks     uint
	Failures  uint
	Err       error
}

// Reduce returns the state that follows s after ev. It does not modify s.
func Reduce(s State, ev Event) State {
	if s.Phase.Terminal() {
		if ev.Kind == EventUploadProgress && s.Phase == PhaseDone {
			s.Progress = ev.Progress
		}
		return s
	}

	switch ev.Kind {
	case EventUploadProgress:
		if s.Phase == PhaseIdle {
			s.Phase = PhaseUploading
		}
		s.Progress = ev.Progress

	case EventUploadFailed:
		if s.Phase == PhasePolling {
			return s
		}
		s.Phase = PhaseFailed
		s.Progress = Progress{}
		s.Err = ev.Err

	case EventJobCreated:
		if s.Phase == PhasePolling {
			return s
		}
		s.Phase = PhasePolling
		s.Job = ev.Job
		s.Err = nil

	case EventPollTick:
		if s.Phase != PhasePolling {
			return s
		}
		if ev.Failed {
			// The failure document has no sections; keep whatever is shown.
			s.Phase = PhaseFailed
			s.Ticks++
			s.Stale = false
			s.Err = jobFailure(ev.Payload)
			return s
		}
		view := report.FromPayload(ev.Payload, s.KnownGood)
		s.KnownGood = mergeKnownGood(s.KnownGood, report.KnownGood(view))
		s.View = view
		s.HasView = true
		s.Stale = false
		s.Ticks++
		s.Failures = 0
		s.Err = nil
		if ev.Done {
			s.Phase = PhaseDone
		}

	case EventPollFailed:
		if s.Phase != PhasePolling {
			return s
		}
		if !s.HasView {
			s.View = report.FromPayload(nil, s.KnownGood)
			s.HasView = true
		}
		s.Stale = true
		s.Ticks++
		s.Failures++
		s.Err = ev.Err

	case EventCancelled:
		s.Phase = PhaseCancelled
		if ev.Err != nil {
			s.Err = ev.Err
		}
	}

	return s
}

func jobFailure(payload any) error {
	m, _ := payload.(map[string]any)
	if msg, ok := m["error"].(string); ok && msg != "" {
		return fmt.Errorf("%w: %s", ErrJobFailed, msg)
	}
	return ErrJobFailed
}

// mergeKnownGood never mutates prev, so earlier states keep their snapshot.
func mergeKnownGood(prev, fresh map[string]models.NormalizedSection) map[string]models.NormalizedSection {
	merged := make(map[string]models.NormalizedSection, len(prev)+len(fresh))
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range fresh {
		merged[k] = v
	}
	return merged
}
