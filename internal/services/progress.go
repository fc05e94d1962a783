package services

import (
	"math"
	"sync"
	"time"
)

const (
	LabelUploading  = "Uploading the file..."
	LabelAnalyzing  = "Analyzing your resume..."
	LabelGenerating = "Generating feedback..."
)

const (
	DefaultAnalyzeDelay  = 2 * time.Second
	DefaultFeedbackDelay = 1 * time.Second
)

// Progress is what the user sees: a percentage and a phase label.
type Progress struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

func (p Progress) Complete() bool {
	return p.Percent >= 100
}

// ProgressSimulator turns raw transport progress into the displayed progress
// bar. Upload occupies 20..50, then the bar walks through the analysis phases
// on timers. Within one session the percentage never goes down.
//
// Begin returns a session id. Advance and UploadComplete ignore calls carrying
// the id of a session that has since been replaced, stopped or aborted.
//
// OnChange runs while the simulator holds its lock, so it must not call back
// into the simulator.
type ProgressSimulator struct {
	analyzeDelay  time.Duration
	feedbackDelay time.Duration
	onChange      func(Progress)

	mu      sync.Mutex
	current Progress
	timers  []*time.Timer
	gen     uint64
}

func NewProgressSimulator(analyzeDelay, feedbackDelay time.Duration, onChange func(Progress)) *ProgressSimulator {
	if analyzeDelay <= 0 {
		analyzeDelay = DefaultAnalyzeDelay
	}
	if feedbackDelay <= 0 {
		feedbackDelay = DefaultFeedbackDelay
	}
	return &ProgressSimulator{
		analyzeDelay:  analyzeDelay,
		feedbackDelay: feedbackDelay,
		onChange:      onChange,
	}
}

// Begin starts a new session at 20%. Timers from an earlier session are dropped.
func (s *ProgressSimulator) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.current = Progress{Percent: 20, Label: LabelUploading}
	s.notifyLocked()
	return s.gen
}

// Advance maps transport progress (0..100) onto the 20..50 display band.
func (s *ProgressSimulator) Advance(session uint64, transportPercent int) Progress {
	if transportPercent < 0 {
		transportPercent = 0
	}
	if transportPercent > 100 {
		transportPercent = 100
	}
	display := int(math.Round(20 + float64(transportPercent)*0.3))

	s.mu.Lock()
	defer s.mu.Unlock()

	if session != s.gen {
		return s.current
	}
	label := s.current.Label
	if label == "" {
		label = LabelUploading
	}
	s.setLocked(display, label)
	return s.current
}

// UploadComplete jumps to 60% and schedules the remaining analysis phases.
func (s *ProgressSimulator) UploadComplete(session uint64) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session != s.gen {
		return s.current
	}
	s.setLocked(60, LabelAnalyzing)

	gen := s.gen
	s.timers = append(s.timers, time.AfterFunc(s.analyzeDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.setLocked(s.current.Percent+20, LabelGenerating)
		s.timers = append(s.timers, time.AfterFunc(s.feedbackDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen != s.gen {
				return
			}
			s.setLocked(100, LabelGenerating)
		}))
	}))

	return s.current
}

// Abort cancels pending timers and resets the bar to 0.
func (s *ProgressSimulator) Abort(session uint64) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session != s.gen {
		return s.current
	}
	s.stopLocked()
	s.current = Progress{}
	s.notifyLocked()
	return s.current
}

// Stop cancels pending timers of whichever session is running and keeps the
// current value.
func (s *ProgressSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

// Release is Stop for one session only.
func (s *ProgressSimulator) Release(session uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == s.gen {
		s.stopLocked()
	}
}

func (s *ProgressSimulator) Current() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

func (s *ProgressSimulator) setLocked(percent int, label string) {
	if percent > 100 {
		percent = 100
	}
	if percent < s.current.Percent {
		percent = s.current.Percent
	}
	if percent == s.current.Percent && label == s.current.Label {
		return
	}
	s.current = Progress{Percent: percent, Label: label}
	s.notifyLocked()
}

func (s *ProgressSimulator) stopLocked() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *ProgressSimulator) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.current)
	}
}
