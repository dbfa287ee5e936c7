package clock

import (
	"log/slog"
	"time"
)

// MediaElement is the follower contract: an external audio or video element
// whose position can be read and corrected. The master clock never follows
// an element; correction runs one way to avoid feedback loops.
type MediaElement interface {
	Name() string
	CurrentTime() float64
	SetCurrentTime(t float64)
}

// Sync corrects follower media elements toward the master clock whenever
// their drift exceeds the tolerance. Small drift is left alone: constant
// micro-seeks cause audible and visible stutter.
type Sync struct {
	master    *Clock
	tolerance float64
	followers []MediaElement
	logger    *slog.Logger
}

func NewSync(master *Clock, tolerance time.Duration, logger *slog.Logger) *Sync {
	tol := tolerance.Seconds()
	if tol <= 0 {
		tol = 0.1
	}
	s := &Sync{master: master, tolerance: tol, logger: logger}
	master.OnTick(func(currentTime float64, playing bool) {
		s.correct(currentTime)
	})
	return s
}

// Follow registers a media element to be corrected toward the master.
func (s *Sync) Follow(el MediaElement) {
	s.followers = append(s.followers, el)
}

// Tolerance returns the drift threshold in seconds.
func (s *Sync) Tolerance() float64 {
	return s.tolerance
}

func (s *Sync) correct(masterTime float64) {
	for _, el := range s.followers {
		drift := el.CurrentTime() - masterTime
		if drift < 0 {
			drift = -drift
		}
		if drift <= s.tolerance {
			continue
		}
		if s.logger != nil {
			s.logger.Debug("correcting media drift",
				"element", el.Name(),
				"drift_s", drift,
				"master_time", masterTime,
			)
		}
		el.SetCurrentTime(masterTime)
	}
}
