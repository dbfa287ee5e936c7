// Package clock provides the master playback clock for the timeline. The
// clock does not own a hardware timer: an external driver (frame callback or
// a media element's native clock) feeds it ticks, and every other media
// element follows it, never the other way around.
package clock

import "log/slog"

// TickListener receives every committed time update. Updates are monotonic
// while playing, except the wrap to zero at end of timeline.
type TickListener func(currentTime float64, playing bool)

// Clock is the single authoritative time source. Stopped ⇄ Playing.
type Clock struct {
	logger *slog.Logger

	duration  float64
	current   float64
	playing   bool
	listeners []TickListener
}

func New(duration float64, logger *slog.Logger) *Clock {
	if duration < 0 {
		duration = 0
	}
	return &Clock{duration: duration, logger: logger}
}

// OnTick registers a listener for time updates. No coalescing: every update
// is delivered synchronously in registration order.
func (c *Clock) OnTick(l TickListener) {
	c.listeners = append(c.listeners, l)
}

func (c *Clock) notify() {
	for _, l := range c.listeners {
		l(c.current, c.playing)
	}
}

// Play transitions to Playing. Time advancement only happens through Tick.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.playing = true
	if c.logger != nil {
		c.logger.Debug("clock playing", "time", c.current)
	}
	c.notify()
}

// Pause transitions to Stopped, retaining the current time.
func (c *Clock) Pause() {
	if !c.playing {
		return
	}
	c.playing = false
	if c.logger != nil {
		c.logger.Debug("clock paused", "time", c.current)
	}
	c.notify()
}

// Seek clamps t to [0, duration] and sets the current time. Allowed in
// either state.
func (c *Clock) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if t > c.duration {
		t = c.duration
	}
	c.current = t
	c.notify()
}

// Tick is called by the external driver each frame while playing. Reaching
// the timeline end auto-stops and resets to zero. Ticks behind the current
// time are dropped so emission stays monotonic while playing.
func (c *Clock) Tick(currentTime float64) {
	if !c.playing {
		return
	}
	if currentTime < c.current {
		return
	}
	if currentTime >= c.duration {
		c.playing = false
		c.current = 0
		if c.logger != nil {
			c.logger.Debug("clock reached end of timeline")
		}
		c.notify()
		return
	}
	c.current = currentTime
	c.notify()
}

// CurrentTime returns the clock position in seconds.
func (c *Clock) CurrentTime() float64 {
	return c.current
}

// Playing reports the transport state.
func (c *Clock) Playing() bool {
	return c.playing
}

// Duration returns the timeline length in seconds.
func (c *Clock) Duration() float64 {
	return c.duration
}

// SetDuration changes the timeline length, clamping the current position
// into the new range.
func (c *Clock) SetDuration(duration float64) {
	if duration < 0 {
		duration = 0
	}
	c.duration = duration
	if c.current > duration {
		c.current = duration
	}
}
