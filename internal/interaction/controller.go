// Package interaction drives pointer-based select/move/resize/seek gestures
// over the timeline. Constraint violations during a live drag are absorbed
// silently: the clip holds its last valid position and no error reaches the
// user. Explicit operations with surfaced errors live in the timeline
// Service instead.
package interaction

import (
	"log/slog"

	"github.com/cadenza/cadenza-engine/internal/clock"
	"github.com/cadenza/cadenza-engine/internal/timeline"
)

// State of the gesture machine. Selecting is transient: pointer-down on a
// clip body selects it and immediately arms a move, so the observable
// states between events are Idle and the drag states.
type State string

const (
	StateIdle          State = "idle"
	StateSelecting     State = "selecting"
	StateMoving        State = "moving"
	StateResizingStart State = "resizing_start"
	StateResizingEnd   State = "resizing_end"
	StateSeeking       State = "seeking_playhead"
)

// Edge names for BeginResize.
const (
	EdgeStart = "start"
	EdgeEnd   = "end"
)

// NoSelection is the selectedClip sentinel.
const NoSelection = -1

type drag struct {
	clipID        int
	originStart   float64
	originEnd     float64
	pointerOrigin float64
}

// Controller is the gesture state machine. It is single-threaded by design:
// all transitions happen synchronously on discrete input events.
type Controller struct {
	registry *timeline.Registry
	engine   *timeline.Engine
	layers   *timeline.LayerStore
	clock    *clock.Clock
	logger   *slog.Logger

	pixelsPerSecond float64

	state        State
	selectedClip int
	active       drag
}

type ControllerConfig struct {
	Registry *timeline.Registry
	Engine   *timeline.Engine
	Layers   *timeline.LayerStore
	Clock    *clock.Clock
	Logger   *slog.Logger
	// PixelsPerSecond is the zoom-dependent pixel/time scale. Defaults
	// to 100 px/s.
	PixelsPerSecond float64
}

func NewController(cfg ControllerConfig) *Controller {
	pps := cfg.PixelsPerSecond
	if pps <= 0 {
		pps = 100.0
	}
	return &Controller{
		registry:        cfg.Registry,
		engine:          cfg.Engine,
		layers:          cfg.Layers,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		pixelsPerSecond: pps,
		state:           StateIdle,
		selectedClip:    NoSelection,
	}
}

// State returns the current gesture state.
func (c *Controller) State() State {
	return c.state
}

// SelectedClip returns the selected clip id, or NoSelection.
func (c *Controller) SelectedClip() int {
	return c.selectedClip
}

// SetZoom updates the pixel/time scale. Ignored while a drag is active so a
// gesture keeps one consistent scale.
func (c *Controller) SetZoom(pixelsPerSecond float64) {
	if pixelsPerSecond <= 0 || c.state != StateIdle {
		return
	}
	c.pixelsPerSecond = pixelsPerSecond
}

// PixelsPerSecond returns the current pixel/time scale.
func (c *Controller) PixelsPerSecond() float64 {
	return c.pixelsPerSecond
}

// SelectClip sets the selection without arming a drag. Pass NoSelection to
// clear.
func (c *Controller) SelectClip(id int) {
	if id == NoSelection {
		c.selectedClip = NoSelection
		return
	}
	if _, found := c.registry.Get(id); found {
		c.selectedClip = id
	}
}

// Escape clears the selection when no gesture is active. It is the only
// cancel binding distinct from pointer-up.
func (c *Controller) Escape() {
	if c.state == StateIdle {
		c.selectedClip = NoSelection
	}
}

// BeginMove starts a move gesture from a pointer-down on the clip body.
// Selection and arming are one continuous step. Returns false when the drag
// cannot start (stale id, locked clip, locked or isolated layer); per the
// silent-rejection policy this is not an error.
func (c *Controller) BeginMove(id int, pointerX float64) bool {
	if c.state != StateIdle {
		return false
	}
	clip, found := c.registry.Get(id)
	if !found {
		return false
	}
	c.state = StateSelecting
	c.selectedClip = id
	if !c.mutable(clip) {
		c.state = StateIdle
		return false
	}
	c.active = drag{
		clipID:        id,
		originStart:   clip.Start,
		originEnd:     clip.End(),
		pointerOrigin: pointerX,
	}
	c.state = StateMoving
	return true
}

// BeginResize starts a resize gesture on the given edge. Same silent
// refusal rules as BeginMove.
func (c *Controller) BeginResize(id int, edge string, pointerX float64) bool {
	if c.state != StateIdle {
		return false
	}
	clip, found := c.registry.Get(id)
	if !found || !c.mutable(clip) {
		return false
	}
	c.selectedClip = id
	c.active = drag{
		clipID:        id,
		originStart:   clip.Start,
		originEnd:     clip.End(),
		pointerOrigin: pointerX,
	}
	switch edge {
	case EdgeStart:
		c.state = StateResizingStart
	case EdgeEnd:
		c.state = StateResizingEnd
	default:
		c.active = drag{}
		return false
	}
	return true
}

// BeginSeek starts a playhead scrub from a pointer-down on the transport
// bar or playhead handle. Independent of clip selection.
func (c *Controller) BeginSeek(pointerX float64) bool {
	if c.state != StateIdle {
		return false
	}
	c.state = StateSeeking
	c.clock.Seek(c.timeAt(pointerX))
	return true
}

// SeekAt performs the one-shot seek for a click on empty timeline space
// while idle, without entering a sustained drag.
func (c *Controller) SeekAt(pointerX float64) {
	if c.state != StateIdle {
		return
	}
	c.clock.Seek(c.timeAt(pointerX))
}

// PointerMove advances the active gesture for this frame. Collisions hold
// the clip at its last committed position without surfacing anything.
func (c *Controller) PointerMove(pointerX float64) {
	switch c.state {
	case StateMoving:
		c.moveTo(pointerX)
	case StateResizingStart:
		c.resizeStartTo(pointerX)
	case StateResizingEnd:
		c.resizeEndTo(pointerX)
	case StateSeeking:
		c.clock.Seek(c.timeAt(pointerX))
	}
}

// PointerUp ends any active gesture and returns to Idle. Every intermediate
// step was constraint-checked before commit, so there is nothing to roll
// back; the last committed position stands.
func (c *Controller) PointerUp() {
	if c.logger != nil && c.state != StateIdle && c.state != StateSelecting {
		c.logger.Debug("gesture ended", "clip_id", c.active.clipID)
	}
	c.state = StateIdle
	c.active = drag{}
}

func (c *Controller) moveTo(pointerX float64) {
	clip, found := c.registry.Get(c.active.clipID)
	if !found {
		// Deleted mid-gesture by another event; drop the drag.
		c.PointerUp()
		return
	}

	delta := (pointerX - c.active.pointerOrigin) / c.pixelsPerSecond
	proposed := c.active.originStart + delta
	if proposed < 0 {
		proposed = 0
	}

	candidate := clip.Clone()
	candidate.Start = proposed
	if c.collides(candidate, func(other timeline.Clip) bool { return true }) {
		return
	}
	c.registry.Update(clip.ID, timeline.Patch{Start: &proposed})
}

// resizeStartTo keeps the clip's end fixed while dragging its left edge:
// both start and duration change together.
func (c *Controller) resizeStartTo(pointerX float64) {
	clip, found := c.registry.Get(c.active.clipID)
	if !found {
		c.PointerUp()
		return
	}

	delta := (pointerX - c.active.pointerOrigin) / c.pixelsPerSecond
	newStart := c.active.originStart + delta

	// Width floor and global max bound the reachable start range.
	if newStart > c.active.originEnd-c.engine.MinDuration() {
		newStart = c.active.originEnd - c.engine.MinDuration()
	}
	if newStart < c.active.originEnd-c.engine.MaxDuration() {
		newStart = c.active.originEnd - c.engine.MaxDuration()
	}
	if newStart < 0 {
		newStart = 0
	}

	newDuration := c.active.originEnd - newStart
	candidate := clip.Clone()
	candidate.Start = newStart
	candidate.Duration = newDuration

	// A resize-from-start can only run into clips before the original
	// window.
	originStart := c.active.originStart
	if c.collides(candidate, func(other timeline.Clip) bool { return other.Start < originStart }) {
		return
	}
	c.registry.Update(clip.ID, timeline.Patch{Start: &newStart, Duration: &newDuration})
}

func (c *Controller) resizeEndTo(pointerX float64) {
	clip, found := c.registry.Get(c.active.clipID)
	if !found {
		c.PointerUp()
		return
	}

	delta := (pointerX - c.active.pointerOrigin) / c.pixelsPerSecond
	newDuration := (c.active.originEnd - c.active.originStart) + delta
	if newDuration < c.engine.MinDuration() {
		newDuration = c.engine.MinDuration()
	}
	if newDuration > c.engine.MaxDuration() {
		newDuration = c.engine.MaxDuration()
	}

	candidate := clip.Clone()
	candidate.Duration = newDuration

	// A resize-from-end can only run into clips after the current start.
	start := clip.Start
	if c.collides(candidate, func(other timeline.Clip) bool { return other.Start > start }) {
		return
	}
	c.registry.Update(clip.ID, timeline.Patch{Duration: &newDuration})
}

// collides runs the three-way interval test against the same-layer clips
// accepted by the filter, skipping the candidate itself.
func (c *Controller) collides(candidate timeline.Clip, filter func(timeline.Clip) bool) bool {
	if c.engine.OverlapAllowed(candidate.LayerID) {
		return false
	}
	for _, other := range c.registry.ByLayer(candidate.LayerID) {
		if other.ID == candidate.ID || !filter(other) {
			continue
		}
		if candidate.Overlaps(other) {
			return true
		}
	}
	return false
}

// mutable reports whether a clip may be dragged at all. Isolated layers
// refuse repositioning once a clip is placed.
func (c *Controller) mutable(clip timeline.Clip) bool {
	if clip.Locked {
		return false
	}
	layer, found := c.layers.Get(clip.LayerID)
	if !found || layer.Locked || c.layers.IsIsolated(clip.LayerID) {
		return false
	}
	return true
}

func (c *Controller) timeAt(pointerX float64) float64 {
	if pointerX < 0 {
		return 0
	}
	return pointerX / c.pixelsPerSecond
}
