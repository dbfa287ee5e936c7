package interaction

import (
	"math"
	"testing"

	"github.com/cadenza/cadenza-engine/internal/clock"
	"github.com/cadenza/cadenza-engine/internal/timeline"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type fixture struct {
	registry   *timeline.Registry
	layers     *timeline.LayerStore
	clock      *clock.Clock
	controller *Controller
}

// newFixture builds a controller over two layers: 0 is a free image layer,
// 1 is an isolated audio layer. Zoom is 100 px/s so pixel math is direct.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	layers := timeline.NewLayerStore(timeline.LayerStoreConfig{})
	layers.Add(timeline.Layer{ID: 0, Type: timeline.LayerTypeImage, Name: "Images", Visible: true})
	layers.Add(timeline.Layer{ID: 1, Type: timeline.LayerTypeAudio, Name: "Audio", Visible: true})

	registry := timeline.NewRegistry()
	engine := timeline.NewEngine(layers, timeline.EngineConfig{})
	clk := clock.New(30, nil)

	ctrl := NewController(ControllerConfig{
		Registry:        registry,
		Engine:          engine,
		Layers:          layers,
		Clock:           clk,
		PixelsPerSecond: 100,
	})
	return &fixture{registry: registry, layers: layers, clock: clk, controller: ctrl}
}

func (f *fixture) addClip(t *testing.T, layerID int, start, dur float64) timeline.Clip {
	t.Helper()
	return f.registry.Create(timeline.Clip{LayerID: layerID, Type: timeline.ClipTypeImage, Start: start, Duration: dur})
}

func TestController_MoveCommitsValidPosition(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 1, 2)

	if !f.controller.BeginMove(clip.ID, 500) {
		t.Fatal("BeginMove failed on free clip")
	}
	if f.controller.State() != StateMoving {
		t.Fatalf("state = %q, want moving", f.controller.State())
	}

	f.controller.PointerMove(700) // +200px = +2s
	got, _ := f.registry.Get(clip.ID)
	if got.Start != 3 {
		t.Errorf("start = %v, want 3", got.Start)
	}

	f.controller.PointerUp()
	if f.controller.State() != StateIdle {
		t.Errorf("state after pointer-up = %q, want idle", f.controller.State())
	}
	// Selection survives the gesture.
	if f.controller.SelectedClip() != clip.ID {
		t.Errorf("selected = %d, want %d", f.controller.SelectedClip(), clip.ID)
	}
}

func TestController_MoveClampsAtZero(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 1, 2)

	f.controller.BeginMove(clip.ID, 500)
	f.controller.PointerMove(0) // -500px = -5s, well past the origin

	got, _ := f.registry.Get(clip.ID)
	if got.Start != 0 {
		t.Errorf("start = %v, want clamped to 0", got.Start)
	}
}

func TestController_MoveHoldsOnCollision(t *testing.T) {
	f := newFixture(t)
	moving := f.addClip(t, 0, 0, 2)
	f.addClip(t, 0, 5, 2)

	f.controller.BeginMove(moving.ID, 0)

	// Drag into the blocker: position holds silently at the last valid spot.
	f.controller.PointerMove(200) // start 2, [2,4): valid
	f.controller.PointerMove(400) // start 4, [4,6): collides with [5,7)

	got, _ := f.registry.Get(moving.ID)
	if got.Start != 2 {
		t.Errorf("start = %v, want held at 2", got.Start)
	}

	// Dragging past the blocker frees the clip again.
	f.controller.PointerMove(700) // start 7, [7,9): valid
	got, _ = f.registry.Get(moving.ID)
	if got.Start != 7 {
		t.Errorf("start = %v, want 7 after clearing the blocker", got.Start)
	}
}

func TestController_BeginMoveRefusedOnIsolatedLayer(t *testing.T) {
	f := newFixture(t)
	audio := f.registry.Create(timeline.Clip{LayerID: 1, Type: timeline.ClipTypeAudio, Start: 0, Duration: 3})

	if f.controller.BeginMove(audio.ID, 0) {
		t.Fatal("BeginMove on isolated layer should be refused")
	}
	if f.controller.State() != StateIdle {
		t.Errorf("state = %q, want idle", f.controller.State())
	}
	// Selection still lands: the clip can be selected, just not dragged.
	if f.controller.SelectedClip() != audio.ID {
		t.Errorf("selected = %d, want %d", f.controller.SelectedClip(), audio.ID)
	}

	f.controller.PointerMove(500)
	got, _ := f.registry.Get(audio.ID)
	if got.Start != 0 {
		t.Errorf("isolated clip moved to %v", got.Start)
	}
}

func TestController_BeginMoveRefusedWhenLocked(t *testing.T) {
	f := newFixture(t)
	locked := f.registry.Create(timeline.Clip{LayerID: 0, Type: timeline.ClipTypeImage, Start: 0, Duration: 2, Locked: true})

	if f.controller.BeginMove(locked.ID, 0) {
		t.Error("BeginMove on locked clip should be refused")
	}

	f.layers.ToggleLock(0)
	free := f.addClip(t, 0, 5, 2)
	if f.controller.BeginMove(free.ID, 0) {
		t.Error("BeginMove on locked layer should be refused")
	}
}

func TestController_ResizeStartKeepsEndFixed(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 2, 3) // [2, 5)

	if !f.controller.BeginResize(clip.ID, EdgeStart, 200) {
		t.Fatal("BeginResize failed")
	}
	if f.controller.State() != StateResizingStart {
		t.Fatalf("state = %q, want resizing_start", f.controller.State())
	}

	f.controller.PointerMove(300) // +1s
	got, _ := f.registry.Get(clip.ID)
	if got.Start != 3 || got.Duration != 2 {
		t.Errorf("got start %v dur %v, want 3 and 2", got.Start, got.Duration)
	}
	if got.End() != 5 {
		t.Errorf("end moved to %v, want fixed at 5", got.End())
	}
}

func TestController_ResizeStartClamps(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 2, 3) // [2, 5)

	f.controller.BeginResize(clip.ID, EdgeStart, 200)

	// Shrinking past the width floor pins the start at end - min duration.
	f.controller.PointerMove(1000)
	got, _ := f.registry.Get(clip.ID)
	if !near(got.Duration, 0.1) {
		t.Errorf("duration = %v, want floor 0.1", got.Duration)
	}
	if got.End() != 5 {
		t.Errorf("end = %v, want 5", got.End())
	}

	// Growing past the max pins the start at end - max duration.
	f.controller.PointerMove(-1000)
	got, _ = f.registry.Get(clip.ID)
	if got.Duration != 5 {
		t.Errorf("duration = %v, want cap 5", got.Duration)
	}
	if got.Start != 0 {
		t.Errorf("start = %v, want 0", got.Start)
	}
}

func TestController_ResizeEndClampsAndHolds(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2) // [0, 2)
	f.addClip(t, 0, 3, 2)         // blocker [3, 5)

	f.controller.BeginResize(clip.ID, EdgeEnd, 200)

	// Growing into the blocker holds at the last valid width.
	f.controller.PointerMove(300) // duration 3, [0,3): adjacent, valid
	f.controller.PointerMove(450) // duration 4.5, [0,4.5): collides
	got, _ := f.registry.Get(clip.ID)
	if got.Duration != 3 {
		t.Errorf("duration = %v, want held at 3", got.Duration)
	}
	if got.Start != 0 {
		t.Errorf("start = %v, want unchanged 0", got.Start)
	}

	// Shrinking below the floor clamps.
	f.controller.PointerMove(-1000)
	got, _ = f.registry.Get(clip.ID)
	if got.Duration != 0.1 {
		t.Errorf("duration = %v, want floor 0.1", got.Duration)
	}
}

func TestController_ResizeUnknownEdge(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	if f.controller.BeginResize(clip.ID, "middle", 0) {
		t.Error("unknown edge should refuse the gesture")
	}
	if f.controller.State() != StateIdle {
		t.Errorf("state = %q, want idle", f.controller.State())
	}
}

func TestController_SeekGesture(t *testing.T) {
	f := newFixture(t)

	if !f.controller.BeginSeek(500) {
		t.Fatal("BeginSeek failed")
	}
	if f.controller.State() != StateSeeking {
		t.Fatalf("state = %q, want seeking_playhead", f.controller.State())
	}
	if got := f.clock.CurrentTime(); got != 5 {
		t.Errorf("current time = %v, want 5", got)
	}

	f.controller.PointerMove(1200)
	if got := f.clock.CurrentTime(); got != 12 {
		t.Errorf("current time = %v, want 12", got)
	}

	// Scrubbing past the end clamps to the timeline duration.
	f.controller.PointerMove(9000)
	if got := f.clock.CurrentTime(); got != 30 {
		t.Errorf("current time = %v, want clamped to 30", got)
	}

	f.controller.PointerUp()
	if f.controller.State() != StateIdle {
		t.Errorf("state = %q, want idle", f.controller.State())
	}
}

func TestController_SeekAtOneShot(t *testing.T) {
	f := newFixture(t)

	f.controller.SeekAt(250)
	if got := f.clock.CurrentTime(); got != 2.5 {
		t.Errorf("current time = %v, want 2.5", got)
	}
	if f.controller.State() != StateIdle {
		t.Errorf("state = %q, want idle (one-shot seek)", f.controller.State())
	}

	// Negative pixel positions map to time zero.
	f.controller.SeekAt(-50)
	if got := f.clock.CurrentTime(); got != 0 {
		t.Errorf("current time = %v, want 0", got)
	}
}

func TestController_EscapeClearsSelectionWhenIdle(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	f.controller.SelectClip(clip.ID)
	f.controller.Escape()
	if f.controller.SelectedClip() != NoSelection {
		t.Error("Escape while idle should clear the selection")
	}

	// Mid-gesture, Escape leaves the selection alone.
	f.controller.BeginMove(clip.ID, 0)
	f.controller.Escape()
	if f.controller.SelectedClip() != clip.ID {
		t.Error("Escape mid-drag should not clear the selection")
	}
	f.controller.PointerUp()
}

func TestController_SelectClipIgnoresStaleID(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	f.controller.SelectClip(clip.ID)
	f.controller.SelectClip(99)
	if f.controller.SelectedClip() != clip.ID {
		t.Errorf("selected = %d, want %d (stale id ignored)", f.controller.SelectedClip(), clip.ID)
	}

	f.controller.SelectClip(NoSelection)
	if f.controller.SelectedClip() != NoSelection {
		t.Error("explicit clear failed")
	}
}

func TestController_SetZoomIgnoredMidGesture(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	f.controller.BeginMove(clip.ID, 0)
	f.controller.SetZoom(10)
	if got := f.controller.PixelsPerSecond(); got != 100 {
		t.Errorf("pps = %v, want 100 (zoom change ignored mid-drag)", got)
	}
	f.controller.PointerUp()

	f.controller.SetZoom(10)
	if got := f.controller.PixelsPerSecond(); got != 10 {
		t.Errorf("pps = %v, want 10", got)
	}

	f.controller.SetZoom(-5)
	if got := f.controller.PixelsPerSecond(); got != 10 {
		t.Errorf("pps = %v, want 10 (non-positive zoom ignored)", got)
	}
}

func TestController_ZoomScalesPointerMath(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	f.controller.SetZoom(50) // 50 px/s
	f.controller.BeginMove(clip.ID, 0)
	f.controller.PointerMove(100) // +100px = +2s at 50 px/s

	got, _ := f.registry.Get(clip.ID)
	if got.Start != 2 {
		t.Errorf("start = %v, want 2", got.Start)
	}
}

func TestController_ClipDeletedMidGesture(t *testing.T) {
	f := newFixture(t)
	clip := f.addClip(t, 0, 0, 2)

	f.controller.BeginMove(clip.ID, 0)
	f.registry.Remove(clip.ID)

	f.controller.PointerMove(100)
	if f.controller.State() != StateIdle {
		t.Errorf("state = %q, want idle after mid-gesture delete", f.controller.State())
	}
}

func TestController_OnlyOneGestureAtATime(t *testing.T) {
	f := newFixture(t)
	a := f.addClip(t, 0, 0, 2)
	b := f.addClip(t, 0, 5, 2)

	f.controller.BeginMove(a.ID, 0)
	if f.controller.BeginMove(b.ID, 0) {
		t.Error("second BeginMove during an active drag should be refused")
	}
	if f.controller.BeginSeek(0) {
		t.Error("BeginSeek during an active drag should be refused")
	}
}
