package timeline

import (
	"strings"
	"testing"
)

// testLayers builds a layer set with known ids:
// 0 video, 1 audio, 2 image (free), 3 text, 7 ai_placeholder.
func testLayers(t *testing.T) *LayerStore {
	t.Helper()
	s := NewLayerStore(LayerStoreConfig{})
	s.Add(Layer{ID: 0, Type: LayerTypeVideo, Name: "Video", Visible: true})
	s.Add(Layer{ID: 1, Type: LayerTypeAudio, Name: "Audio", Visible: true})
	s.Add(Layer{ID: 2, Type: LayerTypeImage, Name: "Images", Visible: true})
	s.Add(Layer{ID: 3, Type: LayerTypeText, Name: "Text", Visible: true})
	ai := s.Add(Layer{ID: 7, Type: LayerTypeAIPlaceholder, Name: "AI", Visible: true})
	if ai.ID != 7 {
		t.Fatalf("ai layer id = %d, want 7", ai.ID)
	}
	s.aiLayerID = 7
	return s
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testLayers(t), EngineConfig{})
}

func TestClampDuration(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above max clamps down", 6.0, 5.0},
		{"below min clamps up", 0.01, 0.1},
		{"at max unchanged", 5.0, 5.0},
		{"at min unchanged", 0.1, 0.1},
		{"in range unchanged", 2.5, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ClampDuration(Clip{Duration: tt.in})
			if got.Duration != tt.want {
				t.Errorf("ClampDuration(%v) = %v, want %v", tt.in, got.Duration, tt.want)
			}
		})
	}
}

func TestResolveOverlaps_PushesLaterClipForward(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 3},
		{ID: 1, LayerID: 2, Type: ClipTypeImage, Start: 2, Duration: 2},
	}

	out := e.ResolveOverlaps(clips)

	if out[1].Start != 3 {
		t.Errorf("second clip start = %v, want 3", out[1].Start)
	}
	if out[0].Start != 0 {
		t.Errorf("first clip start = %v, want 0 (earlier clips never yield)", out[0].Start)
	}
}

func TestResolveOverlaps_CascadesThroughLayer(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Start: 0, Duration: 2},
		{ID: 1, LayerID: 2, Start: 1, Duration: 2},
		{ID: 2, LayerID: 2, Start: 3, Duration: 2},
	}

	out := e.ResolveOverlaps(clips)

	// Clip 1 moves to 2, which pushes clip 2 to 4.
	if out[1].Start != 2 {
		t.Errorf("clip 1 start = %v, want 2", out[1].Start)
	}
	if out[2].Start != 4 {
		t.Errorf("clip 2 start = %v, want 4 (cascade)", out[2].Start)
	}
}

func TestResolveOverlaps_LayersIndependent(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Start: 0, Duration: 3},
		{ID: 1, LayerID: 0, Start: 1, Duration: 3},
	}

	out := e.ResolveOverlaps(clips)

	if out[1].Start != 1 {
		t.Errorf("other layer clip start = %v, want 1 (untouched)", out[1].Start)
	}
}

func TestResolveOverlaps_AdjacentClipsUntouched(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Start: 0, Duration: 2},
		{ID: 1, LayerID: 2, Start: 2, Duration: 2},
	}

	out := e.ResolveOverlaps(clips)

	if out[0].Start != 0 || out[1].Start != 2 {
		t.Errorf("adjacent clips moved: got starts %v, %v", out[0].Start, out[1].Start)
	}
}

func TestEnforceLayerIsolation(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Type: ClipTypeImage, GeneratedImage: true, Start: 1, Duration: 2},
		{ID: 1, LayerID: 2, Type: ClipTypeImage, GeneratedImage: false, Start: 5, Duration: 2},
		{ID: 2, LayerID: 0, Type: ClipTypeVideo, Start: 0, Duration: 2},
	}

	out := e.EnforceLayerIsolation(clips)

	if out[0].LayerID != 7 {
		t.Errorf("generated image layer = %d, want 7", out[0].LayerID)
	}
	if out[1].LayerID != 2 {
		t.Errorf("plain image layer = %d, want 2 (untouched)", out[1].LayerID)
	}
	if out[2].LayerID != 0 {
		t.Errorf("video clip layer = %d, want 0 (untouched)", out[2].LayerID)
	}
}

func TestApplyAll_IsolationThenOverlapResolution(t *testing.T) {
	e := testEngine(t)

	// Layer 7 already holds [0,4); the reassigned clip lands at start 1
	// and must be pushed to 4 by the second overlap pass.
	clips := []Clip{
		{ID: 0, LayerID: 7, Type: ClipTypeImage, GeneratedImage: true, Start: 0, Duration: 4},
		{ID: 1, LayerID: 2, Type: ClipTypeImage, GeneratedImage: true, Start: 1, Duration: 2},
	}

	out := e.ApplyAll(clips)

	if out[1].LayerID != 7 {
		t.Fatalf("reassigned clip layer = %d, want 7", out[1].LayerID)
	}
	if out[1].Start != 4 {
		t.Errorf("reassigned clip start = %v, want 4", out[1].Start)
	}
}

func TestEnforceLayerIsolation_WithoutAILayer(t *testing.T) {
	layers := NewLayerStore(LayerStoreConfig{})
	layers.Add(Layer{ID: 0, Type: LayerTypeVideo, Name: "Video", Visible: true})
	layers.Add(Layer{ID: 1, Type: LayerTypeImage, Name: "Images", Visible: true})
	layers.Replace(layers.List())
	e := NewEngine(layers, EngineConfig{})

	clips := []Clip{
		{ID: 0, LayerID: 1, Type: ClipTypeImage, GeneratedImage: true, Start: 0, Duration: 2},
	}

	// No designated AI layer: the clip stays put instead of being pushed
	// onto a layer id that does not exist.
	out := e.ApplyAll(clips)
	if out[0].LayerID != 1 {
		t.Errorf("generated clip layer = %d, want 1", out[0].LayerID)
	}
	if res := e.ValidateOperation(out[0], out, OpMove); !res.Valid {
		t.Errorf("normalized clip fails validation: %q", res.Error)
	}
}

func TestApplyAll_Idempotent(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 7},
		{ID: 1, LayerID: 2, Type: ClipTypeImage, Start: 2, Duration: 2},
		{ID: 2, LayerID: 0, Type: ClipTypeImage, GeneratedImage: true, Start: 1, Duration: 0.05},
	}

	once := e.ApplyAll(clips)
	twice := e.ApplyAll(once)

	if len(once) != len(twice) {
		t.Fatalf("length changed: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Start != twice[i].Start || once[i].Duration != twice[i].Duration || once[i].LayerID != twice[i].LayerID {
			t.Errorf("clip %d changed on second pass: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestApplyAll_EnforcesDurationBounds(t *testing.T) {
	e := testEngine(t)

	clips := []Clip{
		{ID: 0, LayerID: 2, Start: 0, Duration: 9},
		{ID: 1, LayerID: 2, Start: 20, Duration: 0.001},
	}

	for _, c := range e.ApplyAll(clips) {
		if c.Duration < MinClipDuration || c.Duration > MaxClipDuration {
			t.Errorf("clip %d duration %v outside [%v, %v]", c.ID, c.Duration, MinClipDuration, MaxClipDuration)
		}
	}
}

func TestValidateOperation_IsolatedLayerImmutable(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 1, Type: ClipTypeAudio, Start: 0, Duration: 3}

	for _, op := range []string{OpMove, OpResizeStart, OpResizeEnd, OpDuplicate, OpSplit} {
		t.Run(op, func(t *testing.T) {
			res := e.ValidateOperation(clip, []Clip{clip}, op)
			if res.Valid {
				t.Fatalf("%s on isolated layer should be invalid", op)
			}
			if res.Error != ErrIsolatedLayer {
				t.Errorf("error = %q, want %q", res.Error, ErrIsolatedLayer)
			}
		})
	}
}

func TestValidateOperation_DeleteLastIsolatedClip(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 1, Type: ClipTypeAudio, Start: 0, Duration: 3}

	res := e.ValidateOperation(clip, []Clip{clip}, OpDelete)
	if res.Valid {
		t.Fatal("deleting the sole clip in an isolated layer should be invalid")
	}
	if res.Error != ErrLastIsolatedClip {
		t.Errorf("error = %q, want %q", res.Error, ErrLastIsolatedClip)
	}
}

func TestValidateOperation_DeleteFromFreeLayer(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 3}

	res := e.ValidateOperation(clip, []Clip{clip}, OpDelete)
	if !res.Valid {
		t.Errorf("delete on free layer should be valid, got %q", res.Error)
	}
}

func TestValidateOperation_AddAllowedOnIsolatedLayer(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 1, Type: ClipTypeAudio, Start: 0, Duration: 3}

	res := e.ValidateOperation(clip, nil, OpAdd)
	if !res.Valid {
		t.Errorf("populating an isolated layer should be valid, got %q", res.Error)
	}
}

func TestValidateOperation_AudioLayerSingleton(t *testing.T) {
	e := testEngine(t)

	existing := []Clip{{ID: 0, LayerID: 1, Type: ClipTypeAudio, Start: 0, Duration: 3}}
	candidate := Clip{ID: 1, LayerID: 1, Type: ClipTypeAudio, Start: 10, Duration: 3}

	res := e.ValidateOperation(candidate, existing, OpAdd)
	if res.Valid {
		t.Fatal("audio layer should accept at most one clip")
	}
	if res.Error != ErrLayerFull {
		t.Errorf("error = %q, want %q", res.Error, ErrLayerFull)
	}
}

func TestValidateOperation_ClipTypePolicy(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name      string
		clipType  string
		layerID   int
		generated bool
		want      bool
	}{
		{"audio on audio layer", ClipTypeAudio, 1, false, true},
		{"video on audio layer", ClipTypeVideo, 1, false, false},
		{"video on video layer", ClipTypeVideo, 0, false, true},
		{"image on video layer", ClipTypeImage, 0, false, true},
		{"text on video layer", ClipTypeText, 0, false, false},
		{"text on text layer", ClipTypeText, 3, false, true},
		{"generated image on ai layer", ClipTypeImage, 7, true, true},
		{"plain image on ai layer", ClipTypeImage, 7, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := Clip{ID: 9, LayerID: tt.layerID, Type: tt.clipType, GeneratedImage: tt.generated, Start: 50, Duration: 1}
			res := e.ValidateOperation(candidate, nil, OpAdd)
			if res.Valid != tt.want {
				t.Errorf("valid = %v (%q), want %v", res.Valid, res.Error, tt.want)
			}
		})
	}
}

func TestValidateOperation_OverlapThreeWayTest(t *testing.T) {
	e := testEngine(t)

	existing := []Clip{{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 2, Duration: 3}}

	tests := []struct {
		name  string
		start float64
		dur   float64
		want  bool
	}{
		{"start inside other", 3, 1, false},
		{"end inside other", 1, 2, false},
		{"contains other", 1, 5, false},
		{"inside other", 3, 0.5, false},
		{"before, adjacent", 0, 2, true},
		{"after, adjacent", 5, 2, true},
		{"clear of other", 10, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := Clip{ID: 1, LayerID: 2, Type: ClipTypeImage, Start: tt.start, Duration: tt.dur}
			res := e.ValidateOperation(candidate, existing, OpMove)
			if res.Valid != tt.want {
				t.Errorf("valid = %v (%q), want %v", res.Valid, res.Error, tt.want)
			}
		})
	}
}

func TestValidateOperation_SelfExcludedFromOverlap(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 2, Duration: 3}

	res := e.ValidateOperation(clip, []Clip{clip}, OpMove)
	if !res.Valid {
		t.Errorf("clip should not collide with itself, got %q", res.Error)
	}
}

func TestValidateOperation_UnknownOperationFailsClosed(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 1}

	res := e.ValidateOperation(clip, nil, "teleport")
	if res.Valid {
		t.Fatal("unknown operation should be invalid")
	}
	if res.Error != ErrUnknownOperation {
		t.Errorf("error = %q, want %q", res.Error, ErrUnknownOperation)
	}
}

func TestValidateOperation_AIPlaceholderDurationCap(t *testing.T) {
	e := testEngine(t)

	candidate := Clip{ID: 0, LayerID: 7, Type: ClipTypeImage, GeneratedImage: true, Start: 0, Duration: 6}

	res := e.ValidateOperation(candidate, nil, OpAdd)
	if res.Valid {
		t.Fatal("AI clip above the cap should be invalid")
	}
	if !strings.Contains(res.Error, "AI-generated") {
		t.Errorf("error = %q, want the AI-specific cap message", res.Error)
	}
}

func TestValidateOperation_LockedClip(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 1, Locked: true}

	res := e.ValidateOperation(clip, []Clip{clip}, OpMove)
	if res.Valid {
		t.Fatal("locked clip should refuse mutation")
	}
	if res.Error != ErrClipLocked {
		t.Errorf("error = %q, want %q", res.Error, ErrClipLocked)
	}
}

func TestValidateOperation_UnknownLayer(t *testing.T) {
	e := testEngine(t)

	clip := Clip{ID: 0, LayerID: 99, Type: ClipTypeImage, Start: 0, Duration: 1}

	res := e.ValidateOperation(clip, nil, OpAdd)
	if res.Valid {
		t.Fatal("unknown layer should be invalid")
	}
}

func TestValidateOperation_AllowOverlapLayerType(t *testing.T) {
	layers := testLayers(t)
	e := NewEngine(layers, EngineConfig{
		AllowOverlap: map[string]bool{LayerTypeImage: true},
	})

	existing := []Clip{{ID: 0, LayerID: 2, Type: ClipTypeImage, Start: 0, Duration: 3}}
	candidate := Clip{ID: 1, LayerID: 2, Type: ClipTypeImage, Start: 1, Duration: 3}

	res := e.ValidateOperation(candidate, existing, OpAdd)
	if !res.Valid {
		t.Errorf("overlap-permitted layer type should accept overlap, got %q", res.Error)
	}
}
