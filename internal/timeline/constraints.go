package timeline

import (
	"fmt"
	"sort"
)

// Operation tags accepted by ValidateOperation. Unknown tags fail closed.
const (
	OpAdd         = "add"
	OpDelete      = "delete"
	OpMove        = "move"
	OpResizeStart = "resize_start"
	OpResizeEnd   = "resize_end"
	OpDuplicate   = "duplicate"
	OpSplit       = "split"
)

// Validation error messages surfaced to callers.
const (
	ErrIsolatedLayer     = "Cannot modify clips in isolated layers"
	ErrLastIsolatedClip  = "Cannot delete the last clip in an isolated layer"
	ErrClipOverlap       = "Clip overlaps another clip in the same layer"
	ErrLayerLocked       = "Layer is locked"
	ErrClipLocked        = "Clip is locked"
	ErrInvalidClipType   = "Clip type not allowed on this layer"
	ErrLayerFull         = "Layer does not accept another clip"
	ErrUnknownLayer      = "Unknown layer"
	ErrUnknownOperation  = "Unknown operation"
	ErrInvalidClipTiming = "Invalid clip timing"
)

// Result is the verdict of a validation. Error is a human-readable reason,
// set only when Valid is false. Validation never panics and never throws;
// callers branch on Valid.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func fail(reason string) Result {
	return Result{Valid: false, Error: reason}
}

// EngineConfig tunes the constraint engine. Zero values fall back to the
// package constants.
type EngineConfig struct {
	MinClipDuration float64
	MaxClipDuration float64
	// AIMaxDuration is the hard cap for AI-generated clips at interaction
	// time, rejected rather than clamped.
	AIMaxDuration float64
	// AllowOverlap lifts the same-layer overlap rule for the named layer
	// types. Defaults to empty: overlap is never allowed.
	AllowOverlap map[string]bool
}

// Engine enforces duration bounds, same-layer non-overlap, and layer-type
// isolation over a clip set. All methods are pure: they never mutate their
// inputs and never touch the registry.
type Engine struct {
	layers       *LayerStore
	minDur       float64
	maxDur       float64
	aiMaxDur     float64
	allowOverlap map[string]bool
}

func NewEngine(layers *LayerStore, cfg EngineConfig) *Engine {
	e := &Engine{
		layers:       layers,
		minDur:       cfg.MinClipDuration,
		maxDur:       cfg.MaxClipDuration,
		aiMaxDur:     cfg.AIMaxDuration,
		allowOverlap: cfg.AllowOverlap,
	}
	if e.minDur <= 0 {
		e.minDur = MinClipDuration
	}
	if e.maxDur <= 0 {
		e.maxDur = MaxClipDuration
	}
	if e.aiMaxDur <= 0 {
		e.aiMaxDur = AIPlaceholderMaxDuration
	}
	return e
}

// MinDuration returns the configured minimum clip duration in seconds.
func (e *Engine) MinDuration() float64 { return e.minDur }

// MaxDuration returns the configured maximum clip duration in seconds.
func (e *Engine) MaxDuration() float64 { return e.maxDur }

// ClampDuration forces the clip's duration into [min, max]. Deterministic,
// no side effects. Used at batch-normalize time; interactive edits that
// exceed the AI cap are rejected by ValidateOperation instead.
func (e *Engine) ClampDuration(clip Clip) Clip {
	if clip.Duration > e.maxDur {
		clip.Duration = e.maxDur
	}
	if clip.Duration < e.minDur {
		clip.Duration = e.minDur
	}
	return clip
}

// ResolveOverlaps removes same-layer overlaps by greedy left-to-right
// compaction: per layer, clips are walked in ascending start order and any
// clip starting before its predecessor ends is pushed forward to that end.
// Later clips always yield to earlier ones; a shift can cascade through all
// later clips in the layer. The input order of the returned slice is
// preserved.
func (e *Engine) ResolveOverlaps(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	for i, c := range clips {
		out[i] = c.Clone()
	}

	byLayer := make(map[int][]int)
	for i, c := range out {
		byLayer[c.LayerID] = append(byLayer[c.LayerID], i)
	}

	for layerID, idxs := range byLayer {
		if e.overlapAllowed(layerID) {
			continue
		}
		// Ascending start is the tie-break rule for processing order.
		sort.SliceStable(idxs, func(a, b int) bool {
			return out[idxs[a]].Start < out[idxs[b]].Start
		})
		for i := 1; i < len(idxs); i++ {
			prev := out[idxs[i-1]]
			cur := &out[idxs[i]]
			if prev.End() > cur.Start {
				cur.Start = prev.End()
			}
		}
	}
	return out
}

// EnforceLayerIsolation reassigns any AI-generated image clip sitting on the
// wrong layer to the designated AI layer. Reassignment can introduce new
// overlaps, so the canonical pipeline follows it with another
// ResolveOverlaps pass. Layer sets without a designated AI layer are left
// untouched.
func (e *Engine) EnforceLayerIsolation(clips []Clip) []Clip {
	aiLayer := e.layers.AILayerID()
	_, haveAILayer := e.layers.Get(aiLayer)
	out := make([]Clip, len(clips))
	for i, c := range clips {
		out[i] = c.Clone()
		if haveAILayer && out[i].Type == ClipTypeImage && out[i].GeneratedImage && out[i].LayerID != aiLayer {
			out[i].LayerID = aiLayer
		}
	}
	return out
}

// ApplyAll runs the canonical normalization pipeline: clamp durations,
// resolve overlaps, enforce isolation, then resolve overlaps again. The
// second pass is mandatory because isolation reassignment can move a clip
// into a now-colliding layer. ApplyAll is idempotent.
func (e *Engine) ApplyAll(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	for i, c := range clips {
		out[i] = e.ClampDuration(c.Clone())
	}
	out = e.ResolveOverlaps(out)
	out = e.EnforceLayerIsolation(out)
	return e.ResolveOverlaps(out)
}

// ValidateOperation is the policy gate invoked before committing an explicit
// mutation. candidate carries the proposed post-operation state (for add,
// move and resize: the target interval; for delete: the clip as it stands).
// existing is the full current clip set; the candidate's own id is excluded
// from overlap checks.
func (e *Engine) ValidateOperation(candidate Clip, existing []Clip, op string) Result {
	layer, known := e.layers.Get(candidate.LayerID)
	if !known {
		return fail(ErrUnknownLayer)
	}

	switch op {
	case OpAdd:
		// Populating a locked/isolated track is permitted; only an
		// explicitly user-locked non-isolated layer refuses adds.
		if layer.Locked && !e.layers.IsIsolated(layer.ID) {
			return fail(ErrLayerLocked)
		}
		if !e.layers.IsClipTypeValidForLayer(candidate.Type, layer.ID, candidate.GeneratedImage) {
			return fail(ErrInvalidClipType)
		}
		if !e.layers.CanAcceptAnotherClip(layer.ID, clipsInLayer(existing, layer.ID, candidate.ID)) {
			return fail(ErrLayerFull)
		}
		if r := e.checkTiming(candidate); !r.Valid {
			return r
		}
		return e.checkOverlap(candidate, existing)

	case OpDelete:
		if candidate.Locked {
			return fail(ErrClipLocked)
		}
		if layer.Locked && !e.layers.IsIsolated(layer.ID) {
			return fail(ErrLayerLocked)
		}
		if e.layers.IsIsolated(layer.ID) {
			if len(clipsInLayer(existing, layer.ID, -1)) <= 1 {
				return fail(ErrLastIsolatedClip)
			}
		}
		return ok()

	case OpMove, OpResizeStart, OpResizeEnd, OpDuplicate, OpSplit:
		if e.layers.IsIsolated(layer.ID) {
			return fail(ErrIsolatedLayer)
		}
		if candidate.Locked {
			return fail(ErrClipLocked)
		}
		if layer.Locked {
			return fail(ErrLayerLocked)
		}
		if r := e.checkTiming(candidate); !r.Valid {
			return r
		}
		return e.checkOverlap(candidate, existing)

	default:
		return fail(ErrUnknownOperation)
	}
}

// checkTiming rejects impossible intervals and enforces the AI-placeholder
// hard duration cap. This cap is a validation failure at interaction time,
// distinct from the silent clamp applied during batch normalization.
func (e *Engine) checkTiming(c Clip) Result {
	if c.Start < 0 || c.Duration <= 0 {
		return fail(ErrInvalidClipTiming)
	}
	if c.GeneratedImage || c.Type == ClipTypePlaceholder || c.Type == ClipTypeGeneratedImage {
		if c.Duration > e.aiMaxDur {
			return fail(fmt.Sprintf("AI-generated clips cannot exceed %.1fs", e.aiMaxDur))
		}
	}
	return ok()
}

func (e *Engine) checkOverlap(candidate Clip, existing []Clip) Result {
	if e.overlapAllowed(candidate.LayerID) {
		return ok()
	}
	for _, other := range existing {
		if other.ID == candidate.ID || other.LayerID != candidate.LayerID {
			continue
		}
		if candidate.Overlaps(other) {
			return fail(ErrClipOverlap)
		}
	}
	return ok()
}

// OverlapAllowed reports whether the layer's type is configured to permit
// overlapping clips. Used by live-drag collision checks as well.
func (e *Engine) OverlapAllowed(layerID int) bool {
	return e.overlapAllowed(layerID)
}

func (e *Engine) overlapAllowed(layerID int) bool {
	if e.allowOverlap == nil {
		return false
	}
	l, known := e.layers.Get(layerID)
	if !known {
		return false
	}
	return e.allowOverlap[l.Type]
}

// clipsInLayer filters existing clips on a layer, excluding excludeID
// (pass a negative id to keep everything).
func clipsInLayer(clips []Clip, layerID, excludeID int) []Clip {
	var out []Clip
	for _, c := range clips {
		if c.LayerID == layerID && c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out
}
