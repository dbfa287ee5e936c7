package timeline

import (
	"log/slog"
)

// Service is the explicit command surface over the registry: add, delete,
// duplicate, split, patch. Every mutation passes through the constraint
// engine first and validation failures come back as Result values for the
// caller to display. This is the surfaced half of the error policy; live
// drags (internal/interaction) are the silent half.
type Service struct {
	registry *Registry
	layers   *LayerStore
	engine   *Engine
	logger   *slog.Logger
}

func NewService(registry *Registry, layers *LayerStore, engine *Engine, logger *slog.Logger) *Service {
	return &Service{registry: registry, layers: layers, engine: engine, logger: logger}
}

func (s *Service) Registry() *Registry { return s.registry }
func (s *Service) Layers() *LayerStore { return s.layers }
func (s *Service) Engine() *Engine     { return s.engine }

// AddClip validates and commits a new clip at the proposed position. The
// proposed duration is clamped to the configured range before validation,
// same as interactive resizes. The returned clip is only meaningful when
// the result is valid.
func (s *Service) AddClip(layerID int, start float64, data Clip) (Clip, Result) {
	candidate := data.Clone()
	candidate.LayerID = layerID
	candidate.Start = start
	candidate.ID = s.registry.NextID()
	candidate = s.engine.ClampDuration(candidate)

	if res := s.engine.ValidateOperation(candidate, s.registry.List(), OpAdd); !res.Valid {
		return Clip{}, res
	}

	created := s.registry.Create(candidate)
	if s.logger != nil {
		s.logger.Info("clip added", "clip_id", created.ID, "layer_id", layerID, "start", start)
	}
	return created, ok()
}

// DeleteClip validates and removes a clip. Unknown ids return an invalid
// result rather than an error; stale ids are routine.
func (s *Service) DeleteClip(id int) Result {
	clip, found := s.registry.Get(id)
	if !found {
		return fail("Clip not found")
	}
	if res := s.engine.ValidateOperation(clip, s.registry.List(), OpDelete); !res.Valid {
		return res
	}
	s.registry.Remove(id)
	if s.logger != nil {
		s.logger.Info("clip deleted", "clip_id", id)
	}
	return ok()
}

// UpdateClip merges a patch. Patches that change timing or layer are
// validated as an explicit move; presentation-only patches (title, url,
// metadata, lock) commit directly.
func (s *Service) UpdateClip(id int, patch Patch) (Clip, Result) {
	current, found := s.registry.Get(id)
	if !found {
		return Clip{}, fail("Clip not found")
	}

	if patch.Start != nil || patch.Duration != nil || patch.LayerID != nil {
		candidate := current.Clone()
		if patch.LayerID != nil {
			candidate.LayerID = *patch.LayerID
		}
		if patch.Start != nil {
			candidate.Start = *patch.Start
		}
		if patch.Duration != nil {
			candidate.Duration = *patch.Duration
		}
		candidate = s.engine.ClampDuration(candidate)
		if res := s.engine.ValidateOperation(candidate, s.registry.List(), OpMove); !res.Valid {
			return Clip{}, res
		}
		if patch.Duration != nil {
			// Commit what was validated, not the raw proposal.
			clamped := candidate.Duration
			patch.Duration = &clamped
		}
	}

	updated, _ := s.registry.Update(id, patch)
	return updated, ok()
}

// DuplicateClip places a copy of the clip immediately after it on the same
// layer.
func (s *Service) DuplicateClip(id int) (Clip, Result) {
	original, found := s.registry.Get(id)
	if !found {
		return Clip{}, fail("Clip not found")
	}

	candidate := original.Clone()
	candidate.ID = s.registry.NextID()
	candidate.Start = original.End()
	candidate.Locked = false

	if res := s.engine.ValidateOperation(candidate, s.registry.List(), OpDuplicate); !res.Valid {
		return Clip{}, res
	}

	created := s.registry.Create(candidate)
	if s.logger != nil {
		s.logger.Info("clip duplicated", "clip_id", id, "new_clip_id", created.ID)
	}
	return created, ok()
}

// SplitClip cuts a clip in two at an absolute time. Both halves must respect
// the minimum duration.
func (s *Service) SplitClip(id int, at float64) (Clip, Result) {
	original, found := s.registry.Get(id)
	if !found {
		return Clip{}, fail("Clip not found")
	}

	minDur := s.engine.MinDuration()
	if at <= original.Start+minDur || at >= original.End()-minDur {
		return Clip{}, fail("Split point too close to clip edge")
	}

	if res := s.engine.ValidateOperation(original, s.registry.List(), OpSplit); !res.Valid {
		return Clip{}, res
	}

	left := at - original.Start
	s.registry.Update(id, Patch{Duration: &left})

	second := original.Clone()
	second.Start = at
	second.Duration = original.End() - at
	created := s.registry.Create(second)

	if s.logger != nil {
		s.logger.Info("clip split", "clip_id", id, "at", at, "new_clip_id", created.ID)
	}
	return created, ok()
}

// Normalize runs the canonical constraint pipeline over the whole clip set
// and commits the result. Used on project load and import.
func (s *Service) Normalize() []Clip {
	normalized := s.engine.ApplyAll(s.registry.List())
	s.registry.Replace(normalized)
	return normalized
}
