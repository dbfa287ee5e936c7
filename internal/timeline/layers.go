package timeline

import "sort"

// DefaultIsolatedTypes is the layer-type set whose layers are isolated:
// their lock state is fixed at creation and their clips cannot be moved or
// resized once placed. Protects master tracks from accidental edits.
var DefaultIsolatedTypes = map[string]bool{
	LayerTypeAudio:  true,
	LayerTypeVideo:  true,
	LayerTypeText:   true,
	LayerTypeEffect: true,
}

// LayerStore owns layer definitions and answers layer-level policy
// questions. It does not hold clips; the Registry does.
type LayerStore struct {
	layers        map[int]*Layer
	order         []int
	isolatedTypes map[string]bool
	aiLayerID     int
	nextID        int
}

// LayerStoreConfig configures policy at construction. Zero-value fields fall
// back to defaults.
type LayerStoreConfig struct {
	// IsolatedTypes overrides DefaultIsolatedTypes when non-nil.
	IsolatedTypes map[string]bool
	// AILayerID is the designated layer for AI-generated image clips.
	AILayerID int
}

func NewLayerStore(cfg LayerStoreConfig) *LayerStore {
	isolated := cfg.IsolatedTypes
	if isolated == nil {
		isolated = DefaultIsolatedTypes
	}
	return &LayerStore{
		layers:        make(map[int]*Layer),
		isolatedTypes: isolated,
		aiLayerID:     cfg.AILayerID,
	}
}

// DefaultLayers builds the standard editing layer set: video, audio (master),
// text, effect, and the AI-generated image layer. The AI layer's id becomes
// the store's designated AI layer.
func DefaultLayers() *LayerStore {
	s := NewLayerStore(LayerStoreConfig{})
	s.Add(Layer{Type: LayerTypeVideo, Name: "Video", Visible: true, Height: 64, Color: "#4f8cc9"})
	s.Add(Layer{Type: LayerTypeAudio, Name: "Audio", Visible: true, Height: 48, Color: "#5cb85c"})
	s.Add(Layer{Type: LayerTypeText, Name: "Text", Visible: true, Height: 32, Color: "#f0ad4e"})
	s.Add(Layer{Type: LayerTypeEffect, Name: "Effects", Visible: true, Height: 32, Color: "#9b59b6"})
	ai := s.Add(Layer{Type: LayerTypeAIPlaceholder, Name: "AI Images", Visible: true, Height: 64, Color: "#d9534f"})
	s.aiLayerID = ai.ID
	return s
}

// Add registers a layer, assigning an id when the given one is not positive
// and not already free. Isolated layers are created locked.
func (s *LayerStore) Add(layer Layer) Layer {
	if _, taken := s.layers[layer.ID]; taken || layer.ID < 0 {
		layer.ID = s.nextID
	}
	if layer.ID >= s.nextID {
		s.nextID = layer.ID + 1
	}
	if s.isolatedTypes[layer.Type] {
		layer.Locked = true
	}
	stored := layer
	s.layers[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return stored
}

// Get returns the layer with the given id, or false when absent.
func (s *LayerStore) Get(id int) (Layer, bool) {
	l, ok := s.layers[id]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// List returns all layers in creation order.
func (s *LayerStore) List() []Layer {
	out := make([]Layer, 0, len(s.order))
	for _, id := range s.order {
		if l, ok := s.layers[id]; ok {
			out = append(out, *l)
		}
	}
	return out
}

// AILayerID returns the designated layer id for AI-generated image clips.
func (s *LayerStore) AILayerID() int {
	return s.aiLayerID
}

// IsIsolated reports whether the layer's type is in the isolated set.
// Unknown layer ids are not isolated.
func (s *LayerStore) IsIsolated(layerID int) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	return s.isolatedTypes[l.Type]
}

// IsClipTypeValidForLayer answers the layer content policy table.
func (s *LayerStore) IsClipTypeValidForLayer(clipType string, layerID int, generatedImage bool) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	switch l.Type {
	case LayerTypeAudio:
		return clipType == ClipTypeAudio
	case LayerTypeVideo, LayerTypeImage:
		return clipType == ClipTypeVideo || clipType == ClipTypeImage
	case LayerTypeText:
		return clipType == ClipTypeText
	case LayerTypeEffect:
		return clipType == ClipTypeEffect
	case LayerTypeAIPlaceholder:
		return clipType == ClipTypeImage && generatedImage
	default:
		return false
	}
}

// ToggleLock flips the layer's lock state. Isolated layers' lock state is
// fixed at creation; the toggle is refused and false is returned.
func (s *LayerStore) ToggleLock(layerID int) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	if s.isolatedTypes[l.Type] {
		return false
	}
	l.Locked = !l.Locked
	return true
}

// ToggleVisibility flips the layer's visibility. Presentation-only, always
// allowed. Returns false only for unknown ids.
func (s *LayerStore) ToggleVisibility(layerID int) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	l.Visible = !l.Visible
	return true
}

// CanAcceptAnotherClip answers the layer cardinality rule: the audio layer
// acts as a master track and holds at most one clip; other layer types have
// no cap beyond the overlap constraint.
func (s *LayerStore) CanAcceptAnotherClip(layerID int, existingInLayer []Clip) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	if l.Type == LayerTypeAudio {
		return len(existingInLayer) == 0
	}
	return true
}

// CanDelete reports whether a layer may be removed. Isolated and AI layers
// are part of the default set and cannot be deleted.
func (s *LayerStore) CanDelete(layerID int) bool {
	l, ok := s.layers[layerID]
	if !ok {
		return false
	}
	if s.isolatedTypes[l.Type] || layerID == s.aiLayerID {
		return false
	}
	return true
}

// Remove deletes a deletable layer. Returns false when refused or absent.
func (s *LayerStore) Remove(layerID int) bool {
	if !s.CanDelete(layerID) {
		return false
	}
	delete(s.layers, layerID)
	for i, id := range s.order {
		if id == layerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace swaps the entire layer set, used by project load. Layer order
// follows ascending id. The designated AI layer id is recomputed from the
// first ai_placeholder layer; a set without one leaves the store with no
// designated AI layer rather than a stale id into the previous set.
func (s *LayerStore) Replace(layers []Layer) {
	s.layers = make(map[int]*Layer, len(layers))
	s.order = s.order[:0]
	s.nextID = 0
	s.aiLayerID = -1
	sorted := make([]Layer, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, l := range sorted {
		stored := l
		if s.isolatedTypes[stored.Type] {
			stored.Locked = true
		}
		s.layers[stored.ID] = &stored
		s.order = append(s.order, stored.ID)
		if stored.ID >= s.nextID {
			s.nextID = stored.ID + 1
		}
		if stored.Type == LayerTypeAIPlaceholder && s.aiLayerID < 0 {
			s.aiLayerID = stored.ID
		}
	}
}
