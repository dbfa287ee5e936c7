package timeline

import (
	"sort"
)

// ChangeListener receives the full clip list after every committed mutation.
// Consumers diff if they need deltas; the registry makes no diffing promise.
type ChangeListener func(clips []Clip)

// Registry is the authoritative store of clips. It is pure CRUD: constraint
// checks are the caller's job (see the interaction controller). The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	clips     []Clip
	listeners []ChangeListener
}

func NewRegistry() *Registry {
	return &Registry{}
}

// OnChange registers a listener fired after every committed mutation,
// including batch normalization. Listeners run synchronously in
// registration order.
func (r *Registry) OnChange(l ChangeListener) {
	r.listeners = append(r.listeners, l)
}

func (r *Registry) notify() {
	if len(r.listeners) == 0 {
		return
	}
	snapshot := r.List()
	for _, l := range r.listeners {
		l(snapshot)
	}
}

// NextID returns the id the next created clip will receive:
// max(existing ids) + 1, or 0 when the registry is empty.
func (r *Registry) NextID() int {
	if len(r.clips) == 0 {
		return 0
	}
	max := r.clips[0].ID
	for _, c := range r.clips[1:] {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// Create assigns the next id to the partial clip, appends it, and returns
// the stored clip.
func (r *Registry) Create(partial Clip) Clip {
	partial.ID = r.NextID()
	r.clips = append(r.clips, partial)
	r.notify()
	return partial
}

// Get returns the clip with the given id, or false when absent. Stale ids
// are routine during pending UI callbacks, so absence is not an error.
func (r *Registry) Get(id int) (Clip, bool) {
	for _, c := range r.clips {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return Clip{}, false
}

// Patch holds optional field updates for a clip. Nil fields are left alone.
type Patch struct {
	LayerID  *int
	Start    *float64
	Duration *float64
	Title    *string
	URL      *string
	Locked   *bool
	Metadata map[string]any
}

// Update merges the patch into the clip with the given id and returns the
// updated clip, or false when the id is absent. It performs no constraint
// validation.
func (r *Registry) Update(id int, patch Patch) (Clip, bool) {
	for i := range r.clips {
		if r.clips[i].ID != id {
			continue
		}
		c := &r.clips[i]
		if patch.LayerID != nil {
			c.LayerID = *patch.LayerID
		}
		if patch.Start != nil {
			c.Start = *patch.Start
		}
		if patch.Duration != nil {
			c.Duration = *patch.Duration
		}
		if patch.Title != nil {
			c.Title = *patch.Title
		}
		if patch.URL != nil {
			c.URL = *patch.URL
		}
		if patch.Locked != nil {
			c.Locked = *patch.Locked
		}
		for k, v := range patch.Metadata {
			if c.Metadata == nil {
				c.Metadata = make(map[string]any)
			}
			c.Metadata[k] = v
		}
		updated := c.Clone()
		r.notify()
		return updated, true
	}
	return Clip{}, false
}

// Remove deletes the clip with the given id. Returns false when absent.
func (r *Registry) Remove(id int) bool {
	for i := range r.clips {
		if r.clips[i].ID == id {
			r.clips = append(r.clips[:i], r.clips[i+1:]...)
			r.notify()
			return true
		}
	}
	return false
}

// List returns a copy of all clips in insertion order. The order is not
// sorted by start.
func (r *Registry) List() []Clip {
	out := make([]Clip, len(r.clips))
	for i, c := range r.clips {
		out[i] = c.Clone()
	}
	return out
}

// ByLayer returns the clips in a layer sorted ascending by start. Callers
// rely on this order for adjacency checks.
func (r *Registry) ByLayer(layerID int) []Clip {
	var out []Clip
	for _, c := range r.clips {
		if c.LayerID == layerID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// Count returns the number of clips.
func (r *Registry) Count() int {
	return len(r.clips)
}

// Replace swaps the entire clip set, preserving the given order. Used by
// batch normalization and project load; fires a single change notification.
func (r *Registry) Replace(clips []Clip) {
	next := make([]Clip, len(clips))
	for i, c := range clips {
		next[i] = c.Clone()
	}
	r.clips = next
	r.notify()
}

// Reset removes all clips.
func (r *Registry) Reset() {
	r.clips = nil
	r.notify()
}
