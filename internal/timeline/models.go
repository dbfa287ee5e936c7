// Package timeline owns the clip/layer data model and the constraint engine
// that keeps a timeline consistent: duration bounds, same-layer non-overlap,
// and layer-type isolation.
package timeline

// Clip type constants
const (
	ClipTypeVideo          = "video"
	ClipTypeImage          = "image"
	ClipTypeAudio          = "audio"
	ClipTypeText           = "text"
	ClipTypeEffect         = "effect"
	ClipTypeGeneratedImage = "generated_image"
	ClipTypeTransition     = "transition"
	ClipTypePlaceholder    = "placeholder"
)

// Layer type constants. Layer types are policy domains and are not identical
// to clip types: a video layer accepts both video and image clips.
const (
	LayerTypeVideo         = "video"
	LayerTypeAudio         = "audio"
	LayerTypeImage         = "image"
	LayerTypeText          = "text"
	LayerTypeEffect        = "effect"
	LayerTypeTransition    = "transition"
	LayerTypeAIPlaceholder = "ai_placeholder"
)

// Timing bounds in seconds. AIPlaceholderMaxDuration is enforced as a hard
// validation failure at interaction time, while MaxClipDuration is silently
// clamped during batch normalization.
const (
	MinClipDuration          = 0.1
	MaxClipDuration          = 5.0
	AIPlaceholderMaxDuration = 5.0
)

// Clip is a time-positioned media reference inside a layer. All times are
// seconds as float64.
type Clip struct {
	ID             int            `json:"id"`
	LayerID        int            `json:"layer_id"`
	Type           string         `json:"type"`
	Start          float64        `json:"start"`
	Duration       float64        `json:"duration"`
	Title          string         `json:"title"`
	URL            string         `json:"url,omitempty"`
	Locked         bool           `json:"locked"`
	GeneratedImage bool           `json:"generated_image"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// End returns the closed-open interval end time, Start + Duration.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// Overlaps reports whether the [Start, End) intervals of two clips intersect.
// Three-way test: either endpoint inside the other, or full containment.
func (c Clip) Overlaps(other Clip) bool {
	if c.Start >= other.Start && c.Start < other.End() {
		return true
	}
	if c.End() > other.Start && c.End() <= other.End() {
		return true
	}
	return c.Start <= other.Start && c.End() >= other.End()
}

// Clone returns a copy of the clip with its own metadata map.
func (c Clip) Clone() Clip {
	out := c
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Layer is an ordered track that owns zero or more clips by reference. The
// ClipRegistry owns clip lifetimes; a layer only supplies policy.
type Layer struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Locked  bool   `json:"locked"`
	Visible bool   `json:"visible"`
	Height  int    `json:"height"`
	Color   string `json:"color"`
}
