package project

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/cadenza/cadenza-engine/internal/timeline"
)

// The external project format is millisecond-based and uses legacy field
// names (start_ms, duration_ms, name). Conversion to the canonical in-core
// shape (seconds, start, title) happens exactly once, here. A malformed clip
// fails the import as a whole: silently dropping clips would produce a
// timeline that passes constraint checks by accident.

var validate = validator.New()

type WireFile struct {
	Name       string      `json:"name" validate:"required"`
	DurationMs int64       `json:"duration_ms" validate:"gt=0"`
	Layers     []WireLayer `json:"layers" validate:"required,min=1,dive"`
	Clips      []WireClip  `json:"clips" validate:"dive"`
}

type WireLayer struct {
	ID      int    `json:"id" validate:"gte=0"`
	Type    string `json:"type" validate:"required,oneof=video audio image text effect transition ai_placeholder"`
	Name    string `json:"name"`
	Locked  bool   `json:"locked"`
	Visible bool   `json:"visible"`
	Height  int    `json:"height" validate:"gte=0"`
	Color   string `json:"color"`
}

type WireClip struct {
	ID             int            `json:"id" validate:"gte=0"`
	LayerID        int            `json:"layer_id" validate:"gte=0"`
	Type           string         `json:"type" validate:"required,oneof=video image audio text effect generated_image transition placeholder"`
	StartMs        int64          `json:"start_ms" validate:"gte=0"`
	DurationMs     int64          `json:"duration_ms" validate:"gt=0"`
	Name           string         `json:"name"`
	URL            string         `json:"url,omitempty"`
	Locked         bool           `json:"locked"`
	GeneratedImage bool           `json:"generated_image"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// DecodeWire parses and validates an external project payload. Any invalid
// field anywhere in the document rejects the whole import.
func DecodeWire(data []byte) (*WireFile, []timeline.Layer, []timeline.Clip, error) {
	var file WireFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid project payload: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid project payload: %w", err)
	}

	layers := make([]timeline.Layer, len(file.Layers))
	for i, wl := range file.Layers {
		layers[i] = timeline.Layer{
			ID:      wl.ID,
			Type:    wl.Type,
			Name:    wl.Name,
			Locked:  wl.Locked,
			Visible: wl.Visible,
			Height:  wl.Height,
			Color:   wl.Color,
		}
	}

	known := make(map[int]bool, len(layers))
	for _, l := range layers {
		known[l.ID] = true
	}

	clips := make([]timeline.Clip, len(file.Clips))
	for i, wc := range file.Clips {
		if !known[wc.LayerID] {
			return nil, nil, nil, fmt.Errorf("invalid project payload: clip %d references unknown layer %d", wc.ID, wc.LayerID)
		}
		clips[i] = timeline.Clip{
			ID:             wc.ID,
			LayerID:        wc.LayerID,
			Type:           wc.Type,
			Start:          msToSeconds(wc.StartMs),
			Duration:       msToSeconds(wc.DurationMs),
			Title:          wc.Name,
			URL:            wc.URL,
			Locked:         wc.Locked,
			GeneratedImage: wc.GeneratedImage,
			Metadata:       wc.Metadata,
		}
	}

	return &file, layers, clips, nil
}

// EncodeWire renders the current timeline in the external format.
func EncodeWire(name string, duration float64, layers []timeline.Layer, clips []timeline.Clip) ([]byte, error) {
	file := WireFile{
		Name:       name,
		DurationMs: secondsToMs(duration),
		Layers:     make([]WireLayer, len(layers)),
		Clips:      make([]WireClip, len(clips)),
	}
	for i, l := range layers {
		file.Layers[i] = WireLayer{
			ID:      l.ID,
			Type:    l.Type,
			Name:    l.Name,
			Locked:  l.Locked,
			Visible: l.Visible,
			Height:  l.Height,
			Color:   l.Color,
		}
	}
	for i, c := range clips {
		file.Clips[i] = WireClip{
			ID:             c.ID,
			LayerID:        c.LayerID,
			Type:           c.Type,
			StartMs:        secondsToMs(c.Start),
			DurationMs:     secondsToMs(c.Duration),
			Name:           c.Title,
			URL:            c.URL,
			Locked:         c.Locked,
			GeneratedImage: c.GeneratedImage,
			Metadata:       c.Metadata,
		}
	}
	return json.MarshalIndent(file, "", "  ")
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000.0
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000.0))
}
