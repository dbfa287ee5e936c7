package api

import (
	"time"

	"github.com/cadenza/cadenza-engine/internal/project"
	"github.com/cadenza/cadenza-engine/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string  `json:"state"`
	Playing      bool    `json:"playing"`
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	ClipsCount   int     `json:"clips_count"`
	LayersCount  int     `json:"layers_count"`
	SelectedClip *int    `json:"selected_clip,omitempty"`
}

// OperationResult mirrors the constraint engine verdict on the wire.
type OperationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type ClipsResponse struct {
	Clips []timeline.Clip `json:"clips"`
}

type LayersResponse struct {
	Layers []timeline.Layer `json:"layers"`
}

type AddClipRequest struct {
	LayerID        int            `json:"layer_id"`
	Start          float64        `json:"start"`
	Type           string         `json:"type"`
	Duration       float64        `json:"duration"`
	Title          string         `json:"title"`
	URL            string         `json:"url,omitempty"`
	GeneratedImage bool           `json:"generated_image"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type UpdateClipRequest struct {
	LayerID  *int           `json:"layer_id,omitempty"`
	Start    *float64       `json:"start,omitempty"`
	Duration *float64       `json:"duration,omitempty"`
	Title    *string        `json:"title,omitempty"`
	URL      *string        `json:"url,omitempty"`
	Locked   *bool          `json:"locked,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type ClipResponse struct {
	Clip timeline.Clip `json:"clip"`
}

type SplitClipRequest struct {
	At float64 `json:"at"`
}

type SelectRequest struct {
	ClipID *int `json:"clip_id"`
}

// PointerDownRequest starts a gesture. Target is one of "clip", "edge",
// "playhead", or "empty"; ClipID and Edge apply to the clip targets.
type PointerDownRequest struct {
	Target string  `json:"target"`
	ClipID int     `json:"clip_id,omitempty"`
	Edge   string  `json:"edge,omitempty"`
	X      float64 `json:"x"`
}

type PointerMoveRequest struct {
	X float64 `json:"x"`
}

type GestureResponse struct {
	State        string `json:"state"`
	Started      bool   `json:"started,omitempty"`
	SelectedClip *int   `json:"selected_clip,omitempty"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type TickRequest struct {
	Time float64 `json:"time"`
}

type ZoomRequest struct {
	PixelsPerSecond float64 `json:"pixels_per_second"`
}

type TransportResponse struct {
	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

type SaveProjectRequest struct {
	Name string `json:"name"`
}

type ProjectResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Duration:  p.Duration,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

type ExportEDLRequest struct {
	ProjectName string  `json:"project_name"`
	Format      string  `json:"format"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

type ExportEDLResponse struct {
	Status       string   `json:"status"`
	Format       string   `json:"format"`
	OutputPath   string   `json:"output_path"`
	EventCount   int      `json:"event_count"`
	SkippedClips []string `json:"skipped_clips,omitempty"`
}
