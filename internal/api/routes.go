package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cadenza/cadenza-engine/internal/interaction"
	"github.com/cadenza/cadenza-engine/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/timeline/clips", listClipsHandler(cfg))
		r.Post("/timeline/clips", addClipHandler(cfg))
		r.Patch("/timeline/clips/{id}", updateClipHandler(cfg))
		r.Delete("/timeline/clips/{id}", deleteClipHandler(cfg))
		r.Post("/timeline/clips/{id}/duplicate", duplicateClipHandler(cfg))
		r.Post("/timeline/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/timeline/normalize", normalizeHandler(cfg))

		r.Get("/timeline/layers", listLayersHandler(cfg))
		r.Post("/timeline/layers/{id}/lock", toggleLockHandler(cfg))
		r.Post("/timeline/layers/{id}/visibility", toggleVisibilityHandler(cfg))

		r.Post("/session/select", selectHandler(cfg))
		r.Post("/session/escape", escapeHandler(cfg))
		r.Post("/session/zoom", zoomHandler(cfg))
		r.Post("/session/pointer/down", pointerDownHandler(cfg))
		r.Post("/session/pointer/move", pointerMoveHandler(cfg))
		r.Post("/session/pointer/up", pointerUpHandler(cfg))

		r.Get("/transport", transportHandler(cfg))
		r.Post("/transport/play", playHandler(cfg))
		r.Post("/transport/pause", pauseHandler(cfg))
		r.Post("/transport/seek", seekHandler(cfg))
		r.Post("/transport/tick", tickHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", saveProjectHandler(cfg))
		r.Post("/projects/{id}/load", loadProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Post("/projects/import", importProjectHandler(cfg))
		r.Get("/projects/export", exportProjectHandler(cfg))

		r.Post("/export/edl", exportEDLHandler(cfg))
		r.Get("/playback/clip", clipMediaHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			State:       string(cfg.Controller.State()),
			Playing:     cfg.Clock.Playing(),
			CurrentTime: cfg.Clock.CurrentTime(),
			Duration:    cfg.Clock.Duration(),
			ClipsCount:  cfg.Timeline.Registry().Count(),
			LayersCount: len(cfg.Timeline.Layers().List()),
		}
		if id := cfg.Controller.SelectedClip(); id != interaction.NoSelection {
			resp.SelectedClip = &id
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: cfg.Timeline.Registry().List()})
	}
}

func listLayersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, LayersResponse{Layers: cfg.Timeline.Layers().List()})
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, res := cfg.Timeline.AddClip(req.LayerID, req.Start, timeline.Clip{
			Type:           req.Type,
			Duration:       req.Duration,
			Title:          req.Title,
			URL:            req.URL,
			GeneratedImage: req.GeneratedImage,
			Metadata:       req.Metadata,
		})
		if !res.Valid {
			WriteInvalid(w, OperationResult{Valid: false, Error: res.Error})
			return
		}

		WriteJSON(w, http.StatusCreated, ClipResponse{Clip: clip})
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := clipID(w, r)
		if !parseOK {
			return
		}

		var req UpdateClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, res := cfg.Timeline.UpdateClip(id, timeline.Patch{
			LayerID:  req.LayerID,
			Start:    req.Start,
			Duration: req.Duration,
			Title:    req.Title,
			URL:      req.URL,
			Locked:   req.Locked,
			Metadata: req.Metadata,
		})
		if !res.Valid {
			WriteInvalid(w, OperationResult{Valid: false, Error: res.Error})
			return
		}

		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := clipID(w, r)
		if !parseOK {
			return
		}

		if res := cfg.Timeline.DeleteClip(id); !res.Valid {
			WriteInvalid(w, OperationResult{Valid: false, Error: res.Error})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func duplicateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := clipID(w, r)
		if !parseOK {
			return
		}

		clip, res := cfg.Timeline.DuplicateClip(id)
		if !res.Valid {
			WriteInvalid(w, OperationResult{Valid: false, Error: res.Error})
			return
		}
		WriteJSON(w, http.StatusCreated, ClipResponse{Clip: clip})
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := clipID(w, r)
		if !parseOK {
			return
		}

		var req SplitClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, res := cfg.Timeline.SplitClip(id, req.At)
		if !res.Valid {
			WriteInvalid(w, OperationResult{Valid: false, Error: res.Error})
			return
		}
		WriteJSON(w, http.StatusCreated, ClipResponse{Clip: clip})
	}
}

func normalizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips := cfg.Timeline.Normalize()
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

func toggleLockHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := layerID(w, r)
		if !parseOK {
			return
		}

		if !cfg.Timeline.Layers().ToggleLock(id) {
			WriteInvalid(w, OperationResult{Valid: false, Error: "Layer lock state is fixed"})
			return
		}
		WriteJSON(w, http.StatusOK, OperationResult{Valid: true})
	}
}

func toggleVisibilityHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, parseOK := layerID(w, r)
		if !parseOK {
			return
		}

		if !cfg.Timeline.Layers().ToggleVisibility(id) {
			WriteError(w, http.StatusNotFound, "layer not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, OperationResult{Valid: true})
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.ClipID == nil {
			cfg.Controller.SelectClip(interaction.NoSelection)
		} else {
			cfg.Controller.SelectClip(*req.ClipID)
		}
		writeGesture(w, cfg, false)
	}
}

func escapeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.Escape()
		writeGesture(w, cfg, false)
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Controller.SetZoom(req.PixelsPerSecond)
		writeGesture(w, cfg, false)
	}
}

func pointerDownHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerDownRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var started bool
		switch req.Target {
		case "clip":
			started = cfg.Controller.BeginMove(req.ClipID, req.X)
		case "edge":
			started = cfg.Controller.BeginResize(req.ClipID, req.Edge, req.X)
		case "playhead":
			started = cfg.Controller.BeginSeek(req.X)
		case "empty":
			cfg.Controller.SeekAt(req.X)
		default:
			WriteError(w, http.StatusBadRequest, "unknown pointer target", "BAD_REQUEST")
			return
		}
		writeGesture(w, cfg, started)
	}
}

func pointerMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Controller.PointerMove(req.X)
		writeGesture(w, cfg, false)
	}
}

func pointerUpHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.PointerUp()
		writeGesture(w, cfg, false)
	}
}

func transportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeTransport(w, cfg)
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Clock.Play()
		writeTransport(w, cfg)
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Clock.Pause()
		writeTransport(w, cfg)
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Clock.Seek(req.Time)
		writeTransport(w, cfg)
	}
}

func tickHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Clock.Tick(req.Time)
		writeTransport(w, cfg)
	}
}

func writeTransport(w http.ResponseWriter, cfg ServerConfig) {
	WriteJSON(w, http.StatusOK, TransportResponse{
		Playing:     cfg.Clock.Playing(),
		CurrentTime: cfg.Clock.CurrentTime(),
		Duration:    cfg.Clock.Duration(),
	})
}

func writeGesture(w http.ResponseWriter, cfg ServerConfig, started bool) {
	resp := GestureResponse{
		State:   string(cfg.Controller.State()),
		Started: started,
	}
	if id := cfg.Controller.SelectedClip(); id != interaction.NoSelection {
		resp.SelectedClip = &id
	}
	WriteJSON(w, http.StatusOK, resp)
}

func clipID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "clip id must be an integer", "BAD_REQUEST")
		return 0, false
	}
	return id, true
}

func layerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "layer id must be an integer", "BAD_REQUEST")
		return 0, false
	}
	return id, true
}
