// Package ui provides the optional system-tray presence for the engine:
// transport state at a glance, play/pause, quit.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/cadenza/cadenza-engine/internal/clock"
	"github.com/cadenza/cadenza-engine/internal/timeline"
)

type Tray struct {
	timelineSvc *timeline.Service
	clock       *clock.Clock
	logger      *slog.Logger

	statusItem *systray.MenuItem
	clipsItem  *systray.MenuItem
	playItem   *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Timeline *timeline.Service
	Clock    *clock.Clock
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		timelineSvc: cfg.Timeline,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cadenza")
	systray.SetTooltip("Cadenza Timeline Engine")

	t.statusItem = systray.AddMenuItem("Transport: Stopped", "Current transport state")
	t.statusItem.Disable()

	t.clipsItem = systray.AddMenuItem("Clips: 0", "Clips on the timeline")
	t.clipsItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Toggle playback")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cadenza Engine")

	t.clock.OnTick(func(currentTime float64, playing bool) {
		t.updateTransport(playing)
	})
	t.timelineSvc.Registry().OnChange(func(clips []timeline.Clip) {
		t.updateClipCount(len(clips))
	})

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				t.togglePlayback()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePlayback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clock.Playing() {
		t.clock.Pause()
	} else {
		t.clock.Play()
	}
}

func (t *Tray) updateTransport(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil || t.playItem == nil {
		return
	}
	if playing {
		t.statusItem.SetTitle("Transport: Playing")
		t.playItem.SetTitle("Pause")
	} else {
		t.statusItem.SetTitle("Transport: Stopped")
		t.playItem.SetTitle("Play")
	}
}

func (t *Tray) updateClipCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clipsItem == nil {
		return
	}
	t.clipsItem.SetTitle(fmt.Sprintf("Clips: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
