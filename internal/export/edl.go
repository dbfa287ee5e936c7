// Package export renders the current timeline as a CMX 3600 EDL for handoff
// to external editors. Core time is seconds; the millisecond conversion for
// timecode math happens only at this boundary.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cadenza/cadenza-engine/internal/timeline"
)

// Event is one EDL event: a clip flattened out of the timeline.
type Event struct {
	ClipName  string
	MediaPath string
	StartMs   int
	EndMs     int
}

// FlattenTimeline orders clips by start time across all layers and converts
// them to EDL events. Clips without a media URL are skipped and reported.
func FlattenTimeline(clips []timeline.Clip) (events []Event, skipped []string) {
	sorted := make([]timeline.Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for _, c := range sorted {
		if c.URL == "" {
			skipped = append(skipped, c.Title)
			continue
		}
		events = append(events, Event{
			ClipName:  c.Title,
			MediaPath: c.URL,
			StartMs:   int(math.Round(c.Start * 1000)),
			EndMs:     int(math.Round(c.End() * 1000)),
		})
	}
	return events, skipped
}

// GenerateEDL renders events as a CMX 3600 edit decision list. Record times
// are compacted: each event starts where the previous one ended.
func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffsetMs := 0
	for i, ev := range events {
		srcIn := msToTimecode(ev.StartMs, fps)
		srcOut := msToTimecode(ev.EndMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		durationMs := ev.EndMs - ev.StartMs
		recOut := msToTimecode(recordOffsetMs+durationMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)

		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
