package timeline

import (
	"fmt"
	"strings"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// Default renderers, one per kind. Each tolerates a foreign payload type by
// falling back to a bare kind label.

func RenderSleep(ev domain.CareEvent) string {
	p, ok := ev.Payload.(domain.SleepPayload)
	if !ok {
		return "😴 sleep"
	}
	if p.EndedAt == nil {
		return "😴 fell asleep"
	}
	out := fmt.Sprintf("😴 slept %s", formatMinutes(p.DurationMin))
	if p.Quality != "" {
		out += " (" + p.Quality + ")"
	}
	return out
}

func RenderFeeding(ev domain.CareEvent) string {
	p, ok := ev.Payload.(domain.FeedingPayload)
	if !ok {
		return "🍼 feeding"
	}
	parts := []string{"🍼", p.FeedKind}
	if p.AmountML != nil {
		parts = append(parts, fmt.Sprintf("%d ml", *p.AmountML))
	}
	if p.AmountG != nil {
		parts = append(parts, fmt.Sprintf("%d g", *p.AmountG))
	}
	if p.Note != "" {
		parts = append(parts, "— "+p.Note)
	}
	return strings.Join(parts, " ")
}

func RenderHealth(ev domain.CareEvent) string {
	p, ok := ev.Payload.(domain.HealthPayload)
	if !ok {
		return "🩺 health"
	}
	switch p.RecordKind {
	case "temperature":
		if p.TemperatureC != nil {
			return fmt.Sprintf("🌡 temperature %.1f°C", *p.TemperatureC)
		}
	case "medicine":
		if p.DoseMG != nil {
			return fmt.Sprintf("💊 %s %d mg", p.Medicine, *p.DoseMG)
		}
		return "💊 " + p.Medicine
	case "doctor_visit":
		if p.Note != "" {
			return "🩺 doctor: " + p.Note
		}
		return "🩺 doctor visit"
	case "growth":
		var parts []string
		if p.HeightCM != nil {
			parts = append(parts, fmt.Sprintf("%d cm", *p.HeightCM))
		}
		if p.WeightG != nil {
			parts = append(parts, fmt.Sprintf("%d g", *p.WeightG))
		}
		return "📏 " + strings.Join(parts, ", ")
	}
	return "🩺 health"
}

func RenderCare(ev domain.CareEvent) string {
	icon := map[domain.EventKind]string{
		domain.KindDiaper: "🧷 diaper",
		domain.KindBath:   "🛁 bath",
	}[ev.Kind]
	if icon == "" {
		icon = "📝"
	}
	p, ok := ev.Payload.(domain.CarePayload)
	if !ok || p.Details == "" {
		return icon
	}
	return icon + " " + p.Details
}

func formatMinutes(min *int) string {
	if min == nil {
		return "?"
	}
	if *min >= 60 {
		return fmt.Sprintf("%dh%02dm", *min/60, *min%60)
	}
	return fmt.Sprintf("%dm", *min)
}
