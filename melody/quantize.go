package melody

import (
	"math"
)

// GridStep returns the quantization grid step in seconds for a BPM and a
// note-length denominator (4 = quarter, 8 = eighth, 16 = sixteenth).
func GridStep(bpm float64, quantization int) float64 {
	return (60.0 / bpm) * (4.0 / float64(quantization))
}

// Quantize snaps event boundaries to the musical grid. Starts round down and
// ends round up, so no event shrinks below its sounding span and contiguous
// events cannot open a gap. Flooring one start while ceiling the previous end
// can make neighbors overlap; the overlap is resolved at the expense of the
// pause when one side is a pause (pauses are filler), otherwise by moving the
// later start up to the earlier end. Events squeezed to nothing are dropped.
func Quantize(events []NoteEvent, bpm float64, quantization int) []NoteEvent {
	if len(events) == 0 {
		return nil
	}

	step := GridStep(bpm, quantization)
	quantized := make([]NoteEvent, 0, len(events))

	for _, ev := range events {
		start := math.Floor(ev.Start/step) * step
		end := math.Ceil(ev.End()/step) * step

		for n := len(quantized); n > 0 && start < quantized[n-1].End(); n = len(quantized) {
			prev := &quantized[n-1]
			if prev.Kind == KindPause && ev.Kind == KindNote {
				// Shrink the pause so the note keeps its floored onset
				prev.Duration = start - prev.Start
				if prev.Duration <= 0 {
					quantized = quantized[:n-1]
					continue
				}
			} else {
				start = prev.End()
			}
			break
		}
		if end <= start {
			continue
		}

		ev.Start = start
		ev.Duration = end - start
		quantized = append(quantized, ev)
	}

	return quantized
}

// TrimPauses strips pause events from both ends of the sequence (recording
// artifacts of mic latency) and re-bases the remaining events so the first
// one starts at zero.
func TrimPauses(events []NoteEvent) []NoteEvent {
	first := 0
	for first < len(events) && events[first].Kind == KindPause {
		first++
	}
	last := len(events)
	for last > first && events[last-1].Kind == KindPause {
		last--
	}

	trimmed := events[first:last]
	if len(trimmed) == 0 {
		return nil
	}

	offset := trimmed[0].Start
	rebased := make([]NoteEvent, len(trimmed))
	for i, ev := range trimmed {
		ev.Start -= offset
		rebased[i] = ev
	}
	return rebased
}

// TotalDuration sums the durations of all events
func TotalDuration(events []NoteEvent) float64 {
	total := 0.0
	for _, ev := range events {
		total += ev.Duration
	}
	return total
}

// Finalize quantizes and trims a provisional event list into an immutable
// Melody. The result never starts or ends with a pause.
func Finalize(events []NoteEvent, bpm float64, quantization int) *Melody {
	quantized := Quantize(events, bpm, quantization)
	trimmed := TrimPauses(quantized)

	return &Melody{
		BPM:           bpm,
		Quantization:  quantization,
		Events:        trimmed,
		TotalDuration: TotalDuration(trimmed),
	}
}
