package melody

import (
	"math"

	"github.com/RyanBlaney/sonido-melody/algorithms/notes"
)

// Phase enumerates the segmenter's note-tracking states
type Phase int

const (
	// PhaseIdle means nothing is open yet (before the first observation)
	PhaseIdle Phase = iota
	// PhaseStable means a note span is open and being extended
	PhaseStable
	// PhasePaused means a silence span is open
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseStable:
		return "stable"
	case PhasePaused:
		return "paused"
	default:
		return "idle"
	}
}

// SegmenterParams contains the stability rules for note segmentation
type SegmenterParams struct {
	MinNoteDuration   float64 `json:"min_note_duration"`  // Seconds; shorter stable notes are dropped
	ConfirmationCount int     `json:"confirmation_count"` // Matching observations before a candidate is promoted
	HysteresisCents   float64 `json:"hysteresis_cents"`   // Ideal-frequency distance treated as vibrato
}

// DefaultSegmenterParams returns the stability rules used by default
func DefaultSegmenterParams() SegmenterParams {
	return SegmenterParams{
		MinNoteDuration:   0.1,
		ConfirmationCount: 4,
		HysteresisCents:   12.0,
	}
}

// SegmenterState is the complete mutable state of the segmenter, passed
// through and returned by each tick so the machine stays deterministic and
// testable without a live clock.
type SegmenterState struct {
	Phase Phase

	// Open stable note (valid when Phase == PhaseStable)
	Stable      notes.Observation
	StableStart float64

	// Open pause span (valid when Phase == PhasePaused)
	PauseStart float64

	// Tentative candidate accumulating confirmations
	Candidate      notes.Observation
	CandidateCount int
	CandidateStart float64
}

func (st SegmenterState) hasCandidate() bool {
	return st.CandidateCount > 0
}

// Segmenter converts a per-tick stream of note observations into discrete
// NoteEvents. It applies hysteresis against vibrato, a confirmation count
// before switching notes, a minimum note duration, and pause tracking.
type Segmenter struct {
	params SegmenterParams
}

// NewSegmenter creates a note segmenter
func NewSegmenter(params SegmenterParams) *Segmenter {
	return &Segmenter{params: params}
}

// ProcessTick advances the state machine by one observation. A nil
// observation means silence, out-of-range pitch, or out-of-tolerance
// deviation; all are handled identically. Returned events are closed spans
// emitted by this tick, in chronological order.
func (s *Segmenter) ProcessTick(st SegmenterState, obs *notes.Observation, now float64) (SegmenterState, []NoteEvent) {
	if obs == nil {
		return s.processSilence(st, now)
	}
	return s.processObservation(st, *obs, now)
}

func (s *Segmenter) processSilence(st SegmenterState, now float64) (SegmenterState, []NoteEvent) {
	// A candidate that never reached the confirmation count is debounced away
	st = clearCandidate(st)

	switch st.Phase {
	case PhaseStable:
		var events []NoteEvent
		pauseStart := now
		if ev, ok := s.closeNote(st, now); ok {
			events = append(events, ev)
		} else {
			// Dropped short note: let the pause cover its span so the
			// timeline stays contiguous.
			pauseStart = st.StableStart
		}
		st.Phase = PhasePaused
		st.PauseStart = pauseStart
		return st, events

	case PhaseIdle:
		st.Phase = PhasePaused
		st.PauseStart = now
		return st, nil

	default: // already paused
		return st, nil
	}
}

func (s *Segmenter) processObservation(st SegmenterState, obs notes.Observation, now float64) (SegmenterState, []NoteEvent) {
	// Same note, or within the vibrato band of the open note: extend it
	if st.Phase == PhaseStable && s.withinHysteresis(obs, st.Stable) {
		return clearCandidate(st), nil
	}

	// Matches the running candidate: one more confirmation
	if st.hasCandidate() && s.withinHysteresis(obs, st.Candidate) {
		st.CandidateCount++
		if st.CandidateCount >= s.params.ConfirmationCount {
			return s.promote(st, st.Candidate, st.CandidateStart)
		}
		return st, nil
	}

	// A different note: restart the candidate from this observation
	st.Candidate = obs
	st.CandidateCount = 1
	st.CandidateStart = now
	if st.CandidateCount >= s.params.ConfirmationCount {
		return s.promote(st, obs, now)
	}
	return st, nil
}

// promote closes whatever span is open and opens the confirmed note at the
// candidate's original observation time, so the note keeps its true onset.
func (s *Segmenter) promote(st SegmenterState, obs notes.Observation, onset float64) (SegmenterState, []NoteEvent) {
	var events []NoteEvent

	switch st.Phase {
	case PhaseStable:
		if ev, ok := s.closeNote(st, onset); ok {
			events = append(events, ev)
		}
	case PhasePaused:
		if ev, ok := closePause(st, onset); ok {
			events = append(events, ev)
		}
	}

	st = clearCandidate(st)
	st.Phase = PhaseStable
	st.Stable = obs
	st.StableStart = onset
	return st, events
}

// Flush closes the open span using now as its end time, ignoring the
// minimum-duration rule. It is the explicit-stop transition.
func (s *Segmenter) Flush(st SegmenterState, now float64) (SegmenterState, []NoteEvent) {
	var events []NoteEvent

	switch st.Phase {
	case PhaseStable:
		if now > st.StableStart {
			events = append(events, noteEvent(st.Stable, st.StableStart, now))
		}
	case PhasePaused:
		if ev, ok := closePause(st, now); ok {
			events = append(events, ev)
		}
	}

	return SegmenterState{}, events
}

// closeNote emits the open stable note if it lasted long enough
func (s *Segmenter) closeNote(st SegmenterState, end float64) (NoteEvent, bool) {
	if end-st.StableStart < s.params.MinNoteDuration {
		return NoteEvent{}, false
	}
	return noteEvent(st.Stable, st.StableStart, end), true
}

func closePause(st SegmenterState, end float64) (NoteEvent, bool) {
	if end <= st.PauseStart {
		return NoteEvent{}, false
	}
	return NoteEvent{
		Kind:     KindPause,
		Start:    st.PauseStart,
		Duration: end - st.PauseStart,
	}, true
}

func noteEvent(obs notes.Observation, start, end float64) NoteEvent {
	return NoteEvent{
		Kind:      KindNote,
		Note:      obs.Name,
		MIDI:      obs.MIDI,
		Frequency: obs.Frequency,
		Start:     start,
		Duration:  end - start,
	}
}

func clearCandidate(st SegmenterState) SegmenterState {
	st.Candidate = notes.Observation{}
	st.CandidateCount = 0
	st.CandidateStart = 0
	return st
}

// withinHysteresis treats two observations as the same note when the cents
// distance between their ideal frequencies falls inside the vibrato band.
func (s *Segmenter) withinHysteresis(a, b notes.Observation) bool {
	if a.MIDI == b.MIDI {
		return true
	}
	dist := notes.CentsBetween(notes.IdealFrequency(b.MIDI), notes.IdealFrequency(a.MIDI))
	return math.Abs(dist) <= s.params.HysteresisCents
}
