package melody

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-melody/algorithms/notes"
	"github.com/RyanBlaney/sonido-melody/algorithms/pitch"
	"github.com/RyanBlaney/sonido-melody/algorithms/smoothing"
	"github.com/RyanBlaney/sonido-melody/logging"
)

// Session owns all mutable pipeline state for one recording. It is
// single-threaded by contract: ProcessBlock and Stop must be called from the
// same goroutine that drives the audio ticks.
type Session struct {
	cfg       Config
	id        string
	estimator *pitch.Estimator
	smoother  *smoothing.Smoother
	mapper    *notes.Mapper
	segmenter *Segmenter
	state     SegmenterState
	events    []NoteEvent
	stopped   bool
	logger    logging.Logger
}

// NewSession creates a recording session from a validated configuration
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if cfg.Method == "" {
		cfg.Method = pitch.MethodAutocorrelation
	}

	id := uuid.NewString()
	logger := logging.WithFields(logging.Fields{
		"component": "melody_session",
		"session":   id,
	})
	logger.Debug("session created", logging.Fields{
		"sample_rate":  cfg.SampleRate,
		"block_size":   cfg.BlockSize,
		"bpm":          cfg.BPM,
		"quantization": cfg.Quantization,
		"method":       string(cfg.Method),
	})

	return &Session{
		cfg:       cfg,
		id:        id,
		estimator: pitch.NewEstimator(cfg.Pitch),
		smoother:  smoothing.NewSmoother(cfg.Smoothing),
		mapper:    notes.NewMapper(cfg.MinMIDI, cfg.MaxMIDI),
		segmenter: NewSegmenter(cfg.Segmenter),
		logger:    logger,
	}, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration
func (s *Session) Config() Config {
	return s.cfg
}

// ProcessBlock runs one pipeline tick over a block of samples captured at
// time now (seconds from recording start). It returns the note observed this
// tick, or nil when the block carried no usable pitch.
func (s *Session) ProcessBlock(block []float64, now float64) (*notes.Observation, error) {
	if s.stopped {
		return nil, fmt.Errorf("session %s is stopped", s.id)
	}
	if len(block) != s.cfg.BlockSize {
		return nil, fmt.Errorf("block size %d does not match configured %d", len(block), s.cfg.BlockSize)
	}

	estimate := s.estimator.Estimate(block, s.cfg.Method)

	var obs *notes.Observation
	if estimate.Voiced {
		smoothed := s.smoother.Smooth(estimate.Frequency)
		if mapped, ok := s.mapper.Map(smoothed); ok {
			obs = &mapped
		}
	} else {
		// A silence gap must not be smoothed across
		s.smoother.Reset()
	}

	state, emitted := s.segmenter.ProcessTick(s.state, obs, now)
	s.state = state
	for _, ev := range emitted {
		s.logger.Debug("event closed", logging.Fields{
			"kind":     ev.Kind.String(),
			"note":     ev.Note,
			"start":    ev.Start,
			"duration": ev.Duration,
		})
	}
	s.events = append(s.events, emitted...)

	return obs, nil
}

// Events returns the provisional events emitted so far
func (s *Session) Events() []NoteEvent {
	return s.events
}

// Stop flushes the open span at time now, then quantizes and trims the
// complete event list into a finalized Melody. The session cannot process
// further blocks afterwards.
func (s *Session) Stop(now float64) (*Melody, error) {
	if s.stopped {
		return nil, fmt.Errorf("session %s is already stopped", s.id)
	}
	s.stopped = true

	state, emitted := s.segmenter.Flush(s.state, now)
	s.state = state
	s.events = append(s.events, emitted...)

	m := Finalize(s.events, s.cfg.BPM, s.cfg.Quantization)
	m.ID = s.id

	s.logger.Info("session finalized", logging.Fields{
		"events":         len(m.Events),
		"total_duration": m.TotalDuration,
	})
	return m, nil
}
