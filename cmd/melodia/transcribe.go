package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-melody/algorithms/pitch"
	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
	"github.com/RyanBlaney/sonido-melody/midifile"
	"github.com/RyanBlaney/sonido-melody/transcode"
)

var (
	flagBPM      float64
	flagQuantize int
	flagMethod   string
	flagOutput   string
	flagJSON     string
	flagVerbose  bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <input>",
	Short: "Transcribe an audio recording to a MIDI file",
	Long: `Transcribe runs the melody pipeline over an audio file and writes the
detected notes as a format 0 standard MIDI file. WAV input is decoded natively;
other formats require ffmpeg on the PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().Float64Var(&flagBPM, "bpm", 120, "tempo of the recording")
	transcribeCmd.Flags().IntVar(&flagQuantize, "quantize", 16, "quantization grid denominator (4, 8 or 16)")
	transcribeCmd.Flags().StringVar(&flagMethod, "method", string(pitch.MethodAutocorrelation), "pitch method: autocorrelation or spectral")
	transcribeCmd.Flags().StringVarP(&flagOutput, "output", "o", "out.mid", "MIDI output path")
	transcribeCmd.Flags().StringVar(&flagJSON, "json", "", "also write the melody document as JSON")
	transcribeCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logging.SetLevel(logging.DebugLevel)
	}

	cfg := melody.DefaultConfig()
	recording, err := transcode.ReadFile(cmd.Context(), args[0], cfg.SampleRate)
	if err != nil {
		return err
	}

	cfg.SampleRate = recording.SampleRate
	cfg.Pitch = pitch.DefaultParams(recording.SampleRate)
	cfg.BPM = flagBPM
	cfg.Quantization = flagQuantize
	cfg.Method = pitch.Method(flagMethod)

	session, err := melody.NewSession(cfg)
	if err != nil {
		return err
	}

	blockDuration := cfg.BlockDuration()
	for i, block := range recording.Blocks(cfg.BlockSize) {
		if _, err := session.ProcessBlock(block, float64(i)*blockDuration); err != nil {
			return err
		}
	}

	result, err := session.Stop(recording.Duration.Seconds())
	if err != nil {
		return err
	}

	data, err := midifile.Encode(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flagOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", flagOutput, err)
	}

	if flagJSON != "" {
		doc, err := json.MarshalIndent(result.Document(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagJSON, doc, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flagJSON, err)
		}
	}

	logging.Info("transcription complete", logging.Fields{
		"input":    args[0],
		"output":   flagOutput,
		"events":   len(result.Events),
		"duration": result.TotalDuration,
	})
	return nil
}
