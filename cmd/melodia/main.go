package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "melodia",
	Short: "Offline melody transcription",
	Long: `melodia runs the sonido-melody pipeline over recorded audio:
pitch estimation, note segmentation, grid quantization and MIDI export.`,
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
