package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/mediainfo"
)

var mediainfoCmd = &cobra.Command{
	Use:   "mediainfo [files...]",
	Short: "Report stream parameters of supplementary videos as CSV",
	Long: `Mediainfo inspects video files with ffprobe and prints one CSV row per
file: duration, container, codecs, dimensions, frame and sample rates.
Files that are not valid single-audio single-video media become error
rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("provide one or more video files")
		}
		prober := mediainfo.NewProber()
		if !prober.Available() {
			return fmt.Errorf("ffprobe not found on PATH")
		}
		return mediainfo.CheckBatch(prober, args, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mediainfoCmd)
}
