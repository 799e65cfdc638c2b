package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/captions"
)

var captionsCmd = &cobra.Command{
	Use:   "captions [files...]",
	Short: "Normalize caption files to WebVTT",
	Long: `Captions rewrites SubRip files as WebVTT in place, the only caption
format the ACM Digital Library accepts. Files already in WebVTT are left
untouched; files in neither format are skipped. The upload command runs
the same normalization automatically on .vtt candidates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("provide one or more caption files")
		}
		result := captions.NormalizeBatch(args, os.Stdout)
		if result.HasFailures() {
			return fmt.Errorf("%d caption file(s) failed", result.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(captionsCmd)
}
