package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/lint"
	"github.com/sigchi/proceedings-engine/internal/pcs"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

var lintCmd = &cobra.Command{
	Use:   "lint <track>",
	Short: "Run quality checks on camera-ready PDFs and TAPS HTML",
	Long: `Lint cross-checks each paper's PCS camera-ready PDF against its TAPS
HTML rendition: PDF validity and page counts, matching titles and DOIs,
reference lists, and body length. Findings are advisory - extracting
structure from PDFs is inherently unreliable, so review them manually.`,
	Args: cobra.ExactArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().String("pdf-dir", "", "camera-ready PDF directory (default {track}_PDF)")
	lintCmd.Flags().String("html-dir", "TAPS_HTML", "TAPS HTML directory")
	lintCmd.Flags().Int("min-pages", 0, "minimum acceptable PDF page count")
	lintCmd.Flags().Int("max-pages", 0, "maximum acceptable PDF page count")
	lintCmd.Flags().Int("min-words", 1000, "minimum HTML body word count")

	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	track := args[0]
	if !pcs.ValidTrack(track) {
		return fmt.Errorf("%q is not a PCS track identifier (e.g. 'chi23b')", track)
	}

	pdfDir, _ := cmd.Flags().GetString("pdf-dir")
	if pdfDir == "" {
		pdfDir = track + "_PDF"
	}
	htmlDir, _ := cmd.Flags().GetString("html-dir")
	minPages, _ := cmd.Flags().GetInt("min-pages")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	minWords, _ := cmd.Flags().GetInt("min-words")

	reg, err := registry.Load(pcs.RegistryFile(track))
	if err != nil {
		return err
	}

	cfg := types.LintConfig{
		PDFDir:   pdfDir,
		HTMLDir:  htmlDir,
		MinPages: minPages,
		MaxPages: maxPages,
		MinWords: minWords,
	}
	report := lint.Run(cfg, reg, os.Stdout)
	if report.HasFindings() {
		return fmt.Errorf("%d lint finding(s)", len(report.Findings))
	}
	return nil
}
