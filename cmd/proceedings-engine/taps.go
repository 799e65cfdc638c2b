package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/internal/taps"
	"github.com/sigchi/proceedings-engine/internal/transfer"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

var tapsCmd = &cobra.Command{
	Use:   "taps",
	Short: "Fetch the TAPS proceedings table and typeset renditions",
	Long: `The taps subcommands talk to the TAPS typesetting portal: "taps fetch"
scrapes the proceedings table (paper status, file URLs, PCS IDs and DOIs)
to taps_procs.csv, and "taps download" fetches the typeset PDF and HTML
renditions into TAPS_PDF/ and TAPS_HTML/.`,
}

var tapsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Scrape the TAPS proceedings table to taps_procs.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		cfg := tapsConfig()
		client := httputil.NewClient(cfg.Timeout, cfg.UserAgent)
		_, err := taps.FetchProceedings(client, cfg, force, os.Stdout)
		return err
	},
}

var tapsDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download typeset PDF/HTML renditions from TAPS",
	RunE:  runTapsDownload,
}

func init() {
	tapsFetchCmd.Flags().Bool("force", false, "re-scrape even if the local table is fresh")

	tapsDownloadCmd.Flags().Bool("pdf", false, "download PDF renditions")
	tapsDownloadCmd.Flags().Bool("html", false, "download HTML renditions")
	tapsDownloadCmd.Flags().Bool("all", false, "download both")
	tapsDownloadCmd.Flags().Bool("progress", true, "show byte-progress bars")

	tapsCmd.AddCommand(tapsFetchCmd)
	tapsCmd.AddCommand(tapsDownloadCmd)
	rootCmd.AddCommand(tapsCmd)
}

func runTapsDownload(cmd *cobra.Command, args []string) error {
	wantPDF, _ := cmd.Flags().GetBool("pdf")
	wantHTML, _ := cmd.Flags().GetBool("html")
	all, _ := cmd.Flags().GetBool("all")
	progress, _ := cmd.Flags().GetBool("progress")

	var selected []types.FileType
	for _, ft := range taps.FileTypes() {
		switch {
		case all:
			selected = append(selected, ft)
		case ft.DLFlag == "pdf" && wantPDF:
			selected = append(selected, ft)
		case ft.DLFlag == "html" && wantHTML:
			selected = append(selected, ft)
		}
	}
	if len(selected) == 0 {
		return cmd.Help()
	}

	cfg := tapsConfig()
	client := httputil.NewClient(cfg.Timeout, cfg.UserAgent)

	path, err := taps.FetchProceedings(client, cfg, false, os.Stdout)
	if err != nil {
		return err
	}
	reg, err := registry.Load(path)
	if err != nil {
		return err
	}

	engine := &transfer.Engine{
		Client:    client,
		Cfg:       types.DownloadConfig{Freshness: types.OnlyIfChanged, Progress: progress},
		LocalName: taps.LocalName,
		ID:        func(rec registry.Record) string { return rec.Get("PCS_ID") },
		Out:       os.Stdout,
	}
	_, err = engine.Run(cmd.Context(), reg, selected)
	return err
}
