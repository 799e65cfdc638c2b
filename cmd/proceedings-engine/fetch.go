package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/pcs"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <track>",
	Short: "Download the camera-ready registry spreadsheet from PCS",
	Long: `Fetch logs into PCS and downloads the camera-ready submission
spreadsheet for a track to {track}_submissions.csv. A snapshot younger
than five minutes is reused, because every fetch regenerates the signed
download URLs embedded in it.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("force", false, "re-download even if the local snapshot is fresh")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	track := args[0]
	if !pcs.ValidTrack(track) {
		return fmt.Errorf("%q is not a PCS track identifier (e.g. 'chi23b')", track)
	}
	force, _ := cmd.Flags().GetBool("force")

	cfg := pcsConfig(track)
	client := httputil.NewClient(cfg.Timeout, cfg.UserAgent)

	path, err := pcs.FetchRegistry(client, cfg, force, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Registry written to %s\n", path)
	return nil
}
