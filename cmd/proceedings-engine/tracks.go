package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/pcs"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List your PCS chairing roles and their track identifiers",
	Long: `Tracks logs into PCS and prints every track you hold a chairing role
for. The track identifier (e.g. "chi23b") is what the fetch, download,
status, and upload commands expect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pcsConfig("")
		client := httputil.NewClient(cfg.Timeout, cfg.UserAgent)
		return pcs.Tracks(client, cfg, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)
}
