package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/pcs"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/internal/transfer"
)

var statusCmd = &cobra.Command{
	Use:   "status <track>",
	Short: "Report papers with missing deliverables",
	Long: `Status lists, per selected file type, the papers whose registry field
is empty. It reads the local registry snapshot only; no network calls are
made. Run fetch first.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringSlice("types", nil, "file types to report, by dl_flag name")
	statusCmd.Flags().Bool("all", false, "report every configured file type")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	track := args[0]
	if !pcs.ValidTrack(track) {
		return fmt.Errorf("%q is not a PCS track identifier (e.g. 'chi23b')", track)
	}

	selected, err := selectedFileTypes(cmd, track)
	if err != nil {
		return err
	}

	reg, err := registry.Load(pcs.RegistryFile(track))
	if err != nil {
		return err
	}

	transfer.Missing(reg, selected, os.Stdout)
	return nil
}
