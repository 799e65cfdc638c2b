package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/audit"
	"github.com/sigchi/proceedings-engine/internal/pcs"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the run audit store",
}

var auditDanglingsCmd = &cobra.Command{
	Use:   "danglings <track>",
	Short: "List uploads whose bytes reached the portal but were never committed",
	Long: `Danglings lists uploads that transferred completely but whose commit
step failed. These blobs exist on the portal without being associated with
any paper and do not appear on the upload listing - they must be
reconciled manually with DL staff.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditDanglings,
}

var auditResumeCmd = &cobra.Command{
	Use:   "resume <track>",
	Short: "Show the saved download resume point, if any",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditResume,
}

func init() {
	auditDanglingsCmd.Flags().String("audit", "", "audit database path (default {track}_audit.db)")
	auditResumeCmd.Flags().String("audit", "", "audit database path (default {track}_audit.db)")

	auditCmd.AddCommand(auditDanglingsCmd)
	auditCmd.AddCommand(auditResumeCmd)
	rootCmd.AddCommand(auditCmd)
}

func openAudit(cmd *cobra.Command, track string) (*audit.Store, error) {
	if !pcs.ValidTrack(track) {
		return nil, fmt.Errorf("%q is not a PCS track identifier (e.g. 'chi23b')", track)
	}
	return audit.Open(auditConfig(cmd, track))
}

func runAuditDanglings(cmd *cobra.Command, args []string) error {
	store, err := openAudit(cmd, args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	danglings, err := store.Danglings()
	if err != nil {
		return err
	}
	if len(danglings) == 0 {
		fmt.Println("No dangling uploads recorded.")
		return nil
	}
	for _, d := range danglings {
		fmt.Printf("%s  %s  %s  (run %d, %s)\n", d.PaperID, d.FileName, d.Location, d.RunID, d.At)
	}
	fmt.Printf("\n%d dangling upload(s)\n", len(danglings))
	return nil
}

func runAuditResume(cmd *cobra.Command, args []string) error {
	track := args[0]
	store, err := openAudit(cmd, track)
	if err != nil {
		return err
	}
	defer store.Close()

	idx, ok, err := store.LoadResumePoint(track)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No resume point saved.")
		return nil
	}
	fmt.Printf("Next download restarts at registry index %d\n", idx)
	return nil
}
