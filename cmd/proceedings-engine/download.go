package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/audit"
	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/pcs"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/internal/transfer"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <track>",
	Short: "Download per-paper deliverables linked in the registry",
	Long: `Download walks the camera-ready registry and fetches every selected
deliverable (PDFs, videos, supplements - as configured in
{track}_fields.csv) into {track}_{directory}/ folders.

Signed download URLs expire whenever the registry is re-exported. When the
batch hits a stale URL it stops, persists a resume point, re-fetches the
registry, and restarts from the failed record. Interrupted runs resume the
same way with --resume -1.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringSlice("types", nil, "file types to download, by dl_flag name (e.g. pdf,video)")
	downloadCmd.Flags().Bool("all", false, "download every configured file type")
	downloadCmd.Flags().String("freshness", "changed", "re-download policy: changed, missing, or force")
	downloadCmd.Flags().Int("resume", 0, "registry index to resume from (-1: use the saved resume point)")
	downloadCmd.Flags().Int("max-restarts", 10, "cap on whole-batch restarts (0 = unlimited)")
	downloadCmd.Flags().Bool("progress", true, "show byte-progress bars")
	downloadCmd.Flags().String("audit", "", "audit database path (default {track}_audit.db)")

	rootCmd.AddCommand(downloadCmd)
}

// selectedFileTypes loads {track}_fields.csv and applies the --types/--all
// selection flags shared by download, status, and upload.
func selectedFileTypes(cmd *cobra.Command, track string) ([]types.FileType, error) {
	fileTypes, err := registry.LoadFileTypes(pcs.FieldsFile(track))
	if err != nil {
		return nil, err
	}
	selectors, _ := cmd.Flags().GetStringSlice("types")
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(selectors) == 0 {
		return nil, fmt.Errorf("select file types with --types or --all")
	}
	return registry.SelectFileTypes(fileTypes, selectors, all)
}

func auditConfig(cmd *cobra.Command, track string) types.AuditConfig {
	path, _ := cmd.Flags().GetString("audit")
	if path == "" {
		path = track + "_audit.db"
	}
	return types.AuditConfig{Path: path}
}

func auditOutcomes(outcomes []types.Outcome) []audit.Outcome {
	rows := make([]audit.Outcome, len(outcomes))
	for i, o := range outcomes {
		rows[i] = audit.Outcome{
			PaperID:  o.PaperID,
			FileType: o.FileType,
			Status:   o.Status.String(),
			Detail:   o.Detail,
			Dangling: o.Dangling,
		}
	}
	return rows
}

func runDownload(cmd *cobra.Command, args []string) error {
	track := args[0]
	if !pcs.ValidTrack(track) {
		return fmt.Errorf("%q is not a PCS track identifier (e.g. 'chi23b')", track)
	}

	selected, err := selectedFileTypes(cmd, track)
	if err != nil {
		return err
	}

	freshFlag, _ := cmd.Flags().GetString("freshness")
	freshness, err := types.ParseFreshness(freshFlag)
	if err != nil {
		return err
	}
	dlCfg := types.DownloadConfig{Freshness: freshness}
	dlCfg.Start, _ = cmd.Flags().GetInt("resume")
	dlCfg.MaxRestarts, _ = cmd.Flags().GetInt("max-restarts")
	dlCfg.Progress, _ = cmd.Flags().GetBool("progress")

	store, err := audit.Open(auditConfig(cmd, track))
	if err != nil {
		return err
	}
	defer store.Close()

	if dlCfg.Start < 0 {
		saved, ok, err := store.LoadResumePoint(track)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("Resuming at saved index %d\n", saved)
			dlCfg.Start = saved
		} else {
			dlCfg.Start = 0
		}
	}

	runID, err := store.BeginRun("download", track)
	if err != nil {
		return err
	}

	cfg := pcsConfig(track)
	client := httputil.NewClient(cfg.Timeout, cfg.UserAgent)

	force := false
	restarts := 0
	var failed int
	for {
		path, err := pcs.FetchRegistry(client, cfg, force, os.Stdout)
		if err != nil {
			return err
		}
		reg, err := registry.Load(path)
		if err != nil {
			return err
		}

		engine := &transfer.Engine{
			Client: client,
			Track:  track,
			Cfg:    dlCfg,
			Out:    os.Stdout,
		}
		outcomes, runErr := engine.Run(cmd.Context(), reg, selected)
		if err := store.RecordOutcomes(runID, auditOutcomes(outcomes)); err != nil {
			return err
		}
		for _, o := range outcomes {
			if o.Status == types.FailedNotFound {
				failed++
			}
		}

		var restart *transfer.RestartError
		if errors.As(runErr, &restart) {
			if err := store.SaveResumePoint(track, restart.Index); err != nil {
				return err
			}
			restarts++
			if dlCfg.MaxRestarts > 0 && restarts >= dlCfg.MaxRestarts {
				return fmt.Errorf("giving up after %d restarts: %w", restarts, runErr)
			}
			fmt.Printf("Restarting at submission #%d\n", restart.Index)
			dlCfg.Start = restart.Index
			force = true // the registry must be re-fetched for fresh URLs
			continue
		}
		if runErr != nil {
			return runErr
		}
		break
	}

	if err := store.ClearResumePoint(track); err != nil {
		return err
	}
	if err := store.FinishRun(runID); err != nil {
		return err
	}
	fmt.Println("Done!")
	if failed > 0 {
		return fmt.Errorf("%d file(s) not found on server", failed)
	}
	return nil
}
