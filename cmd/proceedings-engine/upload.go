package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/audit"
	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/pcs"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/internal/taps"
	"github.com/sigchi/proceedings-engine/internal/upload"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <track> <proceedingID>",
	Short: "Upload supplementary materials to the ACM Digital Library",
	Long: `Upload pushes videos, captions, and supplementary archives to the DL
ingestion portal through its resumable chunked-upload protocol. Files are
named {doiSuffix}{suffix} as the DL requires; the registry DOI column is
used, falling back to the TAPS proceedings table for papers where it is
blank.

Files already present in the portal's upload listing are skipped - the
portal accepts duplicates silently, so deduplication happens here. Use
--dry-run for a full rehearsal without touching the portal.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringSlice("types", nil, "file types to upload, by dl_flag name")
	uploadCmd.Flags().Bool("all", false, "consider every configured file type")
	uploadCmd.Flags().String("uploader-name", "", "uploader name shown to DL staff (default: paper contact author)")
	uploadCmd.Flags().String("uploader-email", "", "uploader email shown to DL staff")
	uploadCmd.Flags().Int64("chunk-size", upload.DefaultChunkSize, "upload chunk size in bytes (5 MiB is the portal maximum)")
	uploadCmd.Flags().Bool("progress", true, "show byte-progress bars")
	uploadCmd.Flags().Bool("dry-run", false, "log every step without uploading")
	uploadCmd.Flags().String("audit", "", "audit database path (default {track}_audit.db)")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	track, proceedingID := args[0], args[1]
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

	// The TAPS table is the DOI fallback; a missing file just means no
	// fallback is available.
	doiFallback, err := taps.DOIMap(taps.ListFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: no TAPS DOI fallback: %v\n", err)
		doiFallback = map[string]string{}
	}

	uploaderName, _ := cmd.Flags().GetString("uploader-name")
	uploaderEmail, _ := cmd.Flags().GetString("uploader-email")
	chunkSize, _ := cmd.Flags().GetInt64("chunk-size")
	progress, _ := cmd.Flags().GetBool("progress")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Flags beat config-file values for the uploader identity.
	if uploaderName == "" {
		uploaderName = configDefault("upload.uploader_name", "")
	}
	if uploaderEmail == "" {
		uploaderEmail = configDefault("upload.uploader_email", "")
	}

	cfg := types.UploadConfig{
		SubmitBaseURL: configDefault("upload.submit_base_url", defaultSubmitBase),
		UploadURL:     configDefault("upload.upload_url", defaultUploadURL),
		ProceedingID:  proceedingID,
		Track:         track,
		UploaderName:  uploaderName,
		UploaderEmail: uploaderEmail,
		ChunkSize:     chunkSize,
		Progress:      progress,
		DryRun:        dryRun,
	}

	// No request timeout: chunk uploads are long-running by design.
	client := httputil.NewClient(0, defaultUserAgent)

	fmt.Println("Getting already uploaded submissions")
	var index upload.Index
	if dryRun {
		index = upload.Index{}
	} else {
		listings, err := upload.FetchListing(client, cfg)
		if err != nil {
			return err
		}
		index = upload.NewIndex(listings)
		fmt.Printf("Found %d already uploaded submissions\n", len(index))
	}

	store, err := audit.Open(auditConfig(cmd, track))
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.BeginRun("upload", track)
	if err != nil {
		return err
	}

	engine := &upload.Engine{
		Client:      client,
		Cfg:         cfg,
		DOIFallback: doiFallback,
		Index:       index,
		Out:         os.Stdout,
	}
	results, runErr := engine.Run(cmd.Context(), reg, selected)

	var dangling int
	for _, r := range results {
		if err := store.RecordOutcome(runID, audit.Outcome{
			PaperID:  r.PaperID,
			FileType: r.FileType,
			Status:   r.Status.String(),
			Detail:   r.Detail,
			Dangling: r.Dangling,
		}); err != nil {
			return err
		}
		if r.Location != "" || r.Committed {
			if err := store.RecordUpload(runID, r.PaperID, r.FileName, r.Location, r.Committed); err != nil {
				return err
			}
		}
		if r.Dangling {
			dangling++
		}
	}

	if err := store.FinishRun(runID); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if dangling > 0 {
		return fmt.Errorf("%d dangling upload(s) need manual reconciliation (see 'audit danglings')", dangling)
	}
	return nil
}
