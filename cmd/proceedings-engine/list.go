package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/upload"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list <proceedingID>",
	Short: "List files already uploaded to the ACM Digital Library",
	Long: `List scrapes the DL portal's upload listing for a proceeding and prints
one line per uploaded file. This is the same listing the upload command
uses for deduplication.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("include-excluded", false, "also show uploads DL staff have excluded")
	listCmd.Flags().String("csv", "", "export the listing to a CSV file")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	includeExcluded, _ := cmd.Flags().GetBool("include-excluded")
	csvPath, _ := cmd.Flags().GetString("csv")

	cfg := types.UploadConfig{
		SubmitBaseURL: configDefault("upload.submit_base_url", defaultSubmitBase),
		ProceedingID:  args[0],
	}
	client := httputil.NewClient(defaultTimeout, defaultUserAgent)

	listings, err := upload.FetchListing(client, cfg)
	if err != nil {
		return err
	}

	shown := 0
	for _, l := range listings {
		if l.Excluded && !includeExcluded {
			continue
		}
		marker := ""
		if l.Excluded {
			marker = " [excluded]"
		}
		fmt.Printf("%s - %s for %s (%s)%s\n", l.FileName, l.Description, l.PaperID, l.FileURL, marker)
		shown++
	}
	fmt.Printf("\n%d uploads shown (%d total on portal)\n", shown, len(listings))

	if csvPath != "" {
		if err := exportListings(csvPath, listings); err != nil {
			return err
		}
		fmt.Printf("Listing exported to %s\n", csvPath)
	}
	return nil
}

func exportListings(path string, listings []upload.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Write([]string{"excluded", "paper_id", "load_date", "contact_name", "contact_email", "doi", "description", "file_name", "file_url"})
	for _, l := range listings {
		cw.Write([]string{
			strconv.FormatBool(l.Excluded), l.PaperID, l.LoadDate,
			l.ContactName, l.ContactEmail, l.DOI, l.Description,
			l.FileName, l.FileURL,
		})
	}
	cw.Flush()
	return cw.Error()
}
