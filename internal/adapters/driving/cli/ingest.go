package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

var (
	ingestNamespace string
	ingestRecruiter string
	ingestNoWait    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest resume files",
	Long: `Upload one or more resume files and run them through the ingestion
pipeline: extract, chunk, embed, index. By default the command waits
for each document to reach a terminal state.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestNamespace, "namespace", "s", "default", "namespace to ingest into")
	ingestCmd.Flags().StringVar(&ingestRecruiter, "recruiter", "", "recruiter ID to attribute the upload to")
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false, "submit and return without waiting for indexing")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	var failed int

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		documentID, status, err := ingestService.Submit(ctx, domain.UploadRequest{
			Namespace:   ingestNamespace,
			RecruiterID: ingestRecruiter,
			Filename:    filepath.Base(path),
			Data:        data,
		})
		if err != nil {
			return fmt.Errorf("submitting %s: %w", path, err)
		}

		cmd.Printf("%s: submitted as %s (%s)\n", filepath.Base(path), documentID, status)
		if ingestNoWait {
			continue
		}

		info, err := ingestService.Wait(ctx, documentID)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", documentID, err)
		}

		if info.Status == domain.StatusFailed {
			failed++
			cmd.Printf("%s: FAILED: %s\n", filepath.Base(path), info.ErrorDetail)
			continue
		}
		cmd.Printf("%s: %s", filepath.Base(path), info.Status)
		if info.CandidateID != "" {
			cmd.Printf(" (candidate %s)", info.CandidateID)
		}
		cmd.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show a document's pipeline status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	info, err := ingestService.GetStatus(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	cmd.Printf("Document: %s\n", info.DocumentID)
	cmd.Printf("Status:   %s\n", info.Status)
	if info.CandidateID != "" {
		cmd.Printf("Candidate: %s\n", info.CandidateID)
	}
	if info.ErrorDetail != "" {
		cmd.Printf("Error:    %s\n", info.ErrorDetail)
	}
	return nil
}
