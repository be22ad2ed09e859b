// Package cli defines the rescout command tree. Commands operate
// through the driving ports; wiring happens in main via Configure.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

var version = "dev"

// Services carries the wired driving ports into the command tree.
type Services struct {
	Ingest     driving.IngestService
	Search     driving.SearchService
	Chat       driving.ChatService
	Candidates driving.CandidateService
	Settings   driving.SettingsService

	// RunServe starts the long-running server stack (HTTP API, folder
	// watcher, profile extraction) and blocks until ctx is cancelled.
	RunServe func(ctx context.Context) error

	// RunMCP starts the MCP server over stdio or HTTP.
	RunMCP func(ctx context.Context, httpAddr string) error
}

var (
	ingestService    driving.IngestService
	searchService    driving.SearchService
	chatService      driving.ChatService
	candidateService driving.CandidateService
	settingsService  driving.SettingsService
	serveFunc        func(ctx context.Context) error
	mcpFunc          func(ctx context.Context, httpAddr string) error
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "rescout",
	Short: "Resume ingestion and retrieval-augmented candidate search",
	Long: `Rescout ingests resumes into a searchable vector index and answers
recruiter questions about the candidate pool, with citations back to
the source documents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Configure injects the wired services. Must be called before Execute.
func Configure(services Services, buildVersion string) {
	ingestService = services.Ingest
	searchService = services.Search
	chatService = services.Chat
	candidateService = services.Candidates
	settingsService = services.Settings
	serveFunc = services.RunServe
	mcpFunc = services.RunMCP
	if buildVersion != "" {
		version = buildVersion
	}
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
