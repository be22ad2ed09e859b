package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Rescout server",
	Long: `Start the HTTP API, the drop-folder watcher, and profile extraction,
and run until interrupted.

The API serves resume uploads, status polling, candidate search, and
the conversational chat stream. When a watch directory is configured,
files dropped there are ingested automatically; a first-level
subdirectory names the namespace they land in.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFunc == nil {
		return errors.New("server not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serveFunc(ctx)
}
