package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

var (
	askNamespace string
	askSession   string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the candidate pool",
	Long: `Runs one conversational turn against the indexed resumes of a
namespace. The answer streams to stdout and cites the resumes it draws
on. Pass --session to continue an earlier conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askNamespace, "namespace", "s", "default", "namespace to query")
	askCmd.Flags().StringVar(&askSession, "session", "", "session ID to continue")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	events, err := chatService.Chat(cmd.Context(), domain.ChatRequest{
		SessionID: askSession,
		Namespace: askNamespace,
		Message:   args[0],
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyNamespace) {
			return fmt.Errorf("namespace %q has no indexed resumes", askNamespace)
		}
		return fmt.Errorf("chat failed: %w", err)
	}

	for event := range events {
		switch event.Type {
		case domain.ChatEventToken:
			cmd.Print(event.Token)

		case domain.ChatEventDone:
			cmd.Println()
			if len(event.Citations) > 0 {
				cmd.Println()
				cmd.Println("Sources:")
				for _, c := range event.Citations {
					cmd.Printf("  [%d] %s (%.2f)\n", c.Marker, c.DocumentID, c.Score)
				}
			}
			cmd.Println()
			cmd.Printf("Session: %s\n", event.SessionID)

		case domain.ChatEventError:
			cmd.Println()
			return fmt.Errorf("generation failed: %w", event.Err)
		}
	}

	return nil
}
