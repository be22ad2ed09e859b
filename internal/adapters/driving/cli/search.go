package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

var (
	searchNamespace string
	searchTopK      int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search candidates in a namespace",
	Long: `Runs a semantic search over the indexed resumes of one namespace and
prints the best-matching candidates with evidence snippets.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchNamespace, "namespace", "s", "default", "namespace to search")
	searchCmd.Flags().IntVarP(&searchTopK, "top", "n", 0, "chunks to retrieve before grouping (0 = default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	resp, err := searchService.Search(cmd.Context(), domain.SearchRequest{
		Namespace: searchNamespace,
		Query:     args[0],
		TopK:      searchTopK,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyNamespace) {
			return fmt.Errorf("namespace %q has no indexed resumes", searchNamespace)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Results {
		hit := &resp.Results[i]
		label := hit.CandidateID
		if label == "" {
			label = hit.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, label, hit.Score)
		for _, snippet := range hit.Snippets {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}
