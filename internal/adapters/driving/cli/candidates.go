package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

var (
	candidatesNamespace string
	candidatesSkill     string
	candidatesName      string
	candidatesPage      int
	candidatesJSON      bool
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List derived candidate profiles",
	RunE:  runCandidatesList,
}

var candidatesShowCmd = &cobra.Command{
	Use:   "show [candidate-id]",
	Short: "Show one candidate profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidatesShow,
}

func init() {
	candidatesCmd.Flags().StringVarP(&candidatesNamespace, "namespace", "s", "", "filter by namespace")
	candidatesCmd.Flags().StringVar(&candidatesSkill, "skill", "", "filter by skill")
	candidatesCmd.Flags().StringVar(&candidatesName, "name", "", "filter by name prefix")
	candidatesCmd.Flags().IntVar(&candidatesPage, "page", 1, "result page")
	candidatesCmd.Flags().BoolVar(&candidatesJSON, "json", false, "output as JSON")
	candidatesCmd.AddCommand(candidatesShowCmd)
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidatesList(cmd *cobra.Command, _ []string) error {
	if candidateService == nil {
		return errors.New("candidate service not configured")
	}

	page, err := candidateService.List(cmd.Context(), domain.CandidateFilter{
		Namespace:  candidatesNamespace,
		Skill:      candidatesSkill,
		NamePrefix: candidatesName,
	}, candidatesPage, 0)
	if err != nil {
		return fmt.Errorf("listing candidates: %w", err)
	}

	if candidatesJSON {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal candidates: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(page.Candidates) == 0 {
		cmd.Println("No candidates found.")
		return nil
	}

	for i := range page.Candidates {
		c := &page.Candidates[i]
		cmd.Printf("%s  %s", c.ID, c.Name)
		if c.Title != "" {
			cmd.Printf(" - %s", c.Title)
		}
		cmd.Println()
		if len(c.Skills) > 0 {
			cmd.Printf("    Skills: %s\n", strings.Join(c.Skills, ", "))
		}
	}
	cmd.Printf("\nPage %d (%d of %d total)\n", page.Page, len(page.Candidates), page.Total)
	return nil
}

func runCandidatesShow(cmd *cobra.Command, args []string) error {
	if candidateService == nil {
		return errors.New("candidate service not configured")
	}

	profile, err := candidateService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting candidate: %w", err)
	}

	cmd.Printf("Name:      %s\n", profile.Name)
	if profile.Title != "" {
		cmd.Printf("Title:     %s\n", profile.Title)
	}
	if profile.Company != "" {
		cmd.Printf("Company:   %s\n", profile.Company)
	}
	if profile.ExperienceYears > 0 {
		cmd.Printf("Experience: %d years\n", profile.ExperienceYears)
	}
	if len(profile.Skills) > 0 {
		cmd.Printf("Skills:    %s\n", strings.Join(profile.Skills, ", "))
	}
	if profile.Summary != "" {
		cmd.Printf("Summary:   %s\n", profile.Summary)
	}
	cmd.Printf("Namespace: %s\n", profile.Namespace)
	cmd.Printf("Source:    %s (document %s)\n", profile.SourceFilename, profile.ID)
	return nil
}
