package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	matchesMinScore int
)

var (
	matchHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				Padding(0, 1)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// matchesCmd represents the matches command
var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List AI-ranked matches for your profile",
	Long: `List match candidates for your profile, ranked by the backend's
match score. Ordering and filtering happen server-side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		boot := internal.NewBootstrapper(api)
		session := boot.Resolve(cmd.Context())
		if !session.Authenticated {
			internal.PrintError("Sign in first: " + session.LoginURL)
			return nil
		}
		if session.OwnedProfileID == 0 {
			internal.PrintWarning("Create a profile before browsing matches")
			return nil
		}

		matches, err := api.FetchMatches(cmd.Context(), session.OwnedProfileID, matchesMinScore)
		if err != nil {
			return fmt.Errorf("failed to fetch matches: %w", err)
		}
		if len(matches) == 0 {
			internal.PrintInfo(fmt.Sprintf("No matches at or above score %d yet", matchesMinScore))
			return nil
		}

		fmt.Println(matchHeaderStyle.Render(fmt.Sprintf("Matches (min score %d)", matchesMinScore)))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  SCORE\tPROFILE\tTAG\tLOCATION")
		for _, m := range matches {
			fmt.Fprintf(w, "  %s\t#%d\t%s\t%s\n",
				scoreStyle.Render(fmt.Sprintf("%.0f", m.Score)), m.ProfileID, m.Tag, m.PinnedLocation)
		}
		_ = w.Flush()

		for _, m := range matches {
			if m.Reasoning != "" {
				fmt.Printf("  #%d: %s\n", m.ProfileID, reasoningStyle.Render(m.Reasoning))
			}
		}
		fmt.Println()
		internal.PrintInfo("Start a conversation: expo-session threads start <profile-id> \"hello\"")
		return nil
	},
}

func init() {
	matchesCmd.Flags().IntVar(&matchesMinScore, "min-score", 60, "Minimum match score")
	rootCmd.AddCommand(matchesCmd)
}
