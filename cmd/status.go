package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	statusVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Underline(true)
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check sign-in state and backend reachability",
	Long: `Check the health of expo-session by verifying:
  • Configuration and local state store
  • Identity service reachability and sign-in state
  • Owned profile
  • Unread conversations

The identity read never blocks: when the backend is unreachable the
unauthenticated fallback is reported instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("🔍 Expo Session Status"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, api, store, err := buildClient()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to initialize:"), err)
			return err
		}
		defer store.Close()
		fmt.Println(successStyle.Render("✅ Configuration loaded"))
		if statusVerbose {
			fmt.Printf("   Server: %s\n", cfg.ServerURL)
			fmt.Printf("   STT: %s\n", cfg.STTURL)
		}
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 2: Resolving session..."))
		boot := internal.NewBootstrapper(api)
		session := boot.Resolve(cmd.Context())
		if session.Authenticated {
			fmt.Println(successStyle.Render("✅ Signed in"))
			fmt.Printf("   Name: %s\n", session.Name)
			if statusVerbose {
				fmt.Printf("   Email: %s\n", session.Email)
			}
		} else {
			fmt.Println(warningStyle.Render("⚠️  Not signed in"))
			fmt.Printf("   Sign in at: %s\n", session.LoginURL)
		}
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 3: Checking owned profile..."))
		if session.OwnedProfileID != 0 {
			fmt.Println(successStyle.Render(fmt.Sprintf("✅ Profile #%d", session.OwnedProfileID)))
		} else {
			fmt.Println(warningStyle.Render("⚠️  No profile yet"))
			fmt.Println("   Run: expo-session record, then expo-session onboard --create")
		}
		fmt.Println()

		if session.OwnedProfileID != 0 {
			fmt.Println(infoStyle.Render("Step 4: Checking conversations..."))
			sync := internal.NewSynchronizer(api, store)
			if err := sync.RefreshThreads(cmd.Context()); err != nil {
				fmt.Println(warningStyle.Render("⚠️  Thread list unavailable:"), err)
			} else {
				threads := sync.Threads()
				unread := sync.UnreadCount()
				fmt.Println(successStyle.Render(fmt.Sprintf("✅ %d conversation(s), %d unread", len(threads), unread)))
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusVerbose, "details", false, "Show detailed output")
	rootCmd.AddCommand(statusCmd)
}
