package cmd

import (
	"fmt"

	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the backend session",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		boot := internal.NewBootstrapper(api)
		coordinator := internal.NewCoordinator(api, nil, store, boot, "")
		fallbackURL, err := coordinator.Logout(cmd.Context())
		if err != nil {
			internal.PrintWarning("Logout call failed; finish in a browser:")
			fmt.Println("  " + fallbackURL)
			return nil
		}
		internal.PrintSuccess("Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
