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
	onboardName     string
	onboardTag      string
	onboardLinkedin string
	onboardLocation string
	onboardEvent    string
	onboardCreate   bool
	onboardUpdate   bool
	onboardClear    bool
)

var draftHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("62")).
	Padding(0, 1)

// onboardCmd represents the onboard command
var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Edit the onboarding draft and create your profile",
	Long: `Edit the locally persisted onboarding draft and, with --create,
create your attendee profile from it.

Draft fields survive restarts and are cleared only when profile creation
succeeds. Creating a profile requires being signed in, a name, and a
transcript from 'expo-session record'.

With --update, the provided fields are applied to your existing profile
instead of the draft.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		if onboardClear {
			store.ClearDraft()
			internal.PrintSuccess("Draft cleared")
			return nil
		}

		if onboardUpdate {
			return updateProfile(cmd, cfg, api, store)
		}

		draft := store.LoadDraft()
		changed := false
		if onboardName != "" {
			draft.DisplayName = onboardName
			changed = true
		}
		if onboardTag != "" {
			draft.Tag = onboardTag
			changed = true
		}
		if onboardLinkedin != "" {
			draft.LinkedinURL = onboardLinkedin
			changed = true
		}
		if onboardLocation != "" {
			draft.PinnedLocation = onboardLocation
			changed = true
		}
		if onboardEvent != "" {
			draft.EventName = onboardEvent
			changed = true
		}
		if changed {
			store.SaveDraft(draft)
		}

		if !onboardCreate {
			printDraft(draft)
			if draft.Transcript == "" {
				internal.PrintInfo("No transcript yet - run: expo-session record")
			}
			return nil
		}

		boot := internal.NewBootstrapper(api)
		sync := internal.NewSynchronizer(api, store)
		coordinator := internal.NewCoordinator(api, sync, store, boot, cfg.EventName)
		session := coordinator.Bootstrap(cmd.Context())
		if !session.Authenticated {
			internal.PrintError("Sign in before creating a profile:")
			fmt.Println("  " + session.LoginURL)
			return nil
		}
		if session.OwnedProfileID != 0 {
			internal.PrintWarning(fmt.Sprintf("You already own profile #%d", session.OwnedProfileID))
			return nil
		}

		profile, err := coordinator.CreateProfile(cmd.Context())
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Profile #%d created for %s", profile.ID, profile.DisplayName))
		return nil
	},
}

// updateProfile applies the provided flag values to the owned profile
func updateProfile(cmd *cobra.Command, cfg internal.Config, api *internal.APIClient, store *internal.StateStore) error {
	fields := map[string]string{}
	if onboardName != "" {
		fields["display_name"] = onboardName
	}
	if onboardTag != "" {
		fields["tag"] = onboardTag
	}
	if onboardLinkedin != "" {
		fields["linkedin_url"] = onboardLinkedin
	}
	if onboardLocation != "" {
		fields["pinned_location"] = onboardLocation
	}
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update: pass --name, --tag, --linkedin or --location")
	}

	boot := internal.NewBootstrapper(api)
	sync := internal.NewSynchronizer(api, store)
	coordinator := internal.NewCoordinator(api, sync, store, boot, cfg.EventName)
	session := coordinator.Bootstrap(cmd.Context())
	if !session.Authenticated {
		internal.PrintError("Sign in first: " + session.LoginURL)
		return nil
	}

	profile, err := coordinator.UpdateProfile(cmd.Context(), fields)
	if err != nil {
		return err
	}
	internal.PrintSuccess(fmt.Sprintf("Profile #%d updated", profile.ID))
	return nil
}

// printDraft renders the current draft as a field table
func printDraft(draft internal.OnboardingDraft) {
	fmt.Println(draftHeaderStyle.Render("Onboarding draft"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Name:\t%s\n", draft.DisplayName)
	fmt.Fprintf(w, "  Tag:\t%s\n", draft.Tag)
	fmt.Fprintf(w, "  LinkedIn:\t%s\n", draft.LinkedinURL)
	fmt.Fprintf(w, "  Location:\t%s\n", draft.PinnedLocation)
	fmt.Fprintf(w, "  Event:\t%s\n", draft.EventName)
	transcript := draft.Transcript
	if len(transcript) > 60 {
		transcript = transcript[:57] + "..."
	}
	fmt.Fprintf(w, "  Transcript:\t%s\n", transcript)
	_ = w.Flush()
}

func init() {
	onboardCmd.Flags().StringVar(&onboardName, "name", "", "Display name")
	onboardCmd.Flags().StringVar(&onboardTag, "tag", "", "Role tag (e.g. Founder, Investor)")
	onboardCmd.Flags().StringVar(&onboardLinkedin, "linkedin", "", "LinkedIn URL")
	onboardCmd.Flags().StringVar(&onboardLocation, "location", "", "Pinned location on the expo floor")
	onboardCmd.Flags().StringVar(&onboardEvent, "event", "", "Event name")
	onboardCmd.Flags().BoolVar(&onboardCreate, "create", false, "Create the profile from the draft")
	onboardCmd.Flags().BoolVar(&onboardUpdate, "update", false, "Apply the provided fields to your existing profile")
	onboardCmd.Flags().BoolVar(&onboardClear, "clear", false, "Discard the draft")
	rootCmd.AddCommand(onboardCmd)
}
