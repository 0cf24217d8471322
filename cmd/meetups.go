package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	meetupTitle string
	meetupPlace string
	meetupDate  string
	meetupTime  string
	meetupWhen  string
)

var (
	meetupHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				Padding(0, 1)

	meetupTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212"))

	countBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// meetupsCmd represents the meetups command group
var meetupsCmd = &cobra.Command{
	Use:   "meetups",
	Short: "Browse, create and join meetups",
}

var meetupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List public meetups",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		meetups, err := api.FetchMeetups(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch meetups: %w", err)
		}
		if len(meetups) == 0 {
			internal.PrintInfo("No meetups yet - create one with: expo-session meetups create")
			return nil
		}

		fmt.Println(meetupHeaderStyle.Render("Meetups"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tTITLE\tPLACE\tWHEN\tUP FOR IT")
		for _, m := range meetups {
			when := m.MeetupDate
			if m.MeetupTime != "" {
				when += " " + m.MeetupTime
			} else if m.TimeText != "" {
				when += " " + m.TimeText
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n",
				m.ID, meetupTitleStyle.Render(m.Title), m.Place, when,
				countBadgeStyle.Render(strconv.Itoa(m.UpForIt)))
		}
		return w.Flush()
	},
}

var meetupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a meetup",
	Long: `Create a public meetup. When a date and time are given, overlapping
meetups are checked first and a warning is shown before creating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if meetupTitle == "" || meetupPlace == "" {
			return fmt.Errorf("--title and --place are required")
		}
		cfg, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if meetupDate != "" && meetupTime != "" {
			check, err := api.SlotCheck(ctx, meetupDate, meetupTime)
			if err != nil {
				internal.LogWarn("Slot check failed: %v", err)
			} else if check.Warn {
				internal.PrintWarning(fmt.Sprintf("%d meetups overlap this slot", check.OverlapCount))
			}
		}

		created, err := api.CreateMeetup(ctx, internal.Meetup{
			Title:      meetupTitle,
			Place:      meetupPlace,
			TimeText:   meetupWhen,
			MeetupDate: meetupDate,
			MeetupTime: meetupTime,
			EventName:  cfg.EventName,
		})
		if err != nil {
			return fmt.Errorf("failed to create meetup: %w", err)
		}
		internal.PrintSuccess(fmt.Sprintf("Meetup #%d created: %s @ %s", created.ID, created.Title, created.Place))
		return nil
	},
}

var meetupsJoinCmd = &cobra.Command{
	Use:   "join <meetup-id>",
	Short: "Toggle attendance on a meetup",
	Long: `Toggle your attendance on a meetup. Repeating the command toggles it
back; the server decides the resulting count. Both the public and your
own meetup lists are refreshed afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meetupID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid meetup id %q", args[0])
		}

		cfg, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		boot := internal.NewBootstrapper(api)
		sync := internal.NewSynchronizer(api, store)
		coordinator := internal.NewCoordinator(api, sync, store, boot, cfg.EventName)
		coordinator.Bootstrap(cmd.Context())

		result, meetups, mine, err := coordinator.ToggleAttendance(cmd.Context(), meetupID)
		if err != nil {
			return err
		}
		switch result.Status {
		case "added":
			internal.PrintSuccess(fmt.Sprintf("You're up for it (%d going)", result.UpForIt))
		case "removed":
			internal.PrintInfo(fmt.Sprintf("Attendance withdrawn (%d going)", result.UpForIt))
		}
		internal.LogDebug("Refreshed %d public and %d owned meetups", len(meetups), len(mine))
		return nil
	},
}

var meetupsMyCmd = &cobra.Command{
	Use:   "my",
	Short: "List meetups you organize or joined",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		mine, err := api.FetchMyMeetups(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch your meetups: %w", err)
		}
		if len(mine) == 0 {
			internal.PrintInfo("You have no meetups yet")
			return nil
		}

		fmt.Println(meetupHeaderStyle.Render("My meetups"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tTITLE\tPLACE\tWHEN\tROLE\tUP FOR IT")
		for _, m := range mine {
			when := m.MeetupDate
			if m.MeetupTime != "" {
				when += " " + m.MeetupTime
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\t%d\n",
				m.ID, meetupTitleStyle.Render(m.Title), m.Place, when, m.Role, m.UpForIt)
		}
		return w.Flush()
	},
}

func init() {
	meetupsCreateCmd.Flags().StringVar(&meetupTitle, "title", "", "Meetup title")
	meetupsCreateCmd.Flags().StringVar(&meetupPlace, "place", "", "Where to meet")
	meetupsCreateCmd.Flags().StringVar(&meetupDate, "date", "", "Date (YYYY-MM-DD)")
	meetupsCreateCmd.Flags().StringVar(&meetupTime, "time", "", "Time (HH:MM)")
	meetupsCreateCmd.Flags().StringVar(&meetupWhen, "when", "", "Free-form time text")

	meetupsCmd.AddCommand(meetupsListCmd)
	meetupsCmd.AddCommand(meetupsCreateCmd)
	meetupsCmd.AddCommand(meetupsJoinCmd)
	meetupsCmd.AddCommand(meetupsMyCmd)
	rootCmd.AddCommand(meetupsCmd)
}
