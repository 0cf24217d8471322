package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/map4expo/expo-session/internal"
	"github.com/map4expo/expo-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	threadsExportFormat string
	threadsExportDir    string
)

var (
	threadHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				Padding(0, 1)

	unreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	ownSenderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Padding(0, 2)
)

// threadsCmd represents the threads command group
var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List, read and send direct messages",
}

// threadStack builds the messaging stack and resolves the session first,
// since all thread reads are profile-scoped
func threadStack(cmd *cobra.Command) (*internal.Coordinator, *internal.Synchronizer, *internal.StateStore, error) {
	cfg, api, store, err := buildClient()
	if err != nil {
		return nil, nil, nil, err
	}

	boot := internal.NewBootstrapper(api)
	sync := internal.NewSynchronizer(api, store)
	coordinator := internal.NewCoordinator(api, sync, store, boot, cfg.EventName)
	session := coordinator.Bootstrap(cmd.Context())
	if !session.Authenticated {
		store.Close()
		return nil, nil, nil, fmt.Errorf("not signed in - sign in at %s", session.LoginURL)
	}
	if session.OwnedProfileID == 0 {
		store.Close()
		return nil, nil, nil, fmt.Errorf("no profile yet - run 'expo-session onboard --create' first")
	}
	return coordinator, sync, store, nil
}

var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations with unread markers",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := sync.RefreshThreads(cmd.Context()); err != nil {
			return fmt.Errorf("failed to fetch threads: %w", err)
		}
		threads := sync.Threads()
		if len(threads) == 0 {
			internal.PrintInfo("No conversations yet - find someone via: expo-session matches")
			return nil
		}

		fmt.Println(threadHeaderStyle.Render("Conversations"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  \tID\tWITH\tLAST MESSAGE\tUPDATED")
		for _, t := range threads {
			marker := " "
			if sync.IsUnread(t.ID) {
				marker = unreadStyle.Render("●")
			}
			preview := t.LastMessage
			if len(preview) > 40 {
				preview = preview[:37] + "..."
			}
			fmt.Fprintf(w, "  %s\t%d\t%s\t%s\t%s\n",
				marker, t.ID, participantTags(t), previewStyle.Render(preview), t.UpdatedAt)
		}
		return w.Flush()
	},
}

var threadsShowCmd = &cobra.Command{
	Use:   "show <thread-id>",
	Short: "Show a conversation and mark it seen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}

		coordinator, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := sync.RefreshThreads(cmd.Context()); err != nil {
			internal.LogWarn("Thread list refresh failed: %v", err)
		}
		if err := sync.Select(cmd.Context(), threadID); err != nil {
			return fmt.Errorf("failed to fetch messages: %w", err)
		}

		renderThread(sync, coordinator.Session().OwnedProfileID, threadID)
		return nil
	},
}

var threadsSendCmd = &cobra.Command{
	Use:   "send <thread-id> <text>",
	Short: "Send a message to a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}
		text := strings.Join(args[1:], " ")

		coordinator, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := sync.Select(cmd.Context(), threadID); err != nil {
			return fmt.Errorf("failed to open thread %d: %w", threadID, err)
		}
		if err := coordinator.SendMessage(cmd.Context(), text); err != nil {
			return err
		}

		renderThread(sync, coordinator.Session().OwnedProfileID, threadID)
		return nil
	},
}

var threadsStartCmd = &cobra.Command{
	Use:   "start <profile-id> <text>",
	Short: "Start a conversation with a matched profile",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recipientID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[0])
		}
		text := strings.Join(args[1:], " ")

		coordinator, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		threadID, err := coordinator.StartThread(cmd.Context(), recipientID, text)
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Thread %d started", threadID))
		renderThread(sync, coordinator.Session().OwnedProfileID, threadID)
		return nil
	},
}

var threadsExportCmd = &cobra.Command{
	Use:   "export <thread-id>",
	Short: "Export a conversation to a file",
	Long:  `Export one conversation's full message log (formats: jsonl, md, yaml, json).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}

		exporter, err := export.NewExporter(threadsExportFormat)
		if err != nil {
			return err
		}

		_, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := sync.RefreshThreads(cmd.Context()); err != nil {
			internal.LogWarn("Thread list refresh failed: %v", err)
		}
		if err := sync.Select(cmd.Context(), threadID); err != nil {
			return fmt.Errorf("failed to fetch messages: %w", err)
		}

		log := &internal.ThreadLog{Messages: sync.Messages()}
		for _, t := range sync.Threads() {
			if t.ID == threadID {
				log.Thread = t
				break
			}
		}
		if log.Thread.ID == 0 {
			log.Thread = internal.ThreadSummary{ID: threadID}
		}

		if err := os.MkdirAll(threadsExportDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outPath := filepath.Join(threadsExportDir, fmt.Sprintf("thread-%d.%s", threadID, exporter.Extension()))
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := exporter.Export(log, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		internal.PrintSuccess("Exported to " + outPath)
		return nil
	},
}

// participantTags joins the other participants' tags for display
func participantTags(t internal.ThreadSummary) string {
	tags := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		tag := p.Tag
		if tag == "" {
			tag = fmt.Sprintf("#%d", p.ID)
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

// renderThread prints the selected thread's message log
func renderThread(sync *internal.Synchronizer, ownProfileID, threadID int64) {
	messages := sync.Messages()
	fmt.Println()
	fmt.Println(threadHeaderStyle.Render(fmt.Sprintf("Thread %d (%d messages)", threadID, len(messages))))
	for _, m := range messages {
		sender := m.SenderRole
		if sender == "" {
			sender = fmt.Sprintf("profile %d", m.SenderID)
		}
		style := senderStyle
		if m.SenderID == ownProfileID {
			sender = "you"
			style = ownSenderStyle
		}
		fmt.Printf("%s %s\n", style.Render(sender+":"), previewStyle.Render(m.CreatedAt))
		fmt.Println(bodyStyle.Render(m.Body))
	}
}

func init() {
	threadsExportCmd.Flags().StringVarP(&threadsExportFormat, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	threadsExportCmd.Flags().StringVarP(&threadsExportDir, "output", "o", ".", "Output directory")

	threadsCmd.AddCommand(threadsListCmd)
	threadsCmd.AddCommand(threadsShowCmd)
	threadsCmd.AddCommand(threadsSendCmd)
	threadsCmd.AddCommand(threadsStartCmd)
	threadsCmd.AddCommand(threadsExportCmd)
	rootCmd.AddCommand(threadsCmd)
}
