package cmd

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	watchThreadID int64
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [thread-id]",
	Short: "Follow incoming messages live",
	Long: `Keep a live connection to the push channel and print thread activity
as it arrives. With a thread id, that conversation is selected and its new
messages are printed in full; other threads are only marked unread.

The connection reconnects automatically until you press Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid thread id %q", args[0])
			}
			watchThreadID = id
		}

		coordinator, sync, store, err := threadStack(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := sync.RefreshThreads(ctx); err != nil {
			internal.PrintWarning("Thread list unavailable, starting with push updates only")
		}
		if watchThreadID != 0 {
			if err := sync.Select(ctx, watchThreadID); err != nil {
				return fmt.Errorf("failed to open thread %d: %w", watchThreadID, err)
			}
			renderThread(sync, coordinator.Session().OwnedProfileID, watchThreadID)
		}

		wsURL, err := coordinator.WebsocketURL()
		if err != nil {
			return err
		}
		channel := internal.NewPushChannel(wsURL)
		go channel.Run(ctx)

		internal.PrintInfo("Watching for activity - Ctrl-C to stop")
		lastShown := len(sync.Messages())
		for {
			select {
			case <-ctx.Done():
				internal.PrintInfo("Stopped")
				return nil
			case delta, ok := <-channel.Events():
				if !ok {
					return nil
				}
				if err := sync.ApplyDelta(ctx, delta); err != nil {
					internal.LogWarn("Failed to apply delta for thread %d: %v", delta.ThreadID, err)
					continue
				}
				if delta.ThreadID == sync.SelectedThread() {
					messages := sync.Messages()
					for _, m := range messages[min(lastShown, len(messages)):] {
						sender := m.SenderRole
						if sender == "" {
							sender = fmt.Sprintf("profile %d", m.SenderID)
						}
						fmt.Printf("%s %s\n", senderStyle.Render(sender+":"), m.Body)
					}
					lastShown = len(messages)
				} else {
					fmt.Printf("%s thread %d has new activity\n", unreadStyle.Render("●"), delta.ThreadID)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
