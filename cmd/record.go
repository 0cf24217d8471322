package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/map4expo/expo-session/internal"
	"github.com/spf13/cobra"
)

var (
	countdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	transcriptStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("252"))
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice pitch and transcribe it",
	Long: fmt.Sprintf(`Record a voice pitch from the microphone, up to %d seconds.

Capture stops automatically at the cap, or earlier when you press Enter.
The audio is transcribed by the speech-to-text service and the transcript
is saved into your onboarding draft for 'expo-session onboard --create'.`, internal.MaxRecordingSeconds),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, store, err := buildClient()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		recorder := internal.NewRecorder(internal.MicOpener{}, api)
		if err := recorder.Start(ctx); err != nil {
			var acq *internal.AcquisitionError
			if errors.As(err, &acq) {
				internal.PrintError("Could not access the microphone: " + acq.Err.Error())
			}
			return err
		}
		defer recorder.Abort()

		fmt.Println(countdownStyle.Render("● Recording - press Enter to stop"))

		stopped := make(chan struct{})
		go func() {
			reader := bufio.NewReader(os.Stdin)
			_, _ = reader.ReadString('\n')
			close(stopped)
		}()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
	capture:
		for {
			select {
			case <-ticker.C:
				capped := recorder.Tick()
				remaining := internal.MaxRecordingSeconds - recorder.ElapsedSeconds()
				fmt.Printf("\r%s", countdownStyle.Render(fmt.Sprintf("● %2ds left ", remaining)))
				if capped {
					fmt.Println()
					internal.PrintInfo("Reached the recording cap")
					break capture
				}
			case <-stopped:
				fmt.Println()
				if err := recorder.Stop(); err != nil {
					return err
				}
				break capture
			case <-ctx.Done():
				fmt.Println()
				return ctx.Err()
			}
		}

		var transcript string
		err = internal.ShowProgress(ctx, "Transcribing...", func() error {
			var finishErr error
			transcript, finishErr = recorder.Finish(ctx)
			return finishErr
		})
		if err != nil {
			var empty *internal.EmptyCaptureError
			if errors.As(err, &empty) {
				internal.PrintError("Nothing was captured - try a longer recording")
			}
			return err
		}

		fmt.Println()
		fmt.Println(transcriptStyle.Render(transcript))
		fmt.Println()

		draft := store.LoadDraft()
		draft.Transcript = transcript
		store.SaveDraft(draft)
		internal.PrintSuccess("Transcript saved to your onboarding draft")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
