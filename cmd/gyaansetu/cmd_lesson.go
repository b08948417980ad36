package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/types"
	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(lessonCmd)

	lessonCmd.Flags().String("title", "", "lesson title sent to the backend")
	lessonCmd.Flags().Bool("ephemeral", false, "do not record the lesson in history")
}

var lessonCmd = &cobra.Command{
	Use:   "lesson <topic> <number>",
	Short: "Stream a single lesson of a course to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid lesson number: %s", args[1])
		}
		index := n - 1
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = types.LessonTitleFor(nil, index)
		}
		ephemeral, _ := cmd.Flags().GetBool("ephemeral")

		history, err := newHistory(cfg, ephemeral)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		body, err := newBackend(cfg).LessonStream(ctx, tutor.LessonRequest{
			Topic:       args[0],
			LessonIndex: index,
			LessonTitle: title,
		})
		if err != nil {
			return fmt.Errorf("open lesson stream: %w", err)
		}
		defer body.Close()

		// Seed the topic; lesson meta may omit it.
		var d lecture.Dispatcher
		d.Restore(&types.HistoryEntry{Topic: args[0]})
		d.Begin(lecture.KindLesson, time.Now())
		d.SetLesson(index)

		printed := 0
		err = tutor.ReadEvents(ctx, body, func(ev tutor.Event) error {
			eff := d.Apply(ev, time.Now())
			st := d.State()
			if eff.Reveal {
				fmt.Fprint(os.Stdout, st.Content[printed:])
				printed = len(st.Content)
			}
			if eff.Record != nil {
				if err := history.Record(eff.Record); err != nil {
					return fmt.Errorf("record history: %w", err)
				}
			}
			if eff.Notify != nil {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", eff.Notify.Level, eff.Notify.Message)
			}
			if st.Phase == lecture.PhaseMeta {
				printed = 0
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("read lesson stream: %w", err)
		}
		if st := d.State(); st.Phase == lecture.PhaseError {
			return fmt.Errorf("lesson failed: %s", st.Error)
		}
		return nil
	},
}
