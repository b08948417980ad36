package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	ctxengine "github.com/user/gyaansetu/internal/context"
	"github.com/user/gyaansetu/internal/tui"
	"github.com/user/gyaansetu/internal/types"
	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(doubtCmd)

	doubtCmd.Flags().String("entry", "", "history entry to ask about (id or position, default most recent)")
	doubtCmd.Flags().String("thread", "", "conversation thread id")
	doubtCmd.Flags().Bool("no-color", false, "render without colors")
	doubtCmd.Flags().Int("width", 100, "wrap width")
}

var doubtCmd = &cobra.Command{
	Use:   "doubt <question>",
	Short: "Ask the tutor a question about a lesson",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("empty question")
		}

		history, err := newHistory(cfg, false)
		if err != nil {
			return err
		}
		ref, _ := cmd.Flags().GetString("entry")
		entry, err := pickEntry(history, ref)
		if err != nil {
			return err
		}

		engine, err := ctxengine.New(cfg.Tutor.TokenizerModel, cfg.Tutor.MaxContextTokens, cfg.Tutor.DoubtReserve)
		if err != nil {
			return fmt.Errorf("create context engine: %w", err)
		}
		lessonContext, err := engine.BuildLessonContext(ctxengine.Lesson{
			Topic:   entry.Topic,
			Title:   entry.LessonTitle,
			Content: entry.Content,
		}, question)
		if err != nil {
			return fmt.Errorf("build lesson context: %w", err)
		}
		slog.Debug("doubt context", "entry", entry.ID, "tokens", engine.CountTokens(lessonContext))

		thread, _ := cmd.Flags().GetString("thread")
		if thread == "" {
			thread = string(types.NewThreadID())
		}

		answer, err := newBackend(cfg).Doubt(cmd.Context(), tutor.DoubtRequest{
			Doubt:         question,
			LessonContext: lessonContext,
			Topic:         entry.Topic,
			ThreadID:      thread,
		})
		if err != nil {
			return fmt.Errorf("ask doubt: %w", err)
		}

		noColor, _ := cmd.Flags().GetBool("no-color")
		width, _ := cmd.Flags().GetInt("width")
		fmt.Fprint(os.Stdout, tui.RenderMarkdown(answer.Answer, width, noColor))
		return nil
	},
}
