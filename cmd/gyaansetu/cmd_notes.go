package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(notesCmd)

	notesCmd.Flags().String("entry", "", "history entry to export (id or position, default most recent)")
	notesCmd.Flags().StringP("out", "o", ".", "directory to write the PDF to")
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Download PDF notes for a saved lesson",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		history, err := newHistory(cfg, false)
		if err != nil {
			return err
		}
		ref, _ := cmd.Flags().GetString("entry")
		entry, err := pickEntry(history, ref)
		if err != nil {
			return err
		}

		notes, err := newBackend(cfg).DownloadNotes(cmd.Context(), tutor.NotesRequest{
			LessonContent: entry.Content,
			Topic:         entry.Topic,
			LessonTitle:   entry.LessonTitle,
		})
		if err != nil {
			return fmt.Errorf("download notes: %w", err)
		}

		dir, _ := cmd.Flags().GetString("out")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path := filepath.Join(dir, filepath.Base(notes.Filename))
		if err := os.WriteFile(path, notes.Data, 0644); err != nil {
			return fmt.Errorf("write notes: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Notes saved to %s (%d bytes)\n", path, len(notes.Data))
		return nil
	},
}
