package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/internal/tui"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)

	historyShowCmd.Flags().Bool("raw", false, "print markdown source instead of rendering it")
	historyShowCmd.Flags().Bool("no-color", false, "render without colors")
	historyShowCmd.Flags().Int("width", 100, "wrap width")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the learning history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent lessons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		history, err := newHistory(cfg, false)
		if err != nil {
			return err
		}

		entries := history.Entries()
		if len(entries) == 0 {
			fmt.Println("No lessons in history.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tTOPIC\tLESSON\tDURATION\tWHEN")
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				i+1,
				e.ID,
				e.Topic,
				e.LessonTitle,
				(time.Duration(e.Duration) * time.Second).String(),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id|number]",
	Short: "Show a saved lesson (most recent by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		history, err := newHistory(cfg, false)
		if err != nil {
			return err
		}

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		entry, err := pickEntry(history, ref)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		noColor, _ := cmd.Flags().GetBool("no-color")
		width, _ := cmd.Flags().GetInt("width")

		fmt.Fprintf(os.Stdout, "%s: %s\n", entry.Topic, entry.LessonTitle)
		if raw {
			fmt.Fprintln(os.Stdout, entry.Content)
			return nil
		}
		fmt.Fprint(os.Stdout, tui.RenderMarkdown(entry.Content, width, noColor))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all saved lessons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		history, err := newHistory(cfg, false)
		if err != nil {
			return err
		}
		if err := history.Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}
