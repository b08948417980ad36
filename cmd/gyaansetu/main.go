package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/internal/config"
	"github.com/user/gyaansetu/internal/state"
	"github.com/user/gyaansetu/internal/types"
	"github.com/user/gyaansetu/pkg/tutor"
	"github.com/user/gyaansetu/pkg/tutor/remote"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "gyaansetu",
	Short:         "GyaanSetu terminal tutor",
	Long:          "Stream AI-generated lessons into the terminal, ask doubts, take quizzes and track progress.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	setupLoggingTo(cfg, os.Stderr)
}

func setupLoggingTo(cfg *config.Config, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// logToFile sends logs to <data_dir>/gyaansetu.log so they do not draw over
// the full-screen UI. The returned func closes the file.
func logToFile(cfg *config.Config) (func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "gyaansetu.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	setupLoggingTo(cfg, f)
	return func() { f.Close() }, nil
}

func newBackend(cfg *config.Config) *remote.Client {
	return remote.New(&tutor.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIKey:         cfg.Backend.APIKey,
		TimeoutSeconds: cfg.Backend.TimeoutSeconds,
		MaxConcurrent:  cfg.Backend.MaxConcurrent,
	})
}

// newHistory opens the learning history under the data dir, or an
// in-memory one when ephemeral is set.
func newHistory(cfg *config.Config, ephemeral bool) (*state.History, error) {
	if ephemeral {
		return state.NewHistory(state.NewMemoryStorage()), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return state.NewHistory(state.NewFileStorage(cfg.DataDir)), nil
}

// pickEntry resolves a history reference: empty means the most recent
// lesson, a number is a 1-based position, anything else is an entry id.
func pickEntry(history *state.History, ref string) (*types.HistoryEntry, error) {
	entries := history.Entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("no lessons in history; run 'gyaansetu learn' first")
	}
	if ref == "" {
		return entries[0], nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(entries) {
			return nil, fmt.Errorf("history position %d out of range (1-%d)", n, len(entries))
		}
		return entries[n-1], nil
	}
	if e, ok := history.Get(types.EntryID(ref)); ok {
		return e, nil
	}
	return nil, fmt.Errorf("history entry not found: %s", ref)
}
