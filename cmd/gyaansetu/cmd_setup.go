package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/internal/config"
	"github.com/user/gyaansetu/internal/reveal"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("GyaanSetu Setup")
		fmt.Println("Press Enter to keep the value shown in brackets.")
		fmt.Println()

		cfg.Backend.BaseURL = prompt(scanner, "Backend URL", cfg.Backend.BaseURL)
		cfg.Backend.APIKey = prompt(scanner, "Backend API key (optional)", cfg.Backend.APIKey)
		cfg.UserID = prompt(scanner, "Learner id", cfg.UserID)

		speed := prompt(scanner, "Reveal speed (0.25-3)", strconv.FormatFloat(cfg.Reveal.Speed, 'f', -1, 64))
		if f, err := strconv.ParseFloat(speed, 64); err == nil {
			cfg.Reveal.Speed = reveal.ClampSpeed(f)
		}

		cfg.Speech.Command = prompt(scanner, "Read-aloud command, e.g. espeak (optional)", cfg.Speech.Command)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt shows label with its default and reads one line. An empty answer
// keeps the default.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
