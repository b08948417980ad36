package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("language", "l", "", "python, javascript or java (default from file extension)")
	runCmd.Flags().String("input", "", "text passed to the program on stdin")
	runCmd.Flags().Int("timeout", 10, "execution timeout in seconds")
}

var languageByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".java": "java",
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a program in the backend sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}

		language, _ := cmd.Flags().GetString("language")
		if language == "" {
			language = languageByExt[strings.ToLower(filepath.Ext(args[0]))]
		}
		if language == "" {
			return fmt.Errorf("cannot tell the language of %s; use --language", args[0])
		}

		req := tutor.ExecRequest{Code: string(code), Language: language}
		req.Timeout, _ = cmd.Flags().GetInt("timeout")
		if cmd.Flags().Changed("input") {
			input, _ := cmd.Flags().GetString("input")
			req.InputData = &input
		}

		result, err := newBackend(cfg).ExecuteCode(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("execute code: %w", err)
		}

		fmt.Fprint(os.Stdout, result.Output)
		if result.Error != "" {
			fmt.Fprintln(os.Stderr, result.Error)
		}
		fmt.Fprintf(os.Stderr, "exit code %d in %.2fs\n", result.ReturnCode, result.ExecutionTime)
		if result.ReturnCode != 0 {
			return fmt.Errorf("program exited with code %d", result.ReturnCode)
		}
		return nil
	},
}
