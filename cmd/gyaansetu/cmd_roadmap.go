package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(roadmapCmd)

	roadmapCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")
}

var roadmapCmd = &cobra.Command{
	Use:   "roadmap <skill>",
	Short: "Generate a learning roadmap for a skill",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		format, _ := cmd.Flags().GetString("format")
		if format != "yaml" && format != "json" {
			return fmt.Errorf("unknown format: %s", format)
		}

		raw, err := newBackend(cfg).Roadmap(cmd.Context(), tutor.RoadmapRequest{
			Skill: strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("fetch roadmap: %w", err)
		}
		return writeRoadmap(os.Stdout, raw, format)
	},
}

// writeRoadmap re-encodes the backend's roadmap document.
func writeRoadmap(w io.Writer, raw json.RawMessage, format string) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse roadmap: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode roadmap: %w", err)
	}
	return enc.Close()
}
