package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringSlice("topic", nil, "limit to a topic (repeatable; topics are fetched in parallel)")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show quiz performance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		topics, _ := cmd.Flags().GetStringSlice("topic")
		if len(topics) == 0 {
			topics = []string{""}
		}

		dashboards, err := fetchDashboards(cmd.Context(), newBackend(cfg), cfg.UserID, topics)
		if err != nil {
			return err
		}
		for i, d := range dashboards {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			if err := printDashboard(os.Stdout, topics[i], d); err != nil {
				return err
			}
		}
		return nil
	},
}

// fetchDashboards loads one dashboard per topic concurrently; the results
// are in topic order.
func fetchDashboards(ctx context.Context, backend tutor.Backend, userID string, topics []string) ([]*tutor.Dashboard, error) {
	out := make([]*tutor.Dashboard, len(topics))
	g, ctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		g.Go(func() error {
			d, err := backend.PerformanceDashboard(ctx, tutor.DashboardRequest{UserID: userID, Topic: topic})
			if err != nil {
				if topic == "" {
					return fmt.Errorf("fetch dashboard: %w", err)
				}
				return fmt.Errorf("fetch dashboard for %s: %w", topic, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func printDashboard(out io.Writer, topic string, d *tutor.Dashboard) error {
	if topic == "" {
		topic = "all topics"
	}
	fmt.Fprintf(out, "Performance: %s\n", topic)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Quizzes taken\t%d\n", d.TotalQuizzes)
	fmt.Fprintf(w, "Average score\t%.1f%%\n", d.AverageScore)
	fmt.Fprintf(w, "Completion\t%.1f%%\n", d.CompletionPercentage)
	if len(d.StrongAreas) > 0 {
		fmt.Fprintf(w, "Strong areas\t%s\n", strings.Join(d.StrongAreas, ", "))
	}
	if len(d.WeakAreas) > 0 {
		fmt.Fprintf(w, "Weak areas\t%s\n", strings.Join(d.WeakAreas, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(d.TopicScores) > 0 {
		names := make([]string, 0, len(d.TopicScores))
		for name := range d.TopicScores {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(out, "\nTopic scores:")
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\t%.1f%%\n", name, d.TopicScores[name])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(d.RecentAttempts) > 0 {
		fmt.Fprintln(out, "\nRecent attempts:")
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  TOPIC\tLESSON\tSCORE\tCORRECT\tSUBMITTED")
		for _, a := range d.RecentAttempts {
			fmt.Fprintf(w, "  %s\t%d\t%.0f%%\t%d/%d\t%s\n",
				a.Topic,
				a.LessonIndex+1,
				a.Score,
				a.CorrectAnswers,
				a.TotalQuestions,
				a.SubmittedAt,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(d.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		for _, r := range d.Recommendations {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return nil
}
