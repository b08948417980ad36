package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().String("entry", "", "history entry to be quizzed on (id or position, default most recent)")
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take a quiz on a saved lesson",
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

		backend := newBackend(cfg)
		ctx := cmd.Context()

		fmt.Fprintf(os.Stdout, "Generating a quiz on %s: %s...\n", entry.Topic, entry.LessonTitle)
		quiz, err := backend.GenerateQuiz(ctx, tutor.QuizRequest{
			LessonContent: entry.Content,
			Topic:         entry.Topic,
			LessonTitle:   entry.LessonTitle,
			LessonIndex:   entry.LessonIndex,
			UserID:        cfg.UserID,
		})
		if err != nil {
			return fmt.Errorf("generate quiz: %w", err)
		}
		if len(quiz.Questions) == 0 {
			return fmt.Errorf("quiz has no questions")
		}

		start := time.Now()
		answers := askQuestions(bufio.NewScanner(os.Stdin), os.Stdout, quiz.Questions)

		result, err := backend.SubmitQuiz(ctx, tutor.QuizSubmission{
			QuizID:      quiz.QuizID,
			UserID:      cfg.UserID,
			Answers:     answers,
			TimeSpent:   int(time.Since(start).Seconds()),
			LessonIndex: entry.LessonIndex,
			Topic:       entry.Topic,
		})
		if err != nil {
			return fmt.Errorf("submit quiz: %w", err)
		}

		printResult(os.Stdout, result)
		return nil
	},
}

// askQuestions prompts for every question. MCQ answers are option numbers;
// coding answers end with a line holding a single ".".
func askQuestions(scanner *bufio.Scanner, out io.Writer, questions []tutor.Question) []tutor.Answer {
	answers := make([]tutor.Answer, 0, len(questions))
	for i, q := range questions {
		fmt.Fprintf(out, "\nQ%d/%d [%s] %s\n", i+1, len(questions), q.Difficulty, q.Question)

		switch q.Type {
		case tutor.QuestionCoding:
			if q.ExpectedOutput != "" {
				fmt.Fprintf(out, "Expected output:\n%s\n", q.ExpectedOutput)
			}
			fmt.Fprintln(out, "Enter your code, then a line with a single '.':")
			var lines []string
			for scanner.Scan() {
				line := scanner.Text()
				if line == "." {
					break
				}
				lines = append(lines, line)
			}
			answers = append(answers, tutor.Answer{QuestionIndex: i, Answer: strings.Join(lines, "\n")})

		default:
			for j, opt := range q.Options {
				fmt.Fprintf(out, "  %d) %s\n", j+1, opt)
			}
			choice := -1
			for choice < 0 {
				fmt.Fprint(out, "Answer: ")
				if !scanner.Scan() {
					break
				}
				n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
				if err != nil || n < 1 || n > len(q.Options) {
					fmt.Fprintf(out, "Enter a number between 1 and %d.\n", len(q.Options))
					continue
				}
				choice = n - 1
			}
			answers = append(answers, tutor.Answer{QuestionIndex: i, Answer: choice})
		}
	}
	return answers
}

func printResult(out io.Writer, r *tutor.QuizResult) {
	fmt.Fprintf(out, "\nScore: %.0f%% (%d/%d correct) in %ds\n", r.Score, r.CorrectAnswers, r.TotalQuestions, r.TimeSpent)
	for _, d := range r.DetailedResults {
		mark := "✗"
		if d.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(out, "%s Q%d %s\n", mark, d.QuestionIndex+1, d.Question)
		if !d.IsCorrect && len(d.CorrectAnswer) > 0 {
			fmt.Fprintf(out, "  correct answer: %s\n", answerText(d.CorrectAnswer))
		}
		if d.Explanation != "" {
			fmt.Fprintf(out, "  %s\n", d.Explanation)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, r.RecommendationMessage())
}

// answerText shows option indexes 1-based and code as-is.
func answerText(raw json.RawMessage) string {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return "option " + strconv.Itoa(n+1)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
