package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/gyaansetu/internal/config"
	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
	"github.com/user/gyaansetu/internal/speech"
	"github.com/user/gyaansetu/internal/state"
	"github.com/user/gyaansetu/internal/tui"
	"github.com/user/gyaansetu/pkg/tutor"
)

func init() {
	rootCmd.AddCommand(learnCmd)

	learnCmd.Flags().Bool("plain", false, "print lessons as plain text with a line prompt instead of the full-screen UI")
	learnCmd.Flags().Bool("inline", false, "run the UI without the alternate screen")
	learnCmd.Flags().Bool("no-color", false, "disable colors and styled markdown")
	learnCmd.Flags().Bool("ephemeral", false, "keep history in memory only")
	learnCmd.Flags().Bool("speak", false, "read finished lessons aloud with speech.command")
	learnCmd.Flags().Float64("speed", 0, "reveal speed multiplier (0.25-3)")
	learnCmd.Flags().String("entry", "", "reopen a history entry (id or position) instead of searching")
}

var learnCmd = &cobra.Command{
	Use:   "learn [query]",
	Short: "Learn a topic as a streamed course",
	Args:  cobra.ArbitraryArgs,
	RunE:  runLearn,
}

type learnOptions struct {
	plain     bool
	inline    bool
	noColor   bool
	ephemeral bool
	speak     bool
	speed     float64
	entry     string
}

func learnFlags(cmd *cobra.Command) learnOptions {
	var o learnOptions
	o.plain, _ = cmd.Flags().GetBool("plain")
	o.inline, _ = cmd.Flags().GetBool("inline")
	o.noColor, _ = cmd.Flags().GetBool("no-color")
	o.ephemeral, _ = cmd.Flags().GetBool("ephemeral")
	o.speak, _ = cmd.Flags().GetBool("speak")
	o.speed, _ = cmd.Flags().GetFloat64("speed")
	o.entry, _ = cmd.Flags().GetString("entry")
	return o
}

func runLearn(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	opts := learnFlags(cmd)
	query := strings.TrimSpace(strings.Join(args, " "))

	if opts.plain {
		setupLogging(cfg)
	} else {
		closeLog, err := logToFile(cfg)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, err := newHistory(cfg, opts.ephemeral)
	if err != nil {
		return err
	}
	backend := newBackend(cfg)

	slog.Info("gyaansetu learn",
		"backend", cfg.Backend.BaseURL,
		"data_dir", cfg.DataDir,
		"plain", opts.plain,
		"ephemeral", opts.ephemeral,
	)

	if opts.plain {
		out := newPlainObserver(os.Stdout, os.Stderr)
		viewer := newViewer(cfg, opts, backend, history, out)
		defer viewer.Close()
		return runPlain(ctx, viewer, history, query, opts.entry, os.Stdin, out)
	}

	ui := tui.New(tui.Options{Inline: opts.inline, NoColor: opts.noColor})
	viewer := newViewer(cfg, opts, backend, history, ui)
	defer viewer.Close()

	if opts.entry != "" {
		entry, err := pickEntry(history, opts.entry)
		if err != nil {
			return err
		}
		if err := viewer.OpenHistory(entry); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ui.Run(gctx, viewer)
	})
	if query != "" && opts.entry == "" {
		g.Go(func() error {
			if err := viewer.Search(gctx, query); err != nil {
				ui.Quit()
				return fmt.Errorf("start course: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func newViewer(cfg *config.Config, opts learnOptions, streamer tutor.Streamer, history *state.History, observer lecture.Observer) *lecture.Viewer {
	speed := cfg.Reveal.Speed
	if opts.speed > 0 {
		speed = opts.speed
	}
	vo := lecture.Options{
		Streamer: streamer,
		History:  history,
		Observer: observer,
		Clock:    reveal.SystemClock(),
		Interval: cfg.RevealInterval(),
		Speed:    speed,
	}
	if opts.speak {
		if sp := speech.NewCommand(cfg.Speech.Command); sp != nil {
			vo.Speaker = sp
		} else {
			slog.Warn("speech.command is not set; --speak ignored")
		}
	}
	return lecture.New(vo)
}

// runPlain drives the viewer from a line prompt.
func runPlain(ctx context.Context, viewer *lecture.Viewer, history *state.History, query, entryRef string, in io.Reader, out *plainObserver) error {
	switch {
	case entryRef != "":
		entry, err := pickEntry(history, entryRef)
		if err != nil {
			return err
		}
		if err := viewer.OpenHistory(entry); err != nil {
			return err
		}
	case query != "":
		if err := viewer.Search(ctx, query); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if err := viewer.Wait(ctx); err != nil {
			return nil
		}
		out.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var err error
		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			return nil
		case line == "n":
			err = viewer.Next(ctx)
		case line == "p":
			err = viewer.Previous(ctx)
		case line == "r":
			err = viewer.Repeat(ctx)
		case line == "+":
			viewer.SetSpeed(viewer.Speed() + 0.25)
			out.status("speed %.2gx", viewer.Speed())
		case line == "-":
			viewer.SetSpeed(viewer.Speed() - 0.25)
			out.status("speed %.2gx", viewer.Speed())
		default:
			if n, convErr := strconv.Atoi(line); convErr == nil {
				err = viewer.OpenLesson(ctx, n-1)
			} else {
				err = viewer.Search(ctx, line)
			}
		}
		if err != nil {
			out.status("%v", err)
		}
	}
}

// plainObserver prints revealed text as it grows.
type plainObserver struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	printed string
	topic   string
	lesson  int
	inCrs   bool
}

func newPlainObserver(out, errOut io.Writer) *plainObserver {
	return &plainObserver{out: out, errOut: errOut, lesson: -1}
}

func (p *plainObserver) LectureChanged(l lecture.Lecture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l.Phase == lecture.PhaseIdle {
		return
	}
	if l.Topic != p.topic || l.LessonIndex != p.lesson || l.InCourse() != p.inCrs {
		p.topic, p.lesson, p.inCrs = l.Topic, l.LessonIndex, l.InCourse()
		if l.InCourse() {
			fmt.Fprintf(p.out, "\n== %s: lesson %d/%d, %s ==\n\n", l.Topic, l.LessonIndex+1, len(l.Syllabus), l.LessonTitle())
		} else if l.Topic != "" {
			fmt.Fprintf(p.out, "\n== %s ==\n\n", l.Topic)
		}
	}
	// Restored lessons arrive whole, without frames.
	if l.Phase == lecture.PhaseDone && !l.Revealing && l.Revealed != p.printed {
		p.write(l.Revealed)
	}
}

func (p *plainObserver) Frame(f reveal.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(f.Revealed)
}

func (p *plainObserver) write(revealed string) {
	if !strings.HasPrefix(revealed, p.printed) {
		fmt.Fprintln(p.out)
		p.printed = ""
	}
	fmt.Fprint(p.out, revealed[len(p.printed):])
	p.printed = revealed
}

func (p *plainObserver) Notify(n lecture.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.errOut, "[%s] %s\n", n.Level, n.Message)
}

func (p *plainObserver) prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.errOut, "\n(n)ext (p)rev (r)epeat <number> +/- (q)uit, or a new topic > ")
}

func (p *plainObserver) status(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.errOut, format+"\n", args...)
}
