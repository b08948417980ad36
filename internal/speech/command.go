// Package speech reads finished lessons aloud through an external
// text-to-speech command.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// maxDuration bounds a single read-aloud.
const maxDuration = 30 * time.Minute

// Command speaks by running a shell command with the text on stdin,
// e.g. "espeak" or "say".
type Command struct {
	command string
}

// NewCommand creates a Command speaker. It returns nil for an empty command.
func NewCommand(command string) *Command {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	return &Command{command: command}
}

func (c *Command) Speak(ctx context.Context, text string) error {
	text = PlainText(text)
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, maxDuration)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", c.command)
	cmd.Stdin = strings.NewReader(text)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech command failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

var (
	spaces = regexp.MustCompile(`[ \t]{2,}`)
	trail  = regexp.MustCompile(`[ \t]+\n`)
	blank  = regexp.MustCompile(`\n{3,}`)
)

// PlainText returns the readable text of a markdown document. Code blocks
// and code spans are left out.
func PlainText(md string) string {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(src))
			}
		case *ast.Paragraph, *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	out := spaces.ReplaceAllString(b.String(), " ")
	out = trail.ReplaceAllString(out, "\n")
	out = blank.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
