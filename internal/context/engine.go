// internal/context/engine.go
package context

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkoukk/tiktoken-go"
)

// Engine fits lesson text into a token budget before it is sent to the
// backend alongside a doubt.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
	header    *template.Template
}

// New creates a context engine with the specified token budget.
// model is used to select the appropriate tokenizer (e.g. "gpt-4").
// maxTokens bounds the whole doubt payload.
// reserve is the number of tokens kept free for the doubt itself.
func New(model string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	header, err := template.New("context").Parse(DefaultContextHeader)
	if err != nil {
		return nil, fmt.Errorf("parse context header: %w", err)
	}
	return &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
		header:    header,
	}, nil
}

// CountTokens returns the token count for a string.
func (e *Engine) CountTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// Lesson is the material a doubt refers to.
type Lesson struct {
	Topic   string
	Title   string
	Content string
}

// BuildLessonContext renders the lesson header and as many of the lesson's
// paragraphs as fit, keeping the most recent ones. doubt is counted
// against the budget but not included.
func (e *Engine) BuildLessonContext(lesson Lesson, doubt string) (string, error) {
	var head bytes.Buffer
	if err := e.header.Execute(&head, lesson); err != nil {
		return "", fmt.Errorf("render context header: %w", err)
	}

	budget := e.maxTokens - e.reserve - e.CountTokens(doubt) - e.CountTokens(head.String())
	if budget <= 0 {
		return head.String(), nil
	}

	paragraphs := splitParagraphs(lesson.Content)

	// Walk backwards so the part the learner just read survives.
	used := 0
	start := len(paragraphs)
	for i := len(paragraphs) - 1; i >= 0; i-- {
		n := e.CountTokens(paragraphs[i]) + 1
		if used+n > budget {
			break
		}
		used += n
		start = i
	}

	var out strings.Builder
	out.WriteString(head.String())
	if start > 0 {
		out.WriteString(TruncationMarker)
		out.WriteString("\n\n")
	}
	out.WriteString(strings.Join(paragraphs[start:], "\n\n"))
	return out.String(), nil
}

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
