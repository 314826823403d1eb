// Package suggest turns a code context plus a review comment into a
// concrete replacement for the commented lines, using an AI provider.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanix-darker/resolv/internal/codectx"
	"github.com/sanix-darker/resolv/internal/provider"
)

// ErrNoSuggestion means the provider answered but declined to propose a
// change. Transport and API failures surface as *provider.ProviderError
// instead, so callers can tell the two apart.
var ErrNoSuggestion = errors.New("provider returned no usable suggestion")

const systemPrompt = "You are a precise code-fix assistant. Reply with only the " +
	"replacement for the lines under review, inside a single fenced code block. " +
	"If no change is needed, reply with the word NONE."

// Generator asks an AIProvider for fixes.
type Generator struct {
	provider provider.AIProvider
	timeout  time.Duration
}

// NewGenerator wraps an AIProvider. timeout bounds each completion call;
// zero means 120s.
func NewGenerator(p provider.AIProvider, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Generator{provider: p, timeout: timeout}
}

// Generate produces the replacement text for the commented lines. The
// returned text carries no code fences and no trailing newline.
func (g *Generator) Generate(ctx context.Context, code *codectx.CodeContext, comment, fileType string) (string, error) {
	prompt := BuildPrompt(code, comment, fileType)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(callCtx, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: systemPrompt},
			{Role: provider.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	suggestion := ExtractCodeBlock(resp.Content)
	if suggestion == "" || strings.EqualFold(strings.TrimSpace(suggestion), "NONE") {
		return "", ErrNoSuggestion
	}
	return suggestion, nil
}

// BuildPrompt assembles the user prompt for one discussion.
func BuildPrompt(code *codectx.CodeContext, comment, fileType string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("A reviewer left this comment on %s (around line %d):\n\n",
		code.FileName, code.AnchorLine))
	sb.WriteString(fmt.Sprintf("> %s\n\n", comment))

	lang := fileType
	if lang == "" {
		lang = "text"
	}
	sb.WriteString("The code in question:\n\n")
	sb.WriteString(fmt.Sprintf("```%s\n%s\n```\n\n", lang, code.Text))

	if code.Kind == codectx.RemoteDiff {
		sb.WriteString("The snippet above was cut from the pull request diff; " +
			"it may include both removed and added lines.\n\n")
	}

	sb.WriteString("Rewrite only the lines the comment refers to, addressing the feedback.")
	return sb.String()
}

// ExtractCodeBlock pulls the content of the first fenced code block out
// of a completion. When no fence is present the whole reply is trimmed
// and returned as-is, since smaller models often skip the fence.
func ExtractCodeBlock(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return ""
	}

	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}

	rest := trimmed[start+3:]
	// Drop the language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return ""
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimRight(rest, "\n")
	}
	return strings.TrimRight(rest[:end], "\n")
}
