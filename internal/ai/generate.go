package ai

import (
	"context"
	"encoding/json"
	"strings"
)

const jsonInstruction = "Respond with a single JSON object only. " +
	"No markdown, no prose outside the object."

// GenerateJSON sends the prompt pair and unmarshals the reply into out.
// The model is instructed to answer with bare JSON; replies wrapped in
// code fences are unwrapped before parsing. A reply with no parseable
// object yields ErrEmptyOutput so callers can decide between failing and
// substituting a default.
func GenerateJSON(ctx context.Context, c *Client, systemPrompt, userPrompt string, opts Options, out any) error {
	messages := []Message{
		{Role: "system", Content: strings.TrimSpace(systemPrompt) + "\n\n" + jsonInstruction},
		{Role: "user", Content: userPrompt},
	}
	reply, err := c.Chat(ctx, messages, opts)
	if err != nil {
		return err
	}
	raw := extractJSON(reply)
	if raw == "" {
		return ErrEmptyOutput
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return ErrEmptyOutput
	}
	return nil
}

// extractJSON returns the outermost JSON object in s, tolerating fenced
// code blocks and surrounding prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
