package ai

import (
	"context"
	"errors"
	"testing"
)

type scriptedProvider struct {
	reply string
	err   error
	last  []Message
	opts  Options
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	_ = ctx
	p.last = append([]Message(nil), messages...)
	p.opts = opts
	return p.reply, p.err
}

func TestClientUnconfigured(t *testing.T) {
	c := Unconfigured()
	if c.IsAvailable() {
		t.Fatalf("unconfigured client reports available")
	}
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateJSONParsesBareObject(t *testing.T) {
	p := &scriptedProvider{reply: `{"insights":"eat breakfast","recommendations":"start small"}`}
	c := NewClient(p)

	var out struct {
		Insights        string `json:"insights"`
		Recommendations string `json:"recommendations"`
	}
	if err := GenerateJSON(context.Background(), c, "system", "user", Options{}, &out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Insights != "eat breakfast" || out.Recommendations != "start small" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if len(p.last) != 2 || p.last[0].Role != "system" || p.last[1].Role != "user" {
		t.Fatalf("unexpected prompt shape: %+v", p.last)
	}
}

func TestGenerateJSONUnwrapsCodeFence(t *testing.T) {
	p := &scriptedProvider{reply: "Here you go:\n```json\n{\"response\":\"drink water\"}\n```"}
	c := NewClient(p)

	var out struct {
		Response string `json:"response"`
	}
	if err := GenerateJSON(context.Background(), c, "s", "u", Options{}, &out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Response != "drink water" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestGenerateJSONEmptyOutput(t *testing.T) {
	for _, reply := range []string{"", "sorry, I cannot help", "```\n\n```"} {
		p := &scriptedProvider{reply: reply}
		c := NewClient(p)
		var out map[string]any
		err := GenerateJSON(context.Background(), c, "s", "u", Options{}, &out)
		if !errors.Is(err, ErrEmptyOutput) {
			t.Fatalf("reply %q: expected ErrEmptyOutput, got %v", reply, err)
		}
	}
}

func TestGenerateJSONForwardsOptions(t *testing.T) {
	temp := 0.2
	p := &scriptedProvider{reply: `{}`}
	c := NewClient(p)
	var out map[string]any
	opts := Options{APIKey: "sk-user", Temperature: &temp}
	if err := GenerateJSON(context.Background(), c, "s", "u", opts, &out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if p.opts.APIKey != "sk-user" || p.opts.Temperature == nil || *p.opts.Temperature != 0.2 {
		t.Fatalf("options not forwarded: %+v", p.opts)
	}
}
