package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

const (
	chatbotTemperature     = 0.8
	chatbotSafetyThreshold = "block_medium_and_above"

	// ChatbotFallbackResponse substitutes a null structured result.
	ChatbotFallbackResponse = "I'm sorry, I couldn't come up with a helpful answer just now. Please try rephrasing your question."
)

// ChatbotInput carries the latest message plus the conversation history.
// The flow is stateless: the caller supplies the full (already truncated)
// history on every turn.
type ChatbotInput struct {
	History []userdata.ChatMessage `json:"history"`
	Message string                 `json:"message"`
	Persona string                 `json:"persona,omitempty"`
	APIKey  string                 `json:"apiKey,omitempty"`
}

// ChatbotOutput is the declared output shape.
type ChatbotOutput struct {
	Response string `json:"response"`
}

const chatbotSystemPrompt = "You are NutriCoach, a friendly nutrition " +
	"assistant. Answer questions about food, habits and wellbeing. Keep " +
	"replies short and practical."

// Chat sends the linearized conversation and returns the reply. This flow
// tolerates an empty structured result and substitutes a fixed fallback.
func Chat(ctx context.Context, client *ai.Client, input ChatbotInput) (*ChatbotOutput, error) {
	system := chatbotSystemPrompt
	if input.Persona != "" {
		system += fmt.Sprintf(" Respond in a %s style.", input.Persona)
	}

	var b strings.Builder
	for _, m := range input.History {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s\n", input.Message)
	b.WriteString(`Answer as {"response":"..."}.`)

	temp := chatbotTemperature
	var out ChatbotOutput
	err := ai.GenerateJSON(ctx, client, system, b.String(), ai.Options{
		APIKey:          input.APIKey,
		Temperature:     &temp,
		SafetyThreshold: chatbotSafetyThreshold,
	}, &out)
	if err == ai.ErrEmptyOutput {
		return &ChatbotOutput{Response: ChatbotFallbackResponse}, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Response) == "" {
		return &ChatbotOutput{Response: ChatbotFallbackResponse}, nil
	}
	return &out, nil
}
