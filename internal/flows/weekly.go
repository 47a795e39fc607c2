package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

const weeklyTemperature = 0.6

// WeeklySummaryInput aggregates a week of activity for the summary flow.
type WeeklySummaryInput struct {
	SymptomLogs []userdata.SymptomLogEntry `json:"symptomLogs"`
	StreakCount int                        `json:"streakCount"`
	HealthGoal  string                     `json:"healthGoal,omitempty"`
	APIKey      string                     `json:"apiKey,omitempty"`
}

// WeeklySummaryOutput is the declared output shape.
type WeeklySummaryOutput struct {
	Summary       string `json:"summary"`
	Encouragement string `json:"encouragement"`
}

const weeklySystemPrompt = "You write short weekly wellness summaries " +
	"from a user's food-symptom journal. Highlight patterns, stay positive."

// SummarizeWeek produces the weekly summary shown on the dashboard. An
// empty structured result is an error.
func SummarizeWeek(ctx context.Context, client *ai.Client, input WeeklySummaryInput) (*WeeklySummaryOutput, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Current daily streak: %d days\n", input.StreakCount)
	if input.HealthGoal != "" {
		fmt.Fprintf(&b, "Health goal: %s\n", input.HealthGoal)
	}
	if len(input.SymptomLogs) == 0 {
		b.WriteString("No symptom logs were recorded this week.\n")
	}
	for _, log := range input.SymptomLogs {
		fmt.Fprintf(&b, "- %s: meal %q, energy %s, mood %s", log.LogTime.Format("Mon"), log.MealName, log.EnergyLevel, log.Mood)
		if len(log.DigestiveSymptoms) > 0 {
			fmt.Fprintf(&b, ", digestive: %s", strings.Join(log.DigestiveSymptoms, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(`Answer as {"summary":"...","encouragement":"..."}.`)

	temp := weeklyTemperature
	var out WeeklySummaryOutput
	err := ai.GenerateJSON(ctx, client, weeklySystemPrompt, b.String(), ai.Options{
		APIKey:      input.APIKey,
		Temperature: &temp,
	}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, ai.ErrEmptyOutput
	}
	return &out, nil
}
