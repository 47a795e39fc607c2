package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/ai"
)

const dietaryTemperature = 0.5

// DietaryHabitsInput describes a user's self-reported eating habits.
type DietaryHabitsInput struct {
	Habits       string   `json:"habits"`
	Restrictions []string `json:"restrictions,omitempty"`
	Preferences  string   `json:"preferences,omitempty"`
	APIKey       string   `json:"apiKey,omitempty"`
}

// DietaryHabitsOutput carries the analysis. Both fields are expected to
// be non-empty on success.
type DietaryHabitsOutput struct {
	Insights        string `json:"insights"`
	Recommendations string `json:"recommendations"`
}

const dietarySystemPrompt = "You are a registered dietitian reviewing a " +
	"client's self-described eating habits. Be specific and encouraging."

// AnalyzeDietaryHabits returns insights and recommendations for the
// described habits. An empty structured result is an error.
func AnalyzeDietaryHabits(ctx context.Context, client *ai.Client, input DietaryHabitsInput) (*DietaryHabitsOutput, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "The client describes their eating habits as: %q\n", input.Habits)
	if len(input.Restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s\n", strings.Join(input.Restrictions, ", "))
	}
	if input.Preferences != "" {
		fmt.Fprintf(&b, "Food preferences: %s\n", input.Preferences)
	}
	b.WriteString(`Answer as {"insights":"...","recommendations":"..."}.`)

	temp := dietaryTemperature
	var out DietaryHabitsOutput
	err := ai.GenerateJSON(ctx, client, dietarySystemPrompt, b.String(), ai.Options{
		APIKey:      input.APIKey,
		Temperature: &temp,
	}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Insights) == "" || strings.TrimSpace(out.Recommendations) == "" {
		return nil, ai.ErrEmptyOutput
	}
	return &out, nil
}
