// Package flows contains the prompt flow functions. Each flow pairs a
// declared input/output shape with a prompt template and exactly one
// provider call: no retry, no backoff, no timeout beyond the client's.
package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

const mealPlanTemperature = 0.7

// MealPlanInput is the declared input shape for meal plan generation.
type MealPlanInput struct {
	DietaryPreferences string   `json:"dietaryPreferences"`
	CalorieIntake      int      `json:"calorieIntake"`
	Allergies          []string `json:"allergies,omitempty"`
	Cuisine            string   `json:"cuisine,omitempty"`
	CookingTime        string   `json:"cookingTime,omitempty"`
	APIKey             string   `json:"apiKey,omitempty"`
}

// MealPlanOutput is the declared output shape.
type MealPlanOutput struct {
	Days          []userdata.MealPlanDay `json:"days"`
	TotalCalories int                    `json:"totalCalories"`
	Notes         string                 `json:"notes,omitempty"`
}

const mealPlanSystemPrompt = "You are a professional nutritionist creating " +
	"personalized weekly meal plans. Respect every stated restriction and " +
	"keep daily calories close to the target."

// GenerateMealPlan fills the template and returns the parsed plan. An
// empty structured result is an error for this flow.
func GenerateMealPlan(ctx context.Context, client *ai.Client, input MealPlanInput) (*MealPlanOutput, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a 7-day meal plan.\n")
	fmt.Fprintf(&b, "Dietary preferences: %s\n", input.DietaryPreferences)
	fmt.Fprintf(&b, "Daily calorie target: %d kcal\n", input.CalorieIntake)
	if len(input.Allergies) > 0 {
		fmt.Fprintf(&b, "Allergies to avoid: %s\n", strings.Join(input.Allergies, ", "))
	}
	if input.Cuisine != "" {
		fmt.Fprintf(&b, "Preferred cuisine: %s\n", input.Cuisine)
	}
	if input.CookingTime != "" {
		fmt.Fprintf(&b, "Maximum cooking time per meal: %s\n", input.CookingTime)
	}
	b.WriteString(`Answer as {"days":[{"day":...,"breakfast":...,"lunch":...,"dinner":...,"snacks":[...]}],"totalCalories":...,"notes":...}.`)

	temp := mealPlanTemperature
	var out MealPlanOutput
	err := ai.GenerateJSON(ctx, client, mealPlanSystemPrompt, b.String(), ai.Options{
		APIKey:      input.APIKey,
		Temperature: &temp,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
