// Package actions wraps each prompt flow with user-facing error
// classification: credential failures get a dedicated message pointing at
// settings, everything else a generic "try again". No recovery is ever
// attempted; every failure surfaces to the caller.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/flows"
)

// CredentialErrorMessage is shown when the remote rejection looks like a
// credential problem.
const CredentialErrorMessage = "Your AI credential is missing or invalid. Please add a valid API key in Settings."

// triggerError is a literal input that deterministically simulates a
// remote failure. Test hook, not production logic.
const triggerError = "trigger error"

var credentialIndicators = []string{
	"api key",
	"invalid api key",
	"permission denied",
}

// ErrCredential marks failures classified as credential problems.
var ErrCredential = errors.New("credential failure")

// Actions holds the injected generation capability shared by every
// wrapper.
type Actions struct {
	client *ai.Client
}

func New(client *ai.Client) *Actions {
	return &Actions{client: client}
}

// isCredentialFailure reports whether the error text contains one of the
// recognized credential indicators, case-insensitively.
func isCredentialFailure(err error) bool {
	lower := strings.ToLower(err.Error())
	for _, indicator := range credentialIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// classify turns a flow error into the user-facing form: the credential
// message when the error text contains a credential indicator, otherwise
// "Failed to <operation>. Please try again." with the cause appended.
func classify(operation string, err error) error {
	if isCredentialFailure(err) {
		return fmt.Errorf("%s: %w", CredentialErrorMessage, ErrCredential)
	}
	return fmt.Errorf("Failed to %s. Please try again. (%s)", operation, err)
}

// GenerateMealPlan validates the request, then calls the flow.
func (a *Actions) GenerateMealPlan(ctx context.Context, input flows.MealPlanInput) (*flows.MealPlanOutput, error) {
	if input.DietaryPreferences == triggerError {
		return nil, classify("generate meal plan", errors.New("simulated failure"))
	}
	if input.CalorieIntake <= 0 {
		return nil, classify("generate meal plan", errors.New("calorie intake must be positive"))
	}
	out, err := flows.GenerateMealPlan(ctx, a.client, input)
	if err != nil {
		return nil, classify("generate meal plan", err)
	}
	return out, nil
}

func (a *Actions) AnalyzeDietaryHabits(ctx context.Context, input flows.DietaryHabitsInput) (*flows.DietaryHabitsOutput, error) {
	out, err := flows.AnalyzeDietaryHabits(ctx, a.client, input)
	if err != nil {
		return nil, classify("analyze dietary habits", err)
	}
	return out, nil
}

func (a *Actions) GenerateShoppingList(ctx context.Context, input flows.ShoppingListInput) (*flows.ShoppingListOutput, error) {
	out, err := flows.GenerateShoppingList(ctx, a.client, input)
	if err != nil {
		return nil, classify("generate shopping list", err)
	}
	return out, nil
}

// Chat wraps the chatbot flow. Its generic message keeps the historical
// "Chatbot interaction failed" wording the UI matches on.
func (a *Actions) Chat(ctx context.Context, input flows.ChatbotInput) (*flows.ChatbotOutput, error) {
	if input.Message == triggerError {
		return nil, fmt.Errorf("Chatbot interaction failed. Please try again. (%s)", "simulated failure")
	}
	out, err := flows.Chat(ctx, a.client, input)
	if err != nil {
		if isCredentialFailure(err) {
			return nil, fmt.Errorf("%s: %w", CredentialErrorMessage, ErrCredential)
		}
		return nil, fmt.Errorf("Chatbot interaction failed. Please try again. (%s)", err)
	}
	return out, nil
}

func (a *Actions) SummarizeWeek(ctx context.Context, input flows.WeeklySummaryInput) (*flows.WeeklySummaryOutput, error) {
	out, err := flows.SummarizeWeek(ctx, a.client, input)
	if err != nil {
		return nil, classify("generate weekly summary", err)
	}
	return out, nil
}
