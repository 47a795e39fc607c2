package flows

import (
	"context"
	"fmt"

	"github.com/nutricoach/nutricoach/internal/ai"
)

const shoppingListTemperature = 0.3

// ShoppingListInput takes the meal plan text to derive ingredients from.
type ShoppingListInput struct {
	MealPlan string `json:"mealPlan"`
	APIKey   string `json:"apiKey,omitempty"`
}

// ShoppingItem is one line of the generated list.
type ShoppingItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

// ShoppingListOutput is the declared output shape.
type ShoppingListOutput struct {
	Items []ShoppingItem `json:"items"`
}

const shoppingListSystemPrompt = "You turn meal plans into consolidated " +
	"grocery shopping lists, grouping items by store section."

// GenerateShoppingList derives a shopping list from the plan. This flow
// tolerates an empty structured result and returns an explicit empty
// list instead of failing.
func GenerateShoppingList(ctx context.Context, client *ai.Client, input ShoppingListInput) (*ShoppingListOutput, error) {
	prompt := fmt.Sprintf(
		"Build a shopping list for this meal plan:\n%s\n"+
			`Answer as {"items":[{"name":...,"quantity":...,"category":...}]}.`,
		input.MealPlan,
	)

	temp := shoppingListTemperature
	var out ShoppingListOutput
	err := ai.GenerateJSON(ctx, client, shoppingListSystemPrompt, prompt, ai.Options{
		APIKey:      input.APIKey,
		Temperature: &temp,
	}, &out)
	if err == ai.ErrEmptyOutput {
		return &ShoppingListOutput{Items: []ShoppingItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []ShoppingItem{}
	}
	return &out, nil
}
