package userdata

import "time"

// Message roles within a chat session.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// Energy levels for a symptom log entry.
const (
	EnergyLow    = "low"
	EnergyMedium = "medium"
	EnergyHigh   = "high"
)

// AuthUser is the logged-in identity. Created on login/signup, removed on
// logout or account deletion.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserDetails holds profile and preference data collected at onboarding
// and edited from the account form.
type UserDetails struct {
	HealthGoal          string   `json:"healthGoal"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
	CustomRestrictions  string   `json:"customRestrictions"`
	FoodPreferences     string   `json:"foodPreferences"`
	CookingTime         string   `json:"cookingTime"`
	Lifestyle           string   `json:"lifestyle"`
	ProfilePicture      string   `json:"profilePicture,omitempty"` // data URI
}

// ChatMessage is one turn in a session. Immutable once appended.
type ChatMessage struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ChatSession is one conversation thread.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	Persona   string        `json:"persona,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// FeedbackEntry records a thumbs-up/down on a model message.
type FeedbackEntry struct {
	SessionID string    `json:"sessionId"`
	MessageID string    `json:"messageId"`
	Helpful   bool      `json:"helpful"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SymptomLogEntry is a logged post-meal feeling. Never mutated after
// creation; removable only through the bulk user-data clear.
type SymptomLogEntry struct {
	ID                string    `json:"id"`
	MealName          string    `json:"mealName"`
	LogTime           time.Time `json:"logTime"`
	EnergyLevel       string    `json:"energyLevel"`
	Mood              string    `json:"mood"`
	DigestiveSymptoms []string  `json:"digestiveSymptoms,omitempty"`
	OtherSymptoms     []string  `json:"otherSymptoms,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	LoggedAt          time.Time `json:"loggedAt"`
}

// MealPlanDay is one day of a generated plan.
type MealPlanDay struct {
	Day       string   `json:"day"`
	Breakfast string   `json:"breakfast"`
	Lunch     string   `json:"lunch"`
	Dinner    string   `json:"dinner"`
	Snacks    []string `json:"snacks,omitempty"`
}

// MealPlan is the full generated plan structure.
type MealPlan struct {
	Days          []MealPlanDay `json:"days"`
	TotalCalories int           `json:"totalCalories"`
	Notes         string        `json:"notes,omitempty"`
}

// CachedMealPlan is the last successfully generated plan, overwritten on
// each new success and served as the fallback when generation fails.
type CachedMealPlan struct {
	Plan        MealPlan  `json:"plan"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// StreakData tracks the daily usage streak.
type StreakData struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate"` // YYYY-MM-DD
}

// Job statuses for async meal-plan generation.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// MealPlanJob tracks one async generation request.
type MealPlanJob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
