package main

import (
	"context"
	"testing"

	"github.com/nutricoach/nutricoach/internal/config"
)

func TestBuildAIClientOpenRouterWithoutServerKey(t *testing.T) {
	cfg := config.Config{
		AIProvider:      "openrouter",
		OpenRouterModel: "openrouter/auto",
	}
	client := buildAIClient(context.Background(), cfg)
	if !client.IsAvailable() {
		t.Fatal("openrouter must stay available without a server-level key so user-stored keys can be used")
	}
}

func TestBuildAIClientUnknownProviderFallsBack(t *testing.T) {
	cfg := config.Config{AIProvider: "nosuch"}
	client := buildAIClient(context.Background(), cfg)
	if client.IsAvailable() {
		t.Fatal("unknown provider should yield an unconfigured client")
	}
}
