package llm

import "testing"

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "ASSESSLY_LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfigPriority(t *testing.T) {
	clearLLMEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no config without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "o" {
		t.Fatalf("got %+v, %v", cfg, ok)
	}
}

func TestResolveConfigPrefersExplicit(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("ASSESSLY_LLM_PROVIDER", "anthropic")
	t.Setenv("ASSESSLY_ANTHROPIC_API_KEY", "explicit")
	t.Setenv("ASSESSLY_ANTHROPIC_MODEL", "claude-sonnet")

	cfg, ok := ResolveConfig()
	if !ok || cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "explicit" || cfg.Anthropic.Model != "claude-sonnet" {
		t.Fatalf("got %+v, %v", cfg, ok)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "bogus"
	if cfg.Validate() == nil {
		t.Error("expected unknown provider error")
	}
	cfg.Provider = "gemini"
	if cfg.Validate() == nil {
		t.Error("expected missing key error")
	}
	cfg.Provider = "mock"
	if err := cfg.Validate(); err != nil {
		t.Errorf("mock should validate: %v", err)
	}
}
