package coach

// Config holds study plan generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxMissedPerCompetency caps how many missed prompts are quoted per
	// competency.
	MaxMissedPerCompetency int
}

// DefaultConfig returns defaults for study plan generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:              768,
		Temperature:            0.4,
		MaxMissedPerCompetency: 3,
	}
}
