package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/normanking/nightingale/internal/api"
)

// OptionProvider sources the candidate options for a wizard stage.
type OptionProvider interface {
	Options(ctx context.Context, stage Stage, mode, seed string) ([]string, error)
}

// BackendOptions fetches stage options from the backend, routing audio
// stages and music stages to their respective endpoints.
type BackendOptions struct {
	client *api.Client
	logger zerolog.Logger
}

// NewBackendOptions creates a backend-backed OptionProvider.
func NewBackendOptions(client *api.Client, logger zerolog.Logger) *BackendOptions {
	return &BackendOptions{
		client: client,
		logger: logger.With().Str("component", "options").Logger(),
	}
}

// Options implements OptionProvider.
func (p *BackendOptions) Options(ctx context.Context, stage Stage, mode, seed string) ([]string, error) {
	switch {
	case stage.IsAudio():
		return p.client.GenerateOptions(ctx, mode, seed, stage.OptionStage())
	case stage.IsMusic():
		return p.client.GenerateMusicOptions(ctx, stage.OptionStage(), seed)
	}
	return nil, nil
}

// defaultStageOptions are the built-in fallbacks used when a fetch fails or
// returns nothing.
var defaultStageOptions = map[Stage][]string{
	StageAudioAtmosphere: {
		"Cozy and intimate",
		"Spacious and airy",
		"Lively and energetic",
		"Calm and serene",
		"Mysterious and intriguing",
	},
	StageAudioMood: {
		"Relaxed", "Focused", "Inspired", "Dreamy", "Uplifting", "Melancholic",
	},
	StageAudioElements: {
		"Rain", "Wind", "Birds chirping", "Ocean waves", "Fire crackling",
		"Coffee machine sounds", "Distant chatter", "Footsteps", "Gentle music",
		"Thunderstorm", "Night crickets", "City hum", "Train passing",
	},
	StageMusicGenre: {
		"Ambient", "Classical", "Jazz", "Electronic", "Pop", "Rock",
		"Cinematic", "Folk", "Lo-fi", "World",
	},
	StageMusicInstruments: {
		"Piano", "Guitar", "Synth", "Drums", "Violin", "Flute",
		"Bass", "Strings", "Brass", "Percussion",
	},
	StageMusicTempo: {"Slow", "Medium", "Fast", "Variable"},
	StageMusicUsage: {
		"Background", "Focus", "Relaxation", "Party", "Workout",
		"Meditation", "Study", "Sleep",
	},
}

// DefaultOptions returns the built-in fallback list for a stage.
func DefaultOptions(stage Stage) []string {
	return append([]string(nil), defaultStageOptions[stage]...)
}

// FilterElements removes element candidates that repeat something the user
// already said: any option containing (case-insensitively) a token of the
// chosen atmosphere or the seed input is dropped. If every option would be
// dropped, the list is returned unfiltered so the user is never stuck.
func FilterElements(options []string, atmosphere, seed string) []string {
	tokens := exclusionTokens(atmosphere, seed)
	if len(tokens) == 0 {
		return options
	}

	filtered := make([]string, 0, len(options))
outer:
	for _, opt := range options {
		lower := strings.ToLower(opt)
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				continue outer
			}
		}
		filtered = append(filtered, opt)
	}

	if len(filtered) == 0 {
		return options
	}
	return filtered
}

// exclusionTokens lowercases and splits the given texts on commas,
// whitespace, newlines and CJK comma/period. The connective "and" is a
// separator, not a token.
func exclusionTokens(texts ...string) []string {
	var tokens []string
	for _, text := range texts {
		fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			switch r {
			case ',', '，', '。', '\n', '\r', '\t', ' ':
				return true
			}
			return false
		})
		for _, f := range fields {
			if f == "and" || f == "" {
				continue
			}
			tokens = append(tokens, f)
		}
	}
	return tokens
}
