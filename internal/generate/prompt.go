package generate

import (
	"fmt"
	"strings"
)

const audioPromptPrefix = "Ambient soundscape: "

// BuildAudioPrompt composes the soundscape description sent to the audio
// service: subjects joined with "and", then mood terms, then scene terms,
// each group comma-joined. Empty groups are skipped.
func BuildAudioPrompt(subjects, actions, scenes []string) string {
	parts := make([]string, 0, 3)
	if len(subjects) > 0 {
		parts = append(parts, strings.Join(subjects, " and "))
	}
	if len(actions) > 0 {
		parts = append(parts, strings.Join(actions, ", "))
	}
	if len(scenes) > 0 {
		parts = append(parts, strings.Join(scenes, ", "))
	}
	return strings.TrimSpace(audioPromptPrefix + strings.Join(parts, " "))
}

// BuildMusicPrompt composes the display prompt for a music generation.
func BuildMusicPrompt(genre string, instruments []string, tempo, usage, input string) string {
	return fmt.Sprintf("Genre: %s, Instruments: %s, Tempo: %s, Usage: %s, Input: %s",
		genre, strings.Join(instruments, ", "), tempo, usage, input)
}
