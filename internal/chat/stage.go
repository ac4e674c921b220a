// Package chat implements the guided conversation wizard: the stage machine,
// accumulated choices, the transcript, and option sourcing for each stage.
package chat

// Stage is a discrete step in the guided conversation.
type Stage string

const (
	StageSelectType       Stage = "selectType"
	StageAudioAtmosphere  Stage = "audio_atmosphere"
	StageAudioMood        Stage = "audio_mood"
	StageAudioElements    Stage = "audio_elements"
	StageMusicGenre       Stage = "music_genre"
	StageMusicInstruments Stage = "music_instruments"
	StageMusicTempo       Stage = "music_tempo"
	StageMusicUsage       Stage = "music_usage"
	StageConfirm          Stage = "confirm"
	StageFreeChat         Stage = "free_chat"
	StageComplete         Stage = "complete"
)

// AllStages returns the closed set of stages.
func AllStages() []Stage {
	return []Stage{
		StageSelectType,
		StageAudioAtmosphere,
		StageAudioMood,
		StageAudioElements,
		StageMusicGenre,
		StageMusicInstruments,
		StageMusicTempo,
		StageMusicUsage,
		StageConfirm,
		StageFreeChat,
		StageComplete,
	}
}

// NeedsOptions reports whether entering the stage requires an option fetch.
func (s Stage) NeedsOptions() bool {
	switch s {
	case StageAudioAtmosphere, StageAudioMood, StageAudioElements,
		StageMusicGenre, StageMusicInstruments, StageMusicTempo, StageMusicUsage:
		return true
	}
	return false
}

// IsAudio reports whether the stage belongs to the soundscape branch.
func (s Stage) IsAudio() bool {
	switch s {
	case StageAudioAtmosphere, StageAudioMood, StageAudioElements:
		return true
	}
	return false
}

// IsMusic reports whether the stage belongs to the music branch.
func (s Stage) IsMusic() bool {
	switch s {
	case StageMusicGenre, StageMusicInstruments, StageMusicTempo, StageMusicUsage:
		return true
	}
	return false
}

// OptionStage maps a wizard stage to the backend's stage identifier for
// option generation.
func (s Stage) OptionStage() string {
	switch s {
	case StageAudioAtmosphere:
		return "atmosphere"
	case StageAudioMood:
		return "mood"
	case StageAudioElements:
		return "elements"
	case StageMusicGenre:
		return "genre"
	case StageMusicInstruments:
		return "instruments"
	case StageMusicTempo:
		return "tempo"
	case StageMusicUsage:
		return "usage"
	}
	return ""
}

// moodQuestions holds the per-mode question copy for the mood stage.
var moodQuestions = map[string]string{
	"focus":    "What kind of focus do you want? (e.g. deep, alert, calm)",
	"creative": "What creative mood do you want to inspire? (e.g. playful, energetic, dreamy)",
	"mindful":  "What kind of calm or peace do you seek? (e.g. serene, meditative, gentle)",
	"sleep":    "What kind of sleep environment do you prefer? (e.g. quiet, cozy, gentle)",
	"asmr":     "What kind of ASMR feeling do you want to evoke? (e.g. tingling, relaxing, satisfying)",
	"default":  "What kind of mood or feeling do you want to evoke?",
}

// elementQuestions holds the per-mode question copy for the elements stage.
var elementQuestions = map[string]string{
	"focus":    "Select sounds that help you concentrate (max 3):",
	"creative": "Select elements that spark creativity (max 3):",
	"mindful":  "Select soothing elements (max 3):",
	"sleep":    "Select sounds that help you sleep (max 3):",
	"asmr":     "Select ASMR triggers (max 3):",
	"default":  "Select sound elements (max 3):",
}

// Question returns the presentation copy for an option stage. Mood and
// element questions vary with the session mode.
func (s Stage) Question(mode string) string {
	switch s {
	case StageSelectType:
		return "What do you want to generate?"
	case StageAudioAtmosphere:
		return "What kind of atmosphere are you looking for?"
	case StageAudioMood:
		if q, ok := moodQuestions[mode]; ok {
			return q
		}
		return moodQuestions["default"]
	case StageAudioElements:
		if q, ok := elementQuestions[mode]; ok {
			return q
		}
		return elementQuestions["default"]
	case StageMusicGenre:
		return "What genre or style do you want?"
	case StageMusicInstruments:
		return "Pick an instrument to feature:"
	case StageMusicTempo:
		return "What tempo do you prefer?"
	case StageMusicUsage:
		return "What will you use this music for?"
	}
	return ""
}
