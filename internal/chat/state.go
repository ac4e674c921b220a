package chat

import "fmt"

// State is an immutable snapshot of the conversation. Reduce never mutates
// a State in place; every transition returns a fresh value.
type State struct {
	Stage Stage
	Type  ContentType
	Mode  string
	Seed  string

	Audio AudioChoices
	Music MusicChoices

	Messages []Message
	Options  []string
	Loading  bool

	// LastError holds the reason of the most recent generation failure,
	// cleared when a new generation starts.
	LastError string
}

// NewState builds the opening state for a session. seed is the idea the
// user arrived with (may be empty); mode tunes question copy and, for
// "asmr", skips straight to element selection.
func NewState(seed, mode string) State {
	s := State{
		Stage: StageSelectType,
		Mode:  mode,
		Seed:  seed,
	}

	intro := "Welcome to Nightingale!"
	if seed != "" {
		intro += fmt.Sprintf(" And you've started with the idea: %q.", seed)
		s = s.withMessage(userMessage(seed))
	}
	intro += " What do you want to generate?"
	s = s.withMessage(aiMessage(intro))

	if mode == "asmr" {
		s.Type = TypeAudio
		s = s.enterStage(StageAudioElements)
	}
	return s
}

// CanGenerate reports whether the collected choices allow a generation to
// be submitted right now.
func (s State) CanGenerate() bool {
	if s.Loading {
		return false
	}
	switch s.Type {
	case TypeAudio:
		if s.Stage != StageAudioElements {
			return false
		}
		if s.Mode == "asmr" {
			return len(s.Audio.Elements) > 0 || len(s.Audio.ExtraInputs) > 0
		}
		return s.Audio.Complete()
	case TypeMusic:
		return s.Stage == StageMusicUsage && s.Music.Complete()
	}
	return false
}

// Question returns the prompt copy for the current stage.
func (s State) Question() string {
	return s.Stage.Question(s.Mode)
}

// LastMessage returns the newest transcript entry, or a zero Message when
// the transcript is empty.
func (s State) LastMessage() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

// clone returns a deep copy so appends never alias a previous snapshot.
func (s State) clone() State {
	out := s
	out.Audio = s.Audio.clone()
	out.Music = s.Music.clone()
	out.Messages = append([]Message(nil), s.Messages...)
	out.Options = append([]string(nil), s.Options...)
	return out
}

// withMessage appends a transcript entry, assigning the next ID.
func (s State) withMessage(m Message) State {
	out := s.clone()
	m.ID = len(out.Messages) + 1
	out.Messages = append(out.Messages, m)
	return out
}

// enterStage moves to a stage, marking options pending when the stage
// needs a fetch.
func (s State) enterStage(st Stage) State {
	out := s.clone()
	out.Stage = st
	out.Options = nil
	out.Loading = st.NeedsOptions()
	return out
}
