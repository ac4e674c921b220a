package chat

import "fmt"

// Event is a conversation input. Events are applied by Reduce; they carry
// facts, not behaviour.
type Event interface{ isEvent() }

// TypeSelected answers the opening "audio or music" question.
type TypeSelected struct{ Type ContentType }

// OptionsLoaded delivers the option fetch result for a stage. Events for a
// stage the conversation has since left are ignored.
type OptionsLoaded struct {
	Stage   Stage
	Options []string
}

// OptionChosen records the user picking one of the offered options.
type OptionChosen struct{ Option string }

// ExtraInputAdded records free-text typed during element selection.
type ExtraInputAdded struct{ Text string }

// GenerateStarted marks a generation request leaving the client.
type GenerateStarted struct{}

// GenerateSucceeded delivers a finished generation.
type GenerateSucceeded struct {
	MediaURL      string
	BackgroundURL string
	Prompt        string
}

// GenerateFailed delivers a generation error.
type GenerateFailed struct{ Reason string }

// GenerateCancelled marks a generation aborted by the user.
type GenerateCancelled struct{}

// FreeChatEntered switches from the opening stage to free-form chat.
type FreeChatEntered struct{}

// GuidedResumed leaves free chat and restarts the guided flow.
type GuidedResumed struct{}

// ChatSent records an outgoing free-chat message.
type ChatSent struct{ Text string }

// ChatReplied delivers the assistant's free-chat reply.
type ChatReplied struct{ Text string }

// ChatFailed delivers a free-chat transport error.
type ChatFailed struct{ Reason string }

// ConversationReset abandons everything and returns to the opening stage.
type ConversationReset struct{}

func (TypeSelected) isEvent()      {}
func (OptionsLoaded) isEvent()     {}
func (OptionChosen) isEvent()      {}
func (ExtraInputAdded) isEvent()   {}
func (GenerateStarted) isEvent()   {}
func (GenerateSucceeded) isEvent() {}
func (GenerateFailed) isEvent()    {}
func (GenerateCancelled) isEvent() {}
func (FreeChatEntered) isEvent()   {}
func (GuidedResumed) isEvent()     {}
func (ChatSent) isEvent()          {}
func (ChatReplied) isEvent()       {}
func (ChatFailed) isEvent()        {}
func (ConversationReset) isEvent() {}

// Reduce applies one event and returns the next state. Unknown or
// out-of-stage events leave the state unchanged, so callers can feed
// events without pre-checking the stage.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case TypeSelected:
		return reduceTypeSelected(s, ev)
	case OptionsLoaded:
		if ev.Stage != s.Stage {
			return s
		}
		out := s.clone()
		out.Options = append([]string(nil), ev.Options...)
		out.Loading = false
		return out
	case OptionChosen:
		return reduceOptionChosen(s, ev)
	case ExtraInputAdded:
		if s.Stage != StageAudioElements {
			return s
		}
		out := s.withMessage(userMessage(ev.Text))
		out.Audio = out.Audio.AddExtraInput(ev.Text)
		return out.withMessage(aiMessage(fmt.Sprintf(
			"Added %q to your elements. Click Generate Soundscape when ready!", ev.Text)))
	case GenerateStarted:
		out := s.clone()
		out.Loading = true
		out.LastError = ""
		return out
	case GenerateSucceeded:
		out := s.clone()
		out.Loading = false
		m := aiMessage(readyMessage(s.Type))
		m.MediaURL = ev.MediaURL
		m.BackgroundURL = ev.BackgroundURL
		m.Prompt = ev.Prompt
		out = out.withMessage(m)
		out.Stage = StageComplete
		out.Options = nil
		return out
	case GenerateFailed:
		out := s.clone()
		out.Loading = false
		out.LastError = ev.Reason
		return out.withMessage(aiMessage(fmt.Sprintf("Error generating content: %s.", ev.Reason)))
	case GenerateCancelled:
		out := s.clone()
		out.Loading = false
		return out.withMessage(aiMessage("Generation cancelled."))
	case FreeChatEntered:
		if s.Stage != StageSelectType {
			return s
		}
		out := s.clone()
		out.Stage = StageFreeChat
		out.Options = nil
		out.Loading = false
		return out
	case GuidedResumed:
		if s.Stage != StageFreeChat {
			return s
		}
		out := s.withMessage(userMessage("Return to guided mode"))
		out = out.withMessage(aiMessage("Okay, let's start over. What kind of atmosphere are you looking for?"))
		out.Type = TypeAudio
		out.Audio = AudioChoices{}
		out.Music = MusicChoices{}
		return out.enterStage(StageAudioAtmosphere)
	case ChatSent:
		if s.Stage != StageFreeChat {
			return s
		}
		out := s.withMessage(userMessage(ev.Text))
		out.Loading = true
		return out
	case ChatReplied:
		out := s.withMessage(aiMessage(ev.Text))
		out.Loading = false
		return out
	case ChatFailed:
		out := s.withMessage(aiMessage(fmt.Sprintf("Error: %s. Please try again.", ev.Reason)))
		out.Loading = false
		return out
	case ConversationReset:
		out := NewState(s.Seed, s.Mode)
		out.Messages = nil
		out = out.withMessage(aiMessage("Generation cancelled. What do you want to generate?"))
		out.Stage = StageSelectType
		out.Type = ""
		out.Audio = AudioChoices{}
		out.Music = MusicChoices{}
		out.Options = nil
		out.Loading = false
		return out
	}
	return s
}

func reduceTypeSelected(s State, ev TypeSelected) State {
	if s.Stage != StageSelectType {
		return s
	}
	out := s.clone()
	out.Type = ev.Type
	switch ev.Type {
	case TypeAudio:
		out = out.withMessage(aiMessage(
			"Let's build your perfect soundscape! What kind of atmosphere are you looking for?"))
		return out.enterStage(StageAudioAtmosphere)
	case TypeMusic:
		out = out.withMessage(aiMessage(
			"Let's compose your music! First, what genre or style do you want?"))
		return out.enterStage(StageMusicGenre)
	}
	return s
}

func reduceOptionChosen(s State, ev OptionChosen) State {
	switch s.Stage {
	case StageAudioAtmosphere:
		out := s.withMessage(userMessage(ev.Option))
		out.Audio.Atmosphere = ev.Option
		return out.enterStage(StageAudioMood)
	case StageAudioMood:
		out := s.withMessage(userMessage(ev.Option))
		out.Audio.Mood = ev.Option
		return out.enterStage(StageAudioElements)
	case StageAudioElements:
		out := s.withMessage(userMessage(ev.Option))
		out.Audio = out.Audio.ToggleElement(ev.Option)
		return out
	case StageMusicGenre:
		out := s.withMessage(userMessage(ev.Option))
		out.Music.Genre = ev.Option
		return out.enterStage(StageMusicInstruments)
	case StageMusicInstruments:
		out := s.withMessage(userMessage(ev.Option))
		out.Music = out.Music.SelectInstrument(ev.Option)
		return out.enterStage(StageMusicTempo)
	case StageMusicTempo:
		out := s.withMessage(userMessage(ev.Option))
		out.Music.Tempo = ev.Option
		return out.enterStage(StageMusicUsage)
	case StageMusicUsage:
		out := s.withMessage(userMessage(ev.Option))
		out.Music.Usage = ev.Option
		return out
	}
	return s
}

func readyMessage(t ContentType) string {
	if t == TypeMusic {
		return "Your personalized music is ready! What would you like to do?"
	}
	return "Your personalized soundscape is ready! What would you like to do?"
}
