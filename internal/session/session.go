// Package session wires the conversation state machine to the backend:
// it owns the current chat.State, applies events, fetches stage options,
// and drives generation and free-form chat.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/normanking/nightingale/internal/bus"
	"github.com/normanking/nightingale/internal/chat"
	"github.com/normanking/nightingale/internal/generate"
)

// ErrNotReady is returned when Generate is called before the required
// choices are collected.
var ErrNotReady = errors.New("not ready to generate")

// Generator submits generation requests. *generate.Controller satisfies it.
type Generator interface {
	GenerateAudio(ctx context.Context, in generate.AudioInput) (*generate.Result, error)
	GenerateMusic(ctx context.Context, in generate.MusicInput) (*generate.Result, error)
	Cancel()
}

// Chatter handles free-form chat. *api.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Session is one user conversation. All methods are safe for concurrent
// use; blocking calls take a context.
type Session struct {
	id        string
	options   chat.OptionProvider
	generator Generator
	chatter   Chatter
	bus       *bus.EventBus
	logger    zerolog.Logger

	mu    sync.Mutex
	state chat.State
	// epoch increments on reset so replies from an abandoned conversation
	// cannot touch the new one.
	epoch int
}

// New creates a session opening at the type-selection stage (or element
// selection for asmr mode).
func New(seed, mode string, options chat.OptionProvider, generator Generator, chatter Chatter, eventBus *bus.EventBus, logger zerolog.Logger) *Session {
	return &Session{
		id:        uuid.New().String(),
		options:   options,
		generator: generator,
		chatter:   chatter,
		bus:       eventBus,
		state:     chat.NewState(seed, mode),
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current conversation state. The returned value is
// safe to read without synchronization; transitions never mutate shared
// slices in place.
func (s *Session) Snapshot() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start performs the opening option fetch when the session begins on a
// stage that needs one (asmr mode skips straight to element selection).
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	st := s.state
	epoch := s.epoch
	s.mu.Unlock()

	if st.Stage.NeedsOptions() {
		s.loadOptions(ctx, st, epoch)
	}
}

// SelectType answers the opening audio-or-music question and fetches the
// first stage's options.
func (s *Session) SelectType(ctx context.Context, t chat.ContentType) {
	s.transition(ctx, chat.TypeSelected{Type: t})
}

// SelectOption applies an option pick for the current stage, fetching the
// next stage's options when the pick advances the wizard.
func (s *Session) SelectOption(ctx context.Context, option string) {
	s.transition(ctx, chat.OptionChosen{Option: option})
}

// EnterFreeChat switches to the free-form chat stage.
func (s *Session) EnterFreeChat() {
	s.apply(chat.FreeChatEntered{})
}

// ResumeGuided leaves free chat and restarts the guided flow at
// atmosphere selection.
func (s *Session) ResumeGuided(ctx context.Context) {
	s.transition(ctx, chat.GuidedResumed{})
}

// SendText routes typed input by stage: during element selection it is
// recorded as a free-text element, during free chat it goes to the
// assistant. Elsewhere it is ignored.
func (s *Session) SendText(ctx context.Context, text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	stage := s.state.Stage
	epoch := s.epoch
	s.mu.Unlock()

	switch stage {
	case chat.StageAudioElements:
		s.apply(chat.ExtraInputAdded{Text: text})
	case chat.StageFreeChat:
		s.apply(chat.ChatSent{Text: text})
		reply, err := s.chatter.Chat(ctx, text)
		if err != nil {
			s.applyAt(epoch, chat.ChatFailed{Reason: err.Error()})
			return
		}
		s.applyAt(epoch, chat.ChatReplied{Text: reply})
	}
}

// Generate submits the collected choices. The transcript receives the
// outcome message either way; the returned error lets callers tell a
// cancel from a failure.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.CanGenerate() {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.state = chat.Reduce(s.state, chat.GenerateStarted{})
	st := s.state
	epoch := s.epoch
	s.mu.Unlock()

	s.publishUpdate(st)
	s.publish(bus.EventTypeGenerationStarted, nil)

	var res *generate.Result
	var err error
	switch st.Type {
	case chat.TypeAudio:
		res, err = s.generator.GenerateAudio(ctx, generate.AudioInput{
			Atmosphere:  st.Audio.Atmosphere,
			Mood:        st.Audio.Mood,
			Elements:    st.Audio.Elements,
			ExtraInputs: st.Audio.ExtraInputs,
			Mode:        st.Mode,
			Seed:        st.Seed,
		})
	case chat.TypeMusic:
		res, err = s.generator.GenerateMusic(ctx, generate.MusicInput{
			Genre:       st.Music.Genre,
			Instruments: st.Music.Instruments,
			Tempo:       st.Music.Tempo,
			Usage:       st.Music.Usage,
			Seed:        st.Seed,
		})
	default:
		err = ErrNotReady
	}

	switch {
	case err == nil:
		s.applyAt(epoch, chat.GenerateSucceeded{
			MediaURL:      res.MediaURL,
			BackgroundURL: res.BackgroundURL,
			Prompt:        res.Prompt,
		})
		s.publish(bus.EventTypeGenerationCompleted, map[string]any{"mediaUrl": res.MediaURL})
	case errors.Is(err, generate.ErrCancelled):
		s.applyAt(epoch, chat.GenerateCancelled{})
		s.publish(bus.EventTypeGenerationCancelled, nil)
	default:
		s.applyAt(epoch, chat.GenerateFailed{Reason: err.Error()})
		s.publish(bus.EventTypeGenerationFailed, map[string]any{"error": err.Error()})
	}
	return err
}

// CancelGeneration aborts the in-flight generation, if any. The outcome
// message is appended by the Generate call observing the abort.
func (s *Session) CancelGeneration() {
	s.generator.Cancel()
}

// Reset abandons the conversation: the in-flight request is aborted and
// the session returns to the opening stage with choices cleared.
func (s *Session) Reset() {
	s.generator.Cancel()

	s.mu.Lock()
	s.epoch++
	s.state = chat.Reduce(s.state, chat.ConversationReset{})
	st := s.state
	s.mu.Unlock()

	s.logger.Info().Str("sessionId", s.id).Msg("Conversation reset")
	s.publishUpdate(st)
}

// transition applies an event and, when it lands on a stage that needs
// options, performs the fetch before returning.
func (s *Session) transition(ctx context.Context, e chat.Event) {
	s.mu.Lock()
	prev := s.state.Stage
	s.state = chat.Reduce(s.state, e)
	st := s.state
	epoch := s.epoch
	s.mu.Unlock()

	s.publishUpdate(st)
	if st.Stage != prev {
		s.publish(bus.EventTypeStageChanged, map[string]any{"stage": string(st.Stage)})
		if st.Stage.NeedsOptions() {
			s.loadOptions(ctx, st, epoch)
		}
	}
}

// loadOptions fetches options for the stage captured in st, substituting
// the built-in defaults when the fetch fails or returns nothing, and
// filtering element candidates against what the user already said.
func (s *Session) loadOptions(ctx context.Context, st chat.State, epoch int) {
	opts, err := s.options.Options(ctx, st.Stage, st.Mode, st.Seed)
	if err != nil {
		s.logger.Warn().Err(err).Str("stage", string(st.Stage)).Msg("Option fetch failed, using defaults")
	}
	if len(opts) == 0 {
		opts = chat.DefaultOptions(st.Stage)
	}
	if st.Stage == chat.StageAudioElements {
		opts = chat.FilterElements(opts, st.Audio.Atmosphere, st.Seed)
	}

	if s.applyAt(epoch, chat.OptionsLoaded{Stage: st.Stage, Options: opts}) {
		s.publish(bus.EventTypeOptionsLoaded, map[string]any{"stage": string(st.Stage)})
	}
}

// apply reduces an event against the current state and publishes the
// update.
func (s *Session) apply(e chat.Event) chat.State {
	s.mu.Lock()
	s.state = chat.Reduce(s.state, e)
	st := s.state
	s.mu.Unlock()

	s.publishUpdate(st)
	return st
}

// applyAt is apply guarded by epoch: results of work started before a
// reset are dropped. Reports whether the event was applied.
func (s *Session) applyAt(epoch int, e chat.Event) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.state = chat.Reduce(s.state, e)
	st := s.state
	s.mu.Unlock()

	s.publishUpdate(st)
	return true
}

func (s *Session) publishUpdate(st chat.State) {
	s.publish(bus.EventTypeConversationUpdated, map[string]any{
		"stage":   string(st.Stage),
		"loading": st.Loading,
	})
}

func (s *Session) publish(t bus.EventType, data map[string]any) {
	if s.bus == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["sessionId"] = s.id
	s.bus.Publish(bus.Event{Type: t, Data: data})
}
