// Package generate drives single-shot generation requests: prompt
// composition, submission to the backend, and per-request cancellation.
package generate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/normanking/nightingale/internal/api"
)

// ErrCancelled is returned when the user aborts an in-flight generation.
// Callers use it to tell a cancel apart from a real failure.
var ErrCancelled = errors.New("generation cancelled")

// Backend is the slice of the API client the controller needs.
// *api.Client satisfies it.
type Backend interface {
	GenerateAudio(ctx context.Context, req api.AudioRequest) (string, error)
	GenerateBackground(ctx context.Context, description string) (string, error)
	GenerateMusic(ctx context.Context, req api.MusicRequest) (*api.MusicResult, error)
}

// AudioInput carries the collected soundscape answers.
type AudioInput struct {
	Atmosphere  string
	Mood        string
	Elements    []string
	ExtraInputs []string
	Mode        string
	Seed        string
}

// MusicInput carries the collected music answers.
type MusicInput struct {
	Genre       string
	Instruments []string
	Tempo       string
	Usage       string
	Seed        string
}

// Result is a finished generation.
type Result struct {
	MediaURL      string
	BackgroundURL string
	Prompt        string
}

// Config holds generation durations in seconds.
type Config struct {
	AudioDuration int
	MusicDuration int
}

// DefaultConfig matches the backend's expected request durations.
func DefaultConfig() *Config {
	return &Config{
		AudioDuration: 10,
		MusicDuration: 30,
	}
}

// Controller submits generations and owns the cancellation handle of the
// request in flight. At most one request is in flight at a time; starting
// a new one aborts the previous.
type Controller struct {
	backend Backend
	config  *Config
	logger  zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    int
}

// NewController creates a generation controller.
func NewController(backend Backend, cfg *Config, logger zerolog.Logger) *Controller {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Controller{
		backend: backend,
		config:  cfg,
		logger:  logger.With().Str("component", "generate").Logger(),
	}
}

// GenerateAudio validates the soundscape choices, builds the prompt, and
// submits the audio request followed by a background image request. The
// image call is best-effort: its failure leaves BackgroundURL empty but
// does not fail the generation.
func (c *Controller) GenerateAudio(ctx context.Context, in AudioInput) (*Result, error) {
	subjects := append(append([]string(nil), in.Elements...), in.ExtraInputs...)
	if len(subjects) == 0 {
		if in.Seed == "" {
			return nil, errors.New("no sound elements selected")
		}
		subjects = []string{in.Seed}
	}

	var actions []string
	if in.Mood != "" {
		actions = []string{in.Mood}
	}
	var scenes []string
	if in.Atmosphere != "" {
		scenes = []string{in.Atmosphere}
	}
	if in.Mode != "" && in.Mode != "default" {
		scenes = append(scenes, "for "+in.Mode)
	}

	prompt := BuildAudioPrompt(subjects, actions, scenes)
	c.logger.Info().Str("prompt", prompt).Msg("Generating soundscape")

	ctx, seq := c.begin(ctx)
	defer c.finish(seq)

	audioURL, err := c.backend.GenerateAudio(ctx, api.AudioRequest{
		Description: prompt,
		Duration:    c.config.AudioDuration,
		IsPoem:      false,
		Mode:        in.Mode,
	})
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	backgroundURL := ""
	bgDescription := in.Seed
	if bgDescription == "" {
		bgDescription = "a beautiful soundscape background"
	}
	if url, bgErr := c.backend.GenerateBackground(ctx, bgDescription); bgErr == nil {
		backgroundURL = url
	} else {
		if cerr := c.classify(ctx, bgErr); errors.Is(cerr, ErrCancelled) {
			return nil, cerr
		}
		c.logger.Warn().Err(bgErr).Msg("Background image generation failed, continuing without")
	}

	return &Result{MediaURL: audioURL, BackgroundURL: backgroundURL, Prompt: prompt}, nil
}

// GenerateMusic validates the music choices and submits the generation.
func (c *Controller) GenerateMusic(ctx context.Context, in MusicInput) (*Result, error) {
	if in.Genre == "" || in.Tempo == "" || in.Usage == "" {
		return nil, errors.New("genre, tempo and usage must be set")
	}
	if len(in.Instruments) == 0 {
		return nil, errors.New("no instruments selected")
	}

	prompt := BuildMusicPrompt(in.Genre, in.Instruments, in.Tempo, in.Usage, in.Seed)
	c.logger.Info().Str("prompt", prompt).Msg("Generating music")

	ctx, seq := c.begin(ctx)
	defer c.finish(seq)

	res, err := c.backend.GenerateMusic(ctx, api.MusicRequest{
		Genre:       in.Genre,
		Instruments: append([]string(nil), in.Instruments...),
		Tempo:       in.Tempo,
		Usage:       in.Usage,
		UserInput:   in.Seed,
		Duration:    c.config.MusicDuration,
	})
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	if res.Prompt != "" {
		prompt = res.Prompt
	}
	return &Result{MediaURL: res.MusicURL, BackgroundURL: res.BackgroundURL, Prompt: prompt}, nil
}

// Cancel aborts the request in flight, if any. Safe to call repeatedly.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.logger.Info().Msg("Generation cancelled")
	}
}

// begin installs a fresh cancellation handle, aborting any previous
// in-flight request first. The returned sequence number lets finish
// release only its own handle.
func (c *Controller) begin(ctx context.Context) (context.Context, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.seq++
	return ctx, c.seq
}

func (c *Controller) finish(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == seq && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// classify maps a transport error to ErrCancelled when the request was
// aborted by the user rather than failed by the backend.
func (c *Controller) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return ErrCancelled
	}
	return err
}
