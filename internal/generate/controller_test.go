package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/nightingale/internal/api"
)

// fakeBackend records requests and returns scripted results.
type fakeBackend struct {
	audioReq  *api.AudioRequest
	audioURL  string
	audioErr  error
	audioWait chan struct{} // when set, GenerateAudio blocks until ctx done

	bgDescription string
	bgURL         string
	bgErr         error

	musicReq *api.MusicRequest
	musicRes *api.MusicResult
	musicErr error
}

func (f *fakeBackend) GenerateAudio(ctx context.Context, req api.AudioRequest) (string, error) {
	f.audioReq = &req
	if f.audioWait != nil {
		close(f.audioWait)
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.audioURL, f.audioErr
}

func (f *fakeBackend) GenerateBackground(ctx context.Context, description string) (string, error) {
	f.bgDescription = description
	return f.bgURL, f.bgErr
}

func (f *fakeBackend) GenerateMusic(ctx context.Context, req api.MusicRequest) (*api.MusicResult, error) {
	f.musicReq = &req
	return f.musicRes, f.musicErr
}

func newTestController(b Backend) *Controller {
	return NewController(b, nil, zerolog.Nop())
}

func TestGenerateAudio_Success(t *testing.T) {
	backend := &fakeBackend{audioURL: "http://x/audio.wav", bgURL: "http://x/bg.png"}
	c := newTestController(backend)

	res, err := c.GenerateAudio(context.Background(), AudioInput{
		Atmosphere: "Cozy and intimate",
		Mood:       "Relaxed",
		Elements:   []string{"Rain", "Fire crackling"},
		Mode:       "focus",
		Seed:       "a rainy cabin",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://x/audio.wav", res.MediaURL)
	assert.Equal(t, "http://x/bg.png", res.BackgroundURL)
	assert.Equal(t, "Ambient soundscape: Rain and Fire crackling Relaxed Cozy and intimate, for focus", res.Prompt)

	require.NotNil(t, backend.audioReq)
	assert.Equal(t, res.Prompt, backend.audioReq.Description)
	assert.Equal(t, 10, backend.audioReq.Duration)
	assert.Equal(t, "focus", backend.audioReq.Mode)
	assert.False(t, backend.audioReq.IsPoem)
	assert.Equal(t, "a rainy cabin", backend.bgDescription)
}

func TestGenerateAudio_DefaultModeHasNoScene(t *testing.T) {
	backend := &fakeBackend{audioURL: "u"}
	c := newTestController(backend)

	res, err := c.GenerateAudio(context.Background(), AudioInput{
		Elements: []string{"Rain"},
		Mode:     "default",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ambient soundscape: Rain", res.Prompt)
}

func TestGenerateAudio_BackgroundFailureTolerated(t *testing.T) {
	backend := &fakeBackend{audioURL: "u", bgErr: errors.New("image service down")}
	c := newTestController(backend)

	res, err := c.GenerateAudio(context.Background(), AudioInput{Elements: []string{"Rain"}})
	require.NoError(t, err)
	assert.Equal(t, "u", res.MediaURL)
	assert.Empty(t, res.BackgroundURL)
}

func TestGenerateAudio_BackgroundFallbackDescription(t *testing.T) {
	backend := &fakeBackend{audioURL: "u", bgURL: "b"}
	c := newTestController(backend)

	_, err := c.GenerateAudio(context.Background(), AudioInput{Elements: []string{"Rain"}})
	require.NoError(t, err)
	assert.Equal(t, "a beautiful soundscape background", backend.bgDescription)
}

func TestGenerateAudio_NoElements(t *testing.T) {
	c := newTestController(&fakeBackend{})

	_, err := c.GenerateAudio(context.Background(), AudioInput{})
	assert.Error(t, err)
}

func TestGenerateAudio_SeedSubstitutesForElements(t *testing.T) {
	backend := &fakeBackend{audioURL: "u"}
	c := newTestController(backend)

	res, err := c.GenerateAudio(context.Background(), AudioInput{Seed: "soft rain on a tent"})
	require.NoError(t, err)
	assert.Equal(t, "Ambient soundscape: soft rain on a tent", res.Prompt)
}

func TestGenerateAudio_CancelReturnsErrCancelled(t *testing.T) {
	backend := &fakeBackend{audioWait: make(chan struct{})}
	c := newTestController(backend)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.GenerateAudio(context.Background(), AudioInput{Elements: []string{"Rain"}})
		errCh <- err
	}()

	<-backend.audioWait
	c.Cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not return after cancel")
	}
}

func TestCancel_NoInflightIsNoop(t *testing.T) {
	c := newTestController(&fakeBackend{})
	c.Cancel()
	c.Cancel()
}

func TestGenerateMusic_Success(t *testing.T) {
	backend := &fakeBackend{musicRes: &api.MusicResult{
		MusicURL:      "http://x/music.wav",
		BackgroundURL: "http://x/bg.png",
	}}
	c := newTestController(backend)

	res, err := c.GenerateMusic(context.Background(), MusicInput{
		Genre:       "Jazz",
		Instruments: []string{"Piano"},
		Tempo:       "Slow",
		Usage:       "Study",
		Seed:        "late night",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://x/music.wav", res.MediaURL)
	assert.Equal(t, "http://x/bg.png", res.BackgroundURL)
	assert.Equal(t, "Genre: Jazz, Instruments: Piano, Tempo: Slow, Usage: Study, Input: late night", res.Prompt)

	require.NotNil(t, backend.musicReq)
	assert.Equal(t, 30, backend.musicReq.Duration)
	assert.Equal(t, "late night", backend.musicReq.UserInput)
}

func TestGenerateMusic_BackendPromptWins(t *testing.T) {
	backend := &fakeBackend{musicRes: &api.MusicResult{MusicURL: "u", Prompt: "server prompt"}}
	c := newTestController(backend)

	res, err := c.GenerateMusic(context.Background(), MusicInput{
		Genre: "Jazz", Instruments: []string{"Piano"}, Tempo: "Slow", Usage: "Study",
	})
	require.NoError(t, err)
	assert.Equal(t, "server prompt", res.Prompt)
}

func TestGenerateMusic_Validation(t *testing.T) {
	c := newTestController(&fakeBackend{})

	_, err := c.GenerateMusic(context.Background(), MusicInput{Genre: "Jazz"})
	assert.Error(t, err)

	_, err = c.GenerateMusic(context.Background(), MusicInput{
		Genre: "Jazz", Tempo: "Slow", Usage: "Study",
	})
	assert.Error(t, err, "instruments required")
}
