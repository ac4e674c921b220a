package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(apiURL, audioURL string) *Client {
	return NewClient(&ClientConfig{
		APIBaseURL:   apiURL,
		AudioBaseURL: audioURL,
		Timeout:      5 * time.Second,
	}, zerolog.Nop())
}

func TestGenerateOptions(t *testing.T) {
	var got OptionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate-options", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(OptionsResponse{Options: []string{"Rain", "Wind"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	opts, err := c.GenerateOptions(context.Background(), "focus", "rainy cabin", "elements")
	require.NoError(t, err)

	assert.Equal(t, []string{"Rain", "Wind"}, opts)
	assert.Equal(t, OptionsRequest{Mode: "focus", Input: "rainy cabin", Stage: "elements"}, got)
}

func TestGenerateMusicOptions(t *testing.T) {
	var got MusicOptionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate-musicgen-options", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(OptionsResponse{Options: []string{"Jazz"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	opts, err := c.GenerateMusicOptions(context.Background(), "genre", "late night")
	require.NoError(t, err)

	assert.Equal(t, []string{"Jazz"}, opts)
	assert.Equal(t, MusicOptionsRequest{Stage: "genre", UserInput: "late night"}, got)
}

func TestGenerateAudio_UsesAudioBaseURL(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("audio generation must not hit the general API base, got %s", r.URL.Path)
	}))
	defer apiSrv.Close()

	var got AudioRequest
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate-audio", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(AudioResponse{AudioURL: "http://x/a.wav"})
	}))
	defer audioSrv.Close()

	c := newTestClient(apiSrv.URL, audioSrv.URL)
	url, err := c.GenerateAudio(context.Background(), AudioRequest{
		Description: "Ambient soundscape: Rain",
		Duration:    10,
		Mode:        "default",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://x/a.wav", url)
	assert.Equal(t, "Ambient soundscape: Rain", got.Description)
	assert.Equal(t, 10, got.Duration)
}

func TestGenerateMusic(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate-music", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(MusicResult{MusicURL: "http://x/m.wav", Prompt: "p"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	res, err := c.GenerateMusic(context.Background(), MusicRequest{
		Genre:       "Jazz",
		Instruments: []string{"Piano"},
		Tempo:       "Slow",
		Usage:       "Study",
		UserInput:   "x",
		Duration:    30,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://x/m.wav", res.MusicURL)
	// The backend contract uses camelCase for this one field.
	assert.Contains(t, body, "userInput")
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		json.NewEncoder(w).Encode(ChatResponse{Response: "hello!"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	reply, err := c.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello!", reply)
}

func TestErrorDetailPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "model overloaded"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "model overloaded", err.Error())
}

func TestErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestQueueLifecycleEndpoints(t *testing.T) {
	var createBody QueueRequest
	var sawCancel bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/queue/audio-generation":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			json.NewEncoder(w).Encode(QueueTask{TaskID: "t1", Status: TaskPending})
		case r.Method == http.MethodGet && r.URL.Path == "/api/queue/status/t1":
			pos := 2
			json.NewEncoder(w).Encode(QueueTask{TaskID: "t1", Status: TaskRunning, QueuePosition: &pos})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/queue/cancel/t1":
			sawCancel = true
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		case r.Method == http.MethodGet && r.URL.Path == "/api/queue/stats":
			json.NewEncoder(w).Encode(QueueStats{QueueSize: 3, RunningCount: 1, EstimatedWaitTime: 12.5, MaxConcurrentTasks: 2})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	ctx := context.Background()

	task, err := c.CreateQueueTask(ctx, QueueRequest{Description: "rain", Duration: 10, Mode: "default", UserID: "u1", Priority: "normal"})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.TaskID)
	assert.Equal(t, TaskPending, task.Status)
	assert.Equal(t, "u1", createBody.UserID)

	snap, err := c.QueueTaskStatus(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, TaskRunning, snap.Status)
	require.NotNil(t, snap.QueuePosition)
	assert.Equal(t, 2, *snap.QueuePosition)

	require.NoError(t, c.CancelQueueTask(ctx, "t1"))
	assert.True(t, sawCancel)

	stats, err := c.QueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.QueueSize)
	assert.Equal(t, 2, stats.MaxConcurrentTasks)
}

func TestTaskStatus_Terminal(t *testing.T) {
	assert.False(t, TaskPending.Terminal())
	assert.False(t, TaskRunning.Terminal())
	assert.True(t, TaskCompleted.Terminal())
	assert.True(t, TaskFailed.Terminal())
	assert.True(t, TaskCancelled.Terminal())
}
