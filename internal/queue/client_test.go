package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/nightingale/internal/api"
	"github.com/normanking/nightingale/internal/bus"
)

// scriptedBackend serves a fixed sequence of status snapshots, repeating
// the last one once the script runs out.
type scriptedBackend struct {
	mu          sync.Mutex
	initial     *api.QueueTask
	script      []*api.QueueTask
	polls       int
	cancelErr   error
	cancelCalls int
}

func (b *scriptedBackend) CreateQueueTask(ctx context.Context, req api.QueueRequest) (*api.QueueTask, error) {
	return b.initial, nil
}

func (b *scriptedBackend) QueueTaskStatus(ctx context.Context, taskID string) (*api.QueueTask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.polls
	b.polls++
	if i >= len(b.script) {
		i = len(b.script) - 1
	}
	return b.script[i], nil
}

func (b *scriptedBackend) CancelQueueTask(ctx context.Context, taskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCalls++
	return b.cancelErr
}

func (b *scriptedBackend) QueueStats(ctx context.Context) (*api.QueueStats, error) {
	return &api.QueueStats{QueueSize: 1}, nil
}

func (b *scriptedBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

func (b *scriptedBackend) cancelCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelCalls
}

func (b *scriptedBackend) setCancelErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelErr = err
}

func task(status api.TaskStatus) *api.QueueTask {
	return &api.QueueTask{TaskID: "t1", Status: status}
}

func newTestClient(b Backend) *Client {
	c := NewClient(b, nil, zerolog.Nop())
	c.SetPollInterval(10 * time.Millisecond)
	return c
}

func TestSubmit_CompletionCallbackFiresOnce(t *testing.T) {
	pos := 2
	completed := task(api.TaskCompleted)
	completed.Result = &api.TaskResult{AudioURL: "X"}
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script: []*api.QueueTask{
			{TaskID: "t1", Status: api.TaskPending, QueuePosition: &pos},
			completed,
		},
	}

	var mu sync.Mutex
	var completions []string
	var updates int

	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{Description: "rain"}, Callbacks{
		OnUpdate: func(task *api.QueueTask) {
			mu.Lock()
			updates++
			mu.Unlock()
		},
		OnComplete: func(url string) {
			mu.Lock()
			completions = append(completions, url)
			mu.Unlock()
		},
		OnError: func(msg string) {
			t.Errorf("unexpected error callback: %s", msg)
		},
	})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}

	pollsAtDone := backend.pollCount()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"X"}, completions, "exactly one completion with the audio URL")
	assert.GreaterOrEqual(t, updates, 3, "initial snapshot plus each poll")
	assert.Equal(t, pollsAtDone, backend.pollCount(), "no polls after the completed read")
}

func TestSubmit_FailureReportsServerError(t *testing.T) {
	failed := task(api.TaskFailed)
	failed.Error = "GPU on fire"
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{failed},
	}

	errs := make(chan string, 1)
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnError: func(msg string) { errs <- msg },
	})
	require.NoError(t, err)

	<-h.Done()
	assert.Equal(t, "GPU on fire", <-errs)
}

func TestSubmit_CancelledWithoutMessageGetsFallback(t *testing.T) {
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskCancelled)},
	}

	errs := make(chan string, 1)
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnError: func(msg string) { errs <- msg },
	})
	require.NoError(t, err)

	<-h.Done()
	assert.Equal(t, "Task cancelled", <-errs)
}

func TestSubmit_CompletedWithoutURLStopsQuietly(t *testing.T) {
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskCompleted)},
	}

	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnComplete: func(url string) { t.Errorf("unexpected completion: %s", url) },
		OnError:    func(msg string) { t.Errorf("unexpected error: %s", msg) },
	})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestHandle_CancelStopsPollingAndFiresOnCancel(t *testing.T) {
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskRunning)},
	}

	cancels := 0
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnComplete: func(url string) { t.Errorf("completion after cancel: %s", url) },
		OnCancel:   func() { cancels++ },
	})
	require.NoError(t, err)

	// Let at least one poll land, then cancel.
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, h.Cancel(context.Background()))
	assert.Equal(t, 1, backend.cancelCount(), "server-side cancel must be requested")
	assert.Equal(t, 1, cancels)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}

	polls := backend.pollCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, polls, backend.pollCount(), "no polls after cancel")
}

func TestHandle_FailedServerCancelKeepsPolling(t *testing.T) {
	backend := &scriptedBackend{
		initial:   task(api.TaskPending),
		script:    []*api.QueueTask{task(api.TaskRunning)},
		cancelErr: errors.New("server busy"),
	}

	cancels := 0
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnCancel: func() { cancels++ },
	})
	require.NoError(t, err)

	require.Error(t, h.Cancel(context.Background()))
	assert.Equal(t, 0, cancels, "OnCancel must not fire on a failed server cancel")

	select {
	case <-h.Done():
		t.Fatal("polling stopped despite failed server cancel")
	case <-time.After(50 * time.Millisecond):
	}
	before := backend.pollCount()
	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, backend.pollCount(), before, "loop must keep polling after a failed cancel")

	// A retry re-contacts the server and succeeds.
	backend.setCancelErr(nil)
	require.NoError(t, h.Cancel(context.Background()))
	assert.Equal(t, 2, backend.cancelCount())
	assert.Equal(t, 1, cancels)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after successful retry")
	}
}

func TestHandle_CancelIsIdempotent(t *testing.T) {
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskRunning)},
	}

	cancels := 0
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnCancel: func() { cancels++ },
	})
	require.NoError(t, err)

	require.NoError(t, h.Cancel(context.Background()))
	require.NoError(t, h.Cancel(context.Background()))
	assert.Equal(t, 1, backend.cancelCount(), "only the first cancel contacts the server")
	assert.Equal(t, 1, cancels)
}

func TestClient_CloseStopsAllLoops(t *testing.T) {
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskRunning)},
	}
	c := newTestClient(backend)

	cb := Callbacks{
		OnComplete: func(url string) { t.Errorf("unexpected completion: %s", url) },
		OnError:    func(msg string) { t.Errorf("unexpected error: %s", msg) },
	}
	h1, err := c.Submit(context.Background(), api.QueueRequest{}, cb)
	require.NoError(t, err)
	h2, err := c.Submit(context.Background(), api.QueueRequest{}, cb)
	require.NoError(t, err)

	c.Close()

	for _, h := range []*Handle{h1, h2} {
		select {
		case <-h.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("polling loop survived Close")
		}
	}

	_, err = c.Submit(context.Background(), api.QueueRequest{}, Callbacks{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmit_TerminalAtCreation(t *testing.T) {
	completed := task(api.TaskCompleted)
	completed.Result = &api.TaskResult{AudioURL: "X"}
	backend := &scriptedBackend{initial: completed, script: []*api.QueueTask{completed}}

	done := make(chan string, 1)
	h, err := newTestClient(backend).Submit(context.Background(), api.QueueRequest{}, Callbacks{
		OnComplete: func(url string) { done <- url },
	})
	require.NoError(t, err)

	assert.Equal(t, "X", <-done)
	<-h.Done()
	assert.Equal(t, 0, backend.pollCount(), "no polling for a task terminal at creation")
}

func TestSubmit_PublishesQueueEvents(t *testing.T) {
	completed := task(api.TaskCompleted)
	completed.Result = &api.TaskResult{AudioURL: "X"}
	backend := &scriptedBackend{
		initial: task(api.TaskPending),
		script:  []*api.QueueTask{task(api.TaskRunning), completed},
	}

	eventBus := bus.NewEventBus()
	var mu sync.Mutex
	seen := map[bus.EventType]int{}
	eventBus.SubscribeMultiple([]bus.EventType{
		bus.EventTypeQueueTaskCreated,
		bus.EventTypeQueueTaskUpdated,
		bus.EventTypeQueueTaskCompleted,
	}, func(e bus.Event) {
		mu.Lock()
		seen[e.Type]++
		mu.Unlock()
	})

	c := NewClient(backend, eventBus, zerolog.Nop())
	c.SetPollInterval(10 * time.Millisecond)

	h, err := c.Submit(context.Background(), api.QueueRequest{}, Callbacks{})
	require.NoError(t, err)
	<-h.Done()

	// Handlers run in goroutines; give them a moment to land.
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		ok := seen[bus.EventTypeQueueTaskCreated] == 1 &&
			seen[bus.EventTypeQueueTaskUpdated] >= 2 &&
			seen[bus.EventTypeQueueTaskCompleted] == 1
		mu.Unlock()
		if ok {
			return
		}
		select {
		case <-deadline:
			mu.Lock()
			t.Fatalf("missing queue events, saw %v", seen)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestClient_Stats(t *testing.T) {
	backend := &scriptedBackend{}
	stats, err := newTestClient(backend).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QueueSize)
}
