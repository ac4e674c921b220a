// Package queue tracks server-side generation tasks: submission, status
// polling, cancellation, and aggregate queue statistics.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/nightingale/internal/api"
	"github.com/normanking/nightingale/internal/bus"
)

// DefaultPollInterval is the fixed delay between status polls.
const DefaultPollInterval = 2 * time.Second

// ErrClosed is returned by Submit after the client has been closed.
var ErrClosed = errors.New("queue client closed")

// Backend is the slice of the API client the queue needs. *api.Client
// satisfies it.
type Backend interface {
	CreateQueueTask(ctx context.Context, req api.QueueRequest) (*api.QueueTask, error)
	QueueTaskStatus(ctx context.Context, taskID string) (*api.QueueTask, error)
	CancelQueueTask(ctx context.Context, taskID string) error
	QueueStats(ctx context.Context) (*api.QueueStats, error)
}

// Callbacks receive task progress. OnUpdate fires on every snapshot,
// OnComplete exactly once when the task completes with an audio URL,
// OnError exactly once when the task fails or is cancelled server-side,
// and OnCancel exactly once when a Handle.Cancel succeeds.
type Callbacks struct {
	OnUpdate   func(task *api.QueueTask)
	OnComplete func(audioURL string)
	OnError    func(message string)
	OnCancel   func()
}

// Client submits queue tasks and polls them to completion. Close tears
// down every live polling loop.
type Client struct {
	backend  Backend
	bus      *bus.EventBus
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
}

// NewClient creates a queue client polling at DefaultPollInterval.
// eventBus may be nil.
func NewClient(backend Backend, eventBus *bus.EventBus, logger zerolog.Logger) *Client {
	return &Client{
		backend:  backend,
		bus:      eventBus,
		interval: DefaultPollInterval,
		logger:   logger.With().Str("component", "queue").Logger(),
		handles:  make(map[string]*Handle),
	}
}

// SetPollInterval overrides the poll interval. Intended for tests.
func (c *Client) SetPollInterval(d time.Duration) {
	c.interval = d
}

// Submit enqueues a generation and starts polling immediately. The
// returned Handle outlives ctx; polling stops only on a terminal status,
// Handle.Cancel, or Close.
func (c *Client) Submit(ctx context.Context, req api.QueueRequest, cb Callbacks) (*Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	task, err := c.backend.CreateQueueTask(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue task: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		client: c,
		taskID: task.TaskID,
		cancel: cancel,
		done:   make(chan struct{}),
		task:   task,
		cb:     cb,
	}

	c.publish(bus.EventTypeQueueTaskCreated, map[string]any{"taskId": task.TaskID})
	if cb.OnUpdate != nil {
		cb.OnUpdate(task)
	}
	if task.Status.Terminal() {
		cancel()
		close(h.done)
		c.finish(task, cb)
		return h, nil
	}

	c.track(h)
	go c.poll(pollCtx, h, cb)
	return h, nil
}

// Stats fetches the aggregate queue state.
func (c *Client) Stats(ctx context.Context) (*api.QueueStats, error) {
	return c.backend.QueueStats(ctx)
}

// Close stops every live polling loop and waits for the goroutines to
// exit. It does not contact the server; remote tasks keep running.
// Submit returns ErrClosed afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		h.cancel()
		<-h.done
	}
}

func (c *Client) track(h *Handle) {
	c.mu.Lock()
	c.handles[h.taskID] = h
	c.mu.Unlock()
}

func (c *Client) untrack(taskID string) {
	c.mu.Lock()
	delete(c.handles, taskID)
	c.mu.Unlock()
}

// poll reads the task status immediately and then at the fixed interval
// until a terminal status arrives or the handle is cancelled. Poll errors
// are swallowed; the next tick retries.
func (c *Client) poll(ctx context.Context, h *Handle, cb Callbacks) {
	defer func() {
		c.untrack(h.taskID)
		close(h.done)
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		task, err := c.backend.QueueTaskStatus(ctx, h.taskID)

		// A response that raced with cancellation is dropped; the
		// cancelled state must not be rolled back.
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err != nil {
			c.logger.Warn().Err(err).Str("taskId", h.taskID).Msg("Status poll failed, retrying")
		} else {
			h.setTask(task)
			c.publish(bus.EventTypeQueueTaskUpdated, map[string]any{
				"taskId": h.taskID,
				"status": string(task.Status),
			})
			if cb.OnUpdate != nil {
				cb.OnUpdate(task)
			}
			if task.Status.Terminal() {
				c.finish(task, cb)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// finish dispatches the single terminal callback for a task.
func (c *Client) finish(task *api.QueueTask, cb Callbacks) {
	switch task.Status {
	case api.TaskCompleted:
		if task.Result != nil && task.Result.AudioURL != "" {
			c.logger.Info().Str("taskId", task.TaskID).Msg("Queue task completed")
			c.publish(bus.EventTypeQueueTaskCompleted, map[string]any{
				"taskId":   task.TaskID,
				"audioUrl": task.Result.AudioURL,
			})
			if cb.OnComplete != nil {
				cb.OnComplete(task.Result.AudioURL)
			}
			return
		}
		// Completed without a media URL: stop polling, no callback.
		c.logger.Warn().Str("taskId", task.TaskID).Msg("Queue task completed without audio URL")
	case api.TaskFailed, api.TaskCancelled:
		msg := task.Error
		if msg == "" {
			msg = fmt.Sprintf("Task %s", task.Status)
		}
		c.logger.Warn().Str("taskId", task.TaskID).Str("status", string(task.Status)).Msg("Queue task ended in error")
		c.publish(bus.EventTypeQueueTaskFailed, map[string]any{
			"taskId": task.TaskID,
			"error":  msg,
		})
		if cb.OnError != nil {
			cb.OnError(msg)
		}
	}
}

func (c *Client) publish(t bus.EventType, data map[string]any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Type: t, Data: data})
}

// Handle tracks one submitted task.
type Handle struct {
	client *Client
	taskID string
	cancel context.CancelFunc
	done   chan struct{}
	cb     Callbacks

	mu        sync.Mutex
	task      *api.QueueTask
	cancelled bool
}

// TaskID returns the server-assigned task identifier.
func (h *Handle) TaskID() string { return h.taskID }

// Task returns the latest status snapshot.
func (h *Handle) Task() *api.QueueTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.task
}

// Done is closed when polling has stopped for any reason.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) setTask(task *api.QueueTask) {
	h.mu.Lock()
	h.task = task
	h.mu.Unlock()
}

// Cancel asks the server to cancel the task and, only once the server
// accepts, stops the local polling loop and fires OnCancel. On a failed
// server cancel the loop keeps running and Cancel may be retried. Safe
// to call more than once; after a success further calls return nil
// without contacting the server.
func (h *Handle) Cancel(ctx context.Context) error {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	if err := h.client.backend.CancelQueueTask(ctx, h.taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	h.mu.Lock()
	already := h.cancelled
	h.cancelled = true
	h.mu.Unlock()
	if already {
		return nil
	}

	h.cancel()
	if h.cb.OnCancel != nil {
		h.cb.OnCancel()
	}
	return nil
}
