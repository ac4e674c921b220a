package api

// Wire types for the Nightingale backend. Field names are part of the
// backend contract and must not be renamed.

// OptionsRequest asks the backend for stage-scoped soundscape options.
type OptionsRequest struct {
	Mode  string `json:"mode"`
	Input string `json:"input"`
	Stage string `json:"stage"`
}

// MusicOptionsRequest asks the backend for stage-scoped music options.
type MusicOptionsRequest struct {
	Stage     string `json:"stage"`
	UserInput string `json:"user_input"`
}

// OptionsResponse carries the candidate options for one wizard stage.
type OptionsResponse struct {
	Options []string `json:"options"`
}

// AudioRequest submits a soundscape generation to the audio service.
type AudioRequest struct {
	Description   string         `json:"description"`
	Duration      int            `json:"duration"`
	IsPoem        bool           `json:"is_poem"`
	Mode          string         `json:"mode"`
	EffectsConfig map[string]any `json:"effects_config"`
}

// AudioResponse carries the generated soundscape URL.
type AudioResponse struct {
	AudioURL string `json:"audio_url"`
}

// BackgroundRequest asks for a background image matching a description.
type BackgroundRequest struct {
	Description string `json:"description"`
}

// BackgroundResponse carries the generated background image URL.
type BackgroundResponse struct {
	ImageURL string `json:"image_url"`
}

// MusicRequest submits a music generation.
type MusicRequest struct {
	Genre       string   `json:"genre"`
	Instruments []string `json:"instruments"`
	Tempo       string   `json:"tempo"`
	Usage       string   `json:"usage"`
	UserInput   string   `json:"userInput"`
	Duration    int      `json:"duration"`
}

// MusicResult is the backend's music generation response.
type MusicResult struct {
	MusicURL      string `json:"music_url"`
	Prompt        string `json:"prompt,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
}

// ChatRequest is a free-form chat message to the assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant's free-form reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// TaskStatus enumerates the server-reported queue task states.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further status transitions can occur.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// QueueRequest enqueues an audio generation on the backend queue.
type QueueRequest struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Mode        string `json:"mode"`
	UserID      string `json:"user_id"`
	Priority    string `json:"priority"`
}

// TaskResult is the payload of a completed queue task.
type TaskResult struct {
	AudioURL    string `json:"audio_url,omitempty"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// QueueTask is the server's view of one queued generation.
type QueueTask struct {
	TaskID            string      `json:"task_id"`
	Status            TaskStatus  `json:"status"`
	Progress          int         `json:"progress,omitempty"`
	QueuePosition     *int        `json:"queue_position,omitempty"`
	EstimatedWaitTime int         `json:"estimated_wait_time,omitempty"`
	Result            *TaskResult `json:"result,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// QueueStats is the aggregate state of the backend queue.
type QueueStats struct {
	QueueSize          int     `json:"queue_size"`
	RunningCount       int     `json:"running_count"`
	EstimatedWaitTime  float64 `json:"estimated_wait_time"`
	MaxConcurrentTasks int     `json:"max_concurrent_tasks"`
}

// errorResponse is the backend's non-2xx body shape.
type errorResponse struct {
	Detail string `json:"detail"`
}
