package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/normanking/nightingale/internal/chat"
)

// Transcript renders the conversation history in a scrollable viewport.
type Transcript struct {
	viewport viewport.Model
	messages []chat.Message
}

func NewTranscript() *Transcript {
	vp := viewport.New(0, 0)
	return &Transcript{viewport: vp}
}

func (t *Transcript) Init() tea.Cmd {
	return nil
}

func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

func (t *Transcript) View(width, height int) string {
	t.viewport.Width = width - 2 // padding
	t.viewport.Height = height - 2
	return TranscriptPanelStyle.Width(width).Height(height).Render(t.viewport.View())
}

// SetMessages replaces the transcript content and scrolls to the newest
// entry.
func (t *Transcript) SetMessages(messages []chat.Message) {
	if len(messages) == len(t.messages) {
		return
	}
	t.messages = messages

	var sb strings.Builder
	for _, msg := range messages {
		if msg.Sender == chat.SenderUser {
			sb.WriteString(UserMessageStyle.Render("you: " + msg.Text))
		} else {
			sb.WriteString(AIMessageStyle.Render("ai: " + msg.Text))
		}
		sb.WriteString("\n")
		if msg.MediaURL != "" {
			sb.WriteString(MediaStyle.Render("  ♪ " + msg.MediaURL))
			sb.WriteString("\n")
		}
		if msg.BackgroundURL != "" {
			sb.WriteString(MediaStyle.Render("  ◩ " + msg.BackgroundURL))
			sb.WriteString("\n")
		}
	}
	t.viewport.SetContent(sb.String())
	t.viewport.GotoBottom()
}
