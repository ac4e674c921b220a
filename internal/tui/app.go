// Package tui is the terminal front end: it renders session snapshots and
// translates key presses into session calls.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/normanking/nightingale/internal/bus"
	"github.com/normanking/nightingale/internal/chat"
	"github.com/normanking/nightingale/internal/session"
	"github.com/normanking/nightingale/internal/status"
)

// refreshMsg signals that the session state may have changed.
type refreshMsg struct{}

// EventMsg wraps a bus event forwarded into the program. The entry point
// subscribes to the bus and relays events via Program.Send, so every
// state change published by the core triggers a re-render.
type EventMsg struct {
	Event bus.Event
}

type App struct {
	width, height int
	session       *session.Session
	monitor       *status.Monitor
	transcript    *Transcript
	picker        *Picker
	input         *Input
	keys          KeyMap
}

func NewApp(sess *session.Session, monitor *status.Monitor) *App {
	return &App{
		session:    sess,
		monitor:    monitor,
		transcript: NewTranscript(),
		picker:     NewPicker(),
		input:      NewInput(),
		keys:       DefaultKeyMap,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.Init(), a.startCmd())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Reset):
			return a, a.resetCmd()
		case key.Matches(msg, a.keys.Generate):
			return a, a.generateCmd()
		case key.Matches(msg, a.keys.CancelGen):
			return a, a.cancelGenCmd()
		case key.Matches(msg, a.keys.FreeChat):
			return a, a.freeChatCmd()
		case msg.String() == "enter":
			return a, a.submit()
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case refreshMsg:
		a.sync()
		return a, nil
	case EventMsg:
		a.sync()
		return a, nil
	}

	// Update submodels
	var cmd tea.Cmd
	a.transcript, cmd = a.transcript.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// submit interprets the input line: a number picks an option, anything
// else is sent as text, an empty line triggers generation when ready.
func (a *App) submit() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	st := a.session.Snapshot()

	if text == "" {
		if st.CanGenerate() {
			return a.generateCmd()
		}
		return nil
	}
	a.input.Reset()

	if n, err := strconv.Atoi(text); err == nil {
		if st.Stage == chat.StageSelectType {
			switch n {
			case 1:
				return a.selectTypeCmd(chat.TypeAudio)
			case 2:
				return a.selectTypeCmd(chat.TypeMusic)
			}
			return nil
		}
		if opt := a.picker.Option(n); opt != "" {
			return a.selectOptionCmd(opt)
		}
		return nil
	}

	return a.sendTextCmd(text)
}

func (a *App) startCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Start(context.Background())
		return refreshMsg{}
	}
}

func (a *App) selectTypeCmd(t chat.ContentType) tea.Cmd {
	return func() tea.Msg {
		a.session.SelectType(context.Background(), t)
		return refreshMsg{}
	}
}

func (a *App) selectOptionCmd(option string) tea.Cmd {
	return func() tea.Msg {
		a.session.SelectOption(context.Background(), option)
		return refreshMsg{}
	}
}

func (a *App) sendTextCmd(text string) tea.Cmd {
	return func() tea.Msg {
		a.session.SendText(context.Background(), text)
		return refreshMsg{}
	}
}

func (a *App) generateCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Generate(context.Background())
		return refreshMsg{}
	}
}

// cancelGenCmd aborts the in-flight generation without discarding the
// conversation; the transcript message comes from the Generate call
// observing the abort.
func (a *App) cancelGenCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.CancelGeneration()
		return refreshMsg{}
	}
}

func (a *App) resetCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Reset()
		return refreshMsg{}
	}
}

func (a *App) freeChatCmd() tea.Cmd {
	return func() tea.Msg {
		st := a.session.Snapshot()
		switch st.Stage {
		case chat.StageFreeChat:
			a.session.ResumeGuided(context.Background())
		case chat.StageSelectType:
			a.session.EnterFreeChat()
		}
		return refreshMsg{}
	}
}

// sync pulls the latest snapshot into the submodels.
func (a *App) sync() {
	st := a.session.Snapshot()
	a.transcript.SetMessages(st.Messages)

	switch {
	case st.Stage == chat.StageSelectType:
		a.picker.SetStage(st.Question(),
			[]string{"Background Sound", "Music"}, nil, false,
			"type 1 or 2, enter to confirm, ctrl+f for free chat")
	case st.Stage == chat.StageAudioElements:
		hint := "pick up to 3 by number; type text to add your own; ctrl+g to generate"
		a.picker.SetStage(st.Question(), st.Options, st.Audio.Elements, st.Loading, hint)
	case st.Stage.NeedsOptions():
		var selected []string
		if st.Stage == chat.StageMusicInstruments {
			selected = st.Music.Instruments
		}
		hint := "pick by number"
		if st.Stage == chat.StageMusicUsage && st.CanGenerate() {
			hint = "ctrl+g to generate"
		}
		a.picker.SetStage(st.Question(), st.Options, selected, st.Loading, hint)
	case st.Stage == chat.StageFreeChat:
		a.picker.SetStage("Free chat", nil, nil, st.Loading,
			"type to chat; ctrl+f to return to guided mode")
	case st.Stage == chat.StageComplete:
		a.picker.SetStage("All done!", nil, nil, false, "esc to start over")
	default:
		a.picker.SetStage(st.Question(), nil, nil, st.Loading, "")
	}
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	statusBar := a.statusBarView()
	inputBar := a.input.View()

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.65)
	rightWidth := a.width - leftWidth

	layout := lipgloss.JoinHorizontal(lipgloss.Top,
		a.transcript.View(leftWidth, contentHeight),
		a.picker.View(rightWidth, contentHeight))

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	st := a.session.Snapshot()

	backend := "backend: unknown"
	if a.monitor != nil {
		snap := a.monitor.Current()
		if snap.Online {
			backend = "backend: online"
			if snap.Stats != nil {
				backend += fmt.Sprintf(" | queue: %d waiting, %d running",
					snap.Stats.QueueSize, snap.Stats.RunningCount)
			}
		} else {
			backend = "backend: offline"
		}
	}

	state := string(st.Stage)
	if st.Loading {
		state += " (working... ctrl+x to cancel)"
	}

	return StatusBarStyle.Width(a.width).Render(
		fmt.Sprintf("Nightingale | %s | %s", state, backend))
}
