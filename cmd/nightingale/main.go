// Package main provides the CLI entry point for Nightingale.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/normanking/nightingale/internal/api"
	"github.com/normanking/nightingale/internal/bus"
	"github.com/normanking/nightingale/internal/chat"
	"github.com/normanking/nightingale/internal/config"
	"github.com/normanking/nightingale/internal/generate"
	"github.com/normanking/nightingale/internal/logging"
	"github.com/normanking/nightingale/internal/queue"
	"github.com/normanking/nightingale/internal/session"
	"github.com/normanking/nightingale/internal/status"
	"github.com/normanking/nightingale/internal/tui"
)

var (
	// Version information (set at build time)
	version = "dev"

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2d9c93"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3be584"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// deps is everything a command needs, wired once from config.
type deps struct {
	cfg    *config.Config
	logger *logging.Logger
	client *api.Client
}

// setup wires config, logging and the API client. allowConsole lets a
// command opt out of console logging even when the config enables it;
// the alt-screen TUI owns stdout.
func setup(mode string, allowConsole bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if mode != "" {
		if !config.ValidMode(mode) {
			return nil, fmt.Errorf("unknown mode %q (valid: %v)", mode, config.Modes())
		}
		cfg.Generation.Mode = mode
	}

	logger, err := logging.New(&logging.Config{
		LogDir:     defaultLogDir(),
		Level:      logging.LogLevel(cfg.Logging.Level),
		MaxHistory: 1000,
		Console:    allowConsole && cfg.Logging.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}

	client := api.NewClient(&api.ClientConfig{
		APIBaseURL:   cfg.Backend.APIBaseURL,
		AudioBaseURL: cfg.Backend.AudioBaseURL,
		Timeout:      cfg.Backend.Timeout,
	}, logger.Zerolog())

	return &deps{cfg: cfg, logger: logger, client: client}, nil
}

func defaultLogDir() string {
	dir, err := config.GetConfigDir()
	if err != nil {
		return ".nightingale/logs"
	}
	return dir + "/logs"
}

func main() {
	var mode string
	var seed string

	rootCmd := &cobra.Command{
		Use:   "nightingale",
		Short: "Nightingale - guided soundscape and music generation",
		Long: titleStyle.Render("Nightingale") + `

A conversational client for generating personalized soundscapes and music:
• Guided wizard collecting atmosphere, mood and sound elements
• Music composition by genre, instruments, tempo and usage
• Server-side generation queue with live progress tracking

` + dimStyle.Render("Use 'nightingale [command] --help' for more information."),
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "session mode (default, focus, creative, mindful, sleep, asmr)")

	// chat command - run the interactive wizard
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive generation wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(mode, false)
			if err != nil {
				return err
			}
			defer d.logger.Close()

			eventBus := bus.NewEventBus()
			controller := generate.NewController(d.client, &generate.Config{
				AudioDuration: d.cfg.Generation.AudioDuration,
				MusicDuration: d.cfg.Generation.MusicDuration,
			}, d.logger.Zerolog())
			options := chat.NewBackendOptions(d.client, d.logger.Zerolog())
			sess := session.New(seed, d.cfg.Generation.Mode, options, controller, d.client, eventBus, d.logger.Zerolog())

			monitor := status.NewMonitor(nil, d.client, eventBus, d.logger.Zerolog())
			monitor.Start()
			defer monitor.Stop()

			p := tea.NewProgram(tui.NewApp(sess, monitor), tea.WithAltScreen())

			// Bridge bus events into the program so the view re-renders
			// on every published state change.
			eventBus.SubscribeMultiple([]bus.EventType{
				bus.EventTypeConversationUpdated,
				bus.EventTypeStageChanged,
				bus.EventTypeOptionsLoaded,
				bus.EventTypeGenerationStarted,
				bus.EventTypeGenerationCompleted,
				bus.EventTypeGenerationFailed,
				bus.EventTypeGenerationCancelled,
				bus.EventTypeBackendOnline,
				bus.EventTypeBackendOffline,
			}, func(e bus.Event) {
				p.Send(tui.EventMsg{Event: e})
			})

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui error: %w", err)
			}
			return nil
		},
	}
	chatCmd.Flags().StringVar(&seed, "input", "", "starting idea for the session")

	// queue command - submit a description and track it to completion
	var duration int
	var priority string
	queueCmd := &cobra.Command{
		Use:   "queue [description]",
		Short: "Queue a soundscape generation and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(mode, true)
			if err != nil {
				return err
			}
			defer d.logger.Close()

			// Flag overrides config, config overrides the built-in default.
			if !cmd.Flags().Changed("duration") && d.cfg.Generation.AudioDuration > 0 {
				duration = d.cfg.Generation.AudioDuration
			}
			if !cmd.Flags().Changed("priority") && d.cfg.Queue.Priority != "" {
				priority = d.cfg.Queue.Priority
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			qc := queue.NewClient(d.client, nil, d.logger.Zerolog())
			defer qc.Close()
			if d.cfg.Queue.PollInterval > 0 {
				qc.SetPollInterval(d.cfg.Queue.PollInterval)
			}
			done := make(chan error, 1)

			handle, err := qc.Submit(ctx, api.QueueRequest{
				Description: args[0],
				Duration:    duration,
				Mode:        d.cfg.Generation.Mode,
				UserID:      d.cfg.User.ID,
				Priority:    priority,
			}, queue.Callbacks{
				OnUpdate: func(task *api.QueueTask) {
					line := fmt.Sprintf("status: %s", task.Status)
					if task.QueuePosition != nil {
						line += fmt.Sprintf(" (position %d)", *task.QueuePosition)
					}
					if task.Progress > 0 {
						line += fmt.Sprintf(" %d%%", task.Progress)
					}
					fmt.Println(dimStyle.Render(line))
				},
				OnComplete: func(audioURL string) {
					fmt.Println(successStyle.Render("✓ Generation complete"))
					fmt.Printf("  Audio: %s\n", audioURL)
					done <- nil
				},
				OnError: func(message string) {
					done <- fmt.Errorf("%s", message)
				},
			})
			if err != nil {
				return fmt.Errorf("failed to submit: %w", err)
			}
			fmt.Printf("Task %s submitted\n", handle.TaskID())

			select {
			case <-ctx.Done():
				fmt.Println(dimStyle.Render("Cancelling task..."))
				if err := handle.Cancel(context.Background()); err != nil {
					return fmt.Errorf("failed to cancel: %w", err)
				}
				fmt.Println(successStyle.Render("✓ Task cancelled"))
				return nil
			case <-handle.Done():
				// Polling has stopped; pick up the terminal outcome if
				// one was reported.
				select {
				case err := <-done:
					if err != nil {
						fmt.Println(errorStyle.Render("✗ " + err.Error()))
						return err
					}
				default:
				}
				return nil
			}
		},
	}
	queueCmd.Flags().IntVar(&duration, "duration", 10, "audio duration in seconds")
	queueCmd.Flags().StringVar(&priority, "priority", "normal", "task priority")

	// stats command - show queue state
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show backend queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup(mode, true)
			if err != nil {
				return err
			}
			defer d.logger.Close()

			stats, err := d.client.QueueStats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			fmt.Println(titleStyle.Render("Queue"))
			fmt.Printf("  Waiting:        %d\n", stats.QueueSize)
			fmt.Printf("  Running:        %d\n", stats.RunningCount)
			fmt.Printf("  Max concurrent: %d\n", stats.MaxConcurrentTasks)
			fmt.Printf("  Est. wait:      %.0fs\n", stats.EstimatedWaitTime)
			return nil
		},
	}

	rootCmd.AddCommand(chatCmd, queueCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
