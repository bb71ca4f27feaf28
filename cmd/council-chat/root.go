package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"councilchat/internal/api"
	"councilchat/internal/config"
	"councilchat/internal/logging"
	"councilchat/internal/tui"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg *config.Config

	apiURL    string
	timeout   time.Duration
	logFormat string
	logLevel  string
	logFile   string
	altScreen bool
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "council-chat",
		Short: "Terminal client for an LLM council",
		Long: `council-chat asks a council of models a question and shows the three
stages of its answer as they stream in: individual responses, peer rankings
and the chairman's final synthesis.

Without a subcommand it opens the interactive client. Configuration comes from
COUNCIL_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", "", "council backend base URL (env COUNCIL_API_URL)")
	flags.DurationVar(&a.timeout, "timeout", 0, "timeout for non-streaming requests (env COUNCIL_REQUEST_TIMEOUT)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json (env COUNCIL_LOG_FORMAT)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (env COUNCIL_LOG_LEVEL)")
	cmd.Flags().StringVar(&a.logFile, "log-file", "", "log file for the interactive client, - to disable (env COUNCIL_LOG_FILE)")
	cmd.Flags().BoolVar(&a.altScreen, "alt-screen", true, "use the terminal's alternate screen (env COUNCIL_ALT_SCREEN)")

	cmd.AddCommand(
		newListCommand(a),
		newShowCommand(a),
		newAskCommand(a),
		newTemplatesCommand(a),
		newStartersCommand(a),
		newStubServerCommand(a),
	)
	return cmd
}

// load reads the environment and lets explicitly set flags win.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if changed("alt-screen") {
		cfg.AltScreen = a.altScreen
	}
	cfg.Validate()
	a.cfg = cfg
	return nil
}

// logger builds the logger for headless commands, which own stderr.
func (a *app) logger(cmd *cobra.Command) *logrus.Logger {
	return logging.New(cmd.ErrOrStderr(), a.cfg.LogFormat, a.cfg.LogLevel)
}

func (a *app) client(logger *logrus.Logger) *api.Client {
	return api.NewClient(a.cfg.APIURL, a.cfg.RequestTimeout, logrus.NewEntry(logger))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) runInteractive(cmd *cobra.Command) error {
	logger, closer, err := logging.OpenFile(a.cfg.LogFile, a.cfg.LogFormat, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	entry := logrus.NewEntry(logger)
	entry.WithField("api_url", a.cfg.APIURL).Info("starting interactive client")
	model := tui.New(tui.Options{
		Backend: a.client(logger),
		Logger:  entry,
		Context: ctx,
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if a.cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("run interactive client: %w", err)
	}
	return nil
}
