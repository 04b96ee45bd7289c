package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/clubdesk/internal/config"
	"github.com/jmcleod/clubdesk/internal/logging"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// errReported is returned by commands that already told the user what went
// wrong. Execute exits non-zero without printing it again.
var errReported = errors.New("reported")

var (
	serverURL    string
	statePath    string
	stateBackend string
	logLevel     string
	logFormat    string
	httpTimeout  time.Duration
	jsonOutput   bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clubdesk",
	Short: "clubdesk signs students up for Mergington High School activities",
	Long: `A client for the Mergington High School activity service.

Anyone can list activities and see how many spots are left. Teachers sign in
to register or unregister students; the sign-in is remembered between runs.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return 1
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverURL, "server", "", "Activity service URL (env CLUBDESK_SERVER_URL)")
	pf.StringVar(&statePath, "state", "", "Path of the persisted sign-in state (env CLUBDESK_STATE_PATH)")
	pf.StringVar(&stateBackend, "state-backend", "", "State backend: bolt, sqlite or memory (env CLUBDESK_STATE_BACKEND)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: "+logging.LevelNames()+" (env CLUBDESK_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (env CLUBDESK_LOG_FORMAT)")
	pf.DurationVar(&httpTimeout, "timeout", 0, "Per-request timeout for the activity service (env CLUBDESK_HTTP_TIMEOUT)")
	pf.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

// loadConfig resolves settings from .env, the environment and flags, in
// increasing precedence, and installs the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		loaded.ServerURL = serverURL
	}
	if flags.Changed("state") {
		loaded.StatePath = statePath
	}
	if flags.Changed("state-backend") {
		loaded.StateBackend = stateBackend
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		loaded.LogFormat = logFormat
	}
	if flags.Changed("timeout") {
		loaded.HTTPTimeout = httpTimeout
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	if _, err := logging.Setup(logging.Options{
		Level:  loaded.LogLevel,
		Format: loaded.LogFormat,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return err
	}

	cfg = loaded
	return nil
}
