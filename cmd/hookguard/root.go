package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hookguard/internal/config"
	"hookguard/internal/slogutil"
	"hookguard/internal/version"
)

var (
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "hookguard",
	Short: "hookguard - AST quality gate for AI code-editing hooks",
	Long: `hookguard parses source files with tree-sitter, scores them against a fixed
rule set and compares function contracts between versions of a file.

The hook subcommands read one JSON event on stdin and write one JSON payload on
stdout. They always exit 0; failures degrade to an allow decision or an empty
payload.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Disable logging")
}

// session is the per-invocation state shared by subcommands.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string
	closer io.Closer
}

func (s *session) Close() {
	_ = s.closer.Close()
}

// newSession loads configuration for cwd and builds the stderr logger.
// Verbosity flags override the configured log level.
func newSession(cmd *cobra.Command, cwd string) *session {
	cfg, loadErr := config.Load(cwd)

	level := slogutil.LevelFromString(cfg.LogLevel)
	if quiet || verbosity > 0 {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	logger, closer := slogutil.NewHookLogger(level, cfg.LogFile)

	runID := uuid.New().String()
	logger = logger.With("run", runID[:8], "cmd", cmd.Name())

	if loadErr != nil {
		logger.Warn("config file ignored", "error", loadErr)
	}
	for _, e := range cfg.Validate() {
		logger.Warn("config value adjusted", "field", e.Field, "message", e.Message)
	}
	if cfg.Source != "" {
		logger.Debug("config loaded", "file", cfg.Source)
	}
	return &session{cfg: cfg, logger: logger, runID: runID, closer: closer}
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
