package main

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hookguard/internal/hook"
)

// newHookCmd builds the subcommand for one hook event.
func newHookCmd(use, event, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runHook(cmd, event)
		},
	}
}

// runHook never fails the process: the assistant treats a non-zero exit as
// a broken hook.
func runHook(cmd *cobra.Command, event string) {
	raw, readErr := hook.ReadRaw(os.Stdin)
	s := newSession(cmd, configRoot(raw))
	defer s.Close()
	if readErr != nil {
		s.logger.Warn("hook input truncated", "error", readErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hook.NewHandler(s.cfg, s.logger, s.runID)
	if err := h.Run(ctx, event, bytes.NewReader(raw), os.Stdout); err != nil {
		s.logger.Error("hook failed", "event", event, "error", err)
	}
}

// configRoot is the directory .hooks-config.json is looked up in: the
// event's cwd when it names one, else the process working directory.
func configRoot(raw []byte) string {
	if cwd := hook.EventCwd(raw); cwd != "" {
		return cwd
	}
	return workingDir()
}
