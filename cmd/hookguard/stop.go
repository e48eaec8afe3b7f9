package main

import "hookguard/internal/hook"

var stopCmd = newHookCmd("stop", hook.EventStop, "Acknowledge the end of a session")

func init() {
	rootCmd.AddCommand(stopCmd)
}
