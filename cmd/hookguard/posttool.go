package main

import "hookguard/internal/hook"

var posttoolCmd = newHookCmd("posttool", hook.EventPostToolUse,
	"Report issues, scores and contract changes for a written file")

func init() {
	rootCmd.AddCommand(posttoolCmd)
}
