package main

import "hookguard/internal/hook"

var pretoolCmd = newHookCmd("pretool", hook.EventPreToolUse,
	"Decide whether a Write, Edit or MultiEdit may proceed")

func init() {
	pretoolCmd.Long = `Reads a PreToolUse event, synthesizes the file the tool call would produce
and denies it when it breaks the syntax tree, changes only whitespace or
comments, weakens a function contract, or introduces issues at or above the
sensitivity gate (Critical, or Major with SENSITIVITY=high).`
	rootCmd.AddCommand(pretoolCmd)
}
