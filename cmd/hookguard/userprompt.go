package main

import "hookguard/internal/hook"

var userpromptCmd = newHookCmd("userprompt", hook.EventUserPromptSubmit,
	"Summarize project structure, quality and dependencies")

func init() {
	userpromptCmd.Long = `Sweeps the project rooted at the event's cwd and emits a bounded summary.
Results are cached in .hookguard/project-cache.json and reused while no
tracked file has changed.`
	rootCmd.AddCommand(userpromptCmd)
}
