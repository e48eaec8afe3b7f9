// Package hook implements the per-event pipelines behind the hook
// subcommands: JSON in on stdin, one JSON payload out on stdout.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Hook event names as they appear on the wire.
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventStop             = "Stop"
)

// Write-like tool names.
const (
	ToolWrite     = "Write"
	ToolEdit      = "Edit"
	ToolMultiEdit = "MultiEdit"
)

// maxInputBytes bounds stdin: the 10 MiB source cap plus JSON overhead.
const maxInputBytes = 32 << 20

// Input is the event object read from stdin.
type Input struct {
	ToolName       string    `json:"tool_name"`
	ToolInput      ToolInput `json:"tool_input"`
	HookEventName  string    `json:"hook_event_name"`
	Cwd            string    `json:"cwd,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	Prompt         string    `json:"prompt,omitempty"`
}

// ToolInput carries the arguments of a write-like tool.
type ToolInput struct {
	FilePath string `json:"file_path"`

	// Write
	Content *string `json:"content,omitempty"`

	// Edit
	OldString  string `json:"old_string,omitempty"`
	NewString  string `json:"new_string,omitempty"`
	ReplaceAll bool   `json:"replace_all,omitempty"`

	// MultiEdit
	Edits []Edit `json:"edits,omitempty"`
}

// Edit is one textual replacement.
type Edit struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

// EditList returns the replacements of an Edit or MultiEdit call.
func (t ToolInput) EditList(tool string) []Edit {
	switch tool {
	case ToolEdit:
		return []Edit{{OldString: t.OldString, NewString: t.NewString, ReplaceAll: t.ReplaceAll}}
	case ToolMultiEdit:
		return t.Edits
	default:
		return nil
	}
}

// IsWriteTool reports whether tool modifies a file.
func IsWriteTool(tool string) bool {
	return tool == ToolWrite || tool == ToolEdit || tool == ToolMultiEdit
}

// ReadRaw reads one bounded event payload.
func ReadRaw(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read hook input: %w", err)
	}
	return data, nil
}

// EventCwd returns the cwd field of a raw event, or "" when the payload
// has none or does not decode.
func EventCwd(raw []byte) string {
	var ev struct {
		Cwd string `json:"cwd"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ""
	}
	return ev.Cwd
}

// ReadInput decodes one event.
func ReadInput(r io.Reader) (*Input, error) {
	var in Input
	dec := json.NewDecoder(io.LimitReader(r, maxInputBytes))
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to parse hook input: %w", err)
	}
	return &in, nil
}

// PreToolOutput is the pre-tool payload.
type PreToolOutput struct {
	HookSpecificOutput PreToolSpecific `json:"hookSpecificOutput"`
}

// PreToolSpecific is the decision part of PreToolOutput.
type PreToolSpecific struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// ContextOutput is the post-tool and user-prompt payload.
type ContextOutput struct {
	HookSpecificOutput ContextSpecific `json:"hookSpecificOutput"`
}

// ContextSpecific is the context part of ContextOutput.
type ContextSpecific struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// StopOutput is the stop-hook payload.
type StopOutput struct {
	Continue bool `json:"continue"`
}

// WriteJSON writes v as one line of JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
