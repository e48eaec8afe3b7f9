package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable identifier for an engine failure mode.
type ErrorCode string

const (
	// EmptySource: the buffer is empty or whitespace only.
	EmptySource ErrorCode = "EMPTY_SOURCE"
	// SourceTooLarge: the buffer exceeds the hard input cap.
	SourceTooLarge ErrorCode = "SOURCE_TOO_LARGE"
	// RustShouldUseSyn: Rust was sent down the generic tree-sitter path.
	RustShouldUseSyn ErrorCode = "RUST_SHOULD_USE_SYN"
	// ParseFailed: the parser produced no root node.
	ParseFailed ErrorCode = "PARSE_FAILED"
	// SyntaxError: the tree contains error or missing nodes.
	SyntaxError ErrorCode = "SYNTAX_ERROR"
	// AnalysisTimeout: the parse worker exceeded its deadline.
	AnalysisTimeout ErrorCode = "ANALYSIS_TIMEOUT"
	// AnalysisThreadFailed: the parse worker died (panic).
	AnalysisThreadFailed ErrorCode = "ANALYSIS_THREAD_FAILED"
	// UnsupportedLanguage: the extension maps to no language.
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ConfigInvalid: a config file or variable could not be used.
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Class is the user-visible error class rendered in hook output.
// Internal codes never reach the assistant directly.
type Class string

const (
	ClassTimeout          Class = "timeout"
	ClassNetwork          Class = "network"
	ClassConfiguration    Class = "configuration"
	ClassResponseFormat   Class = "response_format"
	ClassValidationFailed Class = "validation_failed"
)

// AstError is the single error type produced by the engine.
type AstError struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Language    string    `json:"language,omitempty"`
	Extension   string    `json:"extension,omitempty"`
	Bytes       int       `json:"bytes,omitempty"`
	TimeoutSecs float64   `json:"timeoutSecs,omitempty"`
	Line        int       `json:"line,omitempty"`
	Column      int       `json:"column,omitempty"`
	cause       error
}

// New creates an AstError with an optional cause.
func New(code ErrorCode, message string, cause error) *AstError {
	return &AstError{Code: code, Message: message, cause: cause}
}

func (e *AstError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AstError) Unwrap() error {
	return e.cause
}

// Is matches on code, so errors.Is(err, &AstError{Code: X}) works.
func (e *AstError) Is(target error) bool {
	t, ok := target.(*AstError)
	return ok && t.Code == e.Code
}

// Class maps the code to its user-visible class.
func (e *AstError) Class() Class {
	switch e.Code {
	case AnalysisTimeout:
		return ClassTimeout
	case ConfigInvalid:
		return ClassConfiguration
	case ParseFailed, SyntaxError, EmptySource, SourceTooLarge, UnsupportedLanguage, RustShouldUseSyn:
		return ClassValidationFailed
	default:
		return ClassResponseFormat
	}
}

func NewEmptySource() *AstError {
	return New(EmptySource, "source code cannot be empty", nil)
}

func NewSourceTooLarge(size int) *AstError {
	e := New(SourceTooLarge, fmt.Sprintf("source code too large (%d bytes), potential DoS risk", size), nil)
	e.Bytes = size
	return e
}

func NewRustShouldUseSyn() *AstError {
	return New(RustShouldUseSyn, "Rust code should be analyzed with the macro-aware backend", nil)
}

func NewParseFailed(lang string, cause error) *AstError {
	e := New(ParseFailed, fmt.Sprintf("failed to parse %s code", lang), cause)
	e.Language = lang
	return e
}

// NewSyntaxError reports the first error node of a tree, 1-indexed.
func NewSyntaxError(lang string, line, column int) *AstError {
	e := New(SyntaxError, fmt.Sprintf("syntax error in %s code at line %d, column %d", lang, line, column), nil)
	e.Language = lang
	e.Line = line
	e.Column = column
	return e
}

func NewAnalysisTimeout(lang string, secs float64) *AstError {
	e := New(AnalysisTimeout, fmt.Sprintf("analysis timeout: %s code analysis exceeded %gs timeout", lang, secs), nil)
	e.Language = lang
	e.TimeoutSecs = secs
	return e
}

func NewAnalysisThreadFailed(lang string, cause error) *AstError {
	e := New(AnalysisThreadFailed, fmt.Sprintf("analysis worker for %s failed", lang), cause)
	e.Language = lang
	return e
}

func NewUnsupportedLanguage(ext string) *AstError {
	e := New(UnsupportedLanguage, fmt.Sprintf("unsupported language for extension %q", ext), nil)
	e.Extension = ext
	return e
}

// HasCode reports whether any error in err's chain is an AstError with code.
func HasCode(err error, code ErrorCode) bool {
	var ae *AstError
	if !stderrors.As(err, &ae) {
		return false
	}
	if ae.Code == code {
		return true
	}
	return HasCode(ae.cause, code)
}

// ClassOf returns the user-visible class of any error. Non-engine errors are
// response_format: something went wrong producing the payload.
func ClassOf(err error) Class {
	var ae *AstError
	if stderrors.As(err, &ae) {
		return ae.Class()
	}
	return ClassResponseFormat
}
