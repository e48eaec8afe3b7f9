package render

import (
	stderrors "errors"
	"fmt"

	asterr "hookguard/internal/errors"
)

// SafeMessage renders an engine error as its user-visible class and a
// message that carries no internal detail.
func SafeMessage(err error) (asterr.Class, string) {
	class := asterr.ClassOf(err)
	var ae *asterr.AstError
	if !stderrors.As(err, &ae) {
		return class, "analysis failed"
	}
	switch ae.Code {
	case asterr.EmptySource:
		return class, "file is empty"
	case asterr.SourceTooLarge:
		return class, fmt.Sprintf("file too large (%d bytes)", ae.Bytes)
	case asterr.SyntaxError:
		return class, fmt.Sprintf("syntax error at line %d, column %d", ae.Line, ae.Column)
	case asterr.AnalysisTimeout:
		return class, fmt.Sprintf("analysis exceeded %gs", ae.TimeoutSecs)
	case asterr.UnsupportedLanguage:
		return class, "unsupported language"
	case asterr.ConfigInvalid:
		return class, "configuration could not be used"
	default:
		return class, "analysis failed"
	}
}

// SkipLine is the single context line for a file that produced an error.
func SkipLine(path string, err error) string {
	class, msg := SafeMessage(err)
	return fmt.Sprintf("- %s: skipped (%s): %s", path, class, msg)
}
