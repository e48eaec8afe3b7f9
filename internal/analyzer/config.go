package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"hookguard/internal/lang"
	"hookguard/internal/parse"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

// dialectError is the first structural error of a configuration file.
type dialectError struct {
	line, column int
	message      string
}

// analyzeConfig validates JSON, YAML and TOML documents. At most one CFG001
// is reported per file; no source-language rules run.
func (a *Analyzer) analyzeConfig(ctx context.Context, src []byte, l lang.Language, opts Options) (*Result, error) {
	stop := opts.Timings.Start("analyze")
	defer stop()

	li := syntax.NewLineIndex(src)
	var inComment func(int) bool
	if l != lang.JSON {
		inComment = hashComments(src)
	}
	metrics, _ := countLines(li, inComment, false)

	var derr *dialectError
	switch l {
	case lang.JSON:
		derr = validateJSON(src, li)
	case lang.YAML:
		derr = validateYAML(src)
	case lang.TOML:
		derr = validateTOML(src)
	}
	if derr == nil && l != lang.JSON {
		derr = a.treeError(ctx, src, l, li, opts)
	}

	res := &Result{Path: opts.Path, Language: l, Metrics: metrics}
	if derr != nil {
		res.Issues = []quality.Issue{quality.NewIssue(quality.RuleConfigParse, "",
			fmt.Sprintf("invalid %s: %s", strings.ToUpper(string(l)), derr.message), derr.line, derr.column)}
	}
	return res, nil
}

// treeError cross-checks the document with its tree-sitter grammar.
func (a *Analyzer) treeError(ctx context.Context, src []byte, l lang.Language, li *syntax.LineIndex, opts Options) *dialectError {
	tree, err := a.pool.Parse(ctx, parse.Request{Source: src, Lang: l, Timeout: opts.Timeout})
	if err != nil {
		a.logger.Debug("config dialect parse skipped", "path", opts.Path, "error", err)
		return nil
	}
	defer tree.Close()
	if !tree.HasError() {
		return nil
	}
	b := firstBreakage(tree.Root(), li)
	if b == nil {
		return nil
	}
	msg := "syntax error"
	if b.Missing {
		msg = "missing " + b.Kind
	}
	return &dialectError{line: b.Line, column: b.Column, message: msg}
}

func validateJSON(src []byte, li *syntax.LineIndex) *dialectError {
	dec := json.NewDecoder(bytes.NewReader(src))
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			return nil
		}
		if err == nil {
			continue
		}
		offset := int(dec.InputOffset())
		var se *json.SyntaxError
		if errors.As(err, &se) {
			offset = int(se.Offset) - 1
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			offset = len(src)
		}
		line, col := li.Position(offset)
		return &dialectError{line: line, column: col, message: err.Error()}
	}
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func validateYAML(src []byte) *dialectError {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			return nil
		}
		if err == nil {
			continue
		}
		msg := strings.TrimPrefix(err.Error(), "yaml: ")
		line := 1
		if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		return &dialectError{line: line, column: 1, message: msg}
	}
}

func validateTOML(src []byte) *dialectError {
	var v map[string]any
	err := toml.Unmarshal(src, &v)
	if err == nil {
		return nil
	}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return &dialectError{line: row, column: col, message: de.Error()}
	}
	return &dialectError{line: 1, column: 1, message: err.Error()}
}
