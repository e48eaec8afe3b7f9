package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hookguard/internal/ignore"
	"hookguard/internal/paths"
	"hookguard/internal/quality"
)

// FileName is the per-project config file looked up in the working directory.
const FileName = ".hooks-config.json"

// Sensitivity selects the severity gate for permission decisions.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// DefaultAllowlist lists credential-name prefixes treated as non-secret.
var DefaultAllowlist = []string{"default_", "example_", "sample_", "mock_", "test_", "dummy_"}

// Settings is the record every layer produces.
type Settings struct {
	Sensitivity   Sensitivity `json:"sensitivity" mapstructure:"sensitivity"`
	Environment   string      `json:"environment" mapstructure:"environment"`
	AllowlistVars []string    `json:"allowlist_vars" mapstructure:"allowlist_vars"`
	IgnoreGlobs   []string    `json:"ignore_globs" mapstructure:"ignore_globs"`
}

// Hooks carries the knobs consumed by the hook pipelines.
type Hooks struct {
	PretoolASTOnly        bool          `json:"pretool_ast_only" mapstructure:"pretool_ast_only"`
	PosttoolASTOnly       bool          `json:"posttool_ast_only" mapstructure:"posttool_ast_only"`
	PosttoolDryRun        bool          `json:"posttool_dry_run" mapstructure:"posttool_dry_run"`
	Timings               bool          `json:"timings" mapstructure:"timings"`
	SoftBudgetBytes       int           `json:"soft_budget_bytes" mapstructure:"soft_budget_bytes"`
	NestedSoftBudgetBytes int           `json:"nested_soft_budget_bytes" mapstructure:"nested_soft_budget_bytes"`
	EntitySnippets        bool          `json:"entity_snippets" mapstructure:"entity_snippets"`
	MaxSnippets           int           `json:"max_snippets" mapstructure:"max_snippets"`
	DiffContext           int           `json:"diff_context" mapstructure:"diff_context"`
	ForceAPIContract      bool          `json:"api_contract" mapstructure:"api_contract"`
	QuickTips             bool          `json:"quick_tips" mapstructure:"quick_tips"`
	QuickTipsMax          int           `json:"quick_tips_max" mapstructure:"quick_tips_max"`
	ContextLimit          int           `json:"userprompt_context_limit" mapstructure:"userprompt_context_limit"`
	ParseTimeout          time.Duration `json:"-" mapstructure:"-"`
	SweepWorkers          int           `json:"sweep_workers" mapstructure:"sweep_workers"`
}

// Config is the resolved configuration for one invocation.
type Config struct {
	Settings
	Hooks Hooks

	LogLevel string
	LogFile  string

	// Source is the config file that was applied, empty when none
	Source string
}

// Limits
const (
	MinContextLimit     = 1000
	MaxContextLimit     = 8000
	DefaultContextLimit = 4000
	DefaultSoftBudget   = 500 * 1024
	DefaultNestedBudget = 300 * 1024
	DefaultParseTimeout = 5 * time.Second
	MaxQuickTips        = 20
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"sensitivity":              "SENSITIVITY",
	"environment":              "AST_ENV",
	"allowlist_vars":           "AST_ALLOWLIST_VARS",
	"ignore_globs":             "AST_IGNORE_GLOBS",
	"pretool_ast_only":         "PRETOOL_AST_ONLY",
	"posttool_ast_only":        "POSTTOOL_AST_ONLY",
	"posttool_dry_run":         "POSTTOOL_DRY_RUN",
	"timings":                  "AST_TIMINGS",
	"soft_budget_bytes":        "AST_SOFT_BUDGET_BYTES",
	"entity_snippets":          "AST_ENTITY_SNIPPETS",
	"max_snippets":             "AST_MAX_SNIPPETS",
	"diff_context":             "AST_DIFF_CONTEXT",
	"api_contract":             "API_CONTRACT",
	"quick_tips":               "QUICK_TIPS",
	"quick_tips_max":           "QUICK_TIPS_MAX",
	"userprompt_context_limit": "USERPROMPT_CONTEXT_LIMIT",
	"parse_timeout_ms":         "AST_PARSE_TIMEOUT_MS",
	"sweep_workers":            "AST_SWEEP_WORKERS",
	"log_level":                "HOOKGUARD_LOG_LEVEL",
	"log_file":                 "HOOKGUARD_LOG_FILE",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Sensitivity:   SensitivityMedium,
			AllowlistVars: append([]string(nil), DefaultAllowlist...),
		},
		Hooks: Hooks{
			SoftBudgetBytes:       DefaultSoftBudget,
			NestedSoftBudgetBytes: DefaultNestedBudget,
			EntitySnippets:        true,
			MaxSnippets:           3,
			DiffContext:           3,
			QuickTips:             true,
			QuickTipsMax:          6,
			ContextLimit:          DefaultContextLimit,
			ParseTimeout:          DefaultParseTimeout,
			SweepWorkers:          4,
		},
		LogLevel: "warn",
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("sensitivity", string(d.Sensitivity))
	v.SetDefault("environment", "")
	v.SetDefault("allowlist_vars", "")
	v.SetDefault("ignore_globs", "")
	v.SetDefault("pretool_ast_only", false)
	v.SetDefault("posttool_ast_only", false)
	v.SetDefault("posttool_dry_run", false)
	v.SetDefault("timings", false)
	v.SetDefault("soft_budget_bytes", 0)
	v.SetDefault("entity_snippets", d.Hooks.EntitySnippets)
	v.SetDefault("max_snippets", d.Hooks.MaxSnippets)
	v.SetDefault("diff_context", d.Hooks.DiffContext)
	v.SetDefault("api_contract", false)
	v.SetDefault("quick_tips", d.Hooks.QuickTips)
	v.SetDefault("quick_tips_max", d.Hooks.QuickTipsMax)
	v.SetDefault("userprompt_context_limit", d.Hooks.ContextLimit)
	v.SetDefault("parse_timeout_ms", int(d.Hooks.ParseTimeout/time.Millisecond))
	v.SetDefault("sweep_workers", d.Hooks.SweepWorkers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", "")
}

// Load resolves defaults, environment and the JSON config file, in that order
// of increasing precedence. The returned config is always usable; a non-nil
// error reports a config file that could not be applied.
func Load(cwd string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	var fileErr error
	file := os.Getenv("HOOKS_CONFIG_FILE")
	if file == "" && cwd != "" {
		file = filepath.Join(cwd, FileName)
	}

	// viper ranks env above config files; the file must win, so it is read
	// separately and its keys are applied with Set.
	applied := false
	if file != "" {
		fv := viper.New()
		fv.SetConfigFile(file)
		fv.SetConfigType("json")
		if err := fv.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				fileErr = &ConfigError{Field: "file", Message: fmt.Sprintf("%s: %v", file, err)}
			}
		} else {
			for _, key := range fv.AllKeys() {
				v.Set(key, fv.Get(key))
			}
			applied = true
		}
	}

	cfg := DefaultConfig()
	if applied {
		cfg.Source = file
	}

	cfg.Sensitivity = Sensitivity(strings.ToLower(strings.TrimSpace(v.GetString("sensitivity"))))
	cfg.Environment = strings.ToLower(strings.TrimSpace(v.GetString("environment")))
	cfg.AllowlistVars = mergeLists(DefaultAllowlist, listValue(v, "allowlist_vars"))
	cfg.IgnoreGlobs = mergeLists(nil, listValue(v, "ignore_globs"))

	h := &cfg.Hooks
	h.PretoolASTOnly = v.GetBool("pretool_ast_only")
	h.PosttoolASTOnly = v.GetBool("posttool_ast_only")
	h.PosttoolDryRun = v.GetBool("posttool_dry_run")
	h.Timings = v.GetBool("timings")
	if budget := v.GetInt("soft_budget_bytes"); budget != 0 {
		// an explicit budget applies at every depth
		h.SoftBudgetBytes = budget
		h.NestedSoftBudgetBytes = budget
	}
	h.EntitySnippets = v.GetBool("entity_snippets")
	h.MaxSnippets = v.GetInt("max_snippets")
	h.DiffContext = v.GetInt("diff_context")
	h.ForceAPIContract = v.GetBool("api_contract")
	h.QuickTips = v.GetBool("quick_tips")
	h.QuickTipsMax = v.GetInt("quick_tips_max")
	h.ContextLimit = v.GetInt("userprompt_context_limit")
	h.ParseTimeout = time.Duration(v.GetInt("parse_timeout_ms")) * time.Millisecond
	h.SweepWorkers = v.GetInt("sweep_workers")

	cfg.LogLevel = v.GetString("log_level")
	cfg.LogFile = v.GetString("log_file")

	return cfg, fileErr
}

// listValue reads a list that may come from a CSV environment variable or a
// JSON array.
func listValue(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case []interface{}:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return raw
	case string:
		return splitCSV(raw)
	default:
		return nil
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeLists(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, list := range [][]string{base, extra} {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// Validate clamps out-of-range values and reports each correction.
func (c *Config) Validate() []*ConfigError {
	var errs []*ConfigError
	fix := func(field, msg string) {
		errs = append(errs, &ConfigError{Field: field, Message: msg})
	}

	switch c.Sensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		fix("sensitivity", fmt.Sprintf("unknown value %q, using medium", c.Sensitivity))
		c.Sensitivity = SensitivityMedium
	}

	h := &c.Hooks
	if h.ContextLimit < MinContextLimit || h.ContextLimit > MaxContextLimit {
		clamped := clamp(h.ContextLimit, MinContextLimit, MaxContextLimit)
		fix("userprompt_context_limit", fmt.Sprintf("%d out of range, using %d", h.ContextLimit, clamped))
		h.ContextLimit = clamped
	}
	if h.SoftBudgetBytes < 1 {
		fix("soft_budget_bytes", "must be positive, using default")
		h.SoftBudgetBytes = DefaultSoftBudget
		h.NestedSoftBudgetBytes = DefaultNestedBudget
	}
	if h.NestedSoftBudgetBytes < 1 {
		h.NestedSoftBudgetBytes = h.SoftBudgetBytes
	}
	if h.MaxSnippets < 1 || h.MaxSnippets > 50 {
		clamped := clamp(h.MaxSnippets, 1, 50)
		fix("max_snippets", fmt.Sprintf("%d out of range, using %d", h.MaxSnippets, clamped))
		h.MaxSnippets = clamped
	}
	if h.DiffContext < 0 || h.DiffContext > 20 {
		clamped := clamp(h.DiffContext, 0, 20)
		fix("diff_context", fmt.Sprintf("%d out of range, using %d", h.DiffContext, clamped))
		h.DiffContext = clamped
	}
	if h.QuickTipsMax < 1 || h.QuickTipsMax > MaxQuickTips {
		clamped := clamp(h.QuickTipsMax, 1, MaxQuickTips)
		fix("quick_tips_max", fmt.Sprintf("%d out of range, using %d", h.QuickTipsMax, clamped))
		h.QuickTipsMax = clamped
	}
	if h.ParseTimeout < 100*time.Millisecond || h.ParseTimeout > time.Minute {
		fix("parse_timeout_ms", fmt.Sprintf("%s out of range, using %s", h.ParseTimeout, DefaultParseTimeout))
		h.ParseTimeout = DefaultParseTimeout
	}
	if h.SweepWorkers < 1 {
		h.SweepWorkers = 1
	}
	return errs
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// GateSeverity returns the minimum severity that denies a pre-tool action.
func (s *Settings) GateSeverity() quality.Severity {
	if s.Sensitivity == SensitivityHigh {
		return quality.Major
	}
	return quality.Critical
}

// IsTestEnvironment reports AST_ENV=test.
func (s *Settings) IsTestEnvironment() bool {
	return s.Environment == "test"
}

// IsTestContext reports whether findings for path are in test context:
// either the environment says so or the path looks like a test file.
func (s *Settings) IsTestContext(p string) bool {
	if s.IsTestEnvironment() {
		return true
	}
	return IsTestPath(p)
}

// IsTestPath matches **/tests/**, **/test/**, **/__tests__/**, **/spec/**,
// *_test.*, *.spec.*, *.test.* and test_*.py.
func IsTestPath(p string) bool {
	if p == "" {
		return false
	}
	norm := "/" + strings.TrimPrefix(paths.Normalize(p), "/")
	for _, dir := range []string{"/tests/", "/test/", "/__tests__/", "/spec/"} {
		if strings.Contains(norm, dir) {
			return true
		}
	}
	base := path.Base(norm)
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch {
	case strings.HasSuffix(stem, "_test"):
		return true
	case strings.Contains(base, ".spec."), strings.Contains(base, ".test."):
		return true
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	}
	return false
}

// IsAllowlisted reports whether a credential variable name starts with one of
// the allowlisted prefixes. Matching ignores case and leading sigils.
func (s *Settings) IsAllowlisted(name string) bool {
	n := strings.ToLower(strings.TrimLeft(name, "$@:*&"))
	for _, prefix := range s.AllowlistVars {
		if p := strings.ToLower(prefix); p != "" && strings.HasPrefix(n, p) {
			return true
		}
	}
	return false
}

// ShouldIgnorePath reports whether path lies in a built-in ignored directory
// or matches one of the ignore globs.
func (s *Settings) ShouldIgnorePath(p string) bool {
	if p == "" {
		return false
	}
	return ignore.New(s.IgnoreGlobs...).MatchFile(p)
}

// IgnoreMatcher builds a matcher with the built-in directories and the
// configured globs.
func (s *Settings) IgnoreMatcher() *ignore.Matcher {
	return ignore.New(s.IgnoreGlobs...)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
