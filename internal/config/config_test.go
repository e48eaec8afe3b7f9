package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookguard/internal/quality"
)

// clearEnv blanks every recognized variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
	t.Setenv("HOOKS_CONFIG_FILE", "")
}

func writeConfigFile(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, SensitivityMedium, cfg.Sensitivity)
	assert.Empty(t, cfg.Environment)
	assert.Equal(t, DefaultAllowlist, cfg.AllowlistVars)
	assert.Empty(t, cfg.IgnoreGlobs)
	assert.Equal(t, 500*1024, cfg.Hooks.SoftBudgetBytes)
	assert.Equal(t, 300*1024, cfg.Hooks.NestedSoftBudgetBytes)
	assert.Equal(t, 4000, cfg.Hooks.ContextLimit)
	assert.Equal(t, 6, cfg.Hooks.QuickTipsMax)
	assert.True(t, cfg.Hooks.QuickTips)
	assert.True(t, cfg.Hooks.EntitySnippets)
	assert.Equal(t, 5*time.Second, cfg.Hooks.ParseTimeout)
	assert.Empty(t, cfg.Validate(), "defaults must validate cleanly")
}

func TestLoad_NoFileNoEnv(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, SensitivityMedium, cfg.Sensitivity)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, DefaultAllowlist, cfg.AllowlistVars)
	assert.Equal(t, DefaultSoftBudget, cfg.Hooks.SoftBudgetBytes)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENSITIVITY", "HIGH")
	t.Setenv("AST_ENV", "test")
	t.Setenv("AST_ALLOWLIST_VARS", "fake_, placeholder_")
	t.Setenv("AST_IGNORE_GLOBS", "**/*.pb.go,legacy/**")
	t.Setenv("AST_TIMINGS", "1")
	t.Setenv("AST_SOFT_BUDGET_BYTES", "10")
	t.Setenv("QUICK_TIPS", "0")
	t.Setenv("USERPROMPT_CONTEXT_LIMIT", "2500")
	t.Setenv("AST_PARSE_TIMEOUT_MS", "750")
	t.Setenv("PRETOOL_AST_ONLY", "1")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, SensitivityHigh, cfg.Sensitivity)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, append(append([]string(nil), DefaultAllowlist...), "fake_", "placeholder_"), cfg.AllowlistVars)
	assert.Equal(t, []string{"**/*.pb.go", "legacy/**"}, cfg.IgnoreGlobs)
	assert.True(t, cfg.Hooks.Timings)
	assert.True(t, cfg.Hooks.PretoolASTOnly)
	assert.False(t, cfg.Hooks.QuickTips)
	assert.Equal(t, 10, cfg.Hooks.SoftBudgetBytes)
	assert.Equal(t, 10, cfg.Hooks.NestedSoftBudgetBytes, "explicit budget applies to nested files too")
	assert.Equal(t, 2500, cfg.Hooks.ContextLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.Hooks.ParseTimeout)
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	p := writeConfigFile(t, dir, `{
  "sensitivity": "low",
  "allowlist_vars": ["fixture_"],
  "ignore_globs": ["generated/**"],
  "quick_tips_max": 3
}`)
	t.Setenv("SENSITIVITY", "high")
	t.Setenv("AST_ALLOWLIST_VARS", "fromenv_")
	t.Setenv("QUICK_TIPS_MAX", "9")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, p, cfg.Source)
	assert.Equal(t, SensitivityLow, cfg.Sensitivity, "file beats env")
	assert.Contains(t, cfg.AllowlistVars, "fixture_")
	assert.NotContains(t, cfg.AllowlistVars, "fromenv_")
	assert.Contains(t, cfg.AllowlistVars, "mock_", "file entries add to defaults")
	assert.Equal(t, []string{"generated/**"}, cfg.IgnoreGlobs)
	assert.Equal(t, 3, cfg.Hooks.QuickTipsMax)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"environment": "test"}`), 0o644))
	t.Setenv("HOOKS_CONFIG_FILE", p)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Source)
	assert.True(t, cfg.IsTestEnvironment())
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, `{"sensitivity": `)
	t.Setenv("SENSITIVITY", "high")

	cfg, err := Load(dir)
	require.Error(t, err)
	require.NotNil(t, cfg, "config must stay usable")
	assert.Equal(t, SensitivityHigh, cfg.Sensitivity, "env still applies")
	assert.Empty(t, cfg.Source)

	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestValidate_Clamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensitivity = "paranoid"
	cfg.Hooks.ContextLimit = 50
	cfg.Hooks.QuickTipsMax = 0
	cfg.Hooks.DiffContext = 99
	cfg.Hooks.ParseTimeout = time.Millisecond
	cfg.Hooks.SoftBudgetBytes = -1

	errs := cfg.Validate()
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
		assert.Contains(t, e.Error(), "config error in field")
	}

	assert.True(t, fields["sensitivity"])
	assert.True(t, fields["userprompt_context_limit"])
	assert.True(t, fields["quick_tips_max"])
	assert.True(t, fields["diff_context"])
	assert.True(t, fields["parse_timeout_ms"])
	assert.True(t, fields["soft_budget_bytes"])

	assert.Equal(t, SensitivityMedium, cfg.Sensitivity)
	assert.Equal(t, MinContextLimit, cfg.Hooks.ContextLimit)
	assert.Equal(t, 1, cfg.Hooks.QuickTipsMax)
	assert.Equal(t, 20, cfg.Hooks.DiffContext)
	assert.Equal(t, DefaultParseTimeout, cfg.Hooks.ParseTimeout)
	assert.Equal(t, DefaultSoftBudget, cfg.Hooks.SoftBudgetBytes)

	cfg.Hooks.ContextLimit = 100000
	cfg.Validate()
	assert.Equal(t, MaxContextLimit, cfg.Hooks.ContextLimit)
}

func TestGateSeverity(t *testing.T) {
	tests := []struct {
		s    Sensitivity
		want quality.Severity
	}{
		{SensitivityLow, quality.Critical},
		{SensitivityMedium, quality.Critical},
		{SensitivityHigh, quality.Major},
	}
	for _, tt := range tests {
		s := Settings{Sensitivity: tt.s}
		assert.Equal(t, tt.want, s.GateSeverity(), "sensitivity %s", tt.s)
	}
}

func TestIsTestPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"tests/test_auth.py", true},
		{"pkg/tests/helpers.py", true},
		{"src/__tests__/app.js", true},
		{"spec/models/user_spec.rb", true},
		{"internal/config/config_test.go", true},
		{"src/app.spec.ts", true},
		{"src/app.test.tsx", true},
		{"test_login.py", true},
		{"src\\test\\java\\AppTest.java", true},
		{"src/main.py", false},
		{"src/contest/entry.py", false},
		{"src/latest.go", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTestPath(tt.path), "IsTestPath(%q)", tt.path)
	}
}

func TestIsTestContext_EnvironmentWins(t *testing.T) {
	s := Settings{Sensitivity: SensitivityHigh, Environment: "test"}
	assert.True(t, s.IsTestContext("src/main.py"))

	s.Environment = ""
	assert.False(t, s.IsTestContext("src/main.py"))
	assert.True(t, s.IsTestContext("tests/main.py"))
}

func TestIsAllowlisted(t *testing.T) {
	s := DefaultConfig().Settings
	s.AllowlistVars = append(s.AllowlistVars, "fake_")

	assert.True(t, s.IsAllowlisted("test_password"))
	assert.True(t, s.IsAllowlisted("EXAMPLE_API_KEY"))
	assert.True(t, s.IsAllowlisted("$mock_token"))
	assert.True(t, s.IsAllowlisted("fake_secret"))
	assert.False(t, s.IsAllowlisted("password"))
	assert.False(t, s.IsAllowlisted("db_password"))
}

func TestShouldIgnorePath(t *testing.T) {
	s := Settings{IgnoreGlobs: []string{"**/*.min.js", "generated/**"}}

	assert.True(t, s.ShouldIgnorePath("static/app.min.js"))
	assert.True(t, s.ShouldIgnorePath("generated/api/client.ts"))
	assert.True(t, s.ShouldIgnorePath("node_modules/lib/index.js"))
	assert.False(t, s.ShouldIgnorePath("src/app.js"))
	assert.False(t, s.ShouldIgnorePath(""))
}
