package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("FLAMED_CONFIG_DIR", "")
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	for _, k := range []string{
		"FLAMED_BASE_URL", "FLAMED_USER_AGENT", "FLAMED_COOKIE", "FLAMED_COOKIE_FILE",
		"FLAMED_TRAVERSAL_PATH", "FLAMED_BIND_ADDR", "FLAMED_REQUESTS_PER_SECOND",
		"FLAMED_TIMEOUT_SECONDS", "FLAMED_ATTEMPTS", "FLAMED_DEBUG", "FLAMED_CLOUDFLARE_TRANSPORT",
	} {
		t.Setenv(k, "")
	}

	return dir
}

func TestLoadMergedDefaults(t *testing.T) {
	isolate(t)

	cfg, src, err := LoadMerged(Options{})
	require.NoError(t, err)
	assert.Contains(t, src, "default config in memory")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergedPrecedence(t *testing.T) {
	dir := isolate(t)

	path, err := InitDefaultConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flamed", "configs", "Default.yaml"), path)

	profile := DefaultConfig()
	profile.BaseURL = "https://mirror.example/"
	profile.Attempts = 2
	profile.TimeoutSeconds = 20
	require.NoError(t, SaveYAML(profile, path))

	t.Setenv("FLAMED_ATTEMPTS", "4")
	t.Setenv("FLAMED_DEBUG", "true")
	t.Setenv("FLAMED_TRAVERSAL_PATH", "/ab12cd/")

	cfg, src, err := LoadMerged(Options{TimeoutSeconds: 3})
	require.NoError(t, err)

	assert.Equal(t, path, src)
	assert.Equal(t, "https://mirror.example", cfg.BaseURL)
	assert.Equal(t, 4, cfg.Attempts)
	assert.Equal(t, 3, cfg.TimeoutSeconds)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "ab12cd", cfg.TraversalPath)
	assert.Equal(t, float64(DefaultRequestsPerSecond), cfg.RequestsPerSecond)
}

func TestLoadMergedIgnoreConfig(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig(nil)
	require.NoError(t, err)
	profile := DefaultConfig()
	profile.BindAddr = ":9999"
	require.NoError(t, SaveYAML(profile, path))

	cfg, src, err := LoadMerged(Options{IgnoreConfig: true})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", src)
	assert.Equal(t, DefaultBindAddr, cfg.BindAddr)
}

func TestLoadMergedBadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("FLAMED_REQUESTS_PER_SECOND", "fast")

	_, _, err := LoadMerged(Options{})
	assert.ErrorContains(t, err, "FLAMED_REQUESTS_PER_SECOND")
}

func TestProfileLifecycle(t *testing.T) {
	isolate(t)

	_, err := CurrentLabel()
	assert.ErrorIs(t, err, ErrNoConfig)

	_, err = InitDefaultConfig(nil)
	require.NoError(t, err)
	_, err = InitDefaultConfig(nil)
	assert.ErrorIs(t, err, ErrProfileExists)

	mirror := DefaultConfig()
	mirror.BaseURL = "https://mirror.example"
	_, err = CreateConfig("mirror", mirror)
	require.NoError(t, err)
	_, err = CreateConfig("mirror", nil)
	assert.ErrorIs(t, err, ErrProfileExists)

	require.NoError(t, SwitchConfig("mirror"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "mirror", label)

	require.NoError(t, RenameConfig("mirror", "backup"))
	label, _ = CurrentLabel()
	assert.Equal(t, "backup", label)

	path, err := ConfigPathByLabel("backup")
	require.NoError(t, err)
	assert.FileExists(t, path)
	_, err = ConfigPathByLabel("mirror")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.Equal(t, DefaultBaseURL, list[0].BaseURL)
	assert.Equal(t, "backup", list[1].Label)
	assert.Equal(t, "https://mirror.example", list[1].BaseURL)
	assert.True(t, list[1].Active)

	switched, err := RemoveConfig("backup")
	require.NoError(t, err)
	assert.True(t, switched)
	label, _ = CurrentLabel()
	assert.Equal(t, "Default", label)

	_, err = RemoveConfig("Default")
	assert.Error(t, err)
}

func TestLabelsStayInsideConfigDir(t *testing.T) {
	isolate(t)

	for _, bad := range []string{"", "../escape", "a/b", `a\b`, "..", ".hidden", "with space"} {
		_, err := CreateConfig(bad, nil)
		assert.ErrorIs(t, err, ErrBadLabel, bad)
	}

	_, err := InitDefaultConfig(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, RenameConfig("Default", "../Default"), ErrBadLabel)
	assert.ErrorIs(t, SwitchConfig("../../etc/passwd"), ErrBadLabel)
}

func TestAddConfigRejectsBrokenYAML(t *testing.T) {
	dir := isolate(t)

	src := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(src, []byte("base_url: [unterminated"), 0o644))

	assert.Error(t, AddConfig("broken", src))
	_, err := ConfigPathByLabel("broken")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestListConfigsReportsUnreadableProfile(t *testing.T) {
	isolate(t)

	path, err := CreateConfig("mangled", nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("attempts: [nope"), 0o644))

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].Err)
	assert.Contains(t, list[0].String(), "unreadable")
}

func TestResetConfigKeepAuth(t *testing.T) {
	isolate(t)

	profile := DefaultConfig()
	profile.BaseURL = "https://mirror.example"
	profile.Attempts = 9
	profile.Cookie = "cf_clearance=abc"
	profile.UserAgent = "Firefox/1"
	path, err := CreateConfig("work", profile)
	require.NoError(t, err)

	_, err = ResetConfig("work", true)
	require.NoError(t, err)
	got, err := loadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, got.BaseURL)
	assert.Equal(t, DefaultAttempts, got.Attempts)
	assert.Equal(t, "cf_clearance=abc", got.Cookie)
	assert.Equal(t, "Firefox/1", got.UserAgent)

	_, err = ResetConfig("work", false)
	require.NoError(t, err)
	got, err = loadYAML(path)
	require.NoError(t, err)
	assert.Empty(t, got.Cookie)
	assert.Empty(t, got.UserAgent)
}
