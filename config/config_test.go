package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/mnk/board"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load(nil))

	shape, err := cfg.BoardShape()
	require.NoError(t, err)
	assert.Equal(t, board.Shape{Width: 3, Height: 3, K: 3}, shape)
	assert.False(t, cfg.GetBool(ConfigTranspositionTable))
	assert.True(t, cfg.GetBool(ConfigAutoscore))
	assert.InDelta(t, 0.05, cfg.GetFloat64(ConfigTTableMemFraction), 1e-9)
	tokens, err := cfg.Tokens()
	require.NoError(t, err)
	assert.Equal(t, [2]string{"X", "O"}, tokens)
	assert.Empty(t, cfg.Args())
}

func TestFlagsAndArgs(t *testing.T) {
	isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--width", "4", "--k-in-row=2", "--transposition-table", "new", "5"}))
	assert.Equal(t, 4, cfg.GetInt(ConfigWidth))
	assert.Equal(t, 3, cfg.GetInt(ConfigHeight))
	assert.Equal(t, 2, cfg.GetInt(ConfigKInRow))
	assert.True(t, cfg.GetBool(ConfigTranspositionTable))
	assert.Equal(t, []string{"new", "5"}, cfg.Args())
}

func TestPrecedence(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".mnk")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yaml := "width: 5\nheight: 5\nk-in-row: 4\ntokens: A,B\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("MNK_HEIGHT", "6")
	t.Setenv("MNK_K_IN_ROW", "3")

	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--k-in-row", "2"}))
	// file beats defaults
	assert.Equal(t, 5, cfg.GetInt(ConfigWidth))
	assert.Equal(t, "A,B", cfg.GetString(ConfigTokens))
	// env beats file
	assert.Equal(t, 6, cfg.GetInt(ConfigHeight))
	// flags beat env
	assert.Equal(t, 2, cfg.GetInt(ConfigKInRow))
}

func TestMissingExplicitConfigFile(t *testing.T) {
	home := isolate(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--config", filepath.Join(home, "nope.yaml")})
	assert.Error(t, err)
}

func TestBadFlag(t *testing.T) {
	isolate(t)
	cfg := &Config{}
	assert.Error(t, cfg.Load([]string{"--no-such-flag"}))
}

func TestInvalidShape(t *testing.T) {
	isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--width", "9", "--height", "9"}))
	_, err := cfg.BoardShape()
	assert.True(t, errors.Is(err, board.ErrInvalidShape))
}

func TestParseTokens(t *testing.T) {
	for _, s := range []string{"X", "X,X", ",O", "a,b,c", ""} {
		_, err := ParseTokens(s)
		assert.ErrorIs(t, err, ErrBadTokens, s)
	}
	tok, err := ParseTokens(" 🔴 , 🔵 ")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"🔴", "🔵"}, tok)
}

func TestAdjustRelativePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Set(ConfigDBPath, "results.db")
	cfg.Set(ConfigHistoryFile, "/tmp/hist")
	cfg.AdjustRelativePaths("/home/someone")
	assert.Equal(t, "/home/someone/results.db", cfg.GetString(ConfigDBPath))
	assert.Equal(t, "/tmp/hist", cfg.GetString(ConfigHistoryFile))
	assert.Equal(t, "", cfg.GetString(ConfigCPUProfile))
}

func TestWriteAndReload(t *testing.T) {
	home := isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load(nil))
	cfg.Persist(ConfigTokens, "A,B")
	cfg.Persist(ConfigTranspositionTable, true)
	require.NoError(t, cfg.Write())
	assert.FileExists(t, filepath.Join(home, ".mnk", "config.yaml"))

	again := &Config{}
	require.NoError(t, again.Load(nil))
	assert.Equal(t, "A,B", again.GetString(ConfigTokens))
	assert.True(t, again.GetBool(ConfigTranspositionTable))
}

func TestWriteSkipsOneOffFlags(t *testing.T) {
	isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--width", "4", "--cpu-profile", "cpu.prof", "--db-path", "results.db"}))
	cfg.AdjustRelativePaths("/somewhere")
	assert.Equal(t, "/somewhere/cpu.prof", cfg.GetString(ConfigCPUProfile))
	cfg.Persist(ConfigAutoscore, false)
	require.NoError(t, cfg.Write())

	again := &Config{}
	require.NoError(t, again.Load(nil))
	assert.False(t, again.GetBool(ConfigAutoscore))
	assert.Equal(t, 3, again.GetInt(ConfigWidth))
	assert.Equal(t, "", again.GetString(ConfigCPUProfile))
	assert.Equal(t, "", again.GetString(ConfigDBPath))
}

func TestWriteKeepsFileContents(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".mnk")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yaml := "height: 5\ntokens: \"A,B\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--height", "4"}))
	assert.Equal(t, 4, cfg.GetInt(ConfigHeight))
	cfg.Persist(ConfigTokens, "C,D")
	require.NoError(t, cfg.Write())

	again := &Config{}
	require.NoError(t, again.Load(nil))
	assert.Equal(t, 5, again.GetInt(ConfigHeight))
	assert.Equal(t, "C,D", again.GetString(ConfigTokens))
}

func TestWriteWithoutPersistedKeys(t *testing.T) {
	home := isolate(t)
	cfg := &Config{}
	require.NoError(t, cfg.Load([]string{"--width", "4"}))
	require.NoError(t, cfg.Write())
	assert.NoFileExists(t, filepath.Join(home, ".mnk", "config.yaml"))
}

func TestDefaultConfigNeverWrites(t *testing.T) {
	home := isolate(t)
	cfg := DefaultConfig()
	cfg.Persist(ConfigAutoscore, false)
	require.NoError(t, cfg.Write())
	assert.NoFileExists(t, filepath.Join(home, ".mnk", "config.yaml"))
}
