package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/mnk/board"
)

const (
	ConfigWidth              = "width"
	ConfigHeight             = "height"
	ConfigKInRow             = "k-in-row"
	ConfigTokens             = "tokens"
	ConfigDebug              = "debug"
	ConfigCPUProfile         = "cpu-profile"
	ConfigMemProfile         = "mem-profile"
	ConfigTranspositionTable = "transposition-table"
	ConfigTTableMemFraction  = "ttable-mem-fraction"
	ConfigHistoryFile        = "history-file"
	ConfigDBPath             = "db-path"
	ConfigRedisURL           = "redis-url"
	ConfigThreads            = "threads"
	ConfigAutoscore          = "autoscore"
	ConfigFile               = "config"
)

var ErrBadTokens = errors.New("tokens must be two distinct non-empty strings separated by a comma")

// Config is a viper instance with our defaults, config file, MNK_
// environment variables and command-line flags layered on, in increasing
// order of precedence.
type Config struct {
	*viper.Viper
	configFile string
	args       []string
	// persisted holds the settings Write saves on top of the file.
	persisted map[string]any
}

// DefaultConfig returns a configuration with only the defaults set. It is
// never written to disk.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	setDefaults(c.Viper)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigWidth, 3)
	v.SetDefault(ConfigHeight, 3)
	v.SetDefault(ConfigKInRow, 3)
	v.SetDefault(ConfigTokens, "X,O")
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigTranspositionTable, false)
	v.SetDefault(ConfigTTableMemFraction, 0.05)
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigAutoscore, true)
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mnk", pflag.ContinueOnError)
	fs.Int(ConfigWidth, 3, "board width (columns)")
	fs.Int(ConfigHeight, 3, "board height (rows)")
	fs.Int(ConfigKInRow, 3, "number in a row needed to win")
	fs.String(ConfigTokens, "X,O", "display tokens for the first and second player")
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "file to write a CPU profile to")
	fs.String(ConfigMemProfile, "", "file to write a memory profile to")
	fs.Bool(ConfigTranspositionTable, false, "use a transposition table while solving")
	fs.Float64(ConfigTTableMemFraction, 0.05, "fraction of system memory the transposition table may use")
	fs.String(ConfigHistoryFile, "", "readline history file")
	fs.String(ConfigDBPath, "", "sqlite database to archive analyses in")
	fs.String(ConfigRedisURL, "", "redis URL of the score cache used by batch analysis")
	fs.Int(ConfigThreads, runtime.NumCPU(), "number of positions to analyze at once")
	fs.Bool(ConfigAutoscore, true, "show move scores after every move")
	fs.String(ConfigFile, "", "config file (default $HOME/.mnk/config.yaml)")
	return fs
}

// Load reads the configuration. args are the command-line arguments
// without the program name; Args returns whatever is left over after flags
// are parsed.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	setDefaults(c.Viper)

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Only flags given on the command line should take precedence over the
	// config file and environment.
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			c.Set(f.Name, f.Value.String())
		}
	})
	c.args = fs.Args()

	c.SetEnvPrefix("mnk")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.configFile, _ = fs.GetString(ConfigFile)
	explicit := c.configFile != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			c.configFile = filepath.Join(home, ".mnk", "config.yaml")
		}
	}
	if c.configFile == "" {
		return nil
	}
	c.SetConfigFile(c.configFile)
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("reading config file %s: %w", c.configFile, err)
		}
		log.Debug().Str("path", c.configFile).Msg("no-config-file")
	}
	return nil
}

// Args returns the positional command-line arguments.
func (c *Config) Args() []string {
	return c.args
}

// SanitizedSettings returns the settings that are worth logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	delete(settings, ConfigFile)
	for k, v := range settings {
		if s, ok := v.(string); ok && s == "" {
			delete(settings, k)
		}
	}
	return settings
}

// AdjustRelativePaths makes relative file paths relative to basepath.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigHistoryFile, ConfigDBPath, ConfigCPUProfile, ConfigMemProfile} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}

// Persist sets key and marks it to be saved by the next Write. Settings
// that only came from flags or the environment are never written.
func (c *Config) Persist(key string, value any) {
	c.Set(key, value)
	if c.persisted == nil {
		c.persisted = make(map[string]any)
	}
	c.persisted[key] = value
}

// Write saves the persisted settings to the config file, if there is one,
// keeping whatever else the file already holds.
func (c *Config) Write() error {
	if c.configFile == "" || len(c.persisted) == 0 {
		return nil
	}
	out := viper.New()
	out.SetConfigFile(c.configFile)
	if err := out.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("reading config file %s: %w", c.configFile, err)
		}
	}
	for k, v := range c.persisted {
		out.Set(k, v)
	}
	if err := os.MkdirAll(filepath.Dir(c.configFile), 0o755); err != nil {
		return err
	}
	if err := out.WriteConfigAs(c.configFile); err != nil {
		return fmt.Errorf("writing config file %s: %w", c.configFile, err)
	}
	log.Info().Str("path", c.configFile).Int("keys", len(c.persisted)).Msg("wrote-config")
	return nil
}

// BoardShape returns the configured board shape.
func (c *Config) BoardShape() (board.Shape, error) {
	return board.NewShape(c.GetInt(ConfigWidth), c.GetInt(ConfigHeight), c.GetInt(ConfigKInRow))
}

// Tokens returns the display tokens of the first and second player.
func (c *Config) Tokens() ([2]string, error) {
	return ParseTokens(c.GetString(ConfigTokens))
}

// ParseTokens parses a "X,O" style token pair.
func ParseTokens(s string) ([2]string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]string{}, fmt.Errorf("%w: %q", ErrBadTokens, s)
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" || a == b {
		return [2]string{}, fmt.Errorf("%w: %q", ErrBadTokens, s)
	}
	return [2]string{a, b}, nil
}
