package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix is prepended to every key when reading the environment,
// e.g. WORKOUT_TIMER_TICK_INTERVAL.
const EnvPrefix = "WORKOUT_TIMER"

// Flag names double as config file and environment keys
const (
	KeyConfig            = "config"
	KeyLogFile           = "log-file"
	KeyLogMaxSizeMB      = "log-max-size-mb"
	KeyLogMaxBackups     = "log-max-backups"
	KeyLogMaxAgeDays     = "log-max-age-days"
	KeyTickInterval      = "tick-interval"
	KeyPausePollInterval = "pause-poll-interval"
	KeyPreset            = "preset"
	KeyWork              = "work"
	KeyRest              = "rest"
	KeyReps              = "reps"
	KeyPresetsFile       = "presets-file"
	KeyCustomTTL         = "custom-ttl"
	KeyHeadless          = "headless"
)

// Bounds shared with the setup screen
const (
	MinWork = 5 * time.Second
	MaxWork = time.Hour
	MinRest = time.Duration(0)
	MaxRest = 3 * time.Minute
	MinReps = 1
	MaxReps = 60
)

type Config struct {
	ConfigFile string `mapstructure:"config"`

	LogFile       string `mapstructure:"log-file"`
	LogMaxSizeMB  int    `mapstructure:"log-max-size-mb"`
	LogMaxBackups int    `mapstructure:"log-max-backups"`
	LogMaxAgeDays int    `mapstructure:"log-max-age-days"`

	TickInterval      time.Duration `mapstructure:"tick-interval"`
	PausePollInterval time.Duration `mapstructure:"pause-poll-interval"`

	Preset      string        `mapstructure:"preset"`
	Work        time.Duration `mapstructure:"work"`
	Rest        time.Duration `mapstructure:"rest"`
	Reps        int           `mapstructure:"reps"`
	PresetsFile string        `mapstructure:"presets-file"`
	CustomTTL   time.Duration `mapstructure:"custom-ttl"`

	Headless bool `mapstructure:"headless"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		LogFile:           "workout_timer.log",
		LogMaxSizeMB:      10,
		LogMaxBackups:     3,
		LogMaxAgeDays:     28,
		TickInterval:      time.Second,
		PausePollInterval: 500 * time.Millisecond,
		Preset:            "Custom",
		Work:              45 * time.Second,
		Rest:              15 * time.Second,
		Reps:              1,
	}
}

// NewFlagSet declares every option with its default value
func NewFlagSet(name string) *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.StringP(KeyConfig, "c", "", "YAML config file (default: ./workout-timer.yaml or ~/.config/workout-timer/workout-timer.yaml)")
	fs.String(KeyLogFile, d.LogFile, "log file path")
	fs.Int(KeyLogMaxSizeMB, d.LogMaxSizeMB, "rotate the log file after this many megabytes")
	fs.Int(KeyLogMaxBackups, d.LogMaxBackups, "rotated log files to keep")
	fs.Int(KeyLogMaxAgeDays, d.LogMaxAgeDays, "days to keep rotated log files")
	fs.Duration(KeyTickInterval, d.TickInterval, "wall time per one-second tick")
	fs.Duration(KeyPausePollInterval, d.PausePollInterval, "how often a paused run re-checks for resume")
	fs.StringP(KeyPreset, "p", d.Preset, "preset to load at startup")
	fs.DurationP(KeyWork, "w", d.Work, "work interval for the Custom preset")
	fs.DurationP(KeyRest, "r", d.Rest, "rest interval for the Custom preset")
	fs.IntP(KeyReps, "n", d.Reps, "rounds")
	fs.String(KeyPresetsFile, "", "YAML file with extra presets")
	fs.Duration(KeyCustomTTL, 0, "how long edited custom work/rest values are remembered (0 = forever)")
	fs.Bool(KeyHeadless, false, "run the workout once without the terminal UI")

	return fs
}

// Load parses args and merges flags, environment, config file and defaults,
// in that order of precedence. A config file passed with --config must
// exist; the default search locations are optional.
func Load(args []string) (Config, error) {
	fs := NewFlagSet("workout_timer")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("workout-timer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "workout-timer"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate checks ranges; the error wraps ErrInvalidConfig
func (c Config) Validate() error {
	var problems []string

	if c.TickInterval <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive, got %s", KeyTickInterval, c.TickInterval))
	}
	if c.PausePollInterval <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive, got %s", KeyPausePollInterval, c.PausePollInterval))
	}
	if c.Work < MinWork || c.Work > MaxWork {
		problems = append(problems, fmt.Sprintf("%s must be within [%s, %s], got %s", KeyWork, MinWork, MaxWork, c.Work))
	}
	if c.Rest < MinRest || c.Rest > MaxRest {
		problems = append(problems, fmt.Sprintf("%s must be within [%s, %s], got %s", KeyRest, MinRest, MaxRest, c.Rest))
	}
	if c.Reps < MinReps || c.Reps > MaxReps {
		problems = append(problems, fmt.Sprintf("%s must be within [%d, %d], got %d", KeyReps, MinReps, MaxReps, c.Reps))
	}
	if strings.TrimSpace(c.Preset) == "" {
		problems = append(problems, fmt.Sprintf("%s cannot be empty", KeyPreset))
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		problems = append(problems, "log rotation limits cannot be negative")
	}
	if c.CustomTTL < 0 {
		problems = append(problems, fmt.Sprintf("%s cannot be negative", KeyCustomTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
