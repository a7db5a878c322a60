package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tcriess/lightspeed-rooms/globals"
)

const (
	defaultHistorySize   = 1000
	defaultReplaySize    = 50
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepSchedule = "@hourly"
	defaultRoomIdLength  = 10
	defaultEvictionGrace = time.Minute
	defaultLogLevel      = "INFO"
)

// Config is the global configuration object which is filled via the
// configuration file, environment variables (prefix LSROOMS) and flags.
type Config struct {
	HistoryConfig HistoryConfig `mapstructure:"history"`
	SessionConfig SessionConfig `mapstructure:"session"`
	RoomConfig    RoomConfig    `mapstructure:"room"`
	LogLevel      string        `mapstructure:"log_level"`
}

// HistoryConfig bounds the per-room message history kept in memory and the
// number of entries replayed to a new joiner. The replay size has to stay
// well below a connection's outbound buffer or the burst gets truncated.
type HistoryConfig struct {
	HistorySize int `mapstructure:"history_size"`
	ReplaySize  int `mapstructure:"replay_size"`
}

// SessionConfig sets the sliding session TTL and the cron schedule of the
// expired-session sweep. An empty schedule disables the sweep, expiry then
// relies on the lazy check alone.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// RoomConfig sets the generated room id length and the grace period an
// empty room survives before eviction.
type RoomConfig struct {
	IdLength      int           `mapstructure:"id_length"`
	EvictionGrace time.Duration `mapstructure:"eviction_grace"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.StringP("log-level", "l", "", "log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath, which can either point to a single TOML
// file or to a directory, in which case all *.toml files in this directory are concatenated. It returns a Config
// object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("history.history_size", defaultHistorySize)
	viper.SetDefault("history.replay_size", defaultReplaySize)
	viper.SetDefault("session.ttl", defaultSessionTTL)
	viper.SetDefault("session.sweep_schedule", defaultSweepSchedule)
	viper.SetDefault("room.id_length", defaultRoomIdLength)
	viper.SetDefault("room.eviction_grace", defaultEvictionGrace)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("LSROOMS")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}
