package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/version"

	z "github.com/Oudwins/zog"
)

type Config struct {
	Version   string          `json:"-"`
	Server    ServerConfig    `json:"server" zog:"server"`
	Simulator SimulatorConfig `json:"simulator" zog:"simulator"`
	Client    ClientConfig    `json:"client" zog:"client"`
	TUI       TUIConfig       `json:"tui" zog:"tui"`
}

type ServerConfig struct {
	DataDir    string `json:"data_dir" zog:"data_dir"`
	ReplyDelay string `json:"reply_delay" zog:"reply_delay"`
	ReplyModel string `json:"reply_model" zog:"reply_model"`
}

type SimulatorConfig struct {
	MinStep int `json:"min_step" zog:"min_step"`
	MaxStep int `json:"max_step" zog:"max_step"`
}

type ClientConfig struct {
	RequestTimeout string `json:"request_timeout" zog:"request_timeout"`
}

type TUIConfig struct {
	PollInterval string `json:"poll_interval" zog:"poll_interval"`
	GlamourStyle string `json:"glamour_style" zog:"glamour_style"`
}

func (c ServerConfig) ReplyDelayDuration() time.Duration {
	return mustDuration(c.ReplyDelay)
}

func (c ClientConfig) RequestTimeoutDuration() time.Duration {
	return mustDuration(c.RequestTimeout)
}

func (c TUIConfig) PollIntervalDuration() time.Duration {
	return mustDuration(c.PollInterval)
}

var serverSchema = z.Struct(z.Shape{
	"DataDir":    z.String().Default("~/.poco").Transform(expandPathTransform),
	"ReplyDelay": z.String().Default("1500ms").TestFunc(isDurationTest, z.Message("reply_delay is not a duration")),
	"ReplyModel": z.String().Default("claude-sonnet-4.5"),
})

var simulatorSchema = z.Struct(z.Shape{
	"MinStep": z.Int().Default(8).GTE(1),
	"MaxStep": z.Int().Default(20).LTE(100),
})

var clientSchema = z.Struct(z.Shape{
	"RequestTimeout": z.String().Default("5s").TestFunc(isDurationTest, z.Message("request_timeout is not a duration")),
})

var tuiSchema = z.Struct(z.Shape{
	"PollInterval": z.String().Default("2s").TestFunc(isDurationTest, z.Message("poll_interval is not a duration")),
	"GlamourStyle": z.String().Default("dark").OneOf([]string{"dark", "light", "notty", "ascii", "pink", "dracula"}),
})

var ConfigSchema = z.Struct(z.Shape{
	"server":    serverSchema,
	"simulator": simulatorSchema,
	"client":    clientSchema,
	"TUI":       tuiSchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Poco] Failed to parse config", err)
		}
		defaults.Version = version.Version()
		if dir := env.Get().DATA_DIR; dir != "" {
			defaults.Server.DataDir = filepath.Clean(dir)
		}

		configPath := filepath.Join(filepath.Clean(defaults.Server.DataDir), "poco.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Poco] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Poco] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Poco] Failed to parse config", err)
		}
		if dir := env.Get().DATA_DIR; dir != "" {
			parsed.Server.DataDir = filepath.Clean(dir)
		}
		if parsed.Simulator.MinStep > parsed.Simulator.MaxStep {
			parsed.Simulator.MinStep = parsed.Simulator.MaxStep
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

// Reset forgets the loaded config so the next GetConfig re-reads it.
func Reset() {
	config = nil
}

func isDurationTest(valPtr *string, ctx z.Ctx) bool {
	_, err := time.ParseDuration(*valPtr)
	return err == nil
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := ExpandPath(*ptr)
	*ptr = expanded
	return err
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
