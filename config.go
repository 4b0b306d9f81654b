package ping

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Host of the runtime API, usually a socat proxy in front of the docker socket.
	Host       string
	APIVersion string
	Timeout    time.Duration

	// Interface is the only network interface read from the stats document.
	Interface   string
	OffsetHours int
	Location    *time.Location
	// Runtime names the environment in the fallback message.
	Runtime string

	// Dev reads inspect.json and stats.json from FixtureDir instead of the API.
	Dev        bool
	FixtureDir string
}

func DefaultConfig() Config {
	return Config{
		Host:        "tcp://socat:2375",
		Timeout:     10 * time.Second,
		Interface:   "eth0",
		OffsetHours: 8,
		Location:    time.Local,
		Runtime:     "docker container",
		FixtureDir:  ".",
	}
}

// ConfigFromEnv overlays PING_* environment variables on DefaultConfig.
// Unparseable numbers and durations keep the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v, isSet := os.LookupEnv("PING_DOCKER_HOST"); isSet && v != "" {
		cfg.Host = v
	}

	if v, isSet := os.LookupEnv("PING_DOCKER_API_VERSION"); isSet {
		cfg.APIVersion = v
	}

	if v, isSet := os.LookupEnv("PING_INTERFACE"); isSet && v != "" {
		cfg.Interface = v
	}

	if v, isSet := os.LookupEnv("PING_OFFSET_HOURS"); isSet {
		if hours, err := strconv.Atoi(v); err == nil {
			cfg.OffsetHours = hours
		} else {
			slog.Warn("ignoring invalid offset", "value", v, "error", err)
		}
	}

	if v, isSet := os.LookupEnv("PING_RUNTIME"); isSet && v != "" {
		cfg.Runtime = v
	}

	if v, isSet := os.LookupEnv("PING_TIMEOUT"); isSet {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		} else {
			slog.Warn("ignoring invalid timeout", "value", v, "error", err)
		}
	}

	cfg.Dev = os.Getenv("PING_ENV") == "dev"

	if v, isSet := os.LookupEnv("PING_FIXTURE_DIR"); isSet && v != "" {
		cfg.FixtureDir = v
	}

	return cfg
}
