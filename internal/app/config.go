package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"siegefall/server/logging"
)

// Config is the server's runtime configuration. Defaults suit local play;
// every field has an environment override.
type Config struct {
	Addr            string
	CampaignDir     string
	TickRate        int
	Seed            int64
	Workers         int
	OutboxCapacity  int
	VisionFiltering bool
	Logging         logging.Config
}

func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		CampaignDir: "data/campaign",
		TickRate:    10,
		Logging:     logging.DefaultConfig(),
	}
}

// ConfigFromEnv starts from the defaults and applies SIEGEFALL_* overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SIEGEFALL_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SIEGEFALL_CAMPAIGN_DIR"); v != "" {
		cfg.CampaignDir = v
	}
	if v, ok := envInt("SIEGEFALL_TICK_RATE"); ok {
		cfg.TickRate = v
	}
	if v, ok := envInt("SIEGEFALL_WORKERS"); ok {
		cfg.Workers = v
	}
	if v, ok := envInt("SIEGEFALL_OUTBOX_CAPACITY"); ok {
		cfg.OutboxCapacity = v
	}
	if v := os.Getenv("SIEGEFALL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if v := os.Getenv("SIEGEFALL_VISION_FILTER"); v != "" {
		cfg.VisionFiltering = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SIEGEFALL_LOG_SINKS"); v != "" {
		cfg.Logging.EnabledSinks = strings.Split(v, ",")
	}
	if v := os.Getenv("SIEGEFALL_LOG_JSON_PATH"); v != "" {
		cfg.Logging.JSON.FilePath = v
	}
	if v := os.Getenv("SIEGEFALL_LOG_SEVERITY"); v != "" {
		cfg.Logging.MinimumSeverity = parseSeverity(v, cfg.Logging.MinimumSeverity)
	}
	if v, ok := envInt("SIEGEFALL_LOG_BUFFER"); ok {
		cfg.Logging.BufferSize = v
	}
	if v := os.Getenv("SIEGEFALL_LOG_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Logging.JSON.FlushInterval = d
		}
	}
	return cfg
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseSeverity(v string, fallback logging.Severity) logging.Severity {
	switch strings.ToLower(v) {
	case "debug":
		return logging.SeverityDebug
	case "info":
		return logging.SeverityInfo
	case "warn", "warning":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return fallback
	}
}
