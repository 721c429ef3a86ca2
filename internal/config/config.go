// Package config loads and validates the engine's environment-variable
// configuration once at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

const envPrefix = "NETBOX_PDNS_"

// Config is the engine's fully validated runtime configuration. It is
// populated once in main and passed by value/pointer to constructors; there
// is no late binding or re-read of the environment after startup.
type Config struct {
	APIKey        string
	WebhookSecret string

	NetboxURL   string
	NetboxToken string
	NameserverID int

	PowerDNSURL      string
	PowerDNSToken    string
	PowerDNSServerID string

	SyncCrontab string
	LogLevel    slog.Level

	ManagedTypes domain.ManagedTypeSet

	MQTTEnabled        bool
	MQTTBrokerURL      string
	MQTTClientID       string
	MQTTTopicPrefix    string
	MQTTQoS            byte
	MQTTKeepAlive      int
	MQTTReconnectDelay int
	MQTTUsername       string
	MQTTPassword       string
}

// Load reads and validates configuration from the process environment.
// Validation errors are fatal at startup, wrapped in domain.ErrConfigInvalid.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:           os.Getenv(envPrefix + "API_KEY"),
		WebhookSecret:    os.Getenv(envPrefix + "WEBHOOK_SECRET"),
		NetboxURL:        os.Getenv(envPrefix + "NB_URL"),
		NetboxToken:      os.Getenv(envPrefix + "NB_TOKEN"),
		PowerDNSURL:      os.Getenv(envPrefix + "PDNS_URL"),
		PowerDNSToken:    os.Getenv(envPrefix + "PDNS_TOKEN"),
		PowerDNSServerID: getEnvDefault(envPrefix+"PDNS_SERVER_ID", "localhost"),
		SyncCrontab:      getEnvDefault(envPrefix+"SYNC_CRONTAB", "*/15 * * * *"),
		MQTTClientID:     getEnvDefault(envPrefix+"MQTT_CLIENT_ID", "netbox-pdns"),
		MQTTTopicPrefix:  getEnvDefault(envPrefix+"MQTT_TOPIC_PREFIX", "dns/zones"),
		MQTTUsername:     os.Getenv(envPrefix + "MQTT_USERNAME"),
		MQTTPassword:     os.Getenv(envPrefix + "MQTT_PASSWORD"),
		MQTTBrokerURL:    os.Getenv(envPrefix + "MQTT_BROKER_URL"),
	}

	if cfg.APIKey == "" {
		return nil, configErr("%sAPI_KEY is required", envPrefix)
	}
	if cfg.NetboxURL == "" {
		return nil, configErr("%sNB_URL is required", envPrefix)
	}
	if cfg.NetboxToken == "" {
		return nil, configErr("%sNB_TOKEN is required", envPrefix)
	}
	if cfg.PowerDNSURL == "" {
		return nil, configErr("%sPDNS_URL is required", envPrefix)
	}
	if cfg.PowerDNSToken == "" {
		return nil, configErr("%sPDNS_TOKEN is required", envPrefix)
	}

	nsID, err := strconv.Atoi(os.Getenv(envPrefix + "NB_NS_ID"))
	if err != nil || nsID <= 0 {
		return nil, configErr("%sNB_NS_ID must be a positive integer", envPrefix)
	}
	cfg.NameserverID = nsID

	level, err := parseLogLevel(getEnvDefault(envPrefix+"LOG_LEVEL", "INFO"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	managedTypesRaw := os.Getenv(envPrefix + "MANAGED_TYPES")
	if managedTypesRaw == "" {
		cfg.ManagedTypes = domain.NewManagedTypeSet(domain.DefaultManagedTypes)
	} else {
		cfg.ManagedTypes = domain.NewManagedTypeSet(splitList(managedTypesRaw))
	}

	cfg.MQTTEnabled = getEnvDefault(envPrefix+"MQTT_ENABLED", "false") == "true"
	if cfg.MQTTEnabled {
		if cfg.MQTTBrokerURL == "" {
			return nil, configErr("%sMQTT_BROKER_URL is required when MQTT_ENABLED=true", envPrefix)
		}
		if !strings.HasPrefix(cfg.MQTTBrokerURL, "mqtt://") && !strings.HasPrefix(cfg.MQTTBrokerURL, "mqtts://") {
			return nil, configErr("%sMQTT_BROKER_URL must use the mqtt:// or mqtts:// scheme", envPrefix)
		}
		if (cfg.MQTTUsername == "") != (cfg.MQTTPassword == "") {
			return nil, configErr("%sMQTT_USERNAME and MQTT_PASSWORD must be set together", envPrefix)
		}
	}

	qos, err := getEnvIntRange(envPrefix+"MQTT_QOS", 1, 0, 2)
	if err != nil {
		return nil, err
	}
	cfg.MQTTQoS = byte(qos)

	keepAlive, err := getEnvIntRange(envPrefix+"MQTT_KEEPALIVE", 60, 10, 3600)
	if err != nil {
		return nil, err
	}
	cfg.MQTTKeepAlive = keepAlive

	reconnectDelay, err := getEnvIntRange(envPrefix+"MQTT_RECONNECT_DELAY", 5, 1, 300)
	if err != nil {
		return nil, err
	}
	cfg.MQTTReconnectDelay = reconnectDelay

	return cfg, nil
}

func configErr(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, domain.ErrConfigInvalid)
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntRange(key string, def, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, configErr("%s must be an integer between %d and %d", key, min, max)
	}
	return v, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToUpper(raw) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return 0, configErr("LOG_LEVEL must be one of DEBUG/INFO/WARNING/ERROR/CRITICAL, got %q", raw)
	}
}

func splitList(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
