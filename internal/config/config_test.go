package config

import (
	"errors"
	"os"
	"testing"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range os.Environ() {
		if len(e) > len(envPrefix) && e[:len(envPrefix)] == envPrefix {
			key := e[:indexByte(e, '=')]
			os.Unsetenv(key)
		}
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return len(s)
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envPrefix+"API_KEY", "test-key")
	t.Setenv(envPrefix+"NB_URL", "https://netbox.example.com")
	t.Setenv(envPrefix+"NB_TOKEN", "nb-token")
	t.Setenv(envPrefix+"NB_NS_ID", "1")
	t.Setenv(envPrefix+"PDNS_URL", "http://pdns.example.com:8081")
	t.Setenv(envPrefix+"PDNS_TOKEN", "pdns-token")
}

func TestLoad_SucceedsWithRequiredFieldsOnly(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NameserverID != 1 {
		t.Errorf("expected NameserverID=1, got %d", cfg.NameserverID)
	}
	if cfg.SyncCrontab != "*/15 * * * *" {
		t.Errorf("unexpected default crontab: %q", cfg.SyncCrontab)
	}
	if cfg.PowerDNSServerID != "localhost" {
		t.Errorf("unexpected default server id: %q", cfg.PowerDNSServerID)
	}
	if !cfg.ManagedTypes.Contains("A") {
		t.Error("expected default managed types to include A")
	}
}

func TestLoad_MissingRequiredFieldFails(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	os.Unsetenv(envPrefix + "API_KEY")

	_, err := Load()
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_RejectsNonPositiveNameserverID(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"NB_NS_ID", "0")

	_, err := Load()
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"LOG_LEVEL", "VERBOSE")

	_, err := Load()
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_MQTTRequiresBrokerURLWhenEnabled(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"MQTT_ENABLED", "true")

	_, err := Load()
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_MQTTRejectsUsernameWithoutPassword(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"MQTT_ENABLED", "true")
	t.Setenv(envPrefix+"MQTT_BROKER_URL", "mqtt://broker.example.com:1883")
	t.Setenv(envPrefix+"MQTT_USERNAME", "bob")

	_, err := Load()
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_MQTTValidConfiguration(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"MQTT_ENABLED", "true")
	t.Setenv(envPrefix+"MQTT_BROKER_URL", "mqtts://broker.example.com:8883")
	t.Setenv(envPrefix+"MQTT_QOS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTTQoS != 2 {
		t.Errorf("expected QoS=2, got %d", cfg.MQTTQoS)
	}
	if cfg.MQTTClientID != "netbox-pdns" {
		t.Errorf("unexpected default client id: %q", cfg.MQTTClientID)
	}
}

func TestLoad_CustomManagedTypes(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv(envPrefix+"MANAGED_TYPES", "A, AAAA,CNAME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.ManagedTypes.Contains("AAAA") || cfg.ManagedTypes.Contains("MX") {
		t.Errorf("unexpected managed types: %+v", cfg.ManagedTypes)
	}
}
