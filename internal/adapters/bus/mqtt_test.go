package bus

import (
	"encoding/json"
	"testing"
)

func TestZoneNameFromTopic(t *testing.T) {
	cases := []struct {
		topic, prefix, want string
	}{
		{"dns/zones/example.com/created", "dns/zones", "example.com"},
		{"dns/zones/example.com/updated", "dns/zones", "example.com"},
		{"dns/zones/sub.example.com/deleted", "dns/zones", "sub.example.com"},
		{"other/prefix/example.com/created", "dns/zones", ""},
		{"dns/zones/created", "dns/zones", ""},
	}
	for _, c := range cases {
		if got := zoneNameFromTopic(c.topic, c.prefix); got != c.want {
			t.Errorf("zoneNameFromTopic(%q, %q) = %q, want %q", c.topic, c.prefix, got, c.want)
		}
	}
}

func TestZoneEvent_DecodesNameFromPayload(t *testing.T) {
	var evt zoneEvent
	if err := json.Unmarshal([]byte(`{"id":7,"name":"example.com"}`), &evt); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if evt.Name != "example.com" {
		t.Errorf("expected name=example.com, got %q", evt.Name)
	}
}

func TestZoneEvent_MissingNameIsEmpty(t *testing.T) {
	var evt zoneEvent
	if err := json.Unmarshal([]byte(`{"id":7}`), &evt); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if evt.Name != "" {
		t.Errorf("expected empty name, got %q", evt.Name)
	}
}

func TestSubscriber_ConnectedDefaultsFalse(t *testing.T) {
	s := New(Config{BrokerURL: "tcp://localhost:1883", ClientID: "test", TopicPrefix: "dns/zones", QoS: 1, KeepAlive: 60, ReconnectDelay: 5}, nil, nil, nil)
	if s.Connected() {
		t.Error("expected a fresh subscriber to report not connected")
	}
}
