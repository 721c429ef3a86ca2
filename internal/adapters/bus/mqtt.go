// Package bus subscribes to zone change events published over MQTT by the
// inventory system, feeding them to the reconciler as message-bus-sourced
// sync intents.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
	"github.com/poyrazK/netbox-pdns-sync/internal/sync"
)

const maxReconnectDelay = 60 * time.Second

// eventQueueDepth bounds the buffer between paho's callback goroutine and
// the reconcile worker. A full queue means reconciles are falling behind
// message-bus traffic; events are dropped rather than blocking the
// callback, since the next scheduled full sync will still pick up any
// zone a dropped event was about.
const eventQueueDepth = 256

// zoneEvent is the inbound message-bus payload for a zone change
// notification. Unknown fields are ignored.
type zoneEvent struct {
	Name string `json:"name"`
}

// Subscriber connects to an MQTT broker and turns inventory zone-change
// notifications into gated single-zone reconciles.
type Subscriber struct {
	brokerURL     string
	clientID      string
	topicPrefix   string
	username      string
	password      string
	qos           byte
	keepAlive     int
	reconnectBase time.Duration

	gate       ports.Gate
	reconciler ports.Reconciler
	logger     *slog.Logger

	client    mqtt.Client
	connected atomic.Bool

	// events decouples paho's callback goroutine from the reconcile loop:
	// handleMessage only ever enqueues, the worker goroutine started by
	// Start is the sole caller of sync.ReconcileUnderGate, so the core is
	// never re-entered from the MQTT client's own goroutine.
	events       chan string
	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// Config carries the MQTT connection parameters from internal/config.
type Config struct {
	BrokerURL      string
	ClientID       string
	TopicPrefix    string
	Username       string
	Password       string
	QoS            byte
	KeepAlive      int
	ReconnectDelay int
}

// New builds a Subscriber. It does not connect until Start is called.
func New(cfg Config, gate ports.Gate, reconciler ports.Reconciler, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		brokerURL:     cfg.BrokerURL,
		clientID:      cfg.ClientID,
		topicPrefix:   cfg.TopicPrefix,
		username:      cfg.Username,
		password:      cfg.Password,
		qos:           cfg.QoS,
		keepAlive:     cfg.KeepAlive,
		reconnectBase: time.Duration(cfg.ReconnectDelay) * time.Second,
		gate:          gate,
		reconciler:    reconciler,
		logger:        logger,
		events:        make(chan string, eventQueueDepth),
	}
}

// Start connects to the broker and subscribes to every zone-event topic.
// paho's own client handles reconnection once connected; this method's
// reconnect-with-backoff loop covers the initial connection attempt only.
func (s *Subscriber) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.brokerURL).
		SetClientID(s.clientID).
		SetKeepAlive(time.Duration(s.keepAlive) * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxReconnectDelay).
		SetConnectionLostHandler(s.onConnectionLost).
		SetOnConnectHandler(s.onConnect)

	if s.username != "" {
		opts.SetUsername(s.username)
		opts.SetPassword(s.password)
	}

	s.client = mqtt.NewClient(opts)

	workerCtx, cancel := context.WithCancel(context.Background())
	s.workerCancel = cancel
	s.workerDone = make(chan struct{})
	go s.runWorker(workerCtx)

	delay := s.reconnectBase
	if delay <= 0 {
		delay = 5 * time.Second
	}
	for {
		token := s.client.Connect()
		if token.WaitTimeout(10*time.Second) && token.Error() == nil {
			s.logger.Info("connected to message bus", "broker", s.brokerURL)
			return nil
		}
		s.logger.Warn("message bus connection attempt failed", "error", token.Error(), "retry_in", delay)

		select {
		case <-ctx.Done():
			cancel()
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runWorker is the sole consumer of s.events and the sole caller of
// sync.ReconcileUnderGate, keeping the gate-acquire-and-reconcile path off
// of paho's callback goroutine.
func (s *Subscriber) runWorker(ctx context.Context) {
	defer close(s.workerDone)
	for {
		select {
		case <-ctx.Done():
			return
		case zoneName := <-s.events:
			sync.ReconcileUnderGate(ctx, s.gate, s.reconciler, zoneName, domain.SourceMessageBus, s.logger)
		}
	}
}

// Stop disconnects the client and stops the reconcile worker, without
// draining queued events; the next process startup reconciles everything
// it may have missed.
func (s *Subscriber) Stop(ctx context.Context) {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	s.connected.Store(false)

	if s.workerCancel != nil {
		s.workerCancel()
	}
	if s.workerDone != nil {
		select {
		case <-s.workerDone:
		case <-ctx.Done():
		}
	}
}

// Connected reports the subscriber's current broker connection state.
func (s *Subscriber) Connected() bool {
	return s.connected.Load()
}

func (s *Subscriber) onConnect(client mqtt.Client) {
	s.connected.Store(true)
	metrics.MessageBusConnected.Set(1)

	for _, event := range []string{"created", "updated", "deleted"} {
		topic := fmt.Sprintf("%s/+/%s", s.topicPrefix, event)
		if token := client.Subscribe(topic, s.qos, s.handleMessage); token.Wait() && token.Error() != nil {
			s.logger.Error("failed to subscribe", "topic", topic, "error", token.Error())
		}
	}
}

func (s *Subscriber) onConnectionLost(client mqtt.Client, err error) {
	s.connected.Store(false)
	metrics.MessageBusConnected.Set(0)
	s.logger.Warn("message bus connection lost", "error", err)
}

// handleMessage parses the zone name out of the topic wildcard, falling
// back to decoding the message body as {"name": string} when the topic
// shape is unrecognized, then enqueues it for the worker goroutine. Parse
// failures are logged at WARNING and discarded, never crash the subscriber
// loop; this callback never blocks and never reconciles directly.
func (s *Subscriber) handleMessage(client mqtt.Client, msg mqtt.Message) {
	zoneName := zoneNameFromTopic(msg.Topic(), s.topicPrefix)
	if zoneName == "" {
		var evt zoneEvent
		if err := json.Unmarshal(msg.Payload(), &evt); err != nil || evt.Name == "" {
			s.logger.Warn("discarding message bus event: cannot determine zone name", "topic", msg.Topic())
			return
		}
		zoneName = evt.Name
	}

	s.logger.Debug("message bus event received", "zone", zoneName, "topic", msg.Topic())
	select {
	case s.events <- zoneName:
	default:
		s.logger.Warn("message bus event queue full, dropping event", "zone", zoneName)
	}
}

// zoneNameFromTopic extracts the URL-safe zone name from the middle
// wildcard of "<prefix>/<zone>/<event>".
func zoneNameFromTopic(topic, prefix string) string {
	rest := strings.TrimPrefix(topic, prefix+"/")
	if rest == topic {
		return ""
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		return ""
	}
	return parts[0]
}
