package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/meterlink/internal/infrastructure/config"
)

const testBrokerAddr = "127.0.0.1:1883"

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "meterlink-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test unless a broker is listening locally.
func requireBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testBrokerAddr, 200*time.Millisecond)
	if err != nil {
		t.Skipf("no MQTT broker at %s: %v", testBrokerAddr, err)
	}
	conn.Close()
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+": "+msg)
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *recordingLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if strings.Contains(m, s) {
			return true
		}
	}
	return false
}

// =============================================================================
// Unit Tests (no broker)
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Readings", Topics{}.Readings("gems", "b-1"), "meterlink/readings/gems/b-1"},
		{"AllReadings", Topics{}.AllReadings(), "meterlink/readings/#"},
		{"SystemStatus", Topics{}.SystemStatus(), "meterlink/system/status"},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
		}
	}
}

func TestValidPublishTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{"meterlink/readings/iaq/b-1", true},
		{"", false},
		{"meterlink/readings/#", false},
		{"meterlink/+/status", false},
	}

	for _, tt := range tests {
		if got := validPublishTopic(tt.topic); got != tt.want {
			t.Errorf("validPublishTopic(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestStatusPayload(t *testing.T) {
	var msg statusMessage
	if err := json.Unmarshal([]byte(statusPayload(statusOffline, "meterlink-01", "graceful_shutdown")), &msg); err != nil {
		t.Fatalf("status payload is not JSON: %v", err)
	}

	if msg.Status != "offline" || msg.ClientID != "meterlink-01" || msg.Reason != "graceful_shutdown" {
		t.Errorf("statusPayload = %+v", msg)
	}
	if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", msg.Timestamp, err)
	}

	if strings.Contains(statusPayload(statusOnline, "x", ""), "reason") {
		t.Error("online payload should omit an empty reason")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "collector"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [ssl://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "meterlink-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "collector" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig = nil with TLS enabled")
	}
	if opts.WillTopic != (Topics{}).SystemStatus() || !opts.WillRetained {
		t.Errorf("LWT = %q retained=%v", opts.WillTopic, opts.WillRetained)
	}
	if !strings.Contains(string(opts.WillPayload), "unexpected_disconnect") {
		t.Errorf("LWT payload = %s", opts.WillPayload)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", nil, 1, ErrInvalidTopic},
		{"wildcard topic", "meterlink/readings/#", nil, 1, ErrInvalidTopic},
		{"invalid qos", "meterlink/x", nil, 3, ErrInvalidQoS},
		{"payload too large", "meterlink/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "meterlink/x", []byte("{}"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishJSON_EncodeError(t *testing.T) {
	client := &Client{}

	err := client.PublishJSON("meterlink/x", make(chan int))
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON() error = %v, want ErrPublishFailed", err)
	}
}

func TestRunCallbackRecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	client := &Client{}
	client.SetLogger(logger)

	client.runCallback("connect", func() { panic("boom") })

	if !logger.contains("panic recovered") {
		t.Errorf("expected recovered panic to be logged, got %v", logger.msgs)
	}
}

func TestHandleDisconnectNotifies(t *testing.T) {
	logger := &recordingLogger{}
	client := &Client{connected: true}
	client.SetLogger(logger)

	var got error
	client.SetOnDisconnect(func(err error) { got = err })

	cause := errors.New("EOF")
	client.handleDisconnect(cause)

	if got != cause {
		t.Errorf("disconnect callback error = %v, want %v", got, cause)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
	if !logger.contains("connection lost") {
		t.Errorf("expected connection loss to be logged, got %v", logger.msgs)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the connect timeout")
	}
	cfg := testConfig()
	cfg.Broker.Port = 19998

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Broker Tests
// =============================================================================

func TestConnectPublishClose(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	topic := Topics{}.Readings("gems", "test-building")
	if err := client.PublishJSON(topic, map[string]any{"sensor_type": "gems", "data": []any{}}); err != nil {
		t.Errorf("PublishJSON() error = %v", err)
	}
	if err := client.PublishRetained(Topics{}.SystemStatus(), []byte(`{"status":"online"}`)); err != nil {
		t.Errorf("PublishRetained() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.Publish(topic, nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close() error = %v, want ErrNotConnected", err)
	}
}

func TestReadingsRoundtrip(t *testing.T) {
	requireBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "meterlink-test-roundtrip"
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	subOpts := buildClientOptions(testConfig())
	subOpts.SetClientID("meterlink-test-subscriber")
	sub := pahomqtt.NewClient(subOpts)
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}
	defer sub.Disconnect(100)

	tok := sub.Subscribe(Topics{}.AllReadings(), 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		received <- msg.Topic()
	})
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe failed: %v", tok.Error())
	}

	topic := Topics{}.Readings("iaq", fmt.Sprintf("b-%d", time.Now().UnixNano()))
	if err := client.PublishJSON(topic, map[string]string{"sensor_type": "iaq"}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case got := <-received:
		if got != topic {
			t.Errorf("received on %q, want %q", got, topic)
		}
	case <-time.After(3 * time.Second):
		t.Error("message not received")
	}
}
