package device

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/basesvc/correlator"
	"github.com/amankwa/attendance-services/internal/events"
)

// Topics of the capture device protocol.
const (
	TopicFaceCapture = "attendance/enroll/face"
	TopicResponse    = "attendance/enroll/response"
)

// ErrNotConnected is returned by Publish outside the Connected state.
var ErrNotConnected = errors.New("device bridge not connected")

const (
	// connectWait bounds how long Connect blocks on the first dial; the
	// client keeps retrying in the background after that.
	connectWait          = 5 * time.Second
	connectRetryInterval = 5 * time.Second
)

// ConnState is the bridge's view of the broker connection.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Lost
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Lost:
		return "lost"
	default:
		return "disconnected"
	}
}

// Config is the broker connection input. Credentials are optional; an
// empty username connects anonymously.
type Config struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
}

// Bridge owns the MQTT connection to the capture device. Inbound
// messages on the response topic are handed to the correlator in arrival
// order; outbound commands go through Publish.
type Bridge struct {
	cfg  Config
	corr *correlator.Correlator
	pub  events.Publisher

	mu     sync.Mutex
	state  ConnState
	client mqtt.Client

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func NewBridge(cfg Config, corr *correlator.Correlator, pub events.Publisher) *Bridge {
	return &Bridge{
		cfg:       cfg,
		corr:      corr,
		pub:       pub,
		newClient: mqtt.NewClient,
	}
}

// State reports the current connection state.
func (b *Bridge) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect dials the broker with a unique client identity and subscribes
// to the response channel. The client keeps reconnecting on its own after
// a loss; every state transition is published as a device-status event.
func (b *Bridge) Connect() error {
	scheme := "tcp"
	if b.cfg.TLS {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, b.cfg.Host, b.cfg.Port)).
		SetClientID("base-" + uuid.New().String()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetOrderMatters(true)

	if b.cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(b.onConnectionLost)

	b.setState(Connecting, "")

	client := b.newClient(opts)

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(connectWait) {
		// broker not reachable yet; the client keeps dialing and
		// onConnect fires once it is
		log.Warnf("device broker not reachable yet, retrying every %s", connectRetryInterval)
		return nil
	}
	if token.Error() != nil {
		b.setState(Disconnected, token.Error().Error())
		return fmt.Errorf("connect to device broker: %w", token.Error())
	}
	return nil
}

// Disconnect tears the connection down for shutdown.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	client := b.client
	b.client = nil
	b.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
	b.setState(Disconnected, "")
}

// Publish sends a payload on a device topic.
func (b *Bridge) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	client, state := b.client, b.state
	b.mu.Unlock()

	if state != Connected || client == nil {
		return ErrNotConnected
	}

	token := client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

// TriggerCapture publishes the capture command and returns the
// correlation key. The command is registered before it is published so a
// device answering immediately still finds it pending.
func (b *Bridge) TriggerCapture() (string, error) {
	key := b.corr.Register(correlator.TypeFaceCapture)
	if err := b.Publish(TopicFaceCapture, []byte("{}")); err != nil {
		b.corr.Cancel(correlator.TypeFaceCapture, key)
		return "", err
	}
	return key, nil
}

func (b *Bridge) onConnect(client mqtt.Client) {
	token := client.Subscribe(TopicResponse, 1, b.onResponse)
	if token.Wait() && token.Error() != nil {
		log.Errorf("subscribe to %s failed: %v", TopicResponse, token.Error())
	}
	b.setState(Connected, "")
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	b.setState(Lost, err.Error())
}

func (b *Bridge) onResponse(_ mqtt.Client, msg mqtt.Message) {
	var r correlator.Response
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		log.Warnf("malformed device response on %s: %v", msg.Topic(), err)
		return
	}
	b.corr.HandleResponse(correlator.TypeFaceCapture, r)
}

func (b *Bridge) setState(s ConnState, detail string) {
	b.mu.Lock()
	prev := b.state
	b.state = s
	b.mu.Unlock()

	if prev == s {
		return
	}
	log.Infof("device broker %s", s)
	b.pub.Publish(events.TypeDeviceStatus, events.DeviceStatus{State: s.String(), Detail: detail})
}
