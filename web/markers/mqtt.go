package markers

import (
	"encoding/json"
	"time"

	"github.com/edaniels/golog"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/armature-robotics/interaction/interaction"
)

// DefaultFeedbackTopic is the MQTT topic feedback events are read from when none is configured.
const DefaultFeedbackTopic = "interaction/feedback"

// MQTTSourceConfig configures a connection to an MQTT broker carrying marker feedback.
type MQTTSourceConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string
	// ClientID identifies this client to the broker.
	ClientID string
	// Username and Password are optional broker credentials.
	Username string
	Password string
	// Topic is the feedback topic, DefaultFeedbackTopic if empty.
	Topic string
}

// MQTTSource subscribes to a feedback topic on an MQTT broker and dispatches each received
// FeedbackMessage into a RobotInteraction. Useful for embedded marker clients that speak MQTT
// instead of WebSocket.
type MQTTSource struct {
	client mqtt.Client
	ri     *interaction.RobotInteraction
	logger golog.Logger
	topic  string
}

// NewMQTTSource connects to the broker and subscribes to the feedback topic. The subscription is
// re-established automatically after reconnects.
func NewMQTTSource(cfg MQTTSourceConfig, ri *interaction.RobotInteraction, logger golog.Logger) (*MQTTSource, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultFeedbackTopic
	}
	source := &MQTTSource{ri: ri, logger: logger, topic: topic}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)
	opts.SetOnConnectHandler(source.onConnect)
	opts.SetConnectionLostHandler(source.onConnectionLost)

	source.client = mqtt.NewClient(opts)
	if token := source.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connecting to MQTT broker")
	}
	return source, nil
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
		s.logger.Debug("disconnected from MQTT broker")
	}
}

func (s *MQTTSource) onConnect(client mqtt.Client) {
	if token := client.Subscribe(s.topic, 1, s.handleMessage); token.Wait() && token.Error() != nil {
		s.logger.Errorw("cannot subscribe to feedback topic", "topic", s.topic, "error", token.Error())
		return
	}
	s.logger.Infow("subscribed to feedback topic", "topic", s.topic)
}

func (s *MQTTSource) onConnectionLost(client mqtt.Client, err error) {
	s.logger.Warnw("MQTT connection lost, reconnecting", "error", err)
}

func (s *MQTTSource) handleMessage(client mqtt.Client, msg mqtt.Message) {
	var wire FeedbackMessage
	if err := json.Unmarshal(msg.Payload(), &wire); err != nil {
		s.logger.Debugw("bad feedback payload", "topic", msg.Topic(), "error", err)
		return
	}
	feedback, err := wire.Feedback()
	if err != nil {
		s.logger.Debugw("bad feedback message", "topic", msg.Topic(), "error", err)
		return
	}
	if err := s.ri.DispatchFeedback(feedback); err != nil {
		s.logger.Debugw("feedback dropped", "topic", msg.Topic(), "error", err)
	}
}
