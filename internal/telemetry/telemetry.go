// Package telemetry publishes encoder events and playback status over MQTT.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/input"
)

// PlaybackStatus is a snapshot of the animation and display state.
type PlaybackStatus struct {
	Index      int     `json:"index"`
	Displayed  int     `json:"displayed"`
	Skipped    int     `json:"skipped"`
	Errors     int     `json:"errors"`
	Active     bool    `json:"active"`
	Screen     string  `json:"screen"`
	Brightness float64 `json:"brightness"`
	SensorOK   bool    `json:"sensor_ok"`
}

// EventMessage is the payload published on the encoder topic.
type EventMessage struct {
	input.EncoderEvent
	Time string `json:"time"`
}

// StatusMessage is the payload published on the playback topic.
type StatusMessage struct {
	PlaybackStatus
	Time string `json:"time"`
}

// IMUMessage is one evaluated sample with the translator's output.
type IMUMessage struct {
	imu.Sample
	Rotate int               `json:"rotate"`
	Button input.ButtonState `json:"button"`
	Armed  bool              `json:"armed"`
	Time   string            `json:"time"`
}

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

const publishTimeout = 2 * time.Second

// Publisher sends messages without waiting on the broker; delivery failures
// are logged from a separate goroutine.
type Publisher struct {
	client        publishClient
	topicEncoder  string
	topicPlayback string
	topicIMU      string
	now           func() time.Time
	disconnect    func()
}

func NewPublisher(client publishClient, topicEncoder, topicPlayback string) *Publisher {
	return &Publisher{
		client:        client,
		topicEncoder:  topicEncoder,
		topicPlayback: topicPlayback,
		now:           time.Now,
	}
}

// Connect dials MQTT_BROKER. The connect itself is the only blocking call.
func Connect(cfg *config.Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", cfg.MQTTBroker)

	p := NewPublisher(client, cfg.TopicEncoder, cfg.TopicPlayback)
	p.topicIMU = cfg.TopicIMU
	p.disconnect = func() { client.Disconnect(250) }
	return p, nil
}

// PublishEvent sends one encoder event.
func (p *Publisher) PublishEvent(ev input.EncoderEvent) {
	p.publish(p.topicEncoder, false, EventMessage{EncoderEvent: ev, Time: p.stamp()})
}

// PublishStatus sends a retained playback status.
func (p *Publisher) PublishStatus(st PlaybackStatus) {
	p.publish(p.topicPlayback, true, StatusMessage{PlaybackStatus: st, Time: p.stamp()})
}

// PublishIMU sends one evaluated sample. It is a no-op without an IMU topic.
func (p *Publisher) PublishIMU(s imu.Sample, ev input.EncoderEvent, armed bool) {
	if p.topicIMU == "" {
		return
	}
	p.publish(p.topicIMU, false, IMUMessage{
		Sample: s,
		Rotate: ev.RotationDelta,
		Button: ev.Button,
		Armed:  armed,
		Time:   p.stamp(),
	})
}

func (p *Publisher) stamp() string { return p.now().UTC().Format(time.RFC3339Nano) }

func (p *Publisher) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("telemetry: json marshal error (%s): %v", topic, err)
		return
	}
	token := p.client.Publish(topic, 0, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("telemetry: publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("telemetry: publish error (%s): %v", topic, err)
		}
	}()
}

func (p *Publisher) Close() {
	if p.disconnect != nil {
		p.disconnect()
	}
}
