package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

// RunConsoleMQTT prints encoder events and playback status published by a
// running holocube.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not set")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := []struct {
		topic  string
		format func([]byte) (string, error)
	}{
		{cfg.TopicEncoder, telemetry.FormatEvent},
		{cfg.TopicPlayback, telemetry.FormatStatus},
	}
	for _, sub := range subs {
		sub := sub
		token := client.Subscribe(sub.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := sub.format(msg.Payload())
			if err != nil {
				log.Printf("console: %s unmarshal error: %v", sub.topic, err)
				return
			}
			fmt.Println(line)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", sub.topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
